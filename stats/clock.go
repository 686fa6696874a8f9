package stats

import (
	"log"

	"golang.org/x/sys/unix"
)

const nanosecPerSec = 1_000_000_000

// Now 返回单调时钟的当前纳秒数
// 所有速率计算都依赖它，拿不到就没法继续，直接退出
func Now() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		log.Fatalf("clock_gettime(CLOCK_MONOTONIC): %v", err)
	}
	return uint64(ts.Sec)*nanosecPerSec + uint64(ts.Nsec)
}
