//go:build linux

package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/rlimit"
	"golang.org/x/term"

	"cpumapmon/stats"
)

// 退出码沿用内核 sample 的约定
const (
	exitOK = iota
	exitFail
	exitFailOption
	exitFailXDP
	exitFailBPF
	exitFailMem
)

// redirect 目标数量上限，必须和内核对象里的 MAX_CPUS 一致
const maxTargets = 12

// 内核对象里可选的 XDP 程序，按 --prognum 下标挑
var progNames = [...]string{
	"xdp_cpu_map0",
	"xdp_cpu_map1_touch_data",
	"xdp_cpu_map2_round_robin",
	"xdp_cpu_map3_proto_separate",
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		dev      = flag.String("dev", "", "要挂 XDP 程序的网卡 (必填)")
		objPath  = flag.String("obj", "xdp_redirect_cpu_kern.o", "编译好的 BPF 对象文件路径")
		interval = flag.Int("sec", 2, "报表输出间隔 (秒)")
		prognum  = flag.Int("prognum", 0, "选用对象里的第几个 XDP 程序 (0-3)")
		qsize    = flag.Uint("qsize", 128+64, "cpumap 里每个目标 CPU 的接收队列长度")
		cpus     = flag.String("cpus", "0,1,2,3,4", "要写进 cpu_map 的目标 CPU 列表 (逗号分隔)")
		skbMode  = flag.Bool("skb-mode", false, "用 generic/SKB 模式挂载 XDP")
		tui      = flag.Bool("tui", false, "全屏 TUI 报表 (stdout 不是终端时退回纯文本)")
	)
	flag.Parse()

	if *dev == "" {
		fmt.Fprintln(os.Stderr, "ERR: 必须用 --dev 指定网卡")
		flag.Usage()
		return exitFailOption
	}
	if *interval <= 0 {
		fmt.Fprintln(os.Stderr, "ERR: --sec 必须是正数")
		return exitFailOption
	}
	if *prognum < 0 || *prognum >= len(progNames) {
		fmt.Fprintf(os.Stderr, "ERR: --prognum 超出范围 (0-%d)\n", len(progNames)-1)
		return exitFailOption
	}
	iface, err := net.InterfaceByName(*dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERR: --dev %s: %v\n", *dev, err)
		return exitFailOption
	}

	// 1. 解除内存锁定限制，否则访问 map 会被默认的 RLIMIT_MEMLOCK 卡住
	if err := rlimit.RemoveMemlock(); err != nil {
		log.Printf("remove memlock: %v", err)
		return exitFail
	}

	// 2. 把内核 sample 预编译出来的 BPF 对象整个加载进来
	coll, err := ebpf.LoadCollection(*objPath)
	if err != nil {
		log.Printf("loading %s: %v", *objPath, err)
		return exitFailBPF
	}
	defer coll.Close()

	// 逻辑核数 N 启动时查一次，之后所有 per-core 数组都按它定长
	ncpu, err := ebpf.PossibleCPU()
	if err != nil {
		log.Printf("possible cpus: %v", err)
		return exitFail
	}

	// 3. 往 cpu_map 里写目标 CPU 表项，内核会为每个表项起一个 kthread
	if err := createCPUEntries(coll.Maps["cpu_map"], *cpus, uint32(*qsize)); err != nil {
		log.Printf("%v", err)
		return exitFailBPF
	}

	// 4. 组装轮询引擎：四个计数 map → 双快照仓库 → 报表
	src, err := counterSources(coll, ncpu)
	if err != nil {
		log.Printf("%v", err)
		return exitFailBPF
	}
	store := stats.NewStore(src, ncpu, maxTargets)

	var rep stats.Reporter = stats.NewTableReporter(os.Stdout)
	var tuiRep *tuiReporter
	if *tui {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			t, err := newTUIReporter()
			if err != nil {
				log.Printf("%v", err)
				return exitFail
			}
			defer t.Close()
			tuiRep = t
			rep = t
		} else {
			log.Printf("stdout 不是终端，--tui 退回纯文本输出")
		}
	}

	// 5. 挂载 XDP 程序，进程退出时 defer 摘掉
	prog := coll.Programs[progNames[*prognum]]
	if prog == nil {
		log.Printf("对象里找不到程序 %q", progNames[*prognum])
		return exitFailBPF
	}
	var xdpFlags link.XDPAttachFlags
	if *skbMode {
		xdpFlags = link.XDPGenericMode
	}
	l, err := link.AttachXDP(link.XDPOptions{
		Program:   prog,
		Interface: iface.Index,
		Flags:     xdpFlags,
	})
	if err != nil {
		log.Printf("attach xdp to %s: %v", *dev, err)
		return exitFailXDP
	}
	defer l.Close()

	// 6. 中断只置取消标志，摘程序等清理动作都走 defer
	//    不在信号上下文里碰正在采集/渲染的共享状态
	poller := stats.NewPoller(store, rep)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		var tuiDone <-chan struct{}
		if tuiRep != nil {
			tuiDone = tuiRep.Done()
		}
		select {
		case <-sig:
			fmt.Fprintf(os.Stderr,
				"Interrupted: removing XDP program on ifindex:%d device:%s\n",
				iface.Index, *dev)
		case <-tuiDone:
		}
		poller.Stop()
	}()

	poller.Start(time.Duration(*interval) * time.Second)
	return exitOK
}

// counterSources 按名字从对象里捞出四个计数 map
// 名字和内核侧 _kern.c 保持一致
func counterSources(coll *ebpf.Collection, ncpu int) (stats.Sources, error) {
	var src stats.Sources
	for _, e := range []struct {
		name string
		dst  *stats.Source
	}{
		{"rx_cnt", &src.RxCnt},
		{"redirect_err_cnt", &src.RedirErr},
		{"cpumap_enqueue_cnt", &src.Enqueue},
		{"cpumap_kthread_cnt", &src.Kthread},
	} {
		m, ok := coll.Maps[e.name]
		if !ok {
			return src, fmt.Errorf("对象里找不到 map %q", e.name)
		}
		*e.dst = stats.NewMapSource(m, e.name, ncpu)
	}
	return src, nil
}

// createCPUEntries 把目标 CPU 列表逐个写进 cpu_map
// 写入表项时内核才会给这个 CPU 分配接收队列
func createCPUEntries(m *ebpf.Map, list string, qsize uint32) error {
	if m == nil {
		return fmt.Errorf("对象里找不到 map %q", "cpu_map")
	}
	for _, f := range strings.Split(list, ",") {
		cpu, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return fmt.Errorf("--cpus 项 %q: %w", f, err)
		}
		if err := m.Update(uint32(cpu), qsize, ebpf.UpdateAny); err != nil {
			return fmt.Errorf("create cpu entry %d: %w", cpu, err)
		}
	}
	return nil
}
