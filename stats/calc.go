package stats

import (
	"math"

	"cpumapmon/model"
)

// 速率计算全是纯函数，作用在同一计数组先后两次读数上 (r=本次, p=上次)

// Period 返回两次采样之间经过的秒数
// 时间戳相等或倒退时返回 0，调用方据此把速率也归零
func Period(r, p *model.Record) float64 {
	if r.Timestamp <= p.Timestamp {
		return 0
	}
	return float64(r.Timestamp-p.Timestamp) / nanosecPerSec
}

// PPS 返回 processed 计数在 period 秒内的每秒增量，四舍五入到整数
// 计数回退 (外部子系统重启过) 时压到 0，不让无符号减法回绕出天文数字
func PPS(r, p *model.DataRec, period float64) uint64 {
	if period <= 0 || r.Processed < p.Processed {
		return 0
	}
	return uint64(math.Round(float64(r.Processed-p.Processed) / period))
}

// DropPPS 同 PPS，换成 dropped 计数
func DropPPS(r, p *model.DataRec, period float64) uint64 {
	if period <= 0 || r.Dropped < p.Dropped {
		return 0
	}
	return uint64(math.Round(float64(r.Dropped-p.Dropped) / period))
}
