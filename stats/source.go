package stats

import (
	"log"

	"github.com/cilium/ebpf"

	"cpumapmon/model"
)

// Source 是一个计数组的读取入口
// 抽象成接口是为了能在测试里用脚本化数据替换真实的 eBPF map
type Source interface {
	// Collect 读出 key 对应的全部逻辑核计数，写进 rec 并打时间戳
	// 读失败返回 false 且 rec 保持原样，本周期沿用旧值
	Collect(key uint32, rec *model.Record) bool
}

// MapSource 从一个 percpu 类型的 BPF map 里读计数
// scratch 只是中转落点：percpu Lookup 每次都会在库内部
// 重新分配切片换掉它，这笔分配由库决定，省不下来
type MapSource struct {
	m       *ebpf.Map
	name    string
	scratch []model.DataRec
	now     func() uint64
}

func NewMapSource(m *ebpf.Map, name string, ncpu int) *MapSource {
	return &MapSource{
		m:       m,
		name:    name,
		scratch: make([]model.DataRec, ncpu),
		now:     Now,
	}
}

func (s *MapSource) Collect(key uint32, rec *model.Record) bool {
	// 先落到 scratch，确认成功才动 rec，失败时不留半截数据
	if err := s.m.Lookup(key, &s.scratch); err != nil {
		log.Printf("map %s lookup key:0x%X 失败: %v", s.name, key, err)
		return false
	}
	// 时间戳在 map 读完之后立刻打，压缩读取和打戳之间的偏差
	fill(rec, s.scratch, s.now())
	return true
}

// fill 把一次原始读数写进 rec：逐核拷贝、求和出 Total
func fill(rec *model.Record, vals []model.DataRec, ts uint64) {
	var sumProcessed, sumDropped uint64
	for i := range vals {
		rec.CPU[i] = vals[i]
		sumProcessed += vals[i].Processed
		sumDropped += vals[i].Dropped
	}
	rec.Timestamp = ts
	rec.Total = model.DataRec{Processed: sumProcessed, Dropped: sumDropped}
}
