package model

// DataRec 对应 eBPF percpu map 里的 Value (一个逻辑核的一对计数)
// 内核侧 _kern.c 里是同样的结构，计数只增不减，除非内核侧被重载
type DataRec struct {
	Processed uint64
	Dropped   uint64
}

// Record 是一个计数组在某个采样时刻的完整读数
type Record struct {
	Timestamp uint64    // 单调时钟纳秒数，map 读完之后打的
	Total     DataRec   // 读取时刻所有核的和
	CPU       []DataRec // 按逻辑核下标 0..N-1
}

// Snapshot 是全部被跟踪计数组的一份完整快照
// 整个进程只分配两份 (当前/上一个)，之后只换角色不换内存
type Snapshot struct {
	RxCnt    Record
	RedirErr Record
	Kthread  Record
	Enq      []Record // 按 redirect 目标下标 0..T-1
}

// NewSnapshot 分配一份全零快照，所有 per-core 切片按 ncpu 定长
// 运行期间不再为快照做任何分配
func NewSnapshot(ncpu, ntargets int) *Snapshot {
	s := &Snapshot{
		RxCnt:    newRecord(ncpu),
		RedirErr: newRecord(ncpu),
		Kthread:  newRecord(ncpu),
		Enq:      make([]Record, ntargets),
	}
	for i := range s.Enq {
		s.Enq[i] = newRecord(ncpu)
	}
	return s
}

func newRecord(ncpu int) Record {
	return Record{CPU: make([]DataRec, ncpu)}
}
