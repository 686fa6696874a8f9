package stats

import "cpumapmon/model"

// 各计数组在对应 map 里的 key，和内核侧 _kern.c 保持一致
const (
	KeyRxCnt    uint32 = 0
	KeyRedirErr uint32 = 1
	KeyKthread  uint32 = 0
)

// Sources 把四个计数组的读取入口聚在一起交给 Store
// Enqueue 的 key 是 redirect 目标编号，其余都是固定 key
type Sources struct {
	RxCnt    Source
	RedirErr Source
	Enqueue  Source
	Kthread  Source
}

// Store 持有当前/上一个两份快照，负责采集和换页
// 两份快照只在 NewStore 里分配一次，之后只靠 Swap 交换角色
type Store struct {
	src  Sources
	cur  *model.Snapshot
	prev *model.Snapshot
}

func NewStore(src Sources, ncpu, ntargets int) *Store {
	return &Store{
		src:  src,
		cur:  model.NewSnapshot(ncpu, ntargets),
		prev: model.NewSnapshot(ncpu, ntargets),
	}
}

// Collect 把全部被跟踪的计数组读进当前快照
// 某个组读失败就保留它上次的值 (等效零增量)，绝不中断本周期
func (s *Store) Collect() {
	s.src.RxCnt.Collect(KeyRxCnt, &s.cur.RxCnt)
	s.src.RedirErr.Collect(KeyRedirErr, &s.cur.RedirErr)
	for t := range s.cur.Enq {
		s.src.Enqueue.Collect(uint32(t), &s.cur.Enq[t])
	}
	s.src.Kthread.Collect(KeyKthread, &s.cur.Kthread)
}

// Swap 交换两份快照的角色，O(1) 指针交换，不拷数据
// 连做两次等于没做
func (s *Store) Swap() {
	s.cur, s.prev = s.prev, s.cur
}

// Current / Previous 是给 Reporter 的只读视图
func (s *Store) Current() *model.Snapshot  { return s.cur }
func (s *Store) Previous() *model.Snapshot { return s.prev }
