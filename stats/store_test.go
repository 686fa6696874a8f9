package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpumapmon/model"
)

// fakeSource 记录收到的 key，并按 fill 脚本回放读数
type fakeSource struct {
	calls []uint32
	fill  func(key uint32, rec *model.Record) bool
}

func (f *fakeSource) Collect(key uint32, rec *model.Record) bool {
	f.calls = append(f.calls, key)
	if f.fill == nil {
		return true
	}
	return f.fill(key, rec)
}

func fakeSources() (Sources, *fakeSource, *fakeSource, *fakeSource, *fakeSource) {
	rx := &fakeSource{}
	redir := &fakeSource{}
	enq := &fakeSource{}
	kthread := &fakeSource{}
	return Sources{RxCnt: rx, RedirErr: redir, Enqueue: enq, Kthread: kthread},
		rx, redir, enq, kthread
}

func TestCollectWalksFixedGroupSet(t *testing.T) {
	src, rx, redir, enq, kthread := fakeSources()
	s := NewStore(src, 2, 3)

	s.Collect()

	assert.Equal(t, []uint32{KeyRxCnt}, rx.calls)
	assert.Equal(t, []uint32{KeyRedirErr}, redir.calls)
	assert.Equal(t, []uint32{0, 1, 2}, enq.calls)
	assert.Equal(t, []uint32{KeyKthread}, kthread.calls)
}

func TestSwapIsItsOwnInverse(t *testing.T) {
	src, _, _, _, _ := fakeSources()
	s := NewStore(src, 2, 1)

	cur, prev := s.Current(), s.Previous()
	require.NotSame(t, cur, prev)

	s.Swap()
	assert.Same(t, prev, s.Current())
	assert.Same(t, cur, s.Previous())

	s.Swap()
	assert.Same(t, cur, s.Current())
	assert.Same(t, prev, s.Previous())
}

func TestFailedReadLeavesRecordUntouched(t *testing.T) {
	src, rx, _, _, _ := fakeSources()

	// 第一轮写入真实读数，第二轮读失败
	ok := true
	rx.fill = func(key uint32, rec *model.Record) bool {
		if !ok {
			return false
		}
		fill(rec, []model.DataRec{{Processed: 10, Dropped: 1}, {Processed: 20, Dropped: 2}}, 42)
		return true
	}
	s := NewStore(src, 2, 1)

	s.Collect()
	before := s.Current().RxCnt
	beforeCPU := append([]model.DataRec(nil), before.CPU...)

	ok = false
	s.Collect()

	after := s.Current().RxCnt
	assert.Equal(t, before.Timestamp, after.Timestamp)
	assert.Equal(t, before.Total, after.Total)
	assert.Equal(t, beforeCPU, after.CPU)
}

func TestFillSumsTotalAtReadTime(t *testing.T) {
	rec := model.Record{CPU: make([]model.DataRec, 3)}
	vals := []model.DataRec{
		{Processed: 100, Dropped: 7},
		{Processed: 200, Dropped: 0},
		{Processed: 300, Dropped: 3},
	}

	fill(&rec, vals, 99)

	assert.Equal(t, uint64(99), rec.Timestamp)
	assert.Equal(t, vals, rec.CPU)
	assert.Equal(t, model.DataRec{Processed: 600, Dropped: 10}, rec.Total)
}
