package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpumapmon/model"
)

// chanReporter 每渲染一块就往 ch 发一下，顺带留住首块的基线总量
type chanReporter struct {
	ch          chan struct{}
	firstPrevRx model.DataRec
	firstSeen   bool
}

func (c *chanReporter) Report(cur, prev *model.Snapshot) {
	if !c.firstSeen {
		c.firstPrevRx = prev.RxCnt.Total
		c.firstSeen = true
	}
	c.ch <- struct{}{}
}

// 等待期间请求停止：循环在下一次采集前退出，被打断的周期不渲染
func TestStopDuringWaitSkipsNextCycle(t *testing.T) {
	src, rx, redir, enq, kthread := fakeSources()
	store := NewStore(src, 2, 3)
	rep := &chanReporter{ch: make(chan struct{}, 8)}
	p := NewPoller(store, rep)

	done := make(chan struct{})
	go func() {
		p.Start(time.Hour)
		close(done)
	}()

	// 首块渲染完成后循环必然在等 tick
	<-rep.ch
	p.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}

	// 只有启动时那一轮采集，每个组各读了一次
	assert.Equal(t, []uint32{KeyRxCnt}, rx.calls)
	assert.Equal(t, []uint32{KeyRedirErr}, redir.calls)
	assert.Equal(t, []uint32{0, 1, 2}, enq.calls)
	assert.Equal(t, []uint32{KeyKthread}, kthread.calls)
	// 被打断的周期没有渲染
	assert.Empty(t, rep.ch)

	// Stop 幂等，重复调不炸
	p.Stop()
}

// 首块报表对着全零基线渲染
func TestFirstRenderUsesZeroBaseline(t *testing.T) {
	src, rx, _, _, _ := fakeSources()
	rx.fill = func(key uint32, rec *model.Record) bool {
		fill(rec, []model.DataRec{{Processed: 500}, {Processed: 700}}, 1_000_000_000)
		return true
	}
	store := NewStore(src, 2, 1)
	rep := &chanReporter{ch: make(chan struct{}, 8)}
	p := NewPoller(store, rep)

	done := make(chan struct{})
	go func() {
		p.Start(time.Hour)
		close(done)
	}()
	<-rep.ch
	p.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}

	require.True(t, rep.firstSeen)
	assert.Equal(t, model.DataRec{}, rep.firstPrevRx)
	// 当前快照里是真实读数
	assert.Equal(t, uint64(1200), store.Current().RxCnt.Total.Processed)
}
