package stats

import (
	"sync"
	"time"
)

// Poller 驱动 采集→换页→计算→渲染→等待 的无限循环
// 取消是协作式的：只在周期间等待和周期顶部检查，
// 绝不在异步上下文里直接动快照等共享状态
type Poller struct {
	store *Store
	rep   Reporter

	stopOnce sync.Once
	done     chan struct{}
}

func NewPoller(store *Store, rep Reporter) *Poller {
	return &Poller{
		store: store,
		rep:   rep,
		done:  make(chan struct{}),
	}
}

// Start 阻塞运行轮询循环，直到 Stop 被调用才返回
// 首个周期不做 Swap：previous 保持全零基线，首块报表速率全为零
func (p *Poller) Start(interval time.Duration) {
	p.store.Collect()
	p.rep.Report(p.store.Current(), p.store.Previous())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// 等待是唯一的挂起点，取消要能立刻打断它
		select {
		case <-p.done:
			return
		case <-ticker.C:
		}
		// tick 和 Stop 同时就绪时优先退出，不再开新周期
		select {
		case <-p.done:
			return
		default:
		}
		p.store.Swap()
		p.store.Collect()
		p.rep.Report(p.store.Current(), p.store.Previous())
	}
}

// Stop 请求优雅停止，幂等，可以从任意 goroutine 调
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}
