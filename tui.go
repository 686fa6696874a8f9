//go:build linux

package main

import (
	"fmt"
	"sync"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"cpumapmon/model"
	"cpumapmon/stats"
)

// 波形图保留的历史点数
const historySize = 90

// tuiFrame 是一块报表在 TUI 里的全部内容，由轮询侧算好后整体递交
type tuiFrame struct {
	rows  [][]string
	rxPPS uint64
}

// tuiReporter 把每个周期的速率画成全屏表格 + RX 总速率波形
// 和 TableReporter 消费同样的快照对，只是换一种呈现
//
// 所有 ui.* 调用和组件字段都归一个事件 goroutine 独占，
// 轮询侧的 Report 只算出 tuiFrame 从 channel 递进去，
// 和键盘/缩放事件在同一个 select 里排队，不存在并发画屏
type tuiReporter struct {
	table   *widgets.Table
	sl      *widgets.Sparkline
	sg      *widgets.SparklineGroup
	grid    *ui.Grid
	history []float64

	frames   chan tuiFrame
	done     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
}

func newTUIReporter() (*tuiReporter, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("init termui: %w", err)
	}
	t := &tuiReporter{
		history:  make([]float64, 0, historySize),
		frames:   make(chan tuiFrame),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}

	// [上] 每个计数组一行的聚合速率表
	t.table = widgets.NewTable()
	t.table.Title = " [ XDP-cpumap 实时速率 ] "
	t.table.Rows = [][]string{tuiHeader()}
	t.table.TextStyle = ui.NewStyle(ui.ColorWhite)
	t.table.RowSeparator = false
	t.table.BorderStyle.Fg = ui.ColorGreen

	// [下] RX 总速率趋势波形
	t.sl = widgets.NewSparkline()
	t.sl.LineColor = ui.ColorYellow
	t.sl.TitleStyle.Fg = ui.ColorYellow
	t.sg = widgets.NewSparklineGroup(t.sl)
	t.sg.Title = " RX 总速率趋势 "
	t.sg.BorderStyle.Fg = ui.ColorYellow

	t.grid = ui.NewGrid()
	w, h := ui.TerminalDimensions()
	t.grid.SetRect(0, 0, w, h)
	t.grid.Set(
		ui.NewRow(0.65, ui.NewCol(1.0, t.table)),
		ui.NewRow(0.35, ui.NewCol(1.0, t.sg)),
	)

	go t.loop()
	return t, nil
}

// loop 独占全部 UI 状态：键盘、缩放、新报表块都在这一个 select 里处理
func (t *tuiReporter) loop() {
	defer close(t.loopDone)
	uiEvents := ui.PollEvents()
	for {
		select {
		case <-t.done:
			return
		case e := <-uiEvents:
			switch {
			case e.Type == ui.KeyboardEvent && (e.ID == "q" || e.ID == "<C-c>"):
				t.stop()
				return
			case e.Type == ui.ResizeEvent:
				payload := e.Payload.(ui.Resize)
				t.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				ui.Render(t.grid)
			}
		case f := <-t.frames:
			t.table.Rows = f.rows
			if len(t.history) >= historySize {
				t.history = t.history[1:]
			}
			t.history = append(t.history, float64(f.rxPPS))
			t.sl.Data = t.history
			t.sg.Title = fmt.Sprintf(" RX 总速率趋势 (实时: %d pps) ", f.rxPPS)
			ui.Render(t.grid)
		}
	}
}

// Done 在用户从 TUI 里请求退出时关闭
func (t *tuiReporter) Done() <-chan struct{} { return t.done }

func (t *tuiReporter) stop() {
	t.stopOnce.Do(func() { close(t.done) })
}

// Close 先停掉事件 goroutine，确认没人再画屏才还原终端
func (t *tuiReporter) Close() {
	t.stop()
	<-t.loopDone
	ui.Close()
}

// Report 只做计算和递交，不碰任何 UI 状态
// TUI 已经退出时直接丢帧返回，不卡住轮询
func (t *tuiReporter) Report(cur, prev *model.Snapshot) {
	select {
	case t.frames <- buildFrame(cur, prev):
	case <-t.done:
	}
}

func tuiHeader() []string {
	return []string{"组", "pps", "drop-pps", "period"}
}

// buildFrame 把一对快照算成 TUI 要画的行
func buildFrame(cur, prev *model.Snapshot) tuiFrame {
	rows := [][]string{tuiHeader()}

	add := func(label string, r, p *model.Record) uint64 {
		period := stats.Period(r, p)
		pps := stats.PPS(&r.Total, &p.Total, period)
		drop := stats.DropPPS(&r.Total, &p.Total, period)
		rows = append(rows, []string{
			label,
			fmt.Sprintf("%d", pps),
			fmt.Sprintf("%d", drop),
			fmt.Sprintf("%.3f", period),
		})
		return pps
	}

	rxPPS := add("XDP-RX", &cur.RxCnt, &prev.RxCnt)
	for to := range cur.Enq {
		period := stats.Period(&cur.Enq[to], &prev.Enq[to])
		// 没流量的 redirect 目标不占行
		if stats.PPS(&cur.Enq[to].Total, &prev.Enq[to].Total, period) == 0 {
			continue
		}
		add(fmt.Sprintf("enqueue:%d", to), &cur.Enq[to], &prev.Enq[to])
	}
	add("cpumap_kthread", &cur.Kthread, &prev.Kthread)
	add("redirect_err", &cur.RedirErr, &prev.RedirErr)

	return tuiFrame{rows: rows, rxPPS: rxPPS}
}
