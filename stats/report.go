package stats

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cpumapmon/model"
)

// Reporter 消费先后两份快照，渲染一个完整的报表块
// 渲染不允许失败，也不返回错误
type Reporter interface {
	Report(cur, prev *model.Snapshot)
}

// RX 组没有 drop 语义，drop 列打的占位符
const naMark = "(n/a)"

// TableReporter 按固定列宽输出密集表格，每块以空行收尾并 flush
// 纯渲染：两次调用之间不保留任何状态
type TableReporter struct {
	w  *bufio.Writer
	pr *message.Printer // 千分位分组，对应 C 里 setlocale + %' 的写法
}

func NewTableReporter(w io.Writer) *TableReporter {
	return &TableReporter{
		w:  bufio.NewWriter(w),
		pr: message.NewPrinter(language.English),
	}
}

func (t *TableReporter) Report(cur, prev *model.Snapshot) {
	fmt.Fprintf(t.w, "%-15s %-7s %-10s %-18s %-12s %-9s\n",
		"XDP-cpumap", "CPU:to", "pps ", "pps-human-readable", "drop-pps", "period")

	// XDP-RX：为零的 per-core 行不显示，total 行恒定显示
	rec, p := &cur.RxCnt, &prev.RxCnt
	period := Period(rec, p)
	for i := range rec.CPU {
		if pps := PPS(&rec.CPU[i], &p.CPU[i], period); pps > 0 {
			fmt.Fprintf(t.w, "%-15s %-7d %-10d %-18s %-12s %f\n",
				"XDP-RX", i, pps, t.group(pps), naMark, period)
		}
	}
	pps := PPS(&rec.Total, &p.Total, period)
	fmt.Fprintf(t.w, "%-15s %-7s %-10d %-18s %-12s %f\n",
		"XDP-RX", "total", pps, t.group(pps), naMark, period)

	// cpumap-enqueue：每个 redirect 目标一段，聚合为零的目标整段不出现
	for to := range cur.Enq {
		rec, p = &cur.Enq[to], &prev.Enq[to]
		period = Period(rec, p)
		for i := range rec.CPU {
			ppsCPU := PPS(&rec.CPU[i], &p.CPU[i], period)
			if ppsCPU == 0 {
				continue
			}
			drop := DropPPS(&rec.CPU[i], &p.CPU[i], period)
			fmt.Fprintf(t.w, "%-15s %3d:%-3d %-10d %-18s %-12s %f\n",
				"cpumap-enqueue", i, to, ppsCPU, t.group(ppsCPU), t.group(drop), period)
		}
		if sum := PPS(&rec.Total, &p.Total, period); sum > 0 {
			drop := DropPPS(&rec.Total, &p.Total, period)
			fmt.Fprintf(t.w, "%-15s %3s:%-3d %-10d %-18s %-12s %f\n",
				"cpumap-enqueue", "sum", to, sum, t.group(sum), t.group(drop), period)
		}
	}

	t.dropSection("cpumap_kthread", &cur.Kthread, &prev.Kthread)

	// redirect 出错说明链路有问题，total 行必须一直可见
	t.dropSection("redirect_err", &cur.RedirErr, &prev.RedirErr)

	fmt.Fprintln(t.w)
	t.w.Flush()
}

// dropSection 渲染带 drop 列的一段：非零的 per-core 行 + 恒定的 total 行
func (t *TableReporter) dropSection(label string, rec, p *model.Record) {
	period := Period(rec, p)
	for i := range rec.CPU {
		pps := PPS(&rec.CPU[i], &p.CPU[i], period)
		if pps == 0 {
			continue
		}
		drop := DropPPS(&rec.CPU[i], &p.CPU[i], period)
		fmt.Fprintf(t.w, "%-15s %-7d %-10d %-18s %-12s %f\n",
			label, i, pps, t.group(pps), t.group(drop), period)
	}
	pps := PPS(&rec.Total, &p.Total, period)
	drop := DropPPS(&rec.Total, &p.Total, period)
	fmt.Fprintf(t.w, "%-15s %-7s %-10d %-18s %-12s %f\n",
		label, "total", pps, t.group(pps), t.group(drop), period)
}

func (t *TableReporter) group(v uint64) string {
	return t.pr.Sprintf("%d", v)
}
