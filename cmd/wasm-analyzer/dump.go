package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/HerrCai0907/wasm-analyzer/internal/analyzer"
	"github.com/HerrCai0907/wasm-analyzer/internal/freq"
)

func dumpDominator(w io.Writer, res *analyzer.FunctionResult) {
	for _, id := range res.Cfg.SortedBlockIDs() {
		set := res.Dominator.Set(id)
		ids := make([]int, len(set))
		for i, s := range set {
			ids[i] = int(s)
		}
		sort.Ints(ids)
		fmt.Fprintf(w, "  dom(BB[%d]) = %v\n", id, ids)
	}
}

func dumpExtendedCfg(w io.Writer, res *analyzer.FunctionResult) {
	for _, eb := range res.ExtendedCfg.Blocks {
		ids := make([]int, 0, len(eb.Blocks))
		for id := range eb.Blocks {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)
		fmt.Fprintf(w, "  EBB[%d] = %v\n", eb.First, ids)
	}
}

func dumpCensus(w io.Writer, report *freq.Report) {
	pct := color.New(color.FgYellow)
	for _, e := range report.Entries {
		fmt.Fprintf(w, "%s: ", e.String())
		pct.Fprintf(w, "%.2f%%\n", e.Percentage(report.TotalInstrs))
	}
}
