// Package freq counts how often each contiguous opcode sub-sequence ("n-gram") occurs across
// every basic block, and reports the most frequent ones.
package freq

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/HerrCai0907/wasm-analyzer/internal/adt"
	"github.com/HerrCai0907/wasm-analyzer/internal/cfg"
	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

// DefaultDepth is the default maximum n-gram length considered.
const DefaultDepth = 16

// DefaultStatisticNum is the default number of ranked entries reported.
const DefaultStatisticNum = 128

// ErrEmptyCodeSection is returned when HighFrequencySubExpr is run against a module with no
// instructions to count, matching the original analyzer's fatal "empty code section" error.
var ErrEmptyCodeSection = errors.New("empty code section")

// Entry is one counted opcode sub-sequence and how often it occurred.
type Entry struct {
	Sequence []wasm.InstrCode
	Count    int
}

// Percentage returns the count expressed as a percentage of totalInstrs.
func (e Entry) Percentage(totalInstrs int) float64 {
	if totalInstrs == 0 {
		return 0
	}
	return 100 * float64(e.Count) / float64(totalInstrs)
}

// String renders the sequence as comma-separated opcode mnemonics, e.g. "local.get, i32.add".
func (e Entry) String() string {
	parts := make([]string, len(e.Sequence))
	for i, c := range e.Sequence {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Report is the result of running the census over one or more Cfgs.
type Report struct {
	TotalInstrs int
	Entries     []Entry // sorted by Count descending, ties broken by sequence for stability
}

// Dump writes the top entries as the stable report format spec'd for HighFrequencySubExpr:
// one line per n-gram, "<op1>, <op2>, ..., <opK>: <percent>%".
func (r *Report) Dump(w io.Writer) {
	for _, e := range r.Entries {
		fmt.Fprintf(w, "%s: %.2f%%\n", e.String(), e.Percentage(r.TotalInstrs))
	}
}

// Run counts every opcode sub-sequence of length 1..depth within each basic block of every
// Cfg (sequences never cross a block boundary), then returns the topK most frequent. It fails
// with ErrEmptyCodeSection if the total instruction count is zero, since the percentages this
// census reports are undefined over an empty code section.
func Run(cfgs []*cfg.Cfg, depth, topK int) (*Report, error) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	if topK <= 0 {
		topK = DefaultStatisticNum
	}

	trie := adt.NewTrie[wasm.InstrCode, int]()
	total := 0
	for _, c := range cfgs {
		for _, id := range c.SortedBlockIDs() {
			block := c.Blocks[id]
			codes := make([]wasm.InstrCode, len(block.Instrs))
			for i, instr := range block.Instrs {
				codes[i] = instr.Code
			}
			total += len(codes)
			countWindows(trie, codes, depth)
		}
	}
	if total == 0 {
		return nil, ErrEmptyCodeSection
	}

	var entries []Entry
	trie.ForEach(func(path []wasm.InstrCode, v int) {
		if len(path) == 0 {
			return
		}
		entries = append(entries, Entry{Sequence: append([]wasm.InstrCode{}, path...), Count: v})
	})
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		if len(entries[i].Sequence) != len(entries[j].Sequence) {
			return len(entries[i].Sequence) > len(entries[j].Sequence)
		}
		return entries[i].String() < entries[j].String()
	})
	if len(entries) > topK {
		entries = entries[:topK]
	}
	return &Report{TotalInstrs: total, Entries: entries}, nil
}

func countWindows(trie *adt.Trie[wasm.InstrCode, int], codes []wasm.InstrCode, depth int) {
	for start := range codes {
		maxLen := depth
		if remaining := len(codes) - start; remaining < maxLen {
			maxLen = remaining
		}
		for length := 1; length <= maxLen; length++ {
			window := codes[start : start+length]
			trie.Update(window, func(v *int, hasValue bool) int {
				if !hasValue {
					return 1
				}
				return *v + 1
			})
		}
	}
}
