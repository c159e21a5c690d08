package treebalance

import (
	"fmt"
	"io"

	"github.com/HerrCai0907/wasm-analyzer/internal/adt"
	"github.com/HerrCai0907/wasm-analyzer/internal/cfg"
	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

// Tree is one expression tree extracted from a basic block, identified by where it came from
// so Dump output and debugging can point back at the source block.
type Tree struct {
	BlockID cfg.BlockID
	RunIdx  int
	Before  *adt.BinaryTree[TreeInfo]
	After   *adt.BinaryTree[TreeInfo]
}

// Report is the result of running tree-height balancing over a function's Cfg.
type Report struct {
	Trees []Tree
}

// Run extracts every expression tree from every block of c using whitelist as the set of
// eligible opcodes, rebalances a copy of each, and returns both shapes for reporting. A nil
// whitelist defaults to DefaultTreeNodeOpcodes.
func Run(c *cfg.Cfg, whitelist map[wasm.InstrCode]bool) *Report {
	if whitelist == nil {
		whitelist = DefaultTreeNodeOpcodes
	}
	report := &Report{}
	for _, id := range c.SortedBlockIDs() {
		block := c.Blocks[id]
		for runIdx, run := range ExtractRuns(block.Instrs, whitelist) {
			before := transformer(run)
			after := transformer(run)
			Balance(after)
			report.Trees = append(report.Trees, Tree{BlockID: id, RunIdx: runIdx, Before: before, After: after})
		}
	}
	return report
}

// Dump writes, for every extracted tree, its block/run origin and the pre- and
// post-balancing shapes in parenthesized prefix notation.
func (r *Report) Dump(w io.Writer) {
	for _, t := range r.Trees {
		fmt.Fprintf(w, "BB[%d] run[%d]\n", t.BlockID, t.RunIdx)
		fmt.Fprintf(w, "  before: %s\n", dumpTree(t.Before, t.Before.Root()))
		fmt.Fprintf(w, "  after:  %s\n", dumpTree(t.After, t.After.Root()))
	}
}

func dumpTree(tree *adt.BinaryTree[TreeInfo], index int) string {
	if !tree.HasChildren(index) {
		return tree.Get(index).Instr.Code.String()
	}
	l, r := tree.Left(index), tree.Right(index)
	var left, right string
	if tree.IsValid(l) {
		left = dumpTree(tree, l)
	}
	if tree.IsValid(r) {
		right = dumpTree(tree, r)
	}
	return fmt.Sprintf("(%s %s %s)", tree.Get(index).Instr.Code.String(), left, right)
}
