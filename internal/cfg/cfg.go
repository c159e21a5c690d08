// Package cfg reconstructs a control-flow graph from a function's structured-control
// instruction stream.
package cfg

import (
	"fmt"
	"io"
	"sort"

	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

// BlockID identifies a basic block within one function's Cfg. The two reserved IDs below
// exist in every Cfg even for an empty function body; simplification never removes them.
type BlockID int

const (
	// EnterBlockIndex is the block preceding the function's first instruction.
	EnterBlockIndex BlockID = 0
	// ExitBlockIndex is the block every return path eventually reaches.
	ExitBlockIndex BlockID = 1
)

// BasicBlock is a maximal straight-line run of instructions, with zero or more successor
// blocks reached by falling through or branching.
type BasicBlock struct {
	ID         BlockID
	Instrs     []*wasm.Instr
	Successors map[BlockID]struct{}
}

func newBasicBlock(id BlockID) *BasicBlock {
	return &BasicBlock{ID: id, Successors: map[BlockID]struct{}{}}
}

func (b *BasicBlock) addSuccessor(id BlockID) {
	b.Successors[id] = struct{}{}
}

func (b *BasicBlock) sortedSuccessors() []BlockID {
	ids := make([]BlockID, 0, len(b.Successors))
	for id := range b.Successors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Cfg is the control-flow graph of a single function.
type Cfg struct {
	Blocks map[BlockID]*BasicBlock

	predMap map[BlockID]map[BlockID]struct{} // lazily computed, memoized
}

func newCfg() *Cfg {
	return &Cfg{Blocks: map[BlockID]*BasicBlock{}}
}

// SortedBlockIDs returns every block ID present in the graph in ascending order.
func (c *Cfg) SortedBlockIDs() []BlockID {
	ids := make([]BlockID, 0, len(c.Blocks))
	for id := range c.Blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PredecessorMap returns, for every block, the set of blocks with an edge into it. It is
// computed once on first use and cached, since every consumer (dominator analysis, extended
// basic block construction) needs the same inverted view of the successor edges.
func (c *Cfg) PredecessorMap() map[BlockID]map[BlockID]struct{} {
	if c.predMap != nil {
		return c.predMap
	}
	preds := make(map[BlockID]map[BlockID]struct{}, len(c.Blocks))
	for id := range c.Blocks {
		preds[id] = map[BlockID]struct{}{}
	}
	for id, b := range c.Blocks {
		for succ := range b.Successors {
			preds[succ][id] = struct{}{}
		}
	}
	c.predMap = preds
	return preds
}

// Dump writes a human-readable rendering of the graph: one line per block naming its
// successors, followed by its instructions indented beneath it.
func (c *Cfg) Dump(w io.Writer) {
	fmt.Fprintln(w, "Function CFG")
	for _, id := range c.SortedBlockIDs() {
		b := c.Blocks[id]
		fmt.Fprintf(w, "  BB[%d] ->", id)
		for _, s := range b.sortedSuccessors() {
			fmt.Fprintf(w, " BB[%d]", s)
		}
		fmt.Fprintln(w)
		for _, instr := range b.Instrs {
			fmt.Fprintf(w, "    %s\n", instr.Code)
		}
	}
}
