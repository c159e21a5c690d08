package cfg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

func instr(code wasm.InstrCode) *wasm.Instr { return &wasm.Instr{Code: code} }

func TestBuild_StraightLineFunction(t *testing.T) {
	fn := &wasm.Function{Instrs: []*wasm.Instr{
		instr(wasm.I32Const),
		instr(wasm.Drop),
		instr(wasm.End),
	}}
	c, err := Build(fn)
	require.NoError(t, err)

	// The entry block holds both instructions and has a single edge to the exit block, which
	// has no successors, so simplification collapses nothing. Assert the structural
	// invariant: every instruction appears exactly once across all blocks.
	var allInstrs []*wasm.Instr
	for _, id := range c.SortedBlockIDs() {
		allInstrs = append(allInstrs, c.Blocks[id].Instrs...)
	}
	require.Len(t, allInstrs, 2)
}

func TestBuild_IfWithoutElseMergesBothPaths(t *testing.T) {
	fn := &wasm.Function{Instrs: []*wasm.Instr{
		instr(wasm.If),
		instr(wasm.Nop),
		instr(wasm.End),
		instr(wasm.End),
	}}
	c, err := Build(fn)
	require.NoError(t, err)
	require.NotEmpty(t, c.Blocks)

	// The block holding the if must reach the then-block's successor directly (the else-less
	// path), so both paths meet at the same block.
	var ifBlock, thenBlock *BasicBlock
	for _, b := range c.Blocks {
		for _, in := range b.Instrs {
			if in.Code == wasm.If {
				ifBlock = b
			} else if in.Code == wasm.Nop {
				thenBlock = b
			}
		}
	}
	require.NotNil(t, ifBlock)
	require.NotNil(t, thenBlock)
	require.Len(t, thenBlock.Successors, 1)
	for s := range thenBlock.Successors {
		require.Contains(t, ifBlock.Successors, s)
	}
}

func TestBuild_BrTableIsUnsupported(t *testing.T) {
	fn := &wasm.Function{Instrs: []*wasm.Instr{
		instr(wasm.BrTable),
		instr(wasm.End),
	}}
	_, err := Build(fn)
	require.ErrorIs(t, err, ErrUnsupportedInstruction)
}

func TestBuild_LoopBackEdge(t *testing.T) {
	fn := &wasm.Function{Instrs: []*wasm.Instr{
		instr(wasm.Loop),
		&wasm.Instr{Code: wasm.Br, Index: 0},
		instr(wasm.End),
		instr(wasm.End),
	}}
	c, err := Build(fn)
	require.NoError(t, err)

	found := false
	for _, id := range c.SortedBlockIDs() {
		preds := c.PredecessorMap()[id]
		if len(preds) > 1 {
			found = true
		}
	}
	require.True(t, found, "expected a block with multiple predecessors from the loop back edge")
}

func TestSimplify_CollapsesEmptyChains(t *testing.T) {
	fn := &wasm.Function{Instrs: []*wasm.Instr{
		instr(wasm.Block),
		instr(wasm.End),
		instr(wasm.End),
	}}
	c, err := Build(fn)
	require.NoError(t, err)
	for _, id := range c.SortedBlockIDs() {
		require.LessOrEqual(t, len(c.Blocks[id].Successors), 1)
	}
}
