package treebalance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HerrCai0907/wasm-analyzer/internal/adt"
	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

func constInstr(v int32) *wasm.Instr {
	return &wasm.Instr{Code: wasm.I32Const, I32Value: v}
}

func opInstr(code wasm.InstrCode) *wasm.Instr {
	return &wasm.Instr{Code: code}
}

func TestExtractRuns_SplitsOnNonWhitelistedOpcode(t *testing.T) {
	instrs := []*wasm.Instr{
		constInstr(1),
		opInstr(wasm.Drop),
		constInstr(2),
		constInstr(3),
		opInstr(wasm.I32Add),
	}
	runs := ExtractRuns(instrs, DefaultTreeNodeOpcodes)
	require.Len(t, runs, 2)
	require.Len(t, runs[0], 1)
	require.Len(t, runs[1], 3)
}

func TestTransformer_TwoOperandRoot(t *testing.T) {
	run := []*wasm.Instr{constInstr(1), constInstr(2), opInstr(wasm.I32Add)}
	tree := transformer(run)
	root := tree.Root()
	require.Equal(t, wasm.I32Add, tree.Get(root).Instr.Code)
	require.True(t, tree.IsValid(tree.Left(root)))
	require.True(t, tree.IsValid(tree.Right(root)))
	// The reverse walk reaches i32.const 2 first, so it fills the left slot.
	require.Equal(t, int32(2), tree.Get(tree.Left(root)).Instr.I32Value)
	require.Equal(t, int32(1), tree.Get(tree.Right(root)).Instr.I32Value)
}

// TestBalance_LeftDeepAdd mirrors the reference left-deep four-constant sum: each i32.const 1
// summed left to right by three i32.add produces a depth-4 chain before balancing and a
// depth-3 balanced tree afterward, with every leaf surviving exactly once.
func TestBalance_LeftDeepAdd(t *testing.T) {
	run := []*wasm.Instr{
		constInstr(1),
		constInstr(1),
		opInstr(wasm.I32Add),
		constInstr(1),
		opInstr(wasm.I32Add),
		constInstr(1),
		opInstr(wasm.I32Add),
	}
	before := transformer(run)
	require.Equal(t, 4, depth(before, before.Root()))

	after := transformer(run)
	Balance(after)

	require.Equal(t, wasm.I32Add, after.Get(after.Root()).Instr.Code)
	require.LessOrEqual(t, depth(after, after.Root()), 3)

	ls := leaves(after, after.Root())
	require.Len(t, ls, 4)
	for _, v := range ls {
		require.Equal(t, int32(1), v)
	}
}

func TestBalance_IsIdempotent(t *testing.T) {
	run := []*wasm.Instr{
		constInstr(1), constInstr(1), opInstr(wasm.I32Add),
		constInstr(1), opInstr(wasm.I32Add),
	}
	tree := transformer(run)
	Balance(tree)
	firstRank := tree.Get(tree.Root()).Rank
	Balance(tree)
	require.Equal(t, firstRank, tree.Get(tree.Root()).Rank)
}

func TestBalance_PreservesNestedDifferentOpcodeRoot(t *testing.T) {
	// (global.get 0 * i32.const 2) + i32.const 3: the mul sub-root has a different opcode
	// than the enclosing add, so it must be balanced as its own unit and survive intact.
	run := []*wasm.Instr{
		opInstr(wasm.GlobalGet),
		constInstr(2),
		opInstr(wasm.I32Mul),
		constInstr(3),
		opInstr(wasm.I32Add),
	}
	tree := transformer(run)
	Balance(tree)
	root := tree.Root()
	require.Equal(t, wasm.I32Add, tree.Get(root).Instr.Code)

	mulNode := -1
	for i := 0; i < tree.NumNodes(); i++ {
		if tree.Get(i).Instr.Code == wasm.I32Mul {
			mulNode = i
		}
	}
	require.NotEqual(t, -1, mulNode)
	require.True(t, tree.IsValid(tree.Left(mulNode)))
	require.True(t, tree.IsValid(tree.Right(mulNode)))
}

func depth(tree *adt.BinaryTree[TreeInfo], index int) int {
	if !tree.HasChildren(index) {
		return 1
	}
	maxChild := 0
	if l := tree.Left(index); tree.IsValid(l) {
		if d := depth(tree, l); d > maxChild {
			maxChild = d
		}
	}
	if r := tree.Right(index); tree.IsValid(r) {
		if d := depth(tree, r); d > maxChild {
			maxChild = d
		}
	}
	return maxChild + 1
}

func leaves(tree *adt.BinaryTree[TreeInfo], index int) []int32 {
	if !tree.HasChildren(index) {
		return []int32{tree.Get(index).Instr.I32Value}
	}
	var out []int32
	if l := tree.Left(index); tree.IsValid(l) {
		out = append(out, leaves(tree, l)...)
	}
	if r := tree.Right(index); tree.IsValid(r) {
		out = append(out, leaves(tree, r)...)
	}
	return out
}
