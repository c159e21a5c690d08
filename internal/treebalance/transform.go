package treebalance

import (
	"github.com/HerrCai0907/wasm-analyzer/internal/adt"
	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

// ExtractRuns splits a basic block's instructions into maximal contiguous runs of
// whitelisted opcodes. Each run is independently reconstructed into an expression tree by
// transformer.
func ExtractRuns(instrs []*wasm.Instr, whitelist map[wasm.InstrCode]bool) [][]*wasm.Instr {
	var runs [][]*wasm.Instr
	var current []*wasm.Instr
	for _, instr := range instrs {
		if whitelist[instr.Code] {
			current = append(current, instr)
			continue
		}
		if len(current) > 0 {
			runs = append(runs, current)
			current = nil
		}
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

// transformer reconstructs the binary expression tree encoded by a postfix (stack-machine)
// instruction run. It walks the run in reverse: the last instruction is the tree's root, and
// each instruction still missing operands pulls its children off the pending stack, walking
// further back through the run to satisfy them depth-first.
//
// Only single-result instructions with at most two operands can appear in a run (the default
// whitelist guarantees this), so every node has at most two children. An operand goes to the
// left slot when its parent still lacks two operands and to the right slot when it lacks one:
// a 2-operand instruction's first popped operand becomes its left child and its second its
// right child. This is reversed from left-to-right source order, which is harmless here since
// the tree is never re-linearized back into bytecode, only used for structural and
// statistical analysis.
func transformer(run []*wasm.Instr) *adt.BinaryTree[TreeInfo] {
	tree := adt.NewBinaryTree[TreeInfo]()
	pos := len(run) - 1
	root := tree.CreateRoot(TreeInfo{Instr: run[pos], Rank: unsetRank})
	pos--
	fillOperands(tree, root, run, &pos)
	return tree
}

// fillOperands recursively attaches node's operands, consuming instructions from run in
// reverse starting at *pos.
func fillOperands(tree *adt.BinaryTree[TreeInfo], node int, run []*wasm.Instr, pos *int) {
	operands := tree.Get(node).Instr.OperandCount()
	for i := 0; i < operands; i++ {
		if *pos < 0 {
			panic("treebalance: instruction run underflowed while reconstructing tree")
		}
		instr := run[*pos]
		*pos--
		dir := adt.Left
		if operands-i == 1 {
			dir = adt.Right
		}
		child := tree.CreateNode(TreeInfo{Instr: instr, Rank: unsetRank}, node, dir)
		fillOperands(tree, child, run, pos)
	}
}
