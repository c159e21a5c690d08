// Package treebalance extracts maximal runs of arithmetic "tree node" instructions from a
// basic block, reconstructs the binary expression tree they encode, and rewrites each tree
// into a minimum-height shape using the instructions' rank (a coarse estimate of operand
// complexity) as the combining priority, Huffman-style.
package treebalance

import (
	"fmt"

	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

// TreeInfo is the value stored at each node of a reconstructed expression tree.
type TreeInfo struct {
	Instr *wasm.Instr
	// Rank is -1 until the node has been assigned a combining priority: either a leaf's
	// value rank (see getValueRank) or, for an internal node, the sum of its two children's
	// ranks once rebuild has linked them.
	Rank int
}

const unsetRank = -1

// DefaultTreeNodeOpcodes is the whitelist of opcodes eligible to participate in an
// expression tree. An instruction outside this set ends the current run (see ExtractRuns)
// without producing an error; OperandCount/ResultCount are only ever asked of instructions
// in the whitelist in use, and every opcode in this default set has explicit counts.
var DefaultTreeNodeOpcodes = map[wasm.InstrCode]bool{
	wasm.GlobalGet: true,
	wasm.I32Const:  true,
	wasm.I32Mul:    true,
	wasm.I32Add:    true,
}

// getValueRank assigns a leaf instruction's combining priority. Only the opcodes that can
// appear as tree leaves need an entry; any other opcode reaching here indicates the
// whitelist was extended without updating this table.
func getValueRank(code wasm.InstrCode) int {
	switch code {
	case wasm.I32Const:
		return 0
	case wasm.LocalGet:
		return 1
	case wasm.GlobalGet:
		return 2
	}
	panic(fmt.Sprintf("treebalance: no rank defined for leaf opcode %s", code))
}
