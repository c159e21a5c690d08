package treebalance

import (
	"container/heap"
	"sort"

	"github.com/HerrCai0907/wasm-analyzer/internal/adt"
)

// isRoot reports whether index is a "balancing root": a node with children whose own opcode
// differs from its parent's. The tree's actual root (index 0) is always treated as a
// balancing root regardless of this check, since it has no parent to compare against.
func isRoot(tree *adt.BinaryTree[TreeInfo], index int) bool {
	if !tree.HasChildren(index) {
		return false
	}
	parent := tree.Parent(index)
	if !tree.IsValid(parent) {
		return true
	}
	return tree.Get(index).Instr.Code != tree.Get(parent).Instr.Code
}

// markRoots finds every balancing root in tree, in ascending arena-index order. The tree's
// own root is always first (it is always index 0, the lowest possible index); later roots
// are nodes nested deeper in the tree whose opcode diverges from their parent's.
func markRoots(tree *adt.BinaryTree[TreeInfo]) []int {
	roots := []int{tree.Root()}
	for idx := 1; idx < tree.NumNodes(); idx++ {
		if isRoot(tree, idx) {
			roots = append(roots, idx)
		}
	}
	sort.Ints(roots)
	return roots
}

// Balance rewrites every balancing root of tree into a minimum-height shape. It is safe to
// call with a tree that contains nested roots of differing opcodes: each is balanced
// independently, innermost first, since processing the outer root's subtree recursively
// balances any nested root before the outer loop reaches it (balance is memoized via the
// node's Rank field, so reprocessing an already-balanced root is a no-op).
func Balance(tree *adt.BinaryTree[TreeInfo]) {
	for _, root := range markRoots(tree) {
		balance(tree, root)
	}
}

// balance rewrites the subtree rooted at rootIndex (a node whose two children are the start
// of a run of same-opcode operator nodes) into a minimum-height binary tree, combining leaves
// and nested balancing roots by ascending rank.
func balance(tree *adt.BinaryTree[TreeInfo], rootIndex int) {
	if tree.Get(rootIndex).Rank >= 0 {
		return
	}
	rq := newRankHeap()
	avail := map[int]struct{}{}
	if l := tree.Left(rootIndex); tree.IsValid(l) {
		for k := range flatten(tree, l, rq) {
			avail[k] = struct{}{}
		}
	}
	if r := tree.Right(rootIndex); tree.IsValid(r) {
		for k := range flatten(tree, r, rq) {
			avail[k] = struct{}{}
		}
	}
	rebuild(tree, rootIndex, avail, rq)
}

// flatten walks the same-opcode run starting at nodeIndex, collecting every leaf and every
// nested balancing root into rq (ranked, ready to be recombined) and every reusable
// same-opcode internal node into the returned available-operator-slot set.
func flatten(tree *adt.BinaryTree[TreeInfo], nodeIndex int, rq *rankHeap) map[int]struct{} {
	if !tree.HasChildren(nodeIndex) {
		info := tree.Get(nodeIndex)
		info.Rank = getValueRank(info.Instr.Code)
		tree.Set(nodeIndex, info)
		heap.Push(rq, rankItem{index: nodeIndex, rank: info.Rank})
		return nil
	}
	if isRoot(tree, nodeIndex) {
		balance(tree, nodeIndex)
		heap.Push(rq, rankItem{index: nodeIndex, rank: tree.Get(nodeIndex).Rank})
		return nil
	}

	avail := map[int]struct{}{nodeIndex: {}}
	if l := tree.Left(nodeIndex); tree.IsValid(l) {
		for k := range flatten(tree, l, rq) {
			avail[k] = struct{}{}
		}
	}
	if r := tree.Right(nodeIndex); tree.IsValid(r) {
		for k := range flatten(tree, r, rq) {
			avail[k] = struct{}{}
		}
	}
	return avail
}

// rebuild repeatedly combines the two lowest-ranked pending items, reusing an available
// operator slot for each new internal node, until exactly two items remain: those are linked
// directly under rootIndex, completing the balanced subtree.
func rebuild(tree *adt.BinaryTree[TreeInfo], rootIndex int, avail map[int]struct{}, rq *rankHeap) {
	for {
		l := heap.Pop(rq).(rankItem)
		r := heap.Pop(rq).(rankItem)
		combinedRank := l.rank + r.rank

		if rq.Len() == 0 {
			tree.Link(rootIndex, l.index, adt.Left)
			tree.Link(rootIndex, r.index, adt.Right)
			info := tree.Get(rootIndex)
			info.Rank = combinedRank
			tree.Set(rootIndex, info)
			return
		}

		slot := popSlot(avail)
		tree.Link(slot, l.index, adt.Left)
		tree.Link(slot, r.index, adt.Right)
		info := tree.Get(slot)
		info.Rank = combinedRank
		tree.Set(slot, info)
		heap.Push(rq, rankItem{index: slot, rank: combinedRank})
	}
}

func popSlot(avail map[int]struct{}) int {
	var slot int
	for k := range avail {
		slot = k
		break
	}
	delete(avail, slot)
	return slot
}
