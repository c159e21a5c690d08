// Package dominator computes dominator sets over a reconstructed control-flow graph using
// the classical iterative bitset dataflow algorithm.
package dominator

import (
	"github.com/HerrCai0907/wasm-analyzer/internal/adt"
	"github.com/HerrCai0907/wasm-analyzer/internal/cfg"
)

// Result holds the dominator set of every block in a Cfg: Set[b] contains every block that
// dominates b, including b itself.
type Result struct {
	bitSize int
	index   map[cfg.BlockID]int
	ids     []cfg.BlockID
	sets    map[cfg.BlockID]adt.DynBitSet
}

// Dominates reports whether a dominates b.
func (r *Result) Dominates(a, b cfg.BlockID) bool {
	idx, ok := r.index[a]
	if !ok {
		return false
	}
	set, ok := r.sets[b]
	if !ok {
		return false
	}
	return set.Get(idx)
}

// Set returns the set of blocks dominating b, as a slice.
func (r *Result) Set(b cfg.BlockID) []cfg.BlockID {
	set, ok := r.sets[b]
	if !ok {
		return nil
	}
	var out []cfg.BlockID
	for _, id := range r.ids {
		if set.Get(r.index[id]) {
			out = append(out, id)
		}
	}
	return out
}

// Compute runs the fixed-point dominator dataflow over c.
//
// Every block without predecessors starts with an empty set and, from the first pass on, is
// dominated only by itself; every other block starts dominated by everything. Each pass
// recomputes a block's dominator set as the intersection of all its predecessors' dominator
// sets, unioned with the block itself, until nothing changes.
func Compute(c *cfg.Cfg) *Result {
	ids := c.SortedBlockIDs()
	bitSize := len(ids)
	index := make(map[cfg.BlockID]int, bitSize)
	for i, id := range ids {
		index[id] = i
	}
	preds := c.PredecessorMap()

	sets := make(map[cfg.BlockID]adt.DynBitSet, bitSize)
	for _, id := range ids {
		if len(preds[id]) == 0 {
			sets[id] = adt.NewDynBitSet(bitSize)
		} else {
			sets[id] = adt.NewFullDynBitSet(bitSize)
		}
	}

	for changed := true; changed; {
		changed = false
		for _, id := range ids {
			var tmp adt.DynBitSet
			if len(preds[id]) == 0 {
				tmp = adt.NewDynBitSet(bitSize)
			} else {
				tmp = adt.NewFullDynBitSet(bitSize)
				for pred := range preds[id] {
					tmp = tmp.And(sets[pred])
				}
			}
			tmp.Mask(index[id])
			if !tmp.Equal(sets[id]) {
				sets[id] = tmp
				changed = true
			}
		}
	}

	return &Result{bitSize: bitSize, index: index, ids: ids, sets: sets}
}
