// Package ebb partitions a Cfg into extended basic blocks: maximal runs of blocks where every
// block but the first has exactly one predecessor.
package ebb

import (
	"sort"

	"github.com/HerrCai0907/wasm-analyzer/internal/cfg"
)

// ExtendedBlock is one extended basic block: an entry block plus every block reachable from
// it by following edges into blocks that have exactly one predecessor.
type ExtendedBlock struct {
	First cfg.BlockID
	Blocks map[cfg.BlockID]struct{}
}

// ExtendedCfg is a function's Cfg partitioned into extended basic blocks, one per entry
// point.
type ExtendedCfg struct {
	Blocks []*ExtendedBlock
}

func predecessorCounts(c *cfg.Cfg) map[cfg.BlockID]int {
	counts := make(map[cfg.BlockID]int)
	preds := c.PredecessorMap()
	for id, p := range preds {
		counts[id] = len(p)
	}
	return counts
}

// isEntry reports whether a block starts a new extended basic block: it has zero or two-plus
// predecessors.
func isEntry(id cfg.BlockID, counts map[cfg.BlockID]int) bool {
	n, ok := counts[id]
	return !ok || n != 1
}

// Build partitions c into extended basic blocks.
func Build(c *cfg.Cfg) *ExtendedCfg {
	counts := predecessorCounts(c)
	result := &ExtendedCfg{}
	for _, id := range c.SortedBlockIDs() {
		if !isEntry(id, counts) {
			continue
		}
		result.Blocks = append(result.Blocks, growFrom(id, c, counts))
	}
	return result
}

func growFrom(first cfg.BlockID, c *cfg.Cfg, counts map[cfg.BlockID]int) *ExtendedBlock {
	eb := &ExtendedBlock{First: first, Blocks: map[cfg.BlockID]struct{}{}}
	worklist := []cfg.BlockID{first}
	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if _, visited := eb.Blocks[id]; visited {
			continue
		}
		eb.Blocks[id] = struct{}{}
		for _, succ := range sortedSuccessors(c, id) {
			if _, visited := eb.Blocks[succ]; visited {
				continue
			}
			if succ == first || isEntry(succ, counts) {
				continue
			}
			worklist = append(worklist, succ)
		}
	}
	return eb
}

func sortedSuccessors(c *cfg.Cfg, id cfg.BlockID) []cfg.BlockID {
	b := c.Blocks[id]
	out := make([]cfg.BlockID, 0, len(b.Successors))
	for s := range b.Successors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
