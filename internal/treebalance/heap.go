package treebalance

import "container/heap"

// rankItem is one entry waiting to be combined: a tree node index together with its already
// assigned rank.
type rankItem struct {
	index int
	rank  int
}

// rankHeap is a min-heap of rankItem ordered by rank, used by rebuild to repeatedly combine
// the two lowest-ranked pending subtrees first (a Huffman-style greedy rebuild).
type rankHeap []rankItem

func (h rankHeap) Len() int            { return len(h) }
func (h rankHeap) Less(i, j int) bool  { return h[i].rank < h[j].rank }
func (h rankHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rankHeap) Push(x interface{}) { *h = append(*h, x.(rankItem)) }
func (h *rankHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func newRankHeap() *rankHeap {
	h := &rankHeap{}
	heap.Init(h)
	return h
}
