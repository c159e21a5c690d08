package adt

// Trie is a prefix tree keyed by a sequence of comparable keys, storing one optional value
// per node (including internal nodes, not just leaves).
type Trie[K comparable, V any] struct {
	root *trieNode[K, V]
}

type trieNode[K comparable, V any] struct {
	children map[K]*trieNode[K, V]
	value    *V
	hasValue bool
}

func newTrieNode[K comparable, V any]() *trieNode[K, V] {
	return &trieNode[K, V]{children: map[K]*trieNode[K, V]{}}
}

// NewTrie returns an empty trie.
func NewTrie[K comparable, V any]() *Trie[K, V] {
	return &Trie[K, V]{root: newTrieNode[K, V]()}
}

func (t *Trie[K, V]) forceAt(path []K) *trieNode[K, V] {
	n := t.root
	for _, k := range path {
		child, ok := n.children[k]
		if !ok {
			child = newTrieNode[K, V]()
			n.children[k] = child
		}
		n = child
	}
	return n
}

// Update looks up (creating if absent) the node at path, calls fn with a pointer to a copy of
// its current value (the zero value, with hasValue false, if unset so far), and stores fn's
// return value at the node. This is the primitive every counting increment is built on: fn
// returns 1 when hasValue is false and `*v + 1` otherwise.
func (t *Trie[K, V]) Update(path []K, fn func(v *V, hasValue bool) V) {
	n := t.forceAt(path)
	var cur V
	if n.hasValue {
		cur = *n.value
	}
	updated := fn(&cur, n.hasValue)
	n.value = &updated
	n.hasValue = true
}

// ForEach walks every node that has a value in pre-order, calling fn with the path (keys from
// the root) that reaches it and its value.
func (t *Trie[K, V]) ForEach(fn func(path []K, v V)) {
	t.root.forEach(nil, fn)
}

func (n *trieNode[K, V]) forEach(path []K, fn func(path []K, v V)) {
	if n.hasValue {
		fn(path, *n.value)
	}
	for k, child := range n.children {
		child.forEach(append(append([]K{}, path...), k), fn)
	}
}
