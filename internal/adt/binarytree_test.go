package adt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinaryTree_CreateAndNavigate(t *testing.T) {
	tree := NewBinaryTree[string]()
	root := tree.CreateRoot("root")
	left := tree.CreateNode("left", root, Left)
	right := tree.CreateNode("right", root, Right)

	require.Equal(t, 0, root)
	require.Equal(t, left, tree.Left(root))
	require.Equal(t, right, tree.Right(root))
	require.Equal(t, root, tree.Parent(left))
	require.Equal(t, root, tree.Parent(right))
	require.False(t, tree.IsValid(tree.Parent(root)))
	require.True(t, tree.HasChildren(root))
	require.False(t, tree.HasChildren(left))
	require.Equal(t, 3, tree.NumNodes())
}

func TestBinaryTree_CreateRootPanicsWhenNonEmpty(t *testing.T) {
	tree := NewBinaryTree[int]()
	tree.CreateRoot(1)
	require.Panics(t, func() { tree.CreateRoot(2) })
}

func TestBinaryTree_LinkReparents(t *testing.T) {
	tree := NewBinaryTree[int]()
	root := tree.CreateRoot(0)
	a := tree.CreateNode(1, root, Left)
	b := tree.CreateNode(2, root, Right)

	// Re-link b under a, as tree-height balancing's rebuild step does when reusing an
	// operator slot.
	tree.Link(a, b, Left)
	require.Equal(t, b, tree.Left(a))
	require.Equal(t, a, tree.Parent(b))
	require.False(t, tree.IsValid(tree.Right(root)))
}

func TestBinaryTree_GetSet(t *testing.T) {
	tree := NewBinaryTree[int]()
	root := tree.CreateRoot(10)
	require.Equal(t, 10, tree.Get(root))
	tree.Set(root, 20)
	require.Equal(t, 20, tree.Get(root))
}
