package adt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDynBitSet_SetGet(t *testing.T) {
	b := NewDynBitSet(10)
	require.False(t, b.Get(3))
	b.Mask(3)
	require.True(t, b.Get(3))
	b.Unmask(3)
	require.False(t, b.Get(3))
}

func TestDynBitSet_FullClearsUnusedHighBits(t *testing.T) {
	b := NewFullDynBitSet(5)
	for i := 0; i < 5; i++ {
		require.True(t, b.Get(i))
	}
	require.Equal(t, "11111", b.String())

	// Equal compares whole words, so this also checks that bits 5..63 are clear.
	expected := NewDynBitSet(5)
	for i := 0; i < 5; i++ {
		expected.Mask(i)
	}
	require.True(t, b.Equal(expected))
}

func TestDynBitSet_AndOr(t *testing.T) {
	a := NewDynBitSet(4)
	a.Mask(0)
	a.Mask(1)
	b := NewDynBitSet(4)
	b.Mask(1)
	b.Mask(2)

	and := a.And(b)
	require.True(t, and.Get(1))
	require.False(t, and.Get(0))
	require.False(t, and.Get(2))

	or := a.Or(b)
	require.True(t, or.Get(0))
	require.True(t, or.Get(1))
	require.True(t, or.Get(2))
}

func TestDynBitSet_NotStaysWithinBitSize(t *testing.T) {
	b := NewDynBitSet(3)
	b.Mask(0)
	n := b.Not()
	require.False(t, n.Get(0))
	require.True(t, n.Get(1))
	require.True(t, n.Get(2))

	// Equal compares whole words, so this also checks that bits 3..63 stayed clear.
	expected := NewDynBitSet(3)
	expected.Mask(1)
	expected.Mask(2)
	require.True(t, n.Equal(expected))
}

func TestDynBitSet_Equal(t *testing.T) {
	a := NewDynBitSet(8)
	b := NewDynBitSet(8)
	require.True(t, a.Equal(b))
	a.Mask(5)
	require.False(t, a.Equal(b))
	b.Mask(5)
	require.True(t, a.Equal(b))
}

func TestDynBitSet_SpansMultipleWords(t *testing.T) {
	b := NewDynBitSet(130)
	b.Mask(129)
	require.True(t, b.Get(129))
	require.False(t, b.Get(128))
}
