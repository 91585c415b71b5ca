// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitset(t *testing.T) {
	b := New(128)

	require.Equal(t, 2, len(b.bits))
	require.Equal(t, int64(128), b.Len())

	// should do nothing
	require.False(t, b.Add(132))
	require.False(t, b.Add(-1))

	zero := []uint64{0, 0}
	require.Equal(t, zero, b.bits)

	require.False(t, b.Contains(7))
	require.True(t, b.Add(7))
	require.True(t, b.Contains(7))
	// adding twice reports that the bit was already there
	require.False(t, b.Add(7))
	require.True(t, b.Add(8))
	require.Equal(t, 2, b.Count())

	require.True(t, b.Remove(7))
	require.False(t, b.Remove(7))
	require.False(t, b.Contains(7))
	require.True(t, b.Contains(8))
	require.True(t, b.Remove(8))
	require.Equal(t, zero, b.bits)

	for i := int64(0); i < 128; i++ {
		b.Add(i)
	}

	full := []uint64{^uint64(0), ^uint64(0)}
	require.Equal(t, full, b.bits)
	require.Equal(t, 128, b.Count())

	// should do nothing
	require.False(t, b.Remove(137))
	require.False(t, b.Contains(137))
	require.Equal(t, full, b.bits)
}

func TestBitset_Empty(t *testing.T) {
	for _, length := range []int64{0, -4} {
		b := New(length)
		require.Equal(t, int64(0), b.Len())
		require.False(t, b.Add(0))
		require.False(t, b.Contains(0))
		require.Equal(t, 0, b.Count())
	}
}

func TestBitset_OddLength(t *testing.T) {
	b := New(65)
	require.Equal(t, 2, len(b.bits))
	require.True(t, b.Add(64))
	require.False(t, b.Add(65))
	require.Equal(t, 1, b.Count())
}
