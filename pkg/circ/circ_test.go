// SPDX-License-Identifier: MIT
package circ

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	c := New[uint32](3, 0)
	c.Add(1)
	c.Add(2)
	c.Add(3)
	assert.Equal(t, []uint32{1, 2, 3}, c.Slots())

	c.Add(4)
	c.Add(5)
	assert.Equal(t, []uint32{4, 5, 3}, c.Slots())
}

func TestIter(t *testing.T) {
	c := New[uint32](3, 0)
	assert.Equal(t, []uint32{0, 0, 0}, slices.Collect(c.All()))

	c.Add(1)
	assert.Equal(t, []uint32{0, 0, 1}, slices.Collect(c.All()))

	c.Add(2)
	assert.Equal(t, []uint32{0, 1, 2}, slices.Collect(c.All()))

	c.Add(3)
	c.Add(4)
	assert.Equal(t, []uint32{2, 3, 4}, slices.Collect(c.All()))

	// Restartable: a second pass yields the same sequence.
	assert.Equal(t, []uint32{2, 3, 4}, slices.Collect(c.All()))
}

func TestLastNValues(t *testing.T) {
	const capacity = 7
	for _, m := range []int{0, 1, capacity - 1, capacity, capacity + 1, 3*capacity + 2} {
		t.Run(fmt.Sprintf("writes=%d", m), func(t *testing.T) {
			c := New(capacity, -1)
			for v := range m {
				c.Add(v)
			}

			// Unwritten slots keep the zero value and sort before the written ones.
			want := make([]int, 0, capacity)
			for range max(capacity-m, 0) {
				want = append(want, -1)
			}
			for v := max(m-capacity, 0); v < m; v++ {
				want = append(want, v)
			}

			assert.Equal(t, want, slices.Collect(c.All()))

			got := make([]int, capacity)
			require.Equal(t, capacity, c.CopyTo(got))
			assert.Equal(t, want, got)
		})
	}
}

func TestEnumerateEarlyStop(t *testing.T) {
	c := New(4, 0)
	for v := 1; v <= 6; v++ {
		c.Add(v)
	}

	var idx, vals []int
	for i, v := range c.Enumerate() {
		if i == 2 {
			break
		}
		idx = append(idx, i)
		vals = append(vals, v)
	}
	assert.Equal(t, []int{0, 1}, idx)
	assert.Equal(t, []int{3, 4}, vals)
}

func TestCopyToShortDestination(t *testing.T) {
	c := New(4, 0)
	for v := 1; v <= 5; v++ {
		c.Add(v)
	}
	dst := make([]int, 2)
	assert.Equal(t, 2, c.CopyTo(dst))
	assert.Equal(t, []int{2, 3}, dst)
}

func TestNewPanicsOnEmptyCapacity(t *testing.T) {
	assert.Panics(t, func() { New(0, 0) })
}

func TestAddCopyHotPath(t *testing.T) {
	c := New(160, [2]float32{})
	dst := make([][2]float32, 160)

	allocs := testing.AllocsPerRun(100, func() {
		c.Add([2]float32{1, 2})
		c.CopyTo(dst)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in Add/CopyTo hot path, got %.1f", allocs)
	}
}

func BenchmarkAdd(b *testing.B) {
	c := New(160, [2]float32{})
	b.ReportAllocs()
	for b.Loop() {
		c.Add([2]float32{1, 2})
	}
}
