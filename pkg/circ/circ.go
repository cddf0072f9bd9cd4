// SPDX-License-Identifier: MIT
//
// Package circ provides a tiny fixed-capacity circular buffer. The buffer never
// grows: every Add overwrites the oldest slot, so after Cap() writes it holds
// exactly the Cap() most recent values. Storage is allocated once, at
// construction, and nothing on the Add or iteration paths allocates.
package circ

import "iter"

// Ring is a circular buffer of T with a write cursor. The cursor always points
// at the slot that will be overwritten next, which is also the oldest value.
type Ring[T any] struct {
	data []T
	next int
}

// New creates a ring of the given capacity with every slot set to zero.
// A capacity below one is a configuration error and panics.
func New[T any](capacity int, zero T) Ring[T] {
	if capacity < 1 {
		panic("circ: capacity must be positive")
	}
	data := make([]T, capacity)
	for i := range data {
		data[i] = zero
	}
	return Ring[T]{data: data}
}

// Cap returns the fixed number of slots.
func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// Add writes s into the cursor slot and advances the cursor. O(1), never fails.
func (r *Ring[T]) Add(s T) {
	r.data[r.next] = s
	r.next = r.wrapNext(r.next)
}

// Slots returns the backing storage in slot order (not oldest-first).
// The caller must not modify it.
func (r *Ring[T]) Slots() []T {
	return r.data
}

// All yields the stored values oldest to newest, starting at the cursor and
// wrapping once. The sequence is finite and can be ranged over repeatedly.
func (r *Ring[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range r.Enumerate() {
			if !yield(v) {
				return
			}
		}
	}
}

// Enumerate is All with the position of each value in oldest-first order.
func (r *Ring[T]) Enumerate() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		idx := r.next
		for i := range len(r.data) {
			if !yield(i, r.data[idx]) {
				return
			}
			idx = r.wrapNext(idx)
		}
	}
}

// CopyTo copies the values oldest-first into dst and returns the number copied,
// which is min(len(dst), Cap()).
func (r *Ring[T]) CopyTo(dst []T) int {
	n := copy(dst, r.data[r.next:])
	n += copy(dst[n:], r.data[:r.next])
	return n
}

func (r *Ring[T]) wrapNext(n int) int {
	n++
	if n >= len(r.data) {
		return 0
	}
	return n
}
