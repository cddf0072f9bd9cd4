// SPDX-License-Identifier: MIT
package model

import (
	"cardiac/internal/config"
	"cardiac/pkg/signal"
)

// HeartbeatList is a fixed-capacity list of accepted heartbeats. Pushing onto
// a full list drops the heartbeat.
type HeartbeatList struct {
	items [config.MaxHeartbeats]signal.Heartbeat
	n     int
}

// Push appends hb and reports whether there was room for it.
func (l *HeartbeatList) Push(hb signal.Heartbeat) bool {
	if l.n == len(l.items) {
		return false
	}
	l.items[l.n] = hb
	l.n++
	return true
}

func (l *HeartbeatList) Len() int { return l.n }

func (l *HeartbeatList) Reset() { l.n = 0 }

// All returns the accepted heartbeats in detection order. The slice aliases
// the list and is valid until the next update.
func (l *HeartbeatList) All() []signal.Heartbeat {
	return l.items[:l.n]
}

// distHeap is a fixed-capacity binary max-heap of inter-beat distances.
// container/heap would box every element through its any-typed interface, so
// the sift operations are inlined over a plain array instead.
type distHeap struct {
	items [config.MaxDistances]int
	n     int
}

// push inserts d, dropping it when the heap is full.
func (h *distHeap) push(d int) bool {
	if h.n == len(h.items) {
		return false
	}
	i := h.n
	h.items[i] = d
	h.n++

	for i > 0 {
		parent := (i - 1) / 2
		if h.items[parent] >= h.items[i] {
			break
		}
		h.items[parent], h.items[i] = h.items[i], h.items[parent]
		i = parent
	}
	return true
}

// pop removes and returns the largest distance.
func (h *distHeap) pop() (int, bool) {
	if h.n == 0 {
		return 0, false
	}
	top := h.items[0]
	h.n--
	h.items[0] = h.items[h.n]

	i := 0
	for {
		largest := i
		l, r := 2*i+1, 2*i+2
		if l < h.n && h.items[l] > h.items[largest] {
			largest = l
		}
		if r < h.n && h.items[r] > h.items[largest] {
			largest = r
		}
		if largest == i {
			break
		}
		h.items[i], h.items[largest] = h.items[largest], h.items[i]
		i = largest
	}
	return top, true
}

func (h *distHeap) len() int { return h.n }
