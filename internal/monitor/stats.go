// SPDX-License-Identifier: MIT
package monitor

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats are the engine counters.
type Stats struct {
	Cycles      uint64        // Analysis passes rendered
	Samples     uint64        // Pairs pushed into the ring
	Empty       uint64        // Acquisitions that found the FIFO empty
	MaxSnapshot time.Duration // Longest time the analysis loop held the ring
}

func (s Stats) String() string {
	return fmt.Sprintf("cycles %d, samples %d, empty reads %d, max snapshot %s",
		s.Cycles, s.Samples, s.Empty, s.MaxSnapshot)
}

type stats struct {
	cycles      atomic.Uint64
	samples     atomic.Uint64
	empty       atomic.Uint64
	maxSnapshot atomic.Int64
}

func (s *stats) observeSnapshot(d time.Duration) {
	for {
		cur := s.maxSnapshot.Load()
		if int64(d) <= cur || s.maxSnapshot.CompareAndSwap(cur, int64(d)) {
			return
		}
	}
}

func (s *stats) load() Stats {
	return Stats{
		Cycles:      s.cycles.Load(),
		Samples:     s.samples.Load(),
		Empty:       s.empty.Load(),
		MaxSnapshot: time.Duration(s.maxSnapshot.Load()),
	}
}
