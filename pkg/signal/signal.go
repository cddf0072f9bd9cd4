// SPDX-License-Identifier: MIT
//
// Package signal shapes a detrended sample window into heartbeat candidates.
//
// Two pull-based iterators are chained: DerivIter walks the window producing the
// first derivative at each point, and HeartbeatIter consumes those to find
// high-to-low transitions (a flip of the derivative sign). Both are finite,
// single-pass and allocation free; build fresh ones for every window.
package signal

// Heartbeat is one high-to-low transition within a window. The fast rate of
// change makes it less likely to be confused with noise; amplitude filtering is
// left to the caller.
type Heartbeat struct {
	HighIdx   int
	HighValue float32
	LowIdx    int
	LowValue  float32
}

// DerivPoint is a sample, its index and the forward difference to the next one.
type DerivPoint struct {
	Idx    int
	Sample float32
	Deriv  float32
}

// DerivIter yields DerivPoint for indexes 0..len(data)-2.
type DerivIter struct {
	data []float32
	idx  int
}

// NewDerivIter starts a derivative pass over data.
func NewDerivIter(data []float32) DerivIter {
	return DerivIter{data: data}
}

// Next returns the next point, or false once the window is exhausted.
func (it *DerivIter) Next() (DerivPoint, bool) {
	if it.idx >= len(it.data)-1 {
		return DerivPoint{}, false
	}
	i := it.idx
	it.idx++

	s := it.data[i]
	return DerivPoint{
		Idx:    i,
		Sample: s,
		Deriv:  it.data[i+1] - s,
	}, true
}

// HeartbeatIter finds rising-then-falling runs in a window.
//
// While the derivative stays non-negative the latest point is remembered as the
// candidate high. When a non-negative derivative follows a negative one the fall
// is over: the remembered high and the current point (the bottom of the fall)
// form a Heartbeat. Nothing is emitted until a high has been seen, and the first
// derivative only primes the state.
type HeartbeatIter struct {
	derivs    DerivIter
	high      DerivPoint
	hasHigh   bool
	lastDeriv float32
	hasLast   bool
}

// NewHeartbeatIter starts a heartbeat pass over data.
func NewHeartbeatIter(data []float32) HeartbeatIter {
	return HeartbeatIter{derivs: NewDerivIter(data)}
}

// Next returns the next heartbeat, or false once the window is exhausted.
func (it *HeartbeatIter) Next() (Heartbeat, bool) {
	for {
		d, ok := it.derivs.Next()
		if !ok {
			return Heartbeat{}, false
		}

		if !it.hasLast {
			it.lastDeriv, it.hasLast = d.Deriv, true
			continue
		}
		last := it.lastDeriv
		it.lastDeriv = d.Deriv

		if d.Deriv < 0 {
			continue
		}
		if last >= 0 {
			it.high, it.hasHigh = d, true
			continue
		}
		if it.hasHigh {
			return Heartbeat{
				HighIdx:   it.high.Idx,
				HighValue: it.high.Sample,
				LowIdx:    d.Idx,
				LowValue:  d.Sample,
			}, true
		}
	}
}
