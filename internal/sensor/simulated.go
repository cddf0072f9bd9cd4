// SPDX-License-Identifier: MIT
package sensor

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"cardiac/internal/config"
	"cardiac/internal/log"
	"cardiac/pkg/bitint"
	"cardiac/pkg/utils"
)

// fifoDepth mirrors the 32-entry FIFO of MAX3010x parts. One slot stays
// unused so that equal pointers always mean empty.
const fifoDepth = 32

var _ = [1]struct{}{}[fifoDepth&(fifoDepth-1)] // power of two

// Counts saturate at the 18-bit ADC range.
const adcMax = 1<<18 - 1

// Simulated is a fingertip on a MAX3010x-like sensor. Samples are produced at
// SampleRateHz from the elapsed time of its clock and queue in a FIFO that
// rolls over (dropping the oldest entry) when the reader falls behind.
type Simulated struct {
	mu sync.Mutex

	now      func() time.Time
	start    time.Time
	produced int

	fifo     [fifoDepth]Pair
	wr, rd   int
	overflow int
	closed   bool

	led   [config.FIFOSlots]utils.PPG
	noise float64
	rng   *rand.Rand

	log *log.Logger
}

var _ Sensor = (*Simulated)(nil)

// NewSimulated creates a simulated sensor. A nil now selects time.Now.
//
// LED1 and LED2 carry the same pulse with different perfusion: the ratio of
// their AC/DC ratios is 0.6, which reads as roughly 97% SpO2.
func NewSimulated(cfg config.SimulatedConfig, now func() time.Time) *Simulated {
	if now == nil {
		now = time.Now
	}
	s := &Simulated{
		now:   now,
		start: now(),
		noise: cfg.Noise,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		log:   log.Named("sensor"),
	}
	s.led[0] = utils.PPG{DC: 100000, AC: 1500, BPM: cfg.HeartRateBPM, Drift: 2, Dicrot: 0.15}
	s.led[1] = utils.PPG{DC: 90000, AC: 810, BPM: cfg.HeartRateBPM, Drift: 1.5, Dicrot: 0.15}
	return s
}

// ReadFIFO implements Sensor.
func (s *Simulated) ReadFIFO(dst []Pair) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("%w: sensor closed", ErrBus)
	}
	s.fill()

	n := 0
	for n < len(dst) && s.rd != s.wr {
		dst[n] = s.fifo[s.rd]
		s.rd = bitint.Wrap(s.rd+1, fifoDepth)
		n++
	}
	return n, nil
}

// Overflow returns how many entries were dropped because the FIFO was full.
func (s *Simulated) Overflow() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overflow
}

// Close implements Sensor. Reads after Close fail with ErrBus.
func (s *Simulated) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// fill queues every sample due since the last call.
func (s *Simulated) fill() {
	due := int(s.now().Sub(s.start) / config.SamplePeriod)
	for ; s.produced < due; s.produced++ {
		if bitint.Distance(s.wr, s.rd, fifoDepth) == fifoDepth-1 {
			s.rd = bitint.Wrap(s.rd+1, fifoDepth)
			s.overflow++
			if s.overflow == 1 {
				s.log.Warnf("FIFO overflow, reader is falling behind")
			}
		}
		s.fifo[s.wr] = s.sample(s.produced)
		s.wr = bitint.Wrap(s.wr+1, fifoDepth)
	}
}

func (s *Simulated) sample(i int) Pair {
	var p Pair
	for slot, led := range s.led {
		v := led.At(i, config.SampleRateHz) + s.rng.NormFloat64()*s.noise
		p[slot] = uint32(min(max(v, 0), adcMax))
	}
	return p
}
