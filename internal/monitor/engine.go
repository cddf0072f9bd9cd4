// SPDX-License-Identifier: MIT
/*
Package monitor runs the pulse oximeter on an rtic kernel:

- The sample task runs every SamplePeriod at SamplePriority. It respawns
  itself first, at an absolute deadline, then drains the sensor FIFO and
  pushes the newest pair into the shared ring.
- The idle loop copies the ring under its ceiling lock, then detrends,
  detects heartbeats, estimates HR and SpO2 and renders, all outside the
  lock, over and over.

The ring is the only state the two share. A sensor fault, a failed respawn
or a display failure halts the kernel and ends Run with that error.
*/
package monitor

import (
	"context"
	"fmt"
	"time"

	"cardiac/internal/config"
	"cardiac/internal/display"
	"cardiac/internal/log"
	"cardiac/internal/model"
	"cardiac/internal/rtic"
	"cardiac/internal/sensor"
	"cardiac/pkg/circ"
)

// Ring is the acquisition window shared between the two priorities.
type Ring = circ.Ring[model.Sample]

type Engine struct {
	kernel  *rtic.Kernel
	sensor  sensor.Sensor
	display display.Display

	samples    *rtic.Shared[Ring]
	sampleTask *rtic.Task

	// Owned by the sample task.
	fifo [config.FIFOReadPairs]sensor.Pair

	// Owned by the idle loop.
	snapshot [config.WindowSize]model.Sample
	r, ir    model.Window
	model    model.UIModel

	stats    stats
	log      *log.Logger
	throttle *log.Throttle
}

// New wires the sample task and the shared ring onto k.
func New(k *rtic.Kernel, s sensor.Sensor, d display.Display) *Engine {
	e := &Engine{
		kernel:   k,
		sensor:   s,
		display:  d,
		samples:  rtic.NewShared(k, config.SamplePriority, circ.New(config.WindowSize, model.Sample{})),
		model:    model.NewUIModel(),
		log:      log.Named("monitor"),
		throttle: log.NewThrottle(5 * time.Second),
	}
	e.sampleTask = k.NewTask("sample", config.SamplePriority, e.sample)
	return e
}

// Run releases the first acquisition StartupDelay from now and runs the
// analysis loop until ctx is done or the kernel halts.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.sampleTask.SpawnAfter(config.StartupDelay); err != nil {
		return fmt.Errorf("start sampling: %w", err)
	}
	e.log.Infof("Sampling at %d Hz into a %d sample window", config.SampleRateHz, config.WindowSize)

	return e.kernel.Idle(ctx, e.step)
}

// sample is the periodic acquisition task.
func (e *Engine) sample(cx rtic.Context) error {
	if err := e.sampleTask.SpawnAt(cx.Scheduled().Add(config.SamplePeriod)); err != nil {
		return fmt.Errorf("reschedule: %w", err)
	}

	n, err := e.sensor.ReadFIFO(e.fifo[:])
	if err != nil {
		return fmt.Errorf("read FIFO: %w", err)
	}
	if n == 0 {
		e.stats.empty.Add(1)
		return nil
	}

	// The slots are swapped against the datasheet order: the documented
	// assignment gives nonsensical SpO2 with this board.
	last := e.fifo[n-1]
	s := model.Sample{R: float32(last[1]), IR: float32(last[0])}

	e.samples.Lock(cx, func(ring *Ring) {
		ring.Add(s)
	})
	e.stats.samples.Add(1)
	return nil
}

// step is one pass of the analysis loop.
func (e *Engine) step(cx rtic.Context) error {
	var held time.Duration
	e.samples.Lock(cx, func(ring *Ring) {
		start := time.Now()
		ring.CopyTo(e.snapshot[:])
		held = time.Since(start)
	})
	e.stats.observeSnapshot(held)

	for i, s := range e.snapshot {
		e.r[i], e.ir[i] = s.R, s.IR
	}
	e.model.UpdateFromSamples(&e.r, &e.ir)

	if err := e.display.Render(&e.model); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	e.stats.cycles.Add(1)

	if now := time.Now(); e.throttle.Allow(now) {
		e.log.Debugf("%s", e.Stats())
	}
	return nil
}

// Stats returns a snapshot of the counters. It is safe to call from any
// goroutine.
func (e *Engine) Stats() Stats {
	return e.stats.load()
}
