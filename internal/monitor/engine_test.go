// SPDX-License-Identifier: MIT
package monitor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cardiac/internal/config"
	"cardiac/internal/model"
	"cardiac/internal/rtic"
	"cardiac/internal/sensor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock only moves when the test advances it. Due timers fire on their
// own goroutines, like time.AfterFunc.
type fakeClock struct {
	mu        sync.Mutex
	now       time.Time
	timers    []*fakeTimer
	deadlines []time.Time
}

type fakeTimer struct {
	c    *fakeClock
	at   time.Time
	f    func()
	done bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) rtic.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	c.deadlines = append(c.deadlines, t.at)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves the clock and fires every timer that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			go t.f()
		}
	}
}

// armed returns how many timers are waiting to fire.
func (c *fakeClock) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

func (c *fakeClock) armedDeadlines() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.deadlines)
}

// fakeSensor returns one tagged pair per read: slot 1 holds the tag and
// slot 2 the tag plus 1000.
type fakeSensor struct {
	reads atomic.Int64
	tag   atomic.Uint32
	empty atomic.Bool
	fail  atomic.Pointer[error]
}

func (s *fakeSensor) ReadFIFO(dst []sensor.Pair) (int, error) {
	defer s.reads.Add(1)
	if err := s.fail.Load(); err != nil {
		return 0, *err
	}
	if s.empty.Load() || len(dst) == 0 {
		return 0, nil
	}
	tag := s.tag.Add(1)
	dst[0] = sensor.Pair{tag, tag + 1000}
	return 1, nil
}

func (s *fakeSensor) Close() error { return nil }

// snapshotDisplay checks every snapshot the engine renders from.
type snapshotDisplay struct {
	e *Engine

	mu      sync.Mutex
	renders int
	torn    int
	last    [config.WindowSize]model.Sample
	err     error
}

func (d *snapshotDisplay) Render(m *model.UIModel) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.renders++
	d.last = d.e.snapshot

	// Written slots hold consecutive tags, oldest first, each pair intact.
	prev := float32(0)
	for _, s := range d.last {
		if s == (model.Sample{}) {
			continue
		}
		if s.R != s.IR+1000 || (prev != 0 && s.IR != prev+1) {
			d.torn++
		}
		prev = s.IR
	}
	return d.err
}

func (d *snapshotDisplay) lastSamples(n int) []model.Sample {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.last[len(d.last)-n:])
}

type harness struct {
	clk    *fakeClock
	kernel *rtic.Kernel
	sensor *fakeSensor
	disp   *snapshotDisplay
	engine *Engine
	cancel context.CancelFunc
	errc   chan error
}

func start(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clk:    newFakeClock(),
		sensor: &fakeSensor{},
		errc:   make(chan error, 1),
	}
	h.kernel = rtic.New(h.clk)
	h.disp = &snapshotDisplay{}
	h.engine = New(h.kernel, h.sensor, h.disp)
	h.disp.e = h.engine

	var ctx context.Context
	ctx, h.cancel = context.WithCancel(context.Background())
	go func() { h.errc <- h.engine.Run(ctx) }()

	t.Cleanup(func() {
		h.cancel()
		_ = h.kernel.Close()
	})

	require.Eventually(t, func() bool { return h.clk.armed() == 1 }, time.Second, time.Millisecond,
		"first acquisition was not scheduled")
	return h
}

// tick advances to the next release and waits for the activation to read
// the sensor and respawn.
func (h *harness) tick(t *testing.T, d time.Duration) {
	t.Helper()
	reads := h.sensor.reads.Load()
	h.clk.Advance(d)
	require.Eventually(t, func() bool {
		return h.sensor.reads.Load() == reads+1 && h.clk.armed() == 1
	}, time.Second, time.Millisecond)
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.errc:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
		return nil
	}
}

func TestEngineAcquiresAndAnalyzes(t *testing.T) {
	h := start(t)
	t0 := h.clk.Now()

	// Nothing is read before the startup delay.
	h.clk.Advance(config.StartupDelay - time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, h.sensor.reads.Load())

	h.tick(t, time.Millisecond)
	for range 4 {
		// Late by 10ms every period; deadlines must not drift.
		h.tick(t, config.SamplePeriod+10*time.Millisecond)
	}

	deadlines := h.clk.armedDeadlines()
	for i, at := range deadlines {
		want := t0.Add(config.StartupDelay + time.Duration(i)*config.SamplePeriod)
		assert.Equal(t, want, at, "release %d", i)
	}

	want := []model.Sample{{R: 1001, IR: 1}, {R: 1002, IR: 2}, {R: 1003, IR: 3}, {R: 1004, IR: 4}, {R: 1005, IR: 5}}
	require.Eventually(t, func() bool {
		return slices.Equal(want, h.disp.lastSamples(len(want)))
	}, time.Second, time.Millisecond)

	h.cancel()
	require.NoError(t, h.wait(t))

	stats := h.engine.Stats()
	assert.Equal(t, uint64(5), stats.Samples)
	assert.Zero(t, stats.Empty)
	assert.Positive(t, stats.Cycles)
	assert.Contains(t, stats.String(), "samples 5")

	h.disp.mu.Lock()
	defer h.disp.mu.Unlock()
	assert.Zero(t, h.disp.torn, "torn snapshots in %d renders", h.disp.renders)
}

func TestEngineEmptyReadsSkipped(t *testing.T) {
	h := start(t)
	h.sensor.empty.Store(true)

	h.tick(t, config.StartupDelay)
	h.tick(t, config.SamplePeriod)

	stats := h.engine.Stats()
	assert.Equal(t, uint64(2), stats.Empty)
	assert.Zero(t, stats.Samples)
	assert.Equal(t, make([]model.Sample, 3), h.disp.lastSamples(3))

	h.cancel()
	require.NoError(t, h.wait(t))
}

func TestEngineSensorFaultHalts(t *testing.T) {
	h := start(t)
	fault := fmt.Errorf("i2c nack: %w", sensor.ErrBus)
	h.sensor.fail.Store(&fault)

	h.clk.Advance(config.StartupDelay)

	err := h.wait(t)
	require.Error(t, err)
	assert.ErrorIs(t, err, sensor.ErrBus)
	assert.Contains(t, err.Error(), "task sample: read FIFO")
	assert.ErrorIs(t, h.kernel.Err(), sensor.ErrBus)
}

func TestEngineDisplayFaultHalts(t *testing.T) {
	errPanel := errors.New("panel write failed")

	k := rtic.New(newFakeClock())
	defer k.Close()
	d := &snapshotDisplay{err: errPanel}
	e := New(k, &fakeSensor{}, d)
	d.e = e

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, errPanel)
	assert.Contains(t, err.Error(), "render")
	assert.Zero(t, e.Stats().Cycles)
}
