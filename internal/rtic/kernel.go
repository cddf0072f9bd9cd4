// SPDX-License-Identifier: MIT
//
// Package rtic emulates a single-core, priority-preemptive run-time for
// interrupt-driven concurrency on top of goroutines.
//
// Software tasks have a static priority in [1, MaxPriority] and are released
// by one-shot timers at an absolute instant. A released task is dispatched
// only when its priority is strictly higher than every priority currently
// active, so tasks of equal priority never overlap and a lower priority
// context never runs task code over a higher one. The idle loop runs at
// priority 0 on the caller's goroutine and never yields.
//
// State shared between priorities lives in a Shared resource. Locking it
// applies the immediate priority-ceiling protocol: the caller's effective
// priority is raised to the resource ceiling for the critical section, which
// keeps every task that could touch the resource from being dispatched until
// the section ends. Waiting only ever happens before a critical section
// starts, never inside one, so there is no deadlock and inversion is bounded
// by the length of the longest critical section.
package rtic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Priority is a static scheduling priority. Higher values preempt lower ones.
type Priority uint8

const (
	IdlePriority  Priority = 0
	MaxPriority   Priority = 15
	numPriorities          = int(MaxPriority) + 1
)

var (
	// ErrSpawnPending is returned when a task is spawned while a previous
	// release of it has not been dispatched yet. Each task queues at most one
	// release.
	ErrSpawnPending = errors.New("task already pending")

	// ErrStopped is returned by Spawn after the kernel halted.
	ErrStopped = errors.New("kernel stopped")
)

// Kernel owns the priority bookkeeping and the software tasks.
type Kernel struct {
	clock Clock

	mu     sync.Mutex
	cond   *sync.Cond
	active [numPriorities]int // running contexts and raised ceilings per priority
	tasks  []*Task
	halted bool
	err    error
	done   chan struct{}

	inflight sync.WaitGroup // armed timers and running dispatches
}

// New creates a kernel on the given clock. A nil clock selects WallClock.
func New(clock Clock) *Kernel {
	if clock == nil {
		clock = WallClock
	}
	k := &Kernel{
		clock: clock,
		done:  make(chan struct{}),
	}
	k.cond = sync.NewCond(&k.mu)
	return k
}

// Now returns the current instant of the kernel clock.
func (k *Kernel) Now() time.Time {
	return k.clock.Now()
}

// Context is handed to every task activation and to each idle step.
type Context struct {
	k         *Kernel
	prio      Priority
	scheduled time.Time
}

// Priority returns the static priority the context runs at.
func (cx Context) Priority() Priority { return cx.prio }

// Scheduled returns the instant the activation was released for. Periodic
// tasks respawn at Scheduled()+period so that dispatch latency does not
// accumulate.
func (cx Context) Scheduled() time.Time { return cx.scheduled }

// Kernel returns the kernel the context belongs to.
func (cx Context) Kernel() *Kernel { return cx.k }

// highest returns the highest active priority, IdlePriority when none is.
// Callers hold k.mu.
func (k *Kernel) highest() Priority {
	for p := numPriorities - 1; p > 0; p-- {
		if k.active[p] > 0 {
			return Priority(p)
		}
	}
	return IdlePriority
}

// raise waits until no context above prio is active, then marks level as
// active.
func (k *Kernel) raise(prio, level Priority) {
	k.mu.Lock()
	for k.highest() > prio {
		k.cond.Wait()
	}
	k.active[level]++
	k.mu.Unlock()
}

func (k *Kernel) lower(level Priority) {
	k.mu.Lock()
	k.active[level]--
	k.cond.Broadcast()
	k.mu.Unlock()
}

// Halt stops the kernel with a fault. Pending releases are cancelled, tasks
// already running finish their activation, and the idle loop returns err.
// Only the first fault is kept.
func (k *Kernel) Halt(err error) {
	if err == nil {
		err = ErrStopped
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.halted {
		return
	}
	k.halted = true
	k.err = err
	close(k.done)

	for _, t := range k.tasks {
		if t.timer != nil && t.timer.Stop() {
			t.pending = false
			k.inflight.Done()
		}
		t.timer = nil
	}
	k.cond.Broadcast()
}

// Done is closed once the kernel halted.
func (k *Kernel) Done() <-chan struct{} {
	return k.done
}

// Err returns the fault the kernel halted with, nil while it runs.
func (k *Kernel) Err() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.err
}

// Idle runs step in a loop at IdlePriority until ctx is cancelled or the
// kernel halts. A step error halts the kernel. Idle returns nil when ctx
// ended the loop and the fault otherwise.
func (k *Kernel) Idle(ctx context.Context, step func(Context) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-k.done:
			return k.Err()
		default:
		}

		cx := Context{k: k, prio: IdlePriority, scheduled: k.clock.Now()}
		if err := step(cx); err != nil {
			k.Halt(fmt.Errorf("idle: %w", err))
			return k.Err()
		}
	}
}

// Close halts the kernel if it is still running and waits for every
// dispatched activation to return.
func (k *Kernel) Close() error {
	k.Halt(ErrStopped)
	k.inflight.Wait()
	return nil
}
