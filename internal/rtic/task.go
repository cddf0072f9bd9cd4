// SPDX-License-Identifier: MIT
package rtic

import (
	"fmt"
	"time"
)

// Task is a software task with a static priority and a queue of one release.
type Task struct {
	k    *Kernel
	name string
	prio Priority
	fn   func(Context) error

	// Guarded by k.mu.
	pending bool
	timer   Timer
}

// NewTask registers a task. The priority must be in [1, MaxPriority]; 0
// belongs to the idle loop. A task returning an error halts the kernel.
func (k *Kernel) NewTask(name string, prio Priority, fn func(Context) error) *Task {
	if prio == IdlePriority || prio > MaxPriority {
		panic(fmt.Sprintf("rtic: task %q priority %d out of range [1, %d]", name, prio, MaxPriority))
	}
	t := &Task{k: k, name: name, prio: prio, fn: fn}

	k.mu.Lock()
	k.tasks = append(k.tasks, t)
	k.mu.Unlock()

	return t
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// SpawnAt releases the task at the absolute instant at. Instants in the past
// release immediately.
func (t *Task) SpawnAt(at time.Time) error {
	k := t.k

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.halted {
		return ErrStopped
	}
	if t.pending {
		return ErrSpawnPending
	}

	t.pending = true
	k.inflight.Add(1)
	t.timer = k.clock.AfterFunc(at.Sub(k.clock.Now()), func() {
		t.dispatch(at)
	})
	return nil
}

// SpawnAfter releases the task d from now.
func (t *Task) SpawnAfter(d time.Duration) error {
	return t.SpawnAt(t.k.clock.Now().Add(d))
}

func (t *Task) dispatch(at time.Time) {
	k := t.k
	defer k.inflight.Done()

	k.mu.Lock()
	for !k.halted && k.highest() >= t.prio {
		k.cond.Wait()
	}
	if k.halted {
		t.pending = false
		k.mu.Unlock()
		return
	}
	// Dequeued before it runs so the activation can respawn itself.
	t.pending = false
	t.timer = nil
	k.active[t.prio]++
	k.mu.Unlock()

	err := t.run(Context{k: k, prio: t.prio, scheduled: at})
	k.lower(t.prio)

	if err != nil {
		k.Halt(fmt.Errorf("task %s: %w", t.name, err))
	}
}

func (t *Task) run(cx Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.fn(cx)
}
