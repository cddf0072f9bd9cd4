// SPDX-License-Identifier: MIT
package rtic

import "time"

type (
	// Clock abstracts the monotonic time source and the one-shot timers the
	// kernel arms for scheduled tasks. Tests substitute a manual clock.
	Clock interface {
		Now() time.Time
		AfterFunc(d time.Duration, f func()) Timer
	}

	// Timer abstracts the functionality of time.Timer the kernel needs.
	Timer interface {
		Stop() bool
	}

	wallClock struct{}
)

// Now indirects time.Now.
func (wallClock) Now() time.Time {
	return time.Now()
}

// AfterFunc indirects time.AfterFunc.
func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// WallClock is the Clock backed by package time.
var WallClock Clock = wallClock{}
