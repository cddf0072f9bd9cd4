package config

import "time"

// Build-time constants of the acquisition and analysis pipeline. These are
// not runtime configurable: the window, the sampling period and the buffer
// capacities are fixed for the lifetime of the binary.
const (
	WindowSize    = 160                    // Samples per analysis window and ring buffer capacity
	SampleRateHz  = 25                     // Acquisition rate
	SamplePeriod  = 40 * time.Millisecond  // Acquisition task period
	StartupDelay  = 500 * time.Millisecond // First acquisition after power on
	FIFOReadPairs = 1                      // Sample pairs drained from the sensor per activation
	FIFOSlots     = 2                      // LED slots per sample pair (slot 0 = LED1, slot 1 = LED2)
	MaxHeartbeats = 16                     // Accepted heartbeats kept per channel per cycle
	MaxDistances  = 16                     // Inter-beat distances kept per channel per cycle

	// Priorities of the two logical activities. Idle runs at 0.
	SamplePriority = 1
)

// Static assertions. Each line fails to compile when its invariant is broken.
const (
	_ = uint(WindowSize - 2)    // the detrender needs at least two points
	_ = uint(MaxHeartbeats - 1) // heartbeat list capacity > 0
	_ = uint(MaxDistances - 1)  // distance heap capacity > 0
	_ = uint(FIFOReadPairs - 1) // at least one pair per read
	_ = uint(SamplePriority - 1)
)

// The sampling period and the sample rate describe the same clock.
var _ = [1]struct{}{}[SamplePeriod*SampleRateHz-time.Second]
