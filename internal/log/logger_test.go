package log

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := GetLevel()
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prev)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"Warning", LevelWarn, true},
		{"error", LevelError, true},
		{"verbose", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(LevelWarn)

	Infof("dropped %d", 1)
	Warnf("kept %d", 2)

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN]  kept 2") {
		t.Errorf("warn message missing or misaligned: %q", out)
	}
}

func TestNamed(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(LevelDebug)

	Named("sensor").Debugf("fifo depth %d", 3)

	if out := buf.String(); !strings.Contains(out, "[DEBUG] sensor: fifo depth 3") {
		t.Errorf("component prefix missing: %q", out)
	}
}

func TestThrottle(t *testing.T) {
	th := NewThrottle(time.Second)
	t0 := time.Unix(100, 0)

	if !th.Allow(t0) {
		t.Fatal("first event must pass")
	}
	if th.Allow(t0.Add(999 * time.Millisecond)) {
		t.Error("event inside the interval must be throttled")
	}
	if !th.Allow(t0.Add(time.Second)) {
		t.Error("event after the interval must pass")
	}
}

func TestThrottleConcurrent(t *testing.T) {
	th := NewThrottle(time.Hour)
	now := time.Now()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if th.Allow(now) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 1 {
		t.Errorf("allowed = %d, want exactly 1", allowed)
	}
}

func TestThrottleAllocs(t *testing.T) {
	th := NewThrottle(time.Millisecond)
	now := time.Now()
	allocs := testing.AllocsPerRun(100, func() {
		th.Allow(now)
	})
	if allocs > 0 {
		t.Errorf("Allow allocated %.1f times per call", allocs)
	}
}
