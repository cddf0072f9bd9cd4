// SPDX-License-Identifier: MIT
package display

import (
	"time"

	"cardiac/internal/log"
	"cardiac/internal/model"
)

// LoggingDisplay implements Display by logging the readings. It is used when
// there is no terminal to draw on. The analysis loop renders far more often
// than anyone can read, so at most one line per interval is written.
type LoggingDisplay struct {
	throttle *log.Throttle
	now      func() time.Time
	log      *log.Logger
	frames   uint64
}

// NewLoggingDisplay creates a LoggingDisplay. A nil now selects time.Now.
func NewLoggingDisplay(interval time.Duration, now func() time.Time) *LoggingDisplay {
	if now == nil {
		now = time.Now
	}
	l := &LoggingDisplay{
		throttle: log.NewThrottle(interval),
		now:      now,
		log:      log.Named("display"),
	}
	l.log.Infof("Using LoggingDisplay, one reading every %s", interval)
	return l
}

// Render logs the readings of m when the throttle admits it. It never fails.
func (l *LoggingDisplay) Render(m *model.UIModel) error {
	l.frames++
	if !l.throttle.Allow(l.now()) {
		return nil
	}

	hr, ok := m.HeartRate()
	reading := "--"
	if ok {
		reading = FormatReading(hr, 0)
	}
	l.log.Infof("HR %s bpm, SPO2 %s%%, beats r=%d ir=%d, frames %d",
		reading, FormatReading(m.SpO2(), 0), m.R.Heartbeats.Len(), m.IR.Heartbeats.Len(), l.frames)
	return nil
}

// Frames returns how many models were rendered, logged or not.
func (l *LoggingDisplay) Frames() uint64 { return l.frames }

// Ensure LoggingDisplay satisfies the interface at compile time.
var _ Display = (*LoggingDisplay)(nil)
