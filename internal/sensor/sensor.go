// SPDX-License-Identifier: MIT
//
// Package sensor provides the PPG sensor collaborator: a non-blocking read of
// the (LED1, LED2) count pairs queued in the device FIFO.
package sensor

import (
	"errors"
	"fmt"

	"cardiac/internal/config"
)

var (
	// ErrBus reports a failed transfer with the device, including a read
	// after Close. It is not transient: the acquisition side treats it as
	// fatal.
	ErrBus = errors.New("sensor bus fault")

	// ErrNotDetected is returned when the device does not answer at open,
	// or the replay capture cannot be found.
	ErrNotDetected = errors.New("sensor not detected")

	// ErrFormat is returned when a replay file does not hold raw LED counts.
	ErrFormat = errors.New("unsupported replay format")
)

// Pair is one FIFO entry: the counts of LED slot 1 and slot 2, in FIFO order.
type Pair = [config.FIFOSlots]uint32

// Sensor is a PPG front end with an internal sample FIFO.
type Sensor interface {
	// ReadFIFO moves up to len(dst) queued pairs into dst, oldest first, and
	// returns how many it moved. It never blocks; an empty FIFO is (0, nil).
	// Communication failures wrap ErrBus.
	ReadFIFO(dst []Pair) (int, error)

	Close() error
}

// Open creates the sensor selected by cfg.
func Open(cfg config.SensorConfig) (Sensor, error) {
	switch cfg.Source {
	case config.SourceSimulated:
		return NewSimulated(cfg.Simulated, nil), nil
	case config.SourceReplay:
		return OpenReplay(cfg.ReplayFile, cfg.Loop)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownSource, cfg.Source)
	}
}
