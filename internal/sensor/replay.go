// SPDX-License-Identifier: MIT
package sensor

import (
	"fmt"
	"io"
	"os"
	"sync"

	"cardiac/internal/config"
	"cardiac/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Replay bit depth: 18-bit counts fit a signed 24-bit PCM sample.
const replayBitDepth = 24

// Replay plays back a two-channel PCM WAV of raw LED counts, channel 0 being
// FIFO slot 1. Each read yields at most one pair, so the file advances at the
// acquisition rate no matter what rate it was recorded at.
type Replay struct {
	mu     sync.Mutex
	pairs  []Pair
	pos    int
	loop   bool
	closed bool
}

var _ Sensor = (*Replay)(nil)

// OpenReplay loads a capture. With loop set the capture restarts at its end;
// otherwise the FIFO stays empty once it has been played.
func OpenReplay(path string, loop bool) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w: %w", ErrNotDetected, err)
	}
	defer f.Close()

	return NewReplay(f, loop)
}

// NewReplay decodes a capture from r.
func NewReplay(r io.ReadSeeker, loop bool) (*Replay, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", ErrFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode replay: %w", err)
	}
	if int(dec.NumChans) != config.FIFOSlots {
		return nil, fmt.Errorf("%w: %d channels, want %d", ErrFormat, dec.NumChans, config.FIFOSlots)
	}
	if dec.SampleRate != config.SampleRateHz {
		log.Named("sensor").Warnf("replay recorded at %d Hz, playing at %d Hz", dec.SampleRate, config.SampleRateHz)
	}

	frames := len(buf.Data) / config.FIFOSlots
	if frames == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrFormat)
	}

	pairs := make([]Pair, frames)
	for i := range pairs {
		for slot := range config.FIFOSlots {
			v := buf.Data[i*config.FIFOSlots+slot]
			if v < 0 {
				return nil, fmt.Errorf("%w: negative count %d at frame %d", ErrFormat, v, i)
			}
			pairs[i][slot] = uint32(v)
		}
	}

	return &Replay{pairs: pairs, loop: loop}, nil
}

// Len returns the number of pairs in the capture.
func (r *Replay) Len() int { return len(r.pairs) }

// ReadFIFO implements Sensor.
func (r *Replay) ReadFIFO(dst []Pair) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, fmt.Errorf("%w: replay closed", ErrBus)
	}
	if len(dst) == 0 {
		return 0, nil
	}
	if r.pos == len(r.pairs) {
		if !r.loop {
			return 0, nil
		}
		r.pos = 0
	}

	dst[0] = r.pairs[r.pos]
	r.pos++
	return 1, nil
}

// Close implements Sensor. Reads after Close fail with ErrBus.
func (r *Replay) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// EncodeWAV writes pairs as a capture that NewReplay can load.
func EncodeWAV(w io.WriteSeeker, pairs []Pair) error {
	enc := wav.NewEncoder(w, config.SampleRateHz, replayBitDepth, config.FIFOSlots, 1)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: config.FIFOSlots,
			SampleRate:  config.SampleRateHz,
		},
		Data:           make([]int, 0, len(pairs)*config.FIFOSlots),
		SourceBitDepth: replayBitDepth,
	}
	for _, p := range pairs {
		for _, v := range p {
			buf.Data = append(buf.Data, int(v))
		}
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode capture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize capture: %w", err)
	}
	return nil
}

// Capture drains n pairs from s into a WAV written to w. It is meant for
// sources that produce on demand, such as a Simulated sensor on a synthetic
// clock; an empty read ends the capture early.
func Capture(s Sensor, w io.WriteSeeker, n int) (int, error) {
	pairs := make([]Pair, 0, n)
	var one [1]Pair
	for len(pairs) < n {
		got, err := s.ReadFIFO(one[:])
		if err != nil {
			return 0, err
		}
		if got == 0 {
			break
		}
		pairs = append(pairs, one[0])
	}
	return len(pairs), EncodeWAV(w, pairs)
}
