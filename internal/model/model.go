// SPDX-License-Identifier: MIT
//
// Package model turns one window of raw sensor counts per channel into the
// values shown on the display: the detrended pulsatile (AC) trace, the
// accepted heartbeats, a heart rate and the AC/DC ratio feeding SpO2.
//
// Every update recomputes the channel from scratch. Apart from the fixed
// arrays it writes into, nothing carries over from one window to the next, so
// updating twice from the same window yields identical results.
package model

import (
	"math"

	"cardiac/internal/config"
	"cardiac/pkg/linreg"
	"cardiac/pkg/signal"
)

// Sample is one acquisition: the red and infrared LED counts.
type Sample struct {
	R  float32
	IR float32
}

// Window is one analysis window of a single channel, oldest sample first.
type Window = [config.WindowSize]float32

// SampleData is the derived state of one channel (red or infrared).
type SampleData struct {
	// AC is the window with its DC mean and linear trend removed.
	AC Window

	// ACMax and ACMin bound AC, for scaling the trace.
	ACMax float32
	ACMin float32

	Heartbeats HeartbeatList

	dcMean    float32
	linreg    linreg.Linreg
	heartRate float32
	hasRate   bool
	acOverDC  float32 // NaN when no heartbeat was accepted
}

// NewSampleData returns a channel in its power-on state: a flat trace scaled
// to [0, 1], no heartbeats, no heart rate and an AC/DC ratio of 1.
func NewSampleData() SampleData {
	return SampleData{
		ACMax:    1,
		ACMin:    0,
		linreg:   linreg.New(config.WindowSize),
		acOverDC: 1,
	}
}

// HeartRate returns the heart rate in beats per minute. ok is false when the
// window did not contain two accepted heartbeats.
func (d *SampleData) HeartRate() (bpm float32, ok bool) {
	return d.heartRate, d.hasRate
}

// ACOverDC returns the mean accepted heartbeat amplitude divided by the DC
// mean of the window. It is NaN when no heartbeat was accepted.
func (d *SampleData) ACOverDC() float32 { return d.acOverDC }

// DCMean returns the mean of the raw window.
func (d *SampleData) DCMean() float32 { return d.dcMean }

// Trend returns the slope and intercept of the line removed from the
// mean-subtracted window.
func (d *SampleData) Trend() (intercept, slope float32) {
	return d.linreg.Intercept, d.linreg.Slope
}

// UpdateFromSamples recomputes the channel from one window of raw counts.
//
// The DC mean is subtracted first, then the least-squares line of what is left
// is subtracted too. A detected heartbeat is accepted when its high-to-low
// swing exceeds a quarter of the trace's peak-to-peak range. The heart rate is
// derived from the distances between consecutive accepted highs: the longest
// half of them is discarded (missed beats show up as long gaps) and the
// longest remaining one is taken as the beat interval.
func (d *SampleData) UpdateFromSamples(data *Window) {
	d.dcMean = 0
	d.ACMax = -math.MaxFloat32
	d.ACMin = math.MaxFloat32

	for i, x := range data {
		d.AC[i] = x
		d.dcMean += x
	}
	d.dcMean /= config.WindowSize

	for i := range d.AC {
		d.AC[i] -= d.dcMean
	}

	d.linreg.UpdateFrom(d.AC[:])

	for i := range d.AC {
		d.AC[i] -= d.linreg.Y(float32(i))
		d.ACMax = max(d.ACMax, d.AC[i])
		d.ACMin = min(d.ACMin, d.AC[i])
	}

	d.Heartbeats.Reset()

	var (
		dist     distHeap
		lastHigh = -1
		swingSum float32
		count    int
	)
	threshold := (d.ACMax - d.ACMin) / 4

	beats := signal.NewHeartbeatIter(d.AC[:])
	for hb, ok := beats.Next(); ok; hb, ok = beats.Next() {
		// Signed: a fall that bottoms out above its recorded high is no beat.
		swing := hb.HighValue - hb.LowValue
		if swing <= threshold {
			continue
		}

		d.Heartbeats.Push(hb)
		if lastHigh >= 0 {
			dist.push(hb.HighIdx - lastHigh)
		}
		lastHigh = hb.HighIdx

		swingSum += swing
		count++
	}

	// 0/0 is NaN with float32 operands, which is what an empty window reports.
	d.acOverDC = swingSum / float32(count) / d.dcMean

	d.heartRate, d.hasRate = 0, false
	if dist.len() > 0 {
		for range dist.len() / 2 {
			dist.pop()
		}
		if interval, ok := dist.pop(); ok {
			d.heartRate = 60 * config.SampleRateHz / float32(interval)
			d.hasRate = true
		}
	}
}

// UIModel is everything the display needs for one frame.
type UIModel struct {
	R  SampleData
	IR SampleData
}

// NewUIModel returns both channels in their power-on state.
func NewUIModel() UIModel {
	return UIModel{R: NewSampleData(), IR: NewSampleData()}
}

// UpdateFromSamples recomputes both channels.
func (m *UIModel) UpdateFromSamples(r, ir *Window) {
	m.R.UpdateFromSamples(r)
	m.IR.UpdateFromSamples(ir)
}

// SpO2 returns the oxygen saturation estimate in percent from the ratio of
// the red and infrared AC/DC ratios, using the empirical calibration
//
//	SpO2 = -45.06·z² + 30.354·z + 94.845,  z = (AC/DC)red / (AC/DC)ir
//
// It is NaN whenever either channel has no accepted heartbeat.
func (m *UIModel) SpO2() float32 {
	z := m.R.acOverDC / m.IR.acOverDC
	return (-45.06*z+30.354)*z + 94.845
}

// HeartRate returns the rate shown on the display: the infrared estimate,
// else the red one.
func (m *UIModel) HeartRate() (float32, bool) {
	if bpm, ok := m.IR.HeartRate(); ok {
		return bpm, true
	}
	return m.R.HeartRate()
}
