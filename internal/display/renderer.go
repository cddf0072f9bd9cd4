// SPDX-License-Identifier: MIT
package display

import (
	"fmt"
	"math"

	"cardiac/internal/config"
	"cardiac/internal/model"
)

// Layout of the frame. The header row holds the readings; the graph fills
// the rest of the surface.
const (
	TopTextHeight = 20
	MarkerSize    = 5

	hrX, spo2X, textY = 10, 100, 4
)

// Renderer draws UI models onto a Surface: the heart rate and SpO2 in the
// header, then the red and infrared AC traces scaled to their own range,
// with every accepted heartbeat's high and low marked.
type Renderer struct {
	surface Surface
}

var _ Display = (*Renderer)(nil)

// NewRenderer creates a renderer and clears the surface.
func NewRenderer(s Surface) *Renderer {
	w, h := s.Size()
	s.FillRect(0, 0, w, h, Black)
	return &Renderer{surface: s}
}

// Render implements Display with a full redraw of the frame.
func (r *Renderer) Render(m *model.UIModel) error {
	w, h := r.surface.Size()

	hr, ok := m.HeartRate()
	if !ok {
		hr = 0
	}
	r.surface.Text(hrX, textY, "HR "+FormatReading(hr, 3)+" ", Yellow, Black)
	r.surface.Text(spo2X, textY, "SPO2 "+FormatReading(m.SpO2(), 2)+" ", Yellow, Black)

	r.surface.FillRect(0, TopTextHeight, w, h-TopTextHeight, Black)

	r.trace(&m.R, Red)
	r.trace(&m.IR, Blue)

	if f, ok := r.surface.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// trace draws one channel. Samples map to x = i*width/WindowSize and the
// channel's [ACMin, ACMax] spans the graph height.
func (r *Renderer) trace(d *model.SampleData, c Color) {
	w, h := r.surface.Size()
	graph := h - TopTextHeight

	scale := float32(graph-1) / (d.ACMax - d.ACMin)
	if !finite(scale) {
		scale = 0
	}

	sx := func(i int) int { return i * w / config.WindowSize }
	sy := func(v float32) int {
		y := (v - d.ACMin) * scale
		if !finite(y) {
			y = 0
		}
		return h - 1 - int(y)
	}

	px, py := sx(0), sy(d.AC[0])
	for i := 1; i < len(d.AC); i++ {
		x, y := sx(i), sy(d.AC[i])
		r.surface.Line(px, py, x, y, c)
		px, py = x, y
	}

	for _, hb := range d.Heartbeats.All() {
		r.surface.Circle(sx(hb.HighIdx), sy(hb.HighValue), MarkerSize, c, Yellow)
		r.surface.Circle(sx(hb.LowIdx), sy(hb.LowValue), MarkerSize, c, Yellow)
	}
}

// FormatReading formats v right aligned in width with one decimal, or "--"
// when v is not a finite number.
func FormatReading(v float32, width int) string {
	if !finite(v) {
		return fmt.Sprintf("%*s", width, "--")
	}
	return fmt.Sprintf("%*.1f", width, v)
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
