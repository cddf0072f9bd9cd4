// SPDX-License-Identifier: MIT
package display

import (
	"bytes"
	"errors"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"cardiac/internal/config"
	"cardiac/internal/log"
	"cardiac/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWidth  = config.WindowSize * 2
	testHeight = 240
)

func sineModel(t *testing.T) *model.UIModel {
	t.Helper()
	var r, ir model.Window
	for i := range r {
		s := math.Sin(2 * math.Pi * float64(i) / 20)
		r[i] = float32(90000 + 400*s)
		ir[i] = float32(100000 + 750*s)
	}
	m := model.NewUIModel()
	m.UpdateFromSamples(&r, &ir)
	_, ok := m.HeartRate()
	require.True(t, ok)
	return &m
}

func TestColor(t *testing.T) {
	assert.Equal(t, Yellow, RGB565(255, 255, 0))
	assert.Equal(t, "#FFFF00", Yellow.Hex())
	assert.Equal(t, "#000000", Black.Hex())

	r, g, b := Red.RGB()
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})
}

func TestCanvasLine(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		want           int
	}{
		{"Horizontal", 0, 5, 9, 5, 10},
		{"Vertical", 3, 0, 3, 7, 8},
		{"Diagonal", 0, 0, 6, 6, 7},
		{"Steep Reverse", 5, 10, 3, 0, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(20, 20)
			c.Line(tt.x0, tt.y0, tt.x1, tt.y1, Green)
			assert.Equal(t, tt.want, c.Count(Green))
			assert.Equal(t, Green, c.Pixel(tt.x0, tt.y0))
			assert.Equal(t, Green, c.Pixel(tt.x1, tt.y1))
		})
	}
}

func TestCanvasClipping(t *testing.T) {
	c := NewCanvas(10, 10)
	c.FillRect(-3, -3, 100, 5, Red)
	assert.Equal(t, 20, c.Count(Red), "only rows 0 and 1 are on the canvas")

	assert.NotPanics(t, func() {
		c.Circle(8, 8, 5, Blue, Yellow)
		c.Line(-5, -5, 15, 15, White)
		c.Text(-20, 50, "off", White, Black)
	})
	assert.Equal(t, Black, c.Pixel(-1, 0))
	assert.Equal(t, 10, c.Count(White), "diagonal clipped to the canvas")
}

func countRow(c *Canvas, y int, col Color) int {
	n := 0
	for x := range c.w {
		if c.Pixel(x, y) == col {
			n++
		}
	}
	return n
}

func TestCanvasCircle(t *testing.T) {
	c := NewCanvas(10, 10)
	c.Circle(2, 2, MarkerSize, Red, Yellow)

	// Centre pixel is filled, the extreme row and column are stroke.
	assert.Equal(t, Yellow, c.Pixel(4, 4))
	assert.Equal(t, Red, c.Pixel(4, 2))
	assert.Equal(t, Red, c.Pixel(2, 4))
	assert.Equal(t, Black, c.Pixel(2, 2), "corners lie outside the circle")
	assert.Positive(t, c.Count(Yellow))
	assert.Greater(t, c.Count(Red), c.Count(Yellow))
}

func TestCanvasText(t *testing.T) {
	c := NewCanvas(100, 40)
	c.FillRect(0, 0, 100, 40, Blue)

	c.Text(10, 4, "HR 60.0", Yellow, Black)
	c.Text(10, 4, "HR 61.0", Yellow, Black)

	s, ok := c.TextAt(10, 4)
	require.True(t, ok)
	assert.Equal(t, "HR 61.0", s)
	assert.Len(t, c.texts, 1)
	assert.Equal(t, Black, c.Pixel(10, 4), "text background is painted")

	c.FillRect(0, 0, 50, 20, Black)
	_, ok = c.TextAt(10, 4)
	assert.False(t, ok)
}

func TestFormatReading(t *testing.T) {
	tests := []struct {
		v     float32
		width int
		want  string
	}{
		{72, 3, "72.0"},
		{0, 3, "0.0"},
		{96.84, 2, "96.8"},
		{7.25, 5, "  7.2"},
		{float32(math.NaN()), 2, "--"},
		{float32(math.Inf(1)), 3, " --"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatReading(tt.v, tt.width))
	}
}

func TestRendererInitialModel(t *testing.T) {
	c := NewCanvas(testWidth, testHeight)
	r := NewRenderer(c)

	m := model.NewUIModel()
	require.NoError(t, r.Render(&m))

	hr, ok := c.TextAt(hrX, textY)
	require.True(t, ok)
	assert.Equal(t, "HR 0.0 ", hr)

	spo2, ok := c.TextAt(spo2X, textY)
	require.True(t, ok)
	assert.Equal(t, "SPO2 80.1 ", spo2)

	// Flat traces at ACMin sit on the bottom row; infrared is drawn last.
	assert.Equal(t, Blue, c.Pixel(0, testHeight-1))
	assert.Zero(t, c.Count(Yellow), "no heartbeats, no markers")
}

func TestRendererTraces(t *testing.T) {
	c := NewCanvas(testWidth, testHeight)
	r := NewRenderer(c)
	m := sineModel(t)

	require.NoError(t, r.Render(m))

	assert.Positive(t, c.Count(Red))
	assert.Positive(t, c.Count(Blue))
	assert.GreaterOrEqual(t, c.Count(Yellow), m.IR.Heartbeats.Len()*2)

	// Nothing is drawn over the header except text.
	for y := textY + GlyphHeight; y < TopTextHeight; y++ {
		assert.Equal(t, 0, countRow(c, y, Red)+countRow(c, y, Blue), "row %d", y)
	}

	hr, _ := c.TextAt(hrX, textY)
	assert.Equal(t, "HR 75.0 ", hr)

	// A full redraw of the same model yields the same frame.
	before := append([]Color(nil), c.pix...)
	require.NoError(t, r.Render(m))
	assert.Equal(t, before, c.pix)
}

func TestRendererUndefinedSpO2(t *testing.T) {
	c := NewCanvas(testWidth, testHeight)
	r := NewRenderer(c)

	var zeros model.Window
	m := model.NewUIModel()
	m.UpdateFromSamples(&zeros, &zeros)

	require.NoError(t, r.Render(&m))
	spo2, _ := c.TextAt(spo2X, textY)
	assert.Equal(t, "SPO2 -- ", spo2)
}

type flushingCanvas struct {
	*Canvas
	flushes int
	err     error
}

func (f *flushingCanvas) Flush() error {
	f.flushes++
	return f.err
}

func TestRendererFlush(t *testing.T) {
	errPanel := errors.New("panel write failed")
	s := &flushingCanvas{Canvas: NewCanvas(testWidth, testHeight)}
	r := NewRenderer(s)
	m := model.NewUIModel()

	require.NoError(t, r.Render(&m))
	assert.Equal(t, 1, s.flushes)

	s.err = errPanel
	assert.ErrorIs(t, r.Render(&m), errPanel)
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(testWidth, testHeight)
	r := NewRenderer(c)
	require.NoError(t, r.Render(sineModel(t)))

	out := c.String()
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, testHeight/cellH)
	assert.Contains(t, out, "▀")
	assert.Contains(t, out, "H")
	assert.Contains(t, out, "O")
}

func TestLoggingDisplay(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	now := time.Unix(0, 0)
	d := NewLoggingDisplay(time.Second, func() time.Time { return now })
	m := sineModel(t)

	for range 5 {
		require.NoError(t, d.Render(m))
		now = now.Add(100 * time.Millisecond)
	}
	now = now.Add(time.Second)
	require.NoError(t, d.Render(m))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "HR 75.0 bpm"), out)
	assert.Contains(t, out, "display: ")
	assert.Equal(t, uint64(6), d.Frames())
}
