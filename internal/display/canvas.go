// SPDX-License-Identifier: MIT
package display

import (
	"cmp"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Glyph cell of the text font, in pixels.
const (
	GlyphWidth  = 6
	GlyphHeight = 12
)

type textRun struct {
	x, y   int
	s      string
	fg, bg Color
}

// Canvas is a software framebuffer. Text is kept as runs rather than
// rasterized so that terminal output can print it as characters.
type Canvas struct {
	w, h  int
	pix   []Color
	texts []textRun
}

var _ Surface = (*Canvas)(nil)

// NewCanvas creates a black canvas.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{w: width, h: height, pix: make([]Color, width*height)}
}

// Size implements Surface.
func (c *Canvas) Size() (int, int) { return c.w, c.h }

// Pixel returns the color at (x, y), Black outside the canvas.
func (c *Canvas) Pixel(x, y int) Color {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return Black
	}
	return c.pix[y*c.w+x]
}

func (c *Canvas) set(x, y int, col Color) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.pix[y*c.w+x] = col
}

// FillRect implements Surface. Text runs starting inside the rectangle are
// erased with it.
func (c *Canvas) FillRect(x, y, w, h int, col Color) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, c.w), min(y+h, c.h)
	for py := y0; py < y1; py++ {
		row := c.pix[py*c.w : (py+1)*c.w]
		for px := x0; px < x1; px++ {
			row[px] = col
		}
	}

	c.texts = slices.DeleteFunc(c.texts, func(t textRun) bool {
		return t.x >= x && t.x < x+w && t.y >= y && t.y < y+h
	})
}

// Line implements Surface with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int, col Color) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.set(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Circle implements Surface. A pixel belongs to the circle when its centre
// lies within diameter/2 of the circle's centre; the outermost pixel ring is
// the stroke.
func (c *Canvas) Circle(x, y, diameter int, stroke, fill Color) {
	if diameter <= 0 {
		return
	}
	r := float64(diameter) / 2
	cx, cy := float64(x)+r, float64(y)+r
	for py := y; py < y+diameter; py++ {
		for px := x; px < x+diameter; px++ {
			dx, dy := float64(px)+0.5-cx, float64(py)+0.5-cy
			d2 := dx*dx + dy*dy
			switch {
			case d2 > r*r:
			case d2 > (r-1)*(r-1):
				c.set(px, py, stroke)
			default:
				c.set(px, py, fill)
			}
		}
	}
}

// Text implements Surface. A run drawn at the position of an earlier one
// replaces it.
func (c *Canvas) Text(x, y int, s string, fg, bg Color) {
	c.FillRect(x, y, len(s)*GlyphWidth, GlyphHeight, bg)
	c.texts = append(c.texts, textRun{x: x, y: y, s: s, fg: fg, bg: bg})
}

// TextAt returns the text run drawn at (x, y).
func (c *Canvas) TextAt(x, y int) (string, bool) {
	for _, t := range c.texts {
		if t.x == x && t.y == y {
			return t.s, true
		}
	}
	return "", false
}

// Count returns how many pixels have color col.
func (c *Canvas) Count(col Color) int {
	n := 0
	for _, p := range c.pix {
		if p == col {
			n++
		}
	}
	return n
}

// Terminal cell size in canvas pixels.
const (
	cellW = 4
	cellH = 8
)

// String renders the canvas for a true-colour terminal, one character per
// cellW x cellH pixels. Every character is an upper half block whose
// foreground and background show the top and bottom halves of its cell.
func (c *Canvas) String() string {
	cols := (c.w + cellW - 1) / cellW
	rows := (c.h + cellH - 1) / cellH

	grid := make([][]string, rows)
	for row := range grid {
		grid[row] = make([]string, cols)
		for col := range grid[row] {
			top := c.dominant(col*cellW, row*cellH, cellW, cellH/2)
			bottom := c.dominant(col*cellW, row*cellH+cellH/2, cellW, cellH/2)
			grid[row][col] = lipgloss.NewStyle().
				Foreground(lipgloss.Color(top.Hex())).
				Background(lipgloss.Color(bottom.Hex())).
				Render("▀")
		}
	}

	runs := slices.Clone(c.texts)
	slices.SortStableFunc(runs, func(a, b textRun) int {
		return cmp.Or(cmp.Compare(a.y, b.y), cmp.Compare(a.x, b.x))
	})
	for _, t := range runs {
		row, col := t.y/cellH, t.x/cellW
		if row < 0 || row >= rows {
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.fg.Hex())).
			Background(lipgloss.Color(t.bg.Hex()))
		for i, ch := range t.s {
			if col+i < 0 || col+i >= cols {
				continue
			}
			grid[row][col+i] = style.Render(string(ch))
		}
	}

	var sb strings.Builder
	for row, cells := range grid {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for _, cell := range cells {
			sb.WriteString(cell)
		}
	}
	return sb.String()
}

// dominant returns the most frequent non-black color of a block, Black when
// the block is empty.
func (c *Canvas) dominant(x, y, w, h int) Color {
	var (
		seen   [cellW * cellH]Color
		counts [cellW * cellH]int
		n      int
	)
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			p := c.Pixel(px, py)
			if p == Black {
				continue
			}
			i := slices.Index(seen[:n], p)
			if i < 0 {
				i = n
				seen[n] = p
				n++
			}
			counts[i]++
		}
	}

	best := Black
	bestCount := 0
	for i := range n {
		if counts[i] > bestCount {
			best, bestCount = seen[i], counts[i]
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
