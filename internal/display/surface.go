// SPDX-License-Identifier: MIT
//
// Package display draws the UI model. The Renderer produces the frame on any
// Surface (pixel primitives in panel coordinates, origin top left); Canvas is
// the in-memory Surface the terminal front end shows.
package display

import "cardiac/internal/model"

// Surface is a drawing target. Coordinates outside the surface are clipped.
type Surface interface {
	Size() (width, height int)
	FillRect(x, y, w, h int, c Color)
	Line(x0, y0, x1, y1 int, c Color)
	// Circle draws a circle of the given diameter inside the square whose
	// top left corner is (x, y).
	Circle(x, y, diameter int, stroke, fill Color)
	// Text draws s with its top left corner at (x, y), in a 6x12 cell font.
	Text(x, y int, s string, fg, bg Color)
}

// Flusher is implemented by surfaces that buffer a frame and need to push it
// out once it is complete.
type Flusher interface {
	Flush() error
}

// Display consumes one UI model per analysis cycle. Render is called from
// the analysis loop outside any lock and must not retain m.
type Display interface {
	Render(m *model.UIModel) error
}
