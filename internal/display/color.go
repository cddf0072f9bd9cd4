// SPDX-License-Identifier: MIT
package display

import "fmt"

// Color is a 16-bit RGB565 pixel, the native format of small TFT panels.
type Color uint16

const (
	Black  Color = 0x0000
	White  Color = 0xFFFF
	Red    Color = 0xF800
	Green  Color = 0x07E0
	Blue   Color = 0x001F
	Yellow Color = 0xFFE0
	Cyan   Color = 0x07FF
)

// RGB565 builds a color from 8-bit components, dropping the low bits.
func RGB565(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGB expands the color to 8-bit components. The high bits are replicated
// into the low ones so that full intensity maps to 0xFF.
func (c Color) RGB() (r, g, b uint8) {
	r5 := uint8(c >> 11 & 0x1F)
	g6 := uint8(c >> 5 & 0x3F)
	b5 := uint8(c & 0x1F)
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}
