// SPDX-License-Identifier: MIT
/*
Package linreg fits a straight line to a fixed-length window of samples.

The x values are always the indexes 0..n-1, so every sum that depends only on x
is computed once by New and reused on each fit:

	y = a + b*x

	a (intercept) = (Σy·Σx² − Σx·Σxy) / (n·Σx² − (Σx)²)
	b (slope)     = (n·Σxy − Σx·Σy)   / (n·Σx² − (Σx)²)

All arithmetic is float32. The denominator is the (scaled) variance of 0..n-1,
which is non-zero for any n >= 2; windows shorter than that are rejected when
the fitter is built.
*/
package linreg

import "fmt"

// Linreg holds the latest fit plus the x-only sums for a window of n samples.
type Linreg struct {
	Intercept float32
	Slope     float32

	n       int
	sumX    float32 // Σx
	sumXSq  float32 // Σx²
	sumXSqd float32 // (Σx)²
}

// New precomputes the x sums for windows of n samples. It panics if n < 2.
func New(n int) Linreg {
	if n < 2 {
		panic(fmt.Sprintf("linreg: window must hold at least 2 samples, got %d", n))
	}

	sumX := float32((n-1)*n) / 2
	var sumXSq float32
	for x := range n {
		sumXSq += float32(x) * float32(x)
	}

	return Linreg{
		Intercept: 0,
		Slope:     1,
		n:         n,
		sumX:      sumX,
		sumXSq:    sumXSq,
		sumXSqd:   sumX * sumX,
	}
}

// Len returns the window length the fitter was built for.
func (l *Linreg) Len() int {
	return l.n
}

// Y evaluates the fitted line at x.
func (l *Linreg) Y(x float32) float32 {
	return l.Intercept + l.Slope*x
}

// UpdateFrom refits the line to data, which must hold exactly Len() samples.
func (l *Linreg) UpdateFrom(data []float32) {
	data = data[:l.n:l.n]

	var sumY, sumXY float32
	for i, y := range data {
		sumY += y
		sumXY += y * float32(i)
	}

	n := float32(l.n)
	denom := n*l.sumXSq - l.sumXSqd
	l.Intercept = (sumY*l.sumXSq - l.sumX*sumXY) / denom
	l.Slope = (n*sumXY - l.sumX*sumY) / denom
}
