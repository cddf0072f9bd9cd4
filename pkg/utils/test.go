package utils

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// PPG describes a synthetic photoplethysmography channel: a DC level, a
// pulsatile AC swing at a fixed heart rate and an optional linear drift.
type PPG struct {
	DC     float64 // Baseline count level
	AC     float64 // Peak-to-peak pulsatile amplitude
	BPM    float64 // Heart rate
	Drift  float64 // Baseline change per sample
	Phase  float64 // Starting phase in radians
	Dicrot float64 // Relative height of the dicrotic bump (0 disables it)
}

// At returns the channel value at sample index i for the given sample rate.
// The pulse is a sine with an optional second-harmonic bump riding on the
// falling edge, which is enough to look like a fingertip PPG trace.
func (p PPG) At(i int, sampleRate float64) float64 {
	tm := float64(i) / sampleRate
	w := 2 * math.Pi * p.BPM / 60
	pulse := math.Sin(w*tm + p.Phase)
	if p.Dicrot != 0 {
		pulse += p.Dicrot * math.Sin(2*(w*tm+p.Phase)-math.Pi/2)
	}
	return p.DC + p.AC/2*pulse + p.Drift*float64(i)
}

// GeneratePPG fills a float32 window with the channel, as the analysis stage
// sees it after the counts have been converted.
func GeneratePPG(size int, sampleRate float64, p PPG) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		buffer[i] = float32(p.At(i, sampleRate))
	}
	return buffer
}

// GenerateSineWave returns a zero-mean sine of the given frequency.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2 * math.Pi * frequency * t)
	}
	return buffer
}

// DominantFrequency returns the frequency (Hz) of the strongest non-DC bin of a
// Hann-windowed FFT of signal. The mean is removed first so a large baseline
// does not leak into the low bins.
func DominantFrequency(signal []float64, sampleRate float64) float64 {
	n := len(signal)
	if n < 2 {
		return 0
	}

	var mean float64
	for _, v := range signal {
		mean += v
	}
	mean /= float64(n)

	input := make([]float64, n)
	for i, v := range signal {
		input[i] = v - mean
	}
	window.Hann(input)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, input)
	magnitudes := make([]float64, len(coeffs))
	for i, c := range coeffs {
		magnitudes[i] = math.Hypot(real(c), imag(c))
	}

	peak := FindPeakBin(magnitudes, 1, len(magnitudes)-1)
	return fft.Freq(peak) * sampleRate
}

// FindPeakBin returns the index of the largest magnitude within [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
