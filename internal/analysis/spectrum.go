package analysis

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/delaysim/internal/history"
)

// Spectrum returns the one-sided power spectrum of component c of h. The
// mean is removed first, so power[0] only reflects rounding. Frequencies are
// in cycles per unit time of the range step.
func Spectrum(h *history.History, c int) (freqs, power []float64, err error) {
	if c < 0 || c >= h.Dim() {
		return nil, nil, fmt.Errorf("analysis: component %d out of range [0, %d)", c, h.Dim())
	}
	n := h.Len()
	if n < 2 {
		return nil, nil, fmt.Errorf("analysis: spectrum needs at least 2 samples, got %d", n)
	}
	return PowerSpectrum(h.Column(c), h.Range().Step)
}

// PowerSpectrum is Spectrum on raw samples taken every dt.
func PowerSpectrum(data []float64, dt float64) (freqs, power []float64, err error) {
	n := len(data)
	if n < 2 || dt == 0 {
		return nil, nil, fmt.Errorf("analysis: spectrum needs at least 2 samples and a step")
	}
	if dt < 0 {
		dt = -dt
	}

	mean := stat.Mean(data, nil)
	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	half := n/2 + 1
	freqs = make([]float64, half)
	power = make([]float64, half)
	for k := 0; k < half; k++ {
		a := cmplx.Abs(coeffs[k])
		freqs[k] = float64(k) / (float64(n) * dt)
		power[k] = a * a / float64(n)
	}
	return freqs, power, nil
}

// PeakFrequency returns the frequency carrying the most power, ignoring DC.
func PeakFrequency(freqs, power []float64) float64 {
	best := 0
	for k := 1; k < len(power); k++ {
		if best == 0 || power[k] > power[best] {
			best = k
		}
	}
	if best == 0 {
		return 0
	}
	return freqs[best]
}
