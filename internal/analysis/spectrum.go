package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/odestep/internal/stepper"
)

var ErrTooFewSamples = errors.New("analysis: not enough samples")

// Component extracts the values of component i.
func Component(samples []stepper.Sample, i int) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if i < len(s.U) {
			out = append(out, s.U[i])
		}
	}
	return out
}

// PowerSpectrum returns the magnitudes of the non-negative frequency bins of
// data after removing its mean.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency and magnitude of the strongest
// non-zero bin of component i.
func DominantFrequency(samples []stepper.Sample, i int) (float64, float64, error) {
	if len(samples) < 4 {
		return 0, 0, ErrTooFewSamples
	}
	dt := samples[1].Time - samples[0].Time
	if !(dt > 0) {
		return 0, 0, ErrTooFewSamples
	}

	// The final sample sits at the end time and may break the cadence.
	data := Component(samples, i)
	if n := len(samples); samples[n-1].Time-samples[n-2].Time < 0.5*dt {
		data = data[:len(data)-1]
	}

	ps := PowerSpectrum(data)
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	return float64(best) / (float64(len(data)) * dt), ps[best], nil
}
