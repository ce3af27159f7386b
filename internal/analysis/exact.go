package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/stepper"
)

type ErrorStats struct {
	Max   float64 // largest max-norm error over all samples
	RMS   float64 // root mean square of the per-sample max-norm errors
	Final float64 // max-norm error of the last sample
	At    float64 // time of the largest error
}

// CompareExact measures the recorded solution against the closed form.
func CompareExact(samples []stepper.Sample, exact dynamo.Exact) ErrorStats {
	var st ErrorStats
	if len(samples) == 0 {
		return st
	}

	errs := make([]float64, len(samples))
	for k, s := range samples {
		errs[k] = s.U.Distance(exact.Solution(s.Time))
	}

	idx := floats.MaxIdx(errs)
	st.Max = errs[idx]
	st.At = samples[idx].Time
	st.Final = errs[len(errs)-1]
	st.RMS = floats.Norm(errs, 2) / math.Sqrt(float64(len(errs)))
	return st
}

// EnergyDrift returns the largest relative change of the energy from its
// initial value, or zero when the initial energy vanishes.
func EnergyDrift(samples []stepper.Sample, h dynamo.Hamiltonian) float64 {
	if len(samples) == 0 {
		return 0
	}
	e0 := h.Energy(samples[0].U)
	if e0 == 0 {
		return 0
	}

	maxDrift := 0.0
	for _, s := range samples[1:] {
		drift := math.Abs(h.Energy(s.U)-e0) / math.Abs(e0)
		maxDrift = math.Max(maxDrift, drift)
	}
	return maxDrift
}
