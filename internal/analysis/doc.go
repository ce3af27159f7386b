// Package analysis inspects the samples recorded by a run.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectrum of one component
//   - [CompareExact]: error against a closed-form solution
//   - [EnergyDrift]: relative energy drift of a conservative problem
//   - [NewPhasePortrait]: two components plotted against each other
//
// Samples are taken at a uniform cadence, so the spacing of the first two
// samples is the sampling interval:
//
//	freq, _ := analysis.DominantFrequency(samples, 0)
package analysis
