package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/odestep/internal/stepper"
)

// PlotComponents draws one graph per component index over the samples.
func PlotComponents(samples []stepper.Sample, comps []int, width, height int) string {
	if len(samples) == 0 {
		return ""
	}

	var out string
	for _, i := range comps {
		if i < 0 || i >= len(samples[0].U) {
			continue
		}
		data := make([]float64, len(samples))
		for k, s := range samples {
			data[k] = s.U[i]
		}
		caption := fmt.Sprintf("u%d(t), t in [%.4g, %.4g]", i, samples[0].Time, samples[len(samples)-1].Time)
		out += PlotSeries(data, caption, width, height) + "\n\n"
	}
	return out
}

// PlotSeries draws a single series.
func PlotSeries(data []float64, caption string, width, height int) string {
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
