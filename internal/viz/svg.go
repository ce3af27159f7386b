package viz

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/odestep/internal/stepper"
)

var ErrNothingToDraw = errors.New("viz: need at least two samples and one component")

// WriteSVG draws u_i(t) for each of comps as one path, scaled to a shared
// value range.
func WriteSVG(w io.Writer, samples []stepper.Sample, comps []int, width, height int, theme Theme) error {
	var valid []int
	for _, i := range comps {
		if len(samples) > 0 && i >= 0 && i < len(samples[0].U) {
			valid = append(valid, i)
		}
	}
	if len(samples) < 2 || len(valid) == 0 {
		return ErrNothingToDraw
	}

	minX, maxX := samples[0].Time, samples[len(samples)-1].Time
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		for _, i := range valid {
			minY = math.Min(minY, s.U[i])
			maxY = math.Max(maxY, s.U[i])
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	colors := []string{string(theme.Primary), string(theme.Accent), string(theme.Success), string(theme.Warning), string(theme.Error), string(theme.Muted)}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for n, i := range valid {
		fmt.Fprintf(&sb, `<path id="u%d" fill="none" stroke="%s" stroke-width="1.5" d="`, i, colors[n%len(colors)])
		for k, s := range samples {
			x := (s.Time - minX) / rangeX * float64(width)
			y := float64(height) - (s.U[i]-minY)/rangeY*float64(height)
			if k == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	fmt.Fprintf(&sb, `<text x="8" y="16" fill="%s" font-family="monospace" font-size="12">t in [%.4g, %.4g]</text>
</svg>
`, string(theme.Text), minX, maxX)

	_, err := io.WriteString(w, sb.String())
	return err
}
