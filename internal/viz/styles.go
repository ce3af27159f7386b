package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/san-kum/odestep/internal/stepper"
)

// ProgressBar renders a bar of the given width filled to percent in [0, 1].
func ProgressBar(s Styles, percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(filled, width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if percent >= 1 {
		return s.Success.Render(bar)
	}
	return s.Title.Render(bar)
}

// Sparkline renders values as a row of block characters, sampled down to
// width when there are more values than columns.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		result.WriteRune(chars[max(0, min(idx, len(chars)-1))])
	}
	return result.String()
}

// RenderReport renders the end-of-run report as a panel.
func RenderReport(s Styles, r stepper.Report) string {
	status := s.Success.Render("finished")
	if !r.Finished {
		status = s.Error.Render("stopped")
	}

	rows := [][2]string{
		{"problem", fmt.Sprintf("%s (%d components)", r.Problem, r.Components)},
		{"time", fmt.Sprintf("%.6g / %.6g", r.Time, r.EndTime)},
		{"elapsed", r.Elapsed.Round(time.Microsecond).String()},
		{"accepted", fmt.Sprint(r.Accepted)},
		{"diverged", fmt.Sprint(r.Diverged)},
		{"rejected", fmt.Sprint(r.Rejected)},
		{"iterations", fmt.Sprint(r.Iterations)},
		{"stabilizations", fmt.Sprint(r.Stabilizations)},
		{"slab depth", fmt.Sprint(r.MaxDepth)},
		{"rhs evaluations", fmt.Sprint(r.Evaluations)},
		{"samples", fmt.Sprint(r.Samples)},
	}
	if len(r.Elements) > 1 {
		rows = append(rows, [2]string{"elements", strings.Trim(fmt.Sprint(r.Elements), "[]")})
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("odestep report") + "  " + status + "\n\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", s.Label.Render(fmt.Sprintf("%-16s", row[0])), s.Value.Render(row[1]))
	}
	return s.Panel.Render(strings.TrimRight(b.String(), "\n"))
}
