// Package viz renders solver runs in the terminal.
//
//   - [Progress]: Bubble Tea model showing a run as it advances
//   - [RenderReport]: styled end-of-run report
//   - [PlotComponents], [PlotSeries]: asciigraph line plots of recorded samples
//
// Colors come from a [Theme]; [ThemeByName] selects one of the built-in themes.
//
// # Key Bindings (live view)
//
//	q, Ctrl+C - stop the run
package viz
