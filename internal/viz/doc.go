// Package viz renders analysis results in the terminal.
//
//   - [PlotData], [PlotFit]: asciigraph line plots of observed and fitted values
//   - [Scatter]: braille-canvas scatter plot with a fitted curve
//   - [FitTable], [LinearizationPanel], [DataTable]: lipgloss tables
//   - [Browser]: Bubble Tea browser over ranked fit results
//
// # Key Bindings
//
//	j/k   - Move between models
//	Enter - Inspect the selected fit
//	Esc   - Back to the list
//	q     - Quit
package viz
