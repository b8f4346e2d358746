// Package viz renders field results in the terminal.
//
//   - [Canvas]: Braille-based pixel canvas; [Quiver] draws field directions on it
//   - [Heatmap]: shaded magnitude map of a sample grid
//   - [SparklineChart] and lipgloss styles for summaries
//
// Line plots are drawn with asciigraph by the command line tool.
package viz
