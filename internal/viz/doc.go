// Package viz renders the gain search in the terminal: a live bubbletea
// view of the bisection as it runs, and styled summaries of finished
// analyses.
package viz
