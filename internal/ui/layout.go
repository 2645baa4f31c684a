package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the detail pane is hidden.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show the company column.
	LayoutWideWidth = 140
)

// Log display limits.
const (
	// LogTailLines is the number of lines read from the end of the log file.
	LogTailLines = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is how often the UI re-reads the store.
	DefaultUIInterval = time.Second

	// StatusTTL is how long the last operation outcome stays in the command bar.
	StatusTTL = 8 * time.Second
)
