// Package ui holds the ANSI styling shared by help output and result tables.
package ui

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Paint wraps s in style and a trailing reset
func Paint(style, s string) string {
	return style + s + ColorReset
}

// Bold is used for section headings
func Bold(s string) string { return Paint(ColorBold, s) }

// Success marks passed checks
func Success(s string) string { return Paint(ColorGreen, s) }

// Info marks secondary text such as empty results
func Info(s string) string { return Paint(ColorDim+ColorYellow, s) }

// Error marks failures
func Error(s string) string { return Paint(ColorRed, s) }
