// Package ui holds the terminal styling shared by the CLI commands.
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

func Bold(s string) string {
	return ColorBold + s + ColorReset
}

func Success(s string) string {
	return ColorGreen + s + ColorReset
}

func Info(s string) string {
	return ColorDim + ColorYellow + s + ColorReset
}

func Error(s string) string {
	return ColorRed + s + ColorReset
}

// Dim renders a secondary label
func Dim(s string) string {
	return ColorDim + s + ColorReset
}

// Value renders a highlighted value
func Value(s string) string {
	return ColorWhite + s + ColorReset
}

// Field renders "label value" with a dim label, as used in summaries
func Field(label, value string) string {
	return Dim(label) + " " + Value(value)
}
