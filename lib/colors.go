package lib

import "github.com/fatih/color"

var (
	labelColor    = color.New(color.FgYellow)
	defaultColor  = color.New(color.Reset)
	severityColor = map[string]*color.Color{
		"Critical": color.New(color.FgHiRed, color.Bold),
		"High":     color.New(color.FgRed),
		"Medium":   color.New(color.FgYellow),
		"Low":      color.New(color.FgBlue),
		"Info":     color.New(color.FgCyan),
	}
)

// SeverityColor returns the console color findings of the given severity are printed with.
func SeverityColor(severity string) *color.Color {
	if c, ok := severityColor[severity]; ok {
		return c
	}
	return defaultColor
}

// Colorize wraps the text with the given color. Honours color.NoColor.
func Colorize(text string, c *color.Color) string {
	return c.Sprint(text)
}

// Label renders a field name for pretty output.
func Label(name string) string {
	return labelColor.Sprint(name + ":")
}
