package lib

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestColorsWithoutTerminal(t *testing.T) {
	previous := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = previous }()

	assert.Equal(t, "Severity:", Label("Severity"))
	assert.Equal(t, "Remote code execution", Colorize("Remote code execution", SeverityColor("Critical")))
}

func TestSeverityColor(t *testing.T) {
	assert.Same(t, SeverityColor("High"), SeverityColor("High"))
	assert.Same(t, defaultColor, SeverityColor("whatever"))
	assert.NotSame(t, SeverityColor("Critical"), SeverityColor("Low"))
}
