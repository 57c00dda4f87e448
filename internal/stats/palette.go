package stats

import "github.com/charmbracelet/lipgloss"

// Palette shared by the dashboard, the bars and the plot.
var (
	PinkColor = lipgloss.Color("#FF2E63")
	CyanColor = lipgloss.Color("#08D9D6")
	GreyColor = lipgloss.Color("#AEB2B7")
)

var paletteStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(PinkColor),
	lipgloss.NewStyle().Foreground(CyanColor),
	lipgloss.NewStyle().Foreground(GreyColor),
}

// paint colours s with the i-th palette entry.
func paint(s string, i int, useColor bool) string {
	if !useColor || s == "" {
		return s
	}
	return paletteStyles[i%len(paletteStyles)].Render(s)
}
