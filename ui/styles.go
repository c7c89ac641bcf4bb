package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent  = lipgloss.Color("#FF6B35")
	colorGreen   = lipgloss.Color("#00B894")
	colorRed     = lipgloss.Color("#D63031")
	colorOrange  = lipgloss.Color("#E17055")
	colorYellow  = lipgloss.Color("#FDCB6E")
	colorBlue    = lipgloss.Color("#0984E3")
	colorCyan    = lipgloss.Color("#00CEC9")
	colorGray    = lipgloss.Color("#636E72")
	colorDimGray = lipgloss.Color("#2D3436")
	colorWhite   = lipgloss.Color("#DFE6E9")

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorWhite).
				Background(colorDimGray)

	// Console prefixes
	goodStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	warnStyle = lipgloss.NewStyle().Bold(true).Foreground(colorOrange)
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	textStyle = lipgloss.NewStyle().Foreground(colorWhite)

	progressStyle = lipgloss.NewStyle().Foreground(colorBlue)

	encWPA2Style = lipgloss.NewStyle().Foreground(colorGreen)
	encWPAStyle  = lipgloss.NewStyle().Foreground(colorYellow)
	encWEPStyle  = lipgloss.NewStyle().Foreground(colorRed)
	encOpenStyle = lipgloss.NewStyle().Foreground(colorGray)

	keyStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	helpStyle = lipgloss.NewStyle().Foreground(colorGray)
	dimStyle  = lipgloss.NewStyle().Foreground(colorGray)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray)
)

// SignalBar returns a four-step signal strength indicator for a dBm value.
func SignalBar(power int) string {
	bars := 0
	switch {
	case power == 0:
		bars = 0 // not measured
	case power >= -50:
		bars = 4
	case power >= -60:
		bars = 3
	case power >= -70:
		bars = 2
	case power >= -80:
		bars = 1
	}

	full := lipgloss.NewStyle().Foreground(colorGreen).Render("█")
	empty := lipgloss.NewStyle().Foreground(colorDimGray).Render("░")
	return strings.Repeat(full, bars) + strings.Repeat(empty, 4-bars)
}

// EncryptionColor styles an encryption label. Labels are matched without
// regard to case.
func EncryptionColor(enc string) string {
	u := strings.ToUpper(enc)
	switch {
	case strings.Contains(u, "WPA2"):
		return encWPA2Style.Render(enc)
	case strings.Contains(u, "WPA"):
		return encWPAStyle.Render(enc)
	case strings.Contains(u, "WEP"):
		return encWEPStyle.Render(enc)
	case u == "OPN" || u == "OPEN":
		return encOpenStyle.Render(enc)
	}
	return enc
}
