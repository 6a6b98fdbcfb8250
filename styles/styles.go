package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/gamut"
)

// Theme colors
var (
	CBg      = lipgloss.Color("#0B0F14") // near-black
	CPanel   = lipgloss.Color("#0F1720") // slightly lighter
	CBorder  = lipgloss.Color("#874BFD")
	CMuted   = lipgloss.Color("#8AA0B6")
	CText    = lipgloss.Color("#D6E2F0")
	CAccent  = lipgloss.Color("#7EE787") // green-ish
	CAccent2 = lipgloss.Color("#79C0FF") // blue-ish
	CWarn    = lipgloss.Color("#FFA657") // orange
	CError   = lipgloss.Color("#FF5F5F")
)

// Shared styles
var (
	AppStyle = lipgloss.NewStyle().
			Background(CBg).
			Foreground(CText)

	TitleStyle = lipgloss.NewStyle().
			Foreground(CAccent2).
			Bold(true)

	PanelStyle = lipgloss.NewStyle().
			Background(CPanel).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(CBorder).
			Padding(1, 2)

	NavStyle = lipgloss.NewStyle().
			Background(CPanel).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(CBorder).
			Padding(0, 1)

	HotkeyStyle = lipgloss.NewStyle().
			Foreground(CMuted)

	HotkeyKeyStyle = lipgloss.NewStyle().
			Foreground(CAccent).
			Bold(true)

	HelpRightStyle = lipgloss.NewStyle().
			Foreground(CMuted)

	MutedStyle = lipgloss.NewStyle().Foreground(CMuted)
	TextStyle  = lipgloss.NewStyle().Foreground(CText)
	WarnStyle  = lipgloss.NewStyle().Foreground(CWarn).Bold(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(CError).Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(CAccent2).
			Bold(true)
)

// Key renders a key with accent styling
func Key(s string) string {
	return HotkeyKeyStyle.Render(s)
}

// tierColors runs from warn (tier 0) to accent (tier 3)
var tierColors = func() []lipgloss.Color {
	blends := gamut.Blends(CWarn, CAccent, 4)
	out := make([]lipgloss.Color, len(blends))
	for i, c := range blends {
		col, _ := colorful.MakeColor(c)
		out[i] = lipgloss.Color(col.Hex())
	}
	return out
}()

// TierColor maps an ROI tier (0..3) onto the warn to accent gradient
func TierColor(tier int) lipgloss.Color {
	if tier < 0 {
		tier = 0
	}
	if tier >= len(tierColors) {
		tier = len(tierColors) - 1
	}
	return tierColors[tier]
}

// StatusColor colors an invoice lifecycle label
func StatusColor(label string) lipgloss.Color {
	switch label {
	case "OnMarket", "Available":
		return CAccent2
	case "Sold", "Active", "Payment Due":
		return CWarn
	case "Repaid", "Paid":
		return CAccent
	case "Defaulted":
		return CError
	default:
		return CMuted
	}
}
