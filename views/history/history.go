package history

import (
	"strings"

	"invoice-market-tui/helpers"
	"invoice-market-tui/session"
	"invoice-market-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Params is everything the transaction history view shows
type Params struct {
	Entries   []session.Entry // most recent first
	Selected  int
	ShowQR    bool
	CopiedMsg string
}

// Render renders the session's confirmed transactions
func Render(p Params) string {
	h := styles.TitleStyle.Render("Transactions")
	sub := styles.MutedStyle.Render("This session only, cleared on disconnect or network change.")
	if p.CopiedMsg != "" {
		sub += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(p.CopiedMsg)
	}
	lines := []string{h, sub, ""}

	if len(p.Entries) == 0 {
		return strings.Join(append(lines, styles.MutedStyle.Render("No transactions yet.")), "\n")
	}

	for i, e := range p.Entries {
		cursor := "  "
		rowStyle := styles.TextStyle
		if i == p.Selected {
			cursor = styles.SelectedStyle.Render("▸ ")
			rowStyle = styles.SelectedStyle
		}
		kind := lipgloss.NewStyle().Foreground(typeColor(e.Type)).Bold(true).Width(10).Render(string(e.Type))
		row := cursor + kind +
			rowStyle.Render(helpers.FormatTxHash(e.Hash)) + "  " +
			styles.MutedStyle.Render(e.CreatedAt.Local().Format("15:04:05")) + "  " +
			rowStyle.Render(e.Description)
		lines = append(lines, row)
	}

	if p.ShowQR && p.Selected >= 0 && p.Selected < len(p.Entries) {
		e := p.Entries[p.Selected]
		link := lipgloss.NewStyle().Foreground(styles.CMuted).Underline(true).Render(e.ExplorerURL)
		lines = append(lines, "", helpers.QRCode(e.ExplorerURL), link)
	}

	return strings.Join(lines, "\n")
}

func typeColor(t session.TxType) lipgloss.Color {
	switch t {
	case session.TxMint:
		return styles.CAccent2
	case session.TxPurchase:
		return styles.CWarn
	case session.TxRepay:
		return styles.CAccent
	default:
		return styles.CError
	}
}

// Nav returns the navigation bar for the history view
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " select",
		styles.Key("c") + " copy hash",
		styles.Key("u") + " copy link",
		styles.Key("Enter") + " QR",
		styles.Key("l") + " logger",
		styles.Key("Esc") + " back",
	}, "   ")
	return styles.NavStyle.Width(width).Render(left)
}
