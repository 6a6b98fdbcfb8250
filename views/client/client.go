package client

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"invoice-market-tui/contracts"
	"invoice-market-tui/helpers"
	"invoice-market-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Params is everything the client dashboard shows
type Params struct {
	Invoices []contracts.Invoice
	Selected int
	Loading  bool
	Busy     bool
	Spinner  string
	Symbol   string
	Now      time.Time
	Ready    bool
}

// CanRepay reports whether the client can settle inv now
func CanRepay(inv contracts.Invoice) bool {
	return inv.Status == contracts.StatusSold
}

// Render renders the invoices billed to the connected account
func Render(p Params) string {
	h := styles.TitleStyle.Render("Client Dashboard")
	if !p.Ready {
		return h + "\n\n" + styles.MutedStyle.Render("Connect a wallet on the target network to see invoices billed to you.")
	}

	due, owed := 0, helpers.FormatAmount(dueTotal(p.Invoices), p.Symbol)
	for _, inv := range p.Invoices {
		if CanRepay(inv) {
			due++
		}
	}
	lines := []string{h, styles.MutedStyle.Render(fmt.Sprintf("%d invoices   %d payment due   owed %s", len(p.Invoices), due, owed)), ""}

	if p.Busy {
		lines = append(lines, p.Spinner+" waiting for confirmation…", "")
	}
	if p.Loading {
		return strings.Join(append(lines, p.Spinner+" loading invoices…"), "\n")
	}
	if len(p.Invoices) == 0 {
		return strings.Join(append(lines, styles.MutedStyle.Render("No invoices are billed to this account.")), "\n")
	}

	for i, inv := range p.Invoices {
		cursor := "  "
		rowStyle := styles.TextStyle
		if i == p.Selected {
			cursor = styles.SelectedStyle.Render("▸ ")
			rowStyle = styles.SelectedStyle
		}
		label := helpers.ClientLabel(inv.Status)
		dueText := helpers.FormatDate(inv.DueDate)
		if CanRepay(inv) && helpers.IsExpired(inv.DueDate, p.Now) {
			dueText += " overdue"
		}
		row := cursor + rowStyle.Render(fmt.Sprintf("#%-5s from %-14s %-16s due %-20s",
			inv.IDString(),
			helpers.ShortenAddr(inv.SME.Hex()),
			helpers.FormatAmount(inv.FaceValue, p.Symbol),
			dueText)) +
			lipgloss.NewStyle().Foreground(styles.StatusColor(label)).Render(label)
		lines = append(lines, row)
	}

	return strings.Join(lines, "\n")
}

func dueTotal(invoices []contracts.Invoice) *big.Int {
	total := new(big.Int)
	for _, inv := range invoices {
		if CanRepay(inv) {
			total.Add(total, inv.FaceValue)
		}
	}
	return total
}

// Nav returns the navigation bar for the client dashboard
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " select",
		styles.Key("p") + " pay",
		styles.Key("Enter") + " details",
		styles.Key("r") + " refresh",
		styles.Key("l") + " logger",
		styles.Key("Esc") + " back",
	}, "   ")
	return styles.NavStyle.Width(width).Render(left)
}
