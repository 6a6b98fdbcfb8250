package home

import (
	"fmt"
	"strings"

	"invoice-market-tui/helpers"
	"invoice-market-tui/session"
	"invoice-market-tui/styles"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Menu values
const (
	ChoiceMarketplace = "marketplace"
	ChoiceSME         = "sme"
	ChoiceClient      = "client"
	ChoicePortfolio   = "portfolio"
	ChoiceHistory     = "history"
	ChoiceConnect     = "connect"
	ChoiceDisconnect  = "disconnect"
	ChoiceSwitch      = "switch"
)

// TempSelection stores the home menu selection
var TempSelection string

// CreateForm creates the home menu form. The wallet entry depends on the
// session state.
func CreateForm(snap session.Snapshot) *huh.Form {
	TempSelection = ""

	options := []huh.Option[string]{
		huh.NewOption("Marketplace", ChoiceMarketplace),
		huh.NewOption("SME Dashboard", ChoiceSME),
		huh.NewOption("Client Dashboard", ChoiceClient),
		huh.NewOption("Portfolio", ChoicePortfolio),
		huh.NewOption("Transactions", ChoiceHistory),
	}
	switch snap.State {
	case session.Disconnected:
		options = append(options, huh.NewOption("Connect wallet", ChoiceConnect))
	case session.ConnectedWrongNetwork:
		options = append(options,
			huh.NewOption("Switch to "+snap.TargetName, ChoiceSwitch),
			huh.NewOption("Disconnect", ChoiceDisconnect))
	case session.ConnectedReady:
		options = append(options, huh.NewOption("Disconnect", ChoiceDisconnect))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Options(options...).
				Title("Main Menu").
				Description("Select a view to navigate to").
				Value(&TempSelection),
		),
	).WithTheme(huh.ThemeCatppuccin())

	form.Init()
	return form
}

// Render renders the home view
func Render(form *huh.Form, snap session.Snapshot, balance string) string {
	title := helpers.FadeString("Invoice Marketplace", "#7EE787", "#82CFFD")
	blurb := styles.MutedStyle.Render("Tokenize unpaid invoices, sell them at a discount, collect at maturity.")

	var status string
	switch snap.State {
	case session.ConnectedReady:
		status = lipgloss.NewStyle().Foreground(styles.CAccent).Render("● ") +
			styles.TextStyle.Render(snap.Account.Hex())
		if balance != "" {
			status += styles.MutedStyle.Render("  balance ") + styles.TextStyle.Render(balance)
		}
		if len(snap.MissingBindings) > 0 {
			status += "\n" + styles.WarnStyle.Render(fmt.Sprintf("⚠ not configured: %s", strings.Join(snap.MissingBindings, ", ")))
		}
	case session.ConnectedWrongNetwork:
		status = styles.WarnStyle.Render("● " + helpers.ShortenAddr(snap.Account.Hex()) + " on the wrong network")
	case session.Connecting:
		status = styles.MutedStyle.Render("○ connecting…")
	default:
		status = styles.MutedStyle.Render("○ wallet not connected, press ") + styles.Key("C")
	}

	menu := "Loading menu..."
	if form != nil {
		menu = form.View()
	}

	return strings.Join([]string{title, blurb, "", status, "", menu}, "\n")
}

// Nav returns the navigation bar for home view
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " select",
		styles.Key("Enter") + " go",
		styles.Key("1-5") + " pages",
		styles.Key("C") + " connect",
		styles.Key("D") + " disconnect",
		styles.Key("K") + " lock",
		styles.Key("l") + " logger",
		styles.Key("Esc") + " quit",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}
