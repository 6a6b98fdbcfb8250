package marketplace

import (
	"fmt"
	"strings"
	"time"

	"invoice-market-tui/contracts"
	"invoice-market-tui/helpers"
	"invoice-market-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Params is everything the marketplace view shows
type Params struct {
	Listings  []contracts.Invoice // already filtered and sorted
	Summary   helpers.MarketSummary
	Query     helpers.MarketQuery
	Search    string // rendered search input
	Searching bool
	Selected  int
	Loading   bool
	Spinner   string
	Symbol    string
	Now       time.Time
	Ready     bool
}

var (
	colID     = lipgloss.NewStyle().Width(6)
	colAddr   = lipgloss.NewStyle().Width(14)
	colAmount = lipgloss.NewStyle().Width(16)
	colROI    = lipgloss.NewStyle().Width(9)
	colDays   = lipgloss.NewStyle().Width(7)
)

// Render renders the marketplace listing table
func Render(p Params) string {
	h := styles.TitleStyle.Render("Marketplace")

	if !p.Ready {
		return h + "\n\n" + styles.MutedStyle.Render("Connect a wallet on the target network to browse listings.")
	}

	summary := styles.MutedStyle.Render(fmt.Sprintf("%d listed   avg ROI %.2f%%   avg %.0f days   volume %s",
		p.Summary.Count, p.Summary.AverageROI, p.Summary.AverageDay, helpers.FormatAmount(p.Summary.Volume, p.Symbol)))

	query := styles.MutedStyle.Render("filter ") + styles.TextStyle.Render(p.Query.Filter.String()) +
		styles.MutedStyle.Render("   sort ") + styles.TextStyle.Render(p.Query.Sort.String())
	if p.Searching || p.Query.Search != "" {
		query += "   " + p.Search
	}

	lines := []string{h, summary, query, ""}

	if p.Loading {
		return strings.Join(append(lines, p.Spinner+" loading listings…"), "\n")
	}
	if len(p.Listings) == 0 {
		return strings.Join(append(lines, styles.MutedStyle.Render("No invoices on the market.")), "\n")
	}

	header := "  " + colID.Render("ID") + colAddr.Render("Client") + colAmount.Render("Face") +
		colAmount.Render("Price") + colROI.Render("ROI") + colDays.Render("Days") + "Risk"
	lines = append(lines, styles.MutedStyle.Render(header))

	for i, inv := range p.Listings {
		roi := helpers.ROI(inv)
		roiStyle := lipgloss.NewStyle().Foreground(styles.TierColor(helpers.ROITier(roi)))
		risk := helpers.RiskLevel(inv, p.Now)

		cursor := "  "
		rowStyle := styles.TextStyle
		if i == p.Selected {
			cursor = styles.SelectedStyle.Render("▸ ")
			rowStyle = styles.SelectedStyle
		}

		row := cursor +
			rowStyle.Render(colID.Render("#"+inv.IDString())) +
			rowStyle.Render(colAddr.Render(helpers.ShortenAddr(inv.Client.Hex()))) +
			rowStyle.Render(colAmount.Render(helpers.FormatAmount(inv.FaceValue, p.Symbol))) +
			rowStyle.Render(colAmount.Render(helpers.FormatAmount(inv.SalePrice, p.Symbol))) +
			roiStyle.Render(colROI.Render(fmt.Sprintf("%.2f%%", roi))) +
			rowStyle.Render(colDays.Render(fmt.Sprintf("%d", helpers.DaysToMaturity(inv.DueDate, p.Now)))) +
			riskStyle(risk).Render(risk.String())
		lines = append(lines, row)
	}

	return strings.Join(lines, "\n")
}

func riskStyle(r helpers.Risk) lipgloss.Style {
	switch r {
	case helpers.RiskHigh:
		return lipgloss.NewStyle().Foreground(styles.CError)
	case helpers.RiskMedium:
		return lipgloss.NewStyle().Foreground(styles.CWarn)
	default:
		return lipgloss.NewStyle().Foreground(styles.CAccent)
	}
}

// NextFilter cycles all, high ROI, short term
func NextFilter(f helpers.MarketFilter) helpers.MarketFilter {
	return (f + 1) % 3
}

// NextSort cycles due date, ROI, face value
func NextSort(s helpers.MarketSort) helpers.MarketSort {
	return (s + 1) % 3
}

// Nav returns the navigation bar for the marketplace
func Nav(width int, searching bool) string {
	var left string
	if searching {
		left = strings.Join([]string{
			styles.Key("Enter") + " apply",
			styles.Key("Esc") + " clear",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " select",
			styles.Key("Enter") + " details",
			styles.Key("/") + " search",
			styles.Key("f") + " filter",
			styles.Key("o") + " sort",
			styles.Key("r") + " refresh",
			styles.Key("l") + " logger",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}
