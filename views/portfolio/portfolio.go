package portfolio

import (
	"fmt"
	"strings"
	"time"

	"invoice-market-tui/contracts"
	"invoice-market-tui/helpers"
	"invoice-market-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Params is everything the portfolio view shows
type Params struct {
	Investments []contracts.Invoice // already filtered
	Stats       helpers.PortfolioStats
	Filter      helpers.PortfolioFilter
	Selected    int
	Loading     bool
	Busy        bool
	Spinner     string
	Symbol      string
	Now         time.Time
	Ready       bool
}

// CanMarkDefault reports whether the holder may mark inv as defaulted
func CanMarkDefault(inv contracts.Invoice, now time.Time) bool {
	return inv.Status == contracts.StatusSold && helpers.IsExpired(inv.DueDate, now)
}

// NextFilter cycles all, active, repaid, defaulted
func NextFilter(f helpers.PortfolioFilter) helpers.PortfolioFilter {
	return (f + 1) % 4
}

// Render renders the investor portfolio
func Render(p Params) string {
	h := styles.TitleStyle.Render("Portfolio")
	if !p.Ready {
		return h + "\n\n" + styles.MutedStyle.Render("Connect a wallet on the target network to see your investments.")
	}

	s := p.Stats
	stats := []string{
		styles.MutedStyle.Render("invested ") + styles.TextStyle.Render(helpers.FormatAmount(s.Invested, p.Symbol)),
		styles.MutedStyle.Render("face ") + styles.TextStyle.Render(helpers.FormatAmount(s.FaceValue, p.Symbol)),
		styles.MutedStyle.Render("returns ") + styles.TextStyle.Render(helpers.FormatAmount(s.Returns, p.Symbol)),
		styles.MutedStyle.Render("profit ") + styles.TextStyle.Render(helpers.FormatAmount(s.Profit, p.Symbol)),
		styles.MutedStyle.Render("ROI ") + lipgloss.NewStyle().Foreground(styles.TierColor(helpers.ROITier(s.ROI))).Render(fmt.Sprintf("%.2f%%", s.ROI)),
	}
	counts := styles.MutedStyle.Render(fmt.Sprintf("%d total   %d active   %d repaid   %d defaulted   showing ",
		s.Total, s.Active, s.Repaid, s.Defaulted)) + styles.TextStyle.Render(p.Filter.String())

	lines := []string{h, strings.Join(stats, "   "), counts, ""}

	if p.Busy {
		lines = append(lines, p.Spinner+" waiting for confirmation…", "")
	}
	if p.Loading {
		return strings.Join(append(lines, p.Spinner+" loading portfolio…"), "\n")
	}
	if len(p.Investments) == 0 {
		return strings.Join(append(lines, styles.MutedStyle.Render("No investments match.")), "\n")
	}

	for i, inv := range p.Investments {
		cursor := "  "
		rowStyle := styles.TextStyle
		if i == p.Selected {
			cursor = styles.SelectedStyle.Render("▸ ")
			rowStyle = styles.SelectedStyle
		}
		label := helpers.InvestorLabel(inv.Status)
		days := fmt.Sprintf("%d days", helpers.DaysToMaturity(inv.DueDate, p.Now))
		if CanMarkDefault(inv, p.Now) {
			days = "overdue"
		}
		row := cursor + rowStyle.Render(fmt.Sprintf("#%-5s paid %-16s face %-16s %-9s ",
			inv.IDString(),
			helpers.FormatAmount(inv.SalePrice, p.Symbol),
			helpers.FormatAmount(inv.FaceValue, p.Symbol),
			days)) +
			lipgloss.NewStyle().Foreground(styles.StatusColor(label)).Render(label)
		lines = append(lines, row)
	}

	return strings.Join(lines, "\n")
}

// Nav returns the navigation bar for the portfolio
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " select",
		styles.Key("f") + " filter",
		styles.Key("x") + " mark defaulted",
		styles.Key("Enter") + " details",
		styles.Key("r") + " refresh",
		styles.Key("l") + " logger",
		styles.Key("Esc") + " back",
	}, "   ")
	return styles.NavStyle.Width(width).Render(left)
}
