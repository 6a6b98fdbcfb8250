package detail

import (
	"fmt"
	"strings"
	"time"

	"invoice-market-tui/contracts"
	"invoice-market-tui/helpers"
	"invoice-market-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Params is everything the invoice detail view shows
type Params struct {
	Invoice   contracts.Invoice
	Found     bool
	Loading   bool
	Spinner   string
	Account   string // connected account, "" if none
	Now       time.Time
	Symbol    string
	TokenURL  string
	CopiedMsg string
}

const barWidth = 30

// Render renders a single invoice
func Render(p Params) string {
	h := styles.TitleStyle.Render("Invoice")
	if p.Loading {
		return h + "\n\n" + p.Spinner + " fetching invoice…"
	}
	if !p.Found {
		return h + "\n\n" + styles.WarnStyle.Render("⚠ Invoice not found or not readable.")
	}

	inv := p.Invoice
	h = styles.TitleStyle.Render("Invoice #" + inv.IDString())

	// OSC 8 hyperlink to the token page
	link := lipgloss.NewStyle().Foreground(styles.CMuted).Underline(true).Render(p.TokenURL)
	sub := fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", p.TokenURL, link)
	if p.CopiedMsg != "" {
		sub += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(p.CopiedMsg)
	}

	status := lipgloss.NewStyle().Foreground(styles.StatusColor(inv.Status.String())).Bold(true).Render(inv.Status.String())
	roi := helpers.ROI(inv)
	days := helpers.DaysToMaturity(inv.DueDate, p.Now)
	risk := helpers.RiskLevel(inv, p.Now)

	lines := []string{
		h, sub, "",
		field("Status", status),
		field("Issuer (SME)", inv.SME.Hex()),
		field("Client", inv.Client.Hex()),
		field("Holder", inv.Holder.Hex()),
		"",
		field("Face value", helpers.FormatAmount(inv.FaceValue, p.Symbol)),
		field("Sale price", helpers.FormatAmount(inv.SalePrice, p.Symbol)),
		field("ROI", lipgloss.NewStyle().Foreground(styles.TierColor(helpers.ROITier(roi))).Render(fmt.Sprintf("%.2f%%", roi))),
		field("Risk", risk.String()),
		"",
		field("Created", helpers.FormatDate(inv.CreatedAt)),
		field("Due", fmt.Sprintf("%s (%d days)", helpers.FormatDate(inv.DueDate), days)),
		field("Maturity", ProgressBar(helpers.MaturityProgress(inv.DueDate, p.Now), barWidth)),
	}
	if inv.MetadataURI != "" {
		lines = append(lines, field("Metadata", inv.MetadataURI))
	}

	lines = append(lines, "")
	if reason := helpers.PurchaseBlock(inv, p.Account, p.Now); reason != "" {
		lines = append(lines, styles.MutedStyle.Render("Not purchasable: "+reason))
	} else if p.Account != "" {
		lines = append(lines, styles.MutedStyle.Render("Press ")+styles.Key("b")+
			styles.MutedStyle.Render(" to buy for "+helpers.FormatAmount(inv.SalePrice, p.Symbol)))
	}

	return strings.Join(lines, "\n")
}

func field(label, value string) string {
	return styles.MutedStyle.Width(14).Render(label) + styles.TextStyle.Render(value)
}

// ProgressBar draws pct (0..100) as a fixed-width bar
func ProgressBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	bar := lipgloss.NewStyle().Foreground(styles.CAccent).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(styles.CBorder).Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3.0f%%", bar, pct)
}

// Nav returns the navigation bar for the detail view
func Nav(width int, canBuy bool) string {
	keys := []string{}
	if canBuy {
		keys = append(keys, styles.Key("b")+" buy")
	}
	keys = append(keys,
		styles.Key("c")+" copy link",
		styles.Key("r")+" refresh",
		styles.Key("l")+" logger",
		styles.Key("Esc")+" back",
	)
	return styles.NavStyle.Width(width).Render(strings.Join(keys, "   "))
}
