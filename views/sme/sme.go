package sme

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"invoice-market-tui/contracts"
	"invoice-market-tui/helpers"
	"invoice-market-tui/session"
	"invoice-market-tui/styles"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DateLayout is the due date input format
const DateLayout = "2006-01-02"

// Tokenize form values
var (
	TempClient string
	TempFace   string
	TempSale   string
	TempDue    string
	TempURI    string
)

// Form errors
var (
	ErrRequired       = errors.New("required")
	ErrClientAddress  = errors.New("client must be a valid address")
	ErrClientIsSME    = errors.New("client cannot be your own address")
	ErrSaleNotBelow   = errors.New("sale price must be below face value")
	ErrDueNotInFuture = errors.New("due date must be in the future")
)

// CreateTokenizeForm creates the tokenize invoice form
func CreateTokenizeForm(account string) *huh.Form {
	TempClient, TempFace, TempSale, TempDue, TempURI = "", "", "", "", ""

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Client address").
				Placeholder("0x…").
				Value(&TempClient).
				Validate(func(s string) error { return validateClient(s, account) }),
			huh.NewInput().
				Title("Face value").
				Description("Amount the client owes at maturity").
				Value(&TempFace).
				Validate(validateAmount),
			huh.NewInput().
				Title("Sale price").
				Description("Discounted price investors pay now").
				Value(&TempSale).
				Validate(validateAmount),
			huh.NewInput().
				Title("Due date").
				Placeholder(DateLayout).
				Value(&TempDue).
				Validate(func(s string) error {
					_, err := parseDue(s, time.Now())
					return err
				}),
			huh.NewInput().
				Title("Metadata URI").
				Description("Optional, generated when empty").
				Value(&TempURI),
		),
	).WithTheme(huh.ThemeCatppuccin())

	form.Init()
	return form
}

func validateClient(s, account string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrRequired
	}
	if !helpers.IsValidEthAddress(s) {
		return ErrClientAddress
	}
	if helpers.SameAddress(s, account) {
		return ErrClientIsSME
	}
	return nil
}

func validateAmount(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrRequired
	}
	v, err := helpers.ParseUnits(s, 18)
	if err != nil {
		return err
	}
	if v.Sign() == 0 {
		return fmt.Errorf("%w: must be greater than zero", helpers.ErrInvalidAmount)
	}
	return nil
}

func parseDue(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrRequired
	}
	due, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("use %s", DateLayout)
	}
	if !due.After(now) {
		return time.Time{}, ErrDueNotInFuture
	}
	return due, nil
}

// BuildRequest validates the submitted form values as a whole and returns
// the request to send
func BuildRequest(account string, now time.Time) (session.TokenizeRequest, error) {
	if err := validateClient(TempClient, account); err != nil {
		return session.TokenizeRequest{}, fmt.Errorf("client: %w", err)
	}
	if err := validateAmount(TempFace); err != nil {
		return session.TokenizeRequest{}, fmt.Errorf("face value: %w", err)
	}
	if err := validateAmount(TempSale); err != nil {
		return session.TokenizeRequest{}, fmt.Errorf("sale price: %w", err)
	}
	face, _ := helpers.ParseUnits(TempFace, 18)
	sale, _ := helpers.ParseUnits(TempSale, 18)
	if sale.Cmp(face) >= 0 {
		return session.TokenizeRequest{}, ErrSaleNotBelow
	}
	due, err := parseDue(TempDue, now)
	if err != nil {
		return session.TokenizeRequest{}, fmt.Errorf("due date: %w", err)
	}

	return session.TokenizeRequest{
		Client:      strings.TrimSpace(TempClient),
		FaceValue:   strings.TrimSpace(TempFace),
		SalePrice:   strings.TrimSpace(TempSale),
		DueDate:     due,
		MetadataURI: strings.TrimSpace(TempURI),
	}, nil
}

// Params is everything the SME dashboard shows
type Params struct {
	Invoices []contracts.Invoice
	Stats    helpers.SMEStats
	Selected int
	Loading  bool
	Spinner  string
	Symbol   string
	Now      time.Time
	Ready    bool
	Form     *huh.Form
	Busy     bool
}

// Render renders the SME dashboard
func Render(p Params) string {
	h := styles.TitleStyle.Render("SME Dashboard")

	if p.Form != nil {
		return h + "\n" + styles.MutedStyle.Render("Tokenize an invoice") + "\n\n" + p.Form.View()
	}
	if !p.Ready {
		return h + "\n\n" + styles.MutedStyle.Render("Connect a wallet on the target network to issue invoices.")
	}

	stats := styles.MutedStyle.Render(fmt.Sprintf("%d issued   %d on market   %d sold   %d repaid   raised %s",
		p.Stats.Total, p.Stats.OnMarket, p.Stats.Sold, p.Stats.Repaid, helpers.FormatAmount(p.Stats.Raised, p.Symbol)))
	lines := []string{h, stats, ""}

	if p.Busy {
		lines = append(lines, p.Spinner+" waiting for confirmation…", "")
	}
	if p.Loading {
		return strings.Join(append(lines, p.Spinner+" loading invoices…"), "\n")
	}
	if len(p.Invoices) == 0 {
		return strings.Join(append(lines, styles.MutedStyle.Render("No invoices yet. Press ")+styles.Key("t")+styles.MutedStyle.Render(" to tokenize one.")), "\n")
	}

	for i, inv := range p.Invoices {
		cursor := "  "
		rowStyle := styles.TextStyle
		if i == p.Selected {
			cursor = styles.SelectedStyle.Render("▸ ")
			rowStyle = styles.SelectedStyle
		}
		status := inv.Status.String()
		row := cursor + rowStyle.Render(fmt.Sprintf("#%-5s %-14s %-16s due %s  ",
			inv.IDString(),
			helpers.ShortenAddr(inv.Client.Hex()),
			helpers.FormatAmount(inv.FaceValue, p.Symbol),
			helpers.FormatDate(inv.DueDate))) +
			lipgloss.NewStyle().Foreground(styles.StatusColor(status)).Render(status)
		lines = append(lines, row)
	}

	return strings.Join(lines, "\n")
}

// Nav returns the navigation bar for the SME dashboard
func Nav(width int, editing bool) string {
	var left string
	if editing {
		left = strings.Join([]string{
			styles.Key("Tab") + " next field",
			styles.Key("Enter") + " next/submit",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("t") + " tokenize",
			styles.Key("↑/↓") + " select",
			styles.Key("Enter") + " details",
			styles.Key("r") + " refresh",
			styles.Key("l") + " logger",
			styles.Key("Esc") + " back",
		}, "   ")
	}
	return styles.NavStyle.Width(width).Render(left)
}
