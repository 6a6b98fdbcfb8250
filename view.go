package main

import (
	"strings"

	"invoice-market-tui/config"
	"invoice-market-tui/helpers"
	"invoice-market-tui/session"
	"invoice-market-tui/views/client"
	"invoice-market-tui/views/detail"
	"invoice-market-tui/views/history"
	"invoice-market-tui/views/home"
	logview "invoice-market-tui/views/log"
	"invoice-market-tui/views/marketplace"
	"invoice-market-tui/views/network"
	"invoice-market-tui/views/portfolio"
	"invoice-market-tui/views/sme"

	"github.com/charmbracelet/lipgloss"
)

// -------------------- VIEW --------------------

func (m model) renderConfirmDialog() string {
	var (
		dialogBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(cBorder).
				Padding(1, 0).
				BorderTop(true).
				BorderLeft(true).
				BorderRight(true).
				BorderBottom(true)

		buttonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(lipgloss.Color("#888B7E")).
				Padding(0, 3).
				MarginTop(1)

		activeButtonStyle = buttonStyle.
					Foreground(lipgloss.Color("#FFF7DB")).
					Background(lipgloss.Color("#F25D94")).
					MarginRight(2).
					Underline(true)
	)
	msg := helpers.FadeString(m.confirm.question, "#F25D94", "#EDFF82")
	hint := hotkeyStyle.Render("Your wallet signs and sends the transaction.")
	question := lipgloss.NewStyle().Width(56).Align(lipgloss.Center).Render(msg + "\n\n" + hint)

	var okButton, cancelButton string
	if m.confirm.yesSelected {
		okButton = activeButtonStyle.Render("Yes")
		cancelButton = buttonStyle.Render("No")
	} else {
		okButton = buttonStyle.MarginRight(2).Render("Yes")
		cancelButton = activeButtonStyle.MarginRight(0).Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, question, buttons)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.Render(ui),
	)
}

func (m model) globalHeader() string {
	availableWidth := max(0, m.w-8) // panel padding

	var addrDisplay string
	if m.snap.HasAccount {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Account: " + helpers.FadeString(helpers.ShortenAddr(m.snap.Account.Hex()), "#F25D94", "#EDFF82"))
		if m.balance != nil {
			addrDisplay += hotkeyStyle.Render("  " + helpers.FormatAmount(m.balance, m.symbol()))
		}
	} else {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Account: not connected")
	}

	statusDisplay := network.Badge(m.snap)

	titleText := lipgloss.NewStyle().
		Foreground(cAccent).
		Bold(true).
		Render(helpers.FadeString("invoice market", "#7EE787", "#82CFFD"))

	addrWidth := lipgloss.Width(addrDisplay)
	statusWidth := lipgloss.Width(statusDisplay)
	titleWidth := lipgloss.Width(titleText)
	totalOtherWidth := addrWidth + statusWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		headerLine = addrDisplay + "\n" + titleText + "\n" + statusDisplay
	} else {
		// Account | Title (centered) | Network
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding
		headerLine = addrDisplay + strings.Repeat(" ", max(1, leftPadding)) +
			titleText + strings.Repeat(" ", max(1, rightPadding)) + statusDisplay
	}

	separator := lipgloss.NewStyle().
		Foreground(cBorder).
		Render(strings.Repeat("─", availableWidth))

	out := headerLine + "\n" + separator
	if warn := network.Warning(m.snap); warn != "" {
		out += "\n" + warn
	}
	return out
}

// renderToasts stacks the live notices, newest last
func (m model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		var color lipgloss.Color
		var icon string
		switch t.Level {
		case session.LevelSuccess:
			color, icon = cAccent, "✓"
		case session.LevelWarn:
			color, icon = cWarn, "⚠"
		case session.LevelError:
			color, icon = cError, "✗"
		default:
			color, icon = cAccent2, "•"
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).Render(icon+" "+t.Message))
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cBorder).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func (m *model) View() string {
	if m.confirm != nil {
		return appStyle.Render(m.renderConfirmDialog())
	}

	headerPanel := panelStyle.Width(max(0, m.w-2)).Render(m.globalHeader())
	width := m.w - 2
	now := m.now()

	var pageContent, nav string

	switch m.activePage {
	case config.PageHome:
		var balance string
		if m.balance != nil {
			balance = helpers.FormatAmount(m.balance, m.symbol())
		}
		pageContent = home.Render(m.homeForm, m.snap, balance)
		nav = home.Nav(width)

	case config.PageMarketplace:
		listings := m.marketListings()
		pageContent = marketplace.Render(marketplace.Params{
			Listings:  listings,
			Summary:   helpers.SummarizeMarket(listings, now),
			Query:     m.marketQuery,
			Search:    m.search.View(),
			Searching: m.searching,
			Selected:  m.marketIdx,
			Loading:   m.marketLoading,
			Spinner:   m.spin.View(),
			Symbol:    m.symbol(),
			Now:       now,
			Ready:     m.ready(),
		})
		nav = marketplace.Nav(width, m.searching)

	case config.PageDetail:
		pageContent = detail.Render(m.detailParams())
		if m.busy {
			pageContent += "\n\n" + m.spin.View() + " waiting for confirmation…"
		}
		nav = detail.Nav(width, m.canBuy())

	case config.PageSME:
		pageContent = sme.Render(sme.Params{
			Invoices: m.smeInvoices,
			Stats:    helpers.SummarizeSME(m.smeInvoices),
			Selected: m.smeIdx,
			Loading:  m.smeLoading,
			Spinner:  m.spin.View(),
			Symbol:   m.symbol(),
			Now:      now,
			Ready:    m.ready(),
			Form:     m.tokenizeForm,
			Busy:     m.busy,
		})
		nav = sme.Nav(width, m.tokenizeForm != nil)

	case config.PageClient:
		pageContent = client.Render(client.Params{
			Invoices: m.clientInvoices,
			Selected: m.clientIdx,
			Loading:  m.clientLoading,
			Busy:     m.busy,
			Spinner:  m.spin.View(),
			Symbol:   m.symbol(),
			Now:      now,
			Ready:    m.ready(),
		})
		nav = client.Nav(width)

	case config.PagePortfolio:
		pageContent = portfolio.Render(portfolio.Params{
			Investments: m.portfolioList(),
			Stats:       helpers.SummarizePortfolio(m.investments()),
			Filter:      m.portfolioFilter,
			Selected:    m.portfolioIdx,
			Loading:     m.portfolioLoading,
			Busy:        m.busy,
			Spinner:     m.spin.View(),
			Symbol:      m.symbol(),
			Now:         now,
			Ready:       m.ready(),
		})
		nav = portfolio.Nav(width)

	case config.PageHistory:
		pageContent = history.Render(history.Params{
			Entries:   m.sess.History().Entries(),
			Selected:  m.historyIdx,
			ShowQR:    m.showQR,
			CopiedMsg: m.copiedMsg,
		})
		nav = history.Nav(width)
	}

	sections := []string{headerPanel, panelStyle.Width(max(0, width)).Render(pageContent), nav}
	if toasts := m.renderToasts(); toasts != "" {
		sections = append(sections, toasts)
	}

	if m.logEnabled {
		m.logViewport.Height = logview.PanelHeight(m.h)
		sections = append(sections, logview.Render(m.w, m.h, m.logReady, m.logSpinner.View(), m.logViewport, m.cfg.LogLevel))
	}

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
