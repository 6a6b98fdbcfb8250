package network

import (
	"fmt"

	"invoice-market-tui/helpers"
	"invoice-market-tui/session"
	"invoice-market-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Badge is the status dot shown at the right of the header
func Badge(snap session.Snapshot) string {
	var icon, text string
	color := styles.CError

	switch snap.State {
	case session.Connecting:
		icon, text = "○", "Connecting..."
	case session.ConnectedWrongNetwork:
		icon, text = "●", currentName(snap)
		color = styles.CWarn
	case session.ConnectedReady:
		icon, text = "●", snap.TargetName
		color = styles.CAccent
	default:
		icon, text = "○", "Not connected"
	}

	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render(icon + " " + text)
}

// Warning is the banner shown while the wallet is on another chain, or ""
func Warning(snap session.Snapshot) string {
	if snap.State != session.ConnectedWrongNetwork {
		return ""
	}
	msg := fmt.Sprintf("⚠ Wrong network: your wallet is on %s. Contracts live on %s.",
		currentName(snap), snap.TargetName)
	if snap.ChainID != nil && snap.ChainID.IsUint64() && !helpers.IsSupportedNetwork(snap.ChainID.Uint64()) {
		msg += " The marketplace is not deployed there."
	}
	return styles.WarnStyle.Render(msg) + "  " +
		styles.MutedStyle.Render("press ") + styles.Key("N") + styles.MutedStyle.Render(" to switch")
}

func currentName(snap session.Snapshot) string {
	if snap.ChainID == nil {
		return "an unknown network"
	}
	if snap.ChainID.IsUint64() && snap.ChainID.Uint64() == snap.TargetChainID {
		return snap.TargetName
	}
	if !snap.ChainID.IsUint64() {
		return "Unknown Network (" + snap.ChainID.String() + ")"
	}
	return helpers.NetworkName(snap.ChainID.Uint64())
}
