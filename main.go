package main

import (
	"fmt"
	"os"

	"invoice-market-tui/config"
	"invoice-market-tui/wallet"

	tea "github.com/charmbracelet/bubbletea"
)

// -------------------- MAIN --------------------

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	if cfg.PrefsPath == "" {
		cfg.PrefsPath = config.DefaultPrefsPath()
	}
	prefs := config.LoadOrCreatePrefs(cfg.PrefsPath)

	sink := &logSink{}
	logger := newLogger(sink, cfg.LogLevel)
	cfg.Validate(logger)

	// no key configured behaves like a browser without a wallet extension
	var provider wallet.Provider
	var local *wallet.LocalProvider
	if cfg.HasWallet() {
		local, err = wallet.NewLocalProvider(cfg, wallet.WithLogger(logger))
		if err != nil {
			logger.Error("wallet unavailable", "err", err)
		} else {
			provider = local
		}
	}

	m := newModel(cfg, prefs, sink, logger, provider)
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()

	m.sess.Disconnect()
	if local != nil && provider != nil {
		local.Close()
	}
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}
