package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Prefs are the persisted UI preferences. Session data (account, history)
// is never written here.
type Prefs struct {
	Logger   bool `json:"logger"`
	LastPage Page `json:"last_page"`
}

// DefaultPrefsPath returns ~/.invoice-market-tui.json
func DefaultPrefsPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".invoice-market-tui.json")
}

// LoadPrefs reads the preferences from the specified path
func LoadPrefs(path string) Prefs {
	data, err := os.ReadFile(path)
	if err != nil {
		return Prefs{}
	}

	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return Prefs{}
	}

	return p
}

// SavePrefs writes the preferences to the specified path
func SavePrefs(path string, p Prefs) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0644)
}

// DefaultPrefs returns preferences with sensible defaults
func DefaultPrefs() Prefs {
	return Prefs{
		Logger:   false,
		LastPage: PageHome,
	}
}

// LoadOrCreatePrefs loads preferences from path, or creates default ones if not found
func LoadOrCreatePrefs(path string) Prefs {
	data, err := os.ReadFile(path)
	if err != nil {
		p := DefaultPrefs()
		SavePrefs(path, p)
		return p
	}

	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultPrefs()
	}

	return p
}
