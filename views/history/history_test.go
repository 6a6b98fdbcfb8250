package history

import (
	"strings"
	"testing"
	"time"

	"invoice-market-tui/session"
)

func TestRender(t *testing.T) {
	if out := Render(Params{}); !strings.Contains(out, "No transactions yet") {
		t.Errorf("expected empty state, got %q", out)
	}

	entries := []session.Entry{
		{Hash: "0x1234567890abcdef1234567890abcdef", Type: session.TxPurchase, Description: "Purchased invoice #7", CreatedAt: time.Now(), ExplorerURL: "https://sepolia.mantlescan.xyz/tx/0x12"},
		{Hash: "0xabcdefabcdefabcdefabcdefabcdefab", Type: session.TxMint, Description: "Tokenized invoice #7", CreatedAt: time.Now()},
	}

	out := Render(Params{Entries: entries})
	if !strings.Contains(out, "PURCHASE") || !strings.Contains(out, "Tokenized invoice #7") {
		t.Errorf("missing rows in %q", out)
	}
	if strings.Contains(out, "█") || strings.Contains(out, "▀") {
		t.Error("QR should only render when requested")
	}

	withQR := Render(Params{Entries: entries, ShowQR: true})
	if !strings.Contains(withQR, "https://sepolia.mantlescan.xyz/tx/0x12") {
		t.Error("expected explorer link under the QR code")
	}
	if len(strings.Split(withQR, "\n")) <= len(strings.Split(out, "\n"))+5 {
		t.Error("expected QR rows")
	}
}
