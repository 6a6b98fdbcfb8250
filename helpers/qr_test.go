package helpers

import (
	"strings"
	"testing"
)

func TestQRCode(t *testing.T) {
	if got := QRCode(""); got != "" {
		t.Errorf("QRCode(\"\") = %q, want empty", got)
	}

	qr := QRCode("https://sepolia.mantlescan.xyz/tx/0xabc")
	lines := strings.Split(strings.TrimRight(qr, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("expected a multi-line code, got %d lines", len(lines))
	}
}
