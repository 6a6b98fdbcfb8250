package detail

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"invoice-market-tui/contracts"

	"github.com/ethereum/go-ethereum/common"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct    float64
		filled int
	}{
		{0, 0},
		{50, 5},
		{100, 10},
		{150, 10},
	}
	for _, tt := range tests {
		got := ProgressBar(tt.pct, 10)
		if n := strings.Count(got, "█"); n != tt.filled {
			t.Errorf("ProgressBar(%v) filled %d, want %d", tt.pct, n, tt.filled)
		}
		if n := strings.Count(got, "█") + strings.Count(got, "░"); n != 10 {
			t.Errorf("ProgressBar(%v) width %d, want 10", tt.pct, n)
		}
	}
}

func TestRenderPurchaseGuard(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sme := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	inv := contracts.Invoice{
		ID:        big.NewInt(3),
		SME:       sme,
		FaceValue: big.NewInt(100),
		SalePrice: big.NewInt(90),
		DueDate:   now.Add(40 * 24 * time.Hour),
		CreatedAt: now.Add(-time.Hour),
		Status:    contracts.StatusOnMarket,
	}

	out := Render(Params{Invoice: inv, Found: true, Account: "0x00000000000000000000000000000000000000b2", Now: now})
	if !strings.Contains(out, "to buy for") {
		t.Errorf("expected buy hint, got %q", out)
	}

	out = Render(Params{Invoice: inv, Found: true, Account: strings.ToLower(sme.Hex()), Now: now})
	if !strings.Contains(out, "you issued this invoice") {
		t.Errorf("expected self-purchase guard, got %q", out)
	}

	out = Render(Params{Found: false})
	if !strings.Contains(out, "not found") {
		t.Errorf("expected not found, got %q", out)
	}
}
