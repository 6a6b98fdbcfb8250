package portfolio

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"invoice-market-tui/contracts"
	"invoice-market-tui/helpers"
)

func TestCanMarkDefault(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	tests := []struct {
		status contracts.Status
		due    time.Time
		want   bool
	}{
		{contracts.StatusSold, past, true},
		{contracts.StatusSold, future, false},
		{contracts.StatusRepaid, past, false},
		{contracts.StatusDefaulted, past, false},
		{contracts.StatusOnMarket, past, false},
	}
	for _, tt := range tests {
		if got := CanMarkDefault(contracts.Invoice{Status: tt.status, DueDate: tt.due}, now); got != tt.want {
			t.Errorf("CanMarkDefault(%s, %v) = %v, want %v", tt.status, tt.due, got, tt.want)
		}
	}
}

func TestNextFilterWraps(t *testing.T) {
	if NextFilter(helpers.PortfolioDefaulted) != helpers.PortfolioAll {
		t.Error("expected wrap to All")
	}
}

func TestRender(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	invs := []contracts.Invoice{
		{ID: big.NewInt(1), FaceValue: big.NewInt(100), SalePrice: big.NewInt(80), DueDate: now.Add(-time.Hour), Status: contracts.StatusSold},
		{ID: big.NewInt(2), FaceValue: big.NewInt(100), SalePrice: big.NewInt(90), DueDate: now, Status: contracts.StatusRepaid},
	}
	out := Render(Params{Investments: invs, Stats: helpers.SummarizePortfolio(invs), Now: now, Ready: true})
	for _, want := range []string{"2 total", "1 active", "1 repaid", "overdue", "Active", "Repaid"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}
