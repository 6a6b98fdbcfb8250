package client

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"invoice-market-tui/contracts"
)

func TestRender(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ether := func(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18)) }
	invoices := []contracts.Invoice{
		{ID: big.NewInt(1), FaceValue: ether(100), SalePrice: ether(90), DueDate: now.Add(-24 * time.Hour), Status: contracts.StatusSold},
		{ID: big.NewInt(2), FaceValue: ether(50), SalePrice: ether(45), DueDate: now.Add(24 * time.Hour), Status: contracts.StatusSold},
		{ID: big.NewInt(3), FaceValue: ether(10), SalePrice: ether(9), DueDate: now, Status: contracts.StatusRepaid},
		{ID: big.NewInt(4), FaceValue: ether(10), SalePrice: ether(9), DueDate: now, Status: contracts.StatusOnMarket},
	}

	out := Render(Params{Invoices: invoices, Symbol: "MNT", Now: now, Ready: true})
	for _, want := range []string{"4 invoices", "2 payment due", "owed 150 MNT", "Payment Due", "Paid", "Available", "overdue"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}
	if strings.Count(out, "overdue") != 1 {
		t.Error("only the first invoice is overdue")
	}
}

func TestCanRepay(t *testing.T) {
	for _, s := range contracts.Statuses {
		want := s == contracts.StatusSold
		if got := CanRepay(contracts.Invoice{Status: s}); got != want {
			t.Errorf("CanRepay(%s) = %v, want %v", s, got, want)
		}
	}
}
