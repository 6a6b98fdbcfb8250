package helpers

import (
	"math"
	"math/big"
	"sort"
	"strings"
	"time"

	"invoice-market-tui/contracts"
)

// MinDaysBeforeDue is the minimum remaining term for an invoice to be purchasable
const MinDaysBeforeDue = 3

// ROI returns (face - sale) / sale * 100, or 0 when the sale price is zero
func ROI(inv contracts.Invoice) float64 {
	if inv.SalePrice == nil || inv.SalePrice.Sign() == 0 || inv.FaceValue == nil {
		return 0
	}
	diff := new(big.Int).Sub(inv.FaceValue, inv.SalePrice)
	r := new(big.Rat).SetFrac(diff, inv.SalePrice)
	r.Mul(r, big.NewRat(100, 1))
	f, _ := r.Float64()
	return f
}

// DaysToMaturity is the number of started days until the due date, never negative
func DaysToMaturity(due, now time.Time) int {
	secs := due.Unix() - now.Unix()
	if secs <= 0 {
		return 0
	}
	return int((secs + 86399) / 86400)
}

// IsExpired reports whether the due date has passed
func IsExpired(due, now time.Time) bool {
	return now.Unix() > due.Unix()
}

// Risk buckets
type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
)

func (r Risk) String() string {
	switch r {
	case RiskHigh:
		return "High Risk"
	case RiskMedium:
		return "Medium Risk"
	default:
		return "Low Risk"
	}
}

// RiskLevel classifies an invoice by remaining term and return
func RiskLevel(inv contracts.Invoice, now time.Time) Risk {
	days := DaysToMaturity(inv.DueDate, now)
	roi := ROI(inv)
	switch {
	case days <= 7 && roi >= 20:
		return RiskHigh
	case days <= 30 && roi >= 15:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ROITier is 3 for >= 20%, 2 for >= 15%, 1 for >= 10%, else 0
func ROITier(roi float64) int {
	switch {
	case roi >= 20:
		return 3
	case roi >= 15:
		return 2
	case roi >= 10:
		return 1
	default:
		return 0
	}
}

// MaturityProgress maps the remaining term onto a 90-day bar, 0..100
func MaturityProgress(due, now time.Time) float64 {
	p := 100 - float64(DaysToMaturity(due, now))/90*100
	return math.Max(0, math.Min(100, p))
}

// PurchaseBlock explains why an invoice cannot be bought, or "" if it can
func PurchaseBlock(inv contracts.Invoice, account string, now time.Time) string {
	switch {
	case SameAddress(account, inv.SME.Hex()):
		return "you issued this invoice"
	case inv.Status != contracts.StatusOnMarket:
		return "invoice is " + inv.Status.String()
	case inv.Validate() != nil:
		return "invalid record: " + inv.Validate().Error()
	case IsExpired(inv.DueDate, now):
		return "invoice has expired"
	case DaysToMaturity(inv.DueDate, now) < MinDaysBeforeDue:
		return "less than 3 days to maturity"
	}
	return ""
}

// CanPurchase reports whether the buy action should be offered
func CanPurchase(inv contracts.Invoice, account string, now time.Time) bool {
	return PurchaseBlock(inv, account, now) == ""
}

// Marketplace filters
type MarketFilter int

const (
	FilterAll MarketFilter = iota
	FilterHighROI
	FilterShortTerm
)

func (f MarketFilter) String() string {
	switch f {
	case FilterHighROI:
		return "High ROI"
	case FilterShortTerm:
		return "Short term"
	default:
		return "All"
	}
}

// Marketplace sort orders
type MarketSort int

const (
	SortDueDate MarketSort = iota
	SortROI
	SortFaceValue
)

func (s MarketSort) String() string {
	switch s {
	case SortROI:
		return "ROI"
	case SortFaceValue:
		return "Face value"
	default:
		return "Due date"
	}
}

// MarketQuery selects and orders marketplace listings
type MarketQuery struct {
	Search string
	Filter MarketFilter
	Sort   MarketSort
}

// FilterMarket applies search, filter and sort. The input is not modified.
func FilterMarket(invoices []contracts.Invoice, q MarketQuery, now time.Time) []contracts.Invoice {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	horizon := now.Add(30 * 24 * time.Hour)

	out := make([]contracts.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if term != "" &&
			!strings.Contains(inv.IDString(), term) &&
			!strings.Contains(strings.ToLower(inv.Client.Hex()), term) &&
			!strings.Contains(strings.ToLower(inv.SME.Hex()), term) {
			continue
		}
		switch q.Filter {
		case FilterHighROI:
			if ROI(inv) < 15 {
				continue
			}
		case FilterShortTerm:
			if inv.DueDate.After(horizon) {
				continue
			}
		}
		out = append(out, inv)
	}

	sort.SliceStable(out, func(i, j int) bool {
		switch q.Sort {
		case SortROI:
			return ROI(out[i]) > ROI(out[j])
		case SortFaceValue:
			return out[i].FaceValue.Cmp(out[j].FaceValue) > 0
		default:
			return out[i].DueDate.Before(out[j].DueDate)
		}
	})
	return out
}

// MarketSummary is the header of the marketplace view
type MarketSummary struct {
	Count      int
	AverageROI float64
	AverageDay float64
	Volume     *big.Int // sum of face values
}

// SummarizeMarket aggregates a list of listings
func SummarizeMarket(invoices []contracts.Invoice, now time.Time) MarketSummary {
	s := MarketSummary{Count: len(invoices), Volume: new(big.Int)}
	if len(invoices) == 0 {
		return s
	}
	var roi, days float64
	for _, inv := range invoices {
		roi += ROI(inv)
		days += float64(DaysToMaturity(inv.DueDate, now))
		s.Volume.Add(s.Volume, inv.FaceValue)
	}
	s.AverageROI = roi / float64(len(invoices))
	s.AverageDay = days / float64(len(invoices))
	return s
}

// Portfolio filters
type PortfolioFilter int

const (
	PortfolioAll PortfolioFilter = iota
	PortfolioActive
	PortfolioRepaid
	PortfolioDefaulted
)

func (f PortfolioFilter) String() string {
	switch f {
	case PortfolioActive:
		return "Active"
	case PortfolioRepaid:
		return "Repaid"
	case PortfolioDefaulted:
		return "Defaulted"
	default:
		return "All"
	}
}

// Investments keeps the purchased invoices, those no longer on the market
func Investments(owned []contracts.Invoice) []contracts.Invoice {
	out := make([]contracts.Invoice, 0, len(owned))
	for _, inv := range owned {
		if inv.Status != contracts.StatusOnMarket {
			out = append(out, inv)
		}
	}
	return out
}

// FilterPortfolio selects investments by lifecycle state
func FilterPortfolio(invoices []contracts.Invoice, f PortfolioFilter) []contracts.Invoice {
	if f == PortfolioAll {
		return invoices
	}
	want := map[PortfolioFilter]contracts.Status{
		PortfolioActive:    contracts.StatusSold,
		PortfolioRepaid:    contracts.StatusRepaid,
		PortfolioDefaulted: contracts.StatusDefaulted,
	}[f]
	var out []contracts.Invoice
	for _, inv := range invoices {
		if inv.Status == want {
			out = append(out, inv)
		}
	}
	return out
}

// PortfolioStats aggregates an investor's holdings. Amounts are in wei.
type PortfolioStats struct {
	Invested  *big.Int
	FaceValue *big.Int
	Returns   *big.Int // face value of repaid invoices
	Profit    *big.Int // returns minus what was paid for the repaid invoices
	Active    int
	Repaid    int
	Defaulted int
	Total     int
	ROI       float64
}

// SummarizePortfolio computes the portfolio header
func SummarizePortfolio(invoices []contracts.Invoice) PortfolioStats {
	s := PortfolioStats{
		Invested:  new(big.Int),
		FaceValue: new(big.Int),
		Returns:   new(big.Int),
		Profit:    new(big.Int),
		Total:     len(invoices),
	}
	repaidCost := new(big.Int)
	for _, inv := range invoices {
		s.Invested.Add(s.Invested, inv.SalePrice)
		s.FaceValue.Add(s.FaceValue, inv.FaceValue)
		switch inv.Status {
		case contracts.StatusSold:
			s.Active++
		case contracts.StatusRepaid:
			s.Repaid++
			s.Returns.Add(s.Returns, inv.FaceValue)
			repaidCost.Add(repaidCost, inv.SalePrice)
		case contracts.StatusDefaulted:
			s.Defaulted++
		}
	}
	s.Profit.Sub(s.Returns, repaidCost)
	if s.Invested.Sign() > 0 {
		r := new(big.Rat).SetFrac(s.Profit, s.Invested)
		r.Mul(r, big.NewRat(100, 1))
		s.ROI, _ = r.Float64()
	}
	return s
}

// ClientLabel is how an invoice status reads from the paying client's side
func ClientLabel(s contracts.Status) string {
	switch s {
	case contracts.StatusOnMarket:
		return "Available"
	case contracts.StatusSold:
		return "Payment Due"
	case contracts.StatusRepaid:
		return "Paid"
	case contracts.StatusDefaulted:
		return "Defaulted"
	default:
		return s.String()
	}
}

// InvestorLabel is how an invoice status reads in the portfolio
func InvestorLabel(s contracts.Status) string {
	if s == contracts.StatusSold {
		return "Active"
	}
	return s.String()
}

// SMEStats counts an issuer's invoices per status and sums the raised amount
type SMEStats struct {
	Total    int
	OnMarket int
	Sold     int
	Repaid   int
	Raised   *big.Int // sale price of every invoice no longer on the market
}

// SummarizeSME computes the SME dashboard header
func SummarizeSME(invoices []contracts.Invoice) SMEStats {
	s := SMEStats{Total: len(invoices), Raised: new(big.Int)}
	for _, inv := range invoices {
		switch inv.Status {
		case contracts.StatusOnMarket:
			s.OnMarket++
		case contracts.StatusSold:
			s.Sold++
		case contracts.StatusRepaid:
			s.Repaid++
		}
		if inv.Status != contracts.StatusOnMarket {
			s.Raised.Add(s.Raised, inv.SalePrice)
		}
	}
	return s
}
