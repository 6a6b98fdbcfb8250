package config

// Page identifies a screen of the application
type Page int

const (
	PageHome Page = iota
	PageMarketplace
	PageDetail
	PageSME
	PageClient
	PagePortfolio
	PageHistory
)

func (p Page) String() string {
	switch p {
	case PageMarketplace:
		return "Marketplace"
	case PageDetail:
		return "Invoice"
	case PageSME:
		return "SME Dashboard"
	case PageClient:
		return "Client Dashboard"
	case PagePortfolio:
		return "Portfolio"
	case PageHistory:
		return "Transactions"
	default:
		return "Home"
	}
}
