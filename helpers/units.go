package helpers

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that cannot be represented exactly
var ErrInvalidAmount = errors.New("invalid amount")

// ParseUnits converts a decimal string like "1.5" into an integer scaled by
// 10^decimals. Negative values, malformed input and more fractional digits
// than decimals are rejected.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	// plain decimal notation only
	if strings.ContainsAny(s, "eE") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	if d.Exponent() < -int32(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, decimals)
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

// FormatUnits renders v / 10^decimals without trailing fractional zeros
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

// FormatAmount formats an 18-decimal amount with at most four fractional digits and a symbol
func FormatAmount(wei *big.Int, symbol string) string {
	s := "0"
	if wei != nil {
		s = decimal.NewFromBigInt(wei, -18).Truncate(4).String()
	}
	if symbol == "" {
		return s
	}
	return s + " " + symbol
}
