package swapform

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"token-swap/pkg/catalog"
	"token-swap/pkg/types"
)

// OutputPrecision is the number of decimals of a computed to-amount
const OutputPrecision = 6

// DeriveRate computes price(from)/price(to) and the resulting to-amount.
// ok is false when either token is missing from tokens, the to-token has no
// usable price, the rate is not finite, or FromAmount is not a non-negative
// number; callers then keep their previous values.
func DeriveRate(f Fields, tokens []types.Token) (rate float64, toAmount string, ok bool) {
	rate, ok = pairRate(f, tokens)
	if !ok {
		return 0, "", false
	}

	amount, err := parseAmount(f.FromAmount)
	if err != nil || amount.IsNegative() {
		return 0, "", false
	}

	out := amount.Mul(decimal.NewFromFloat(rate))
	return rate, out.StringFixed(OutputPrecision), true
}

func pairRate(f Fields, tokens []types.Token) (float64, bool) {
	if f.FromCurrency == "" || f.ToCurrency == "" {
		return 0, false
	}
	from, ok := catalog.Find(tokens, f.FromCurrency)
	if !ok {
		return 0, false
	}
	to, ok := catalog.Find(tokens, f.ToCurrency)
	if !ok || to.Price <= 0 {
		return 0, false
	}
	rate := from.Price / to.Price
	if math.IsInf(rate, 0) || math.IsNaN(rate) {
		return 0, false
	}
	return rate, true
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}
