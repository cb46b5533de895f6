// Package balances orders wallet balances by blockchain priority for display.
package balances

import (
	"sort"

	"github.com/shopspring/decimal"

	"token-swap/pkg/catalog"
	"token-swap/pkg/types"
)

// DefaultPriority is assigned to unknown blockchains. Balances on such
// chains are never displayed.
const DefaultPriority = -99

var blockchainPriorities = map[string]int{
	"Osmosis":  100,
	"Ethereum": 50,
	"Arbitrum": 30,
	"Zilliqa":  20,
	"Neo":      20,
}

// WalletBalance is one holding as reported by a wallet
type WalletBalance struct {
	Currency   string  `json:"currency"`
	Amount     float64 `json:"amount"`
	Blockchain string  `json:"blockchain"`
}

// FormattedBalance is a display row
type FormattedBalance struct {
	WalletBalance
	Formatted string  `json:"formatted"`
	USDValue  float64 `json:"usdValue"`
}

// Priority returns the display priority of a blockchain; higher comes first
func Priority(blockchain string) int {
	if p, ok := blockchainPriorities[blockchain]; ok {
		return p
	}
	return DefaultPriority
}

// Include reports whether a balance is shown at all
func Include(b WalletBalance) bool {
	return Priority(b.Blockchain) > DefaultPriority && b.Amount > 0
}

// Sort keeps the displayable balances and orders them by priority,
// highest first. Equal priorities keep their input order. The input is not modified.
func Sort(in []WalletBalance) []WalletBalance {
	out := make([]WalletBalance, 0, len(in))
	for _, b := range in {
		if Include(b) {
			out = append(out, b)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return Priority(out[i].Blockchain) > Priority(out[j].Blockchain)
	})
	return out
}

// Format renders amounts with two decimals and values them with prices.
// Currencies without a price are valued at zero.
func Format(sorted []WalletBalance, prices map[string]float64) []FormattedBalance {
	rows := make([]FormattedBalance, len(sorted))
	for i, b := range sorted {
		amount := decimal.NewFromFloat(b.Amount)
		usd, _ := amount.Mul(decimal.NewFromFloat(prices[b.Currency])).Float64()
		rows[i] = FormattedBalance{
			WalletBalance: b,
			Formatted:     amount.StringFixed(2),
			USDValue:      usd,
		}
	}
	return rows
}

// PricesFromRecords indexes the newest price of each currency in a raw feed
func PricesFromRecords(records []types.PriceRecord) map[string]float64 {
	latest := catalog.Latest(records)
	prices := make(map[string]float64, len(latest))
	for _, r := range latest {
		prices[r.Currency] = r.Price
	}
	return prices
}
