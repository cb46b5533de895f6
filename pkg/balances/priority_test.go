package balances

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-swap/pkg/types"
)

func TestPriority(t *testing.T) {
	assert.Equal(t, 100, Priority("Osmosis"))
	assert.Equal(t, 20, Priority("Neo"))
	assert.Equal(t, DefaultPriority, Priority("osmosis"))
	assert.Equal(t, DefaultPriority, Priority(""))
}

func TestSortFiltersAndOrders(t *testing.T) {
	in := []WalletBalance{
		{Currency: "NEO", Amount: 3, Blockchain: "Neo"},
		{Currency: "ETH", Amount: 1.5, Blockchain: "Ethereum"},
		{Currency: "DOGE", Amount: 10, Blockchain: "Dogechain"},
		{Currency: "ZIL", Amount: 7, Blockchain: "Zilliqa"},
		{Currency: "OSMO", Amount: 0, Blockchain: "Osmosis"},
		{Currency: "ATOM", Amount: 2, Blockchain: "Osmosis"},
		{Currency: "ARB", Amount: -1, Blockchain: "Arbitrum"},
	}
	original := append([]WalletBalance(nil), in...)

	got := Sort(in)

	currencies := make([]string, len(got))
	for i, b := range got {
		currencies[i] = b.Currency
	}
	assert.Equal(t, []string{"ATOM", "ETH", "NEO", "ZIL"}, currencies, "Neo and Zilliqa tie and keep input order")
	assert.Equal(t, original, in)
}

func TestFormat(t *testing.T) {
	sorted := []WalletBalance{
		{Currency: "ETH", Amount: 1.005, Blockchain: "Ethereum"},
		{Currency: "NEO", Amount: 2, Blockchain: "Neo"},
	}
	now := time.Now()
	prices := PricesFromRecords([]types.PriceRecord{
		{Currency: "ETH", AsOf: now, Price: 2000},
		{Currency: "ETH", AsOf: now.Add(-time.Hour), Price: 1500},
	})
	assert.Equal(t, map[string]float64{"ETH": 2000}, prices)

	rows := Format(sorted, prices)
	require.Len(t, rows, 2)
	assert.Equal(t, "1.01", rows[0].Formatted)
	assert.InDelta(t, 2010, rows[0].USDValue, 1e-9)
	assert.Equal(t, "2.00", rows[1].Formatted)
	assert.Zero(t, rows[1].USDValue)
}
