package catalog

// DefaultGlyph is shown for symbols missing from the glyph table
const DefaultGlyph = "🪙"

var fallbackGlyphs = map[string]string{
	"BTC":      "₿",
	"ETH":      "Ξ",
	"USDT":     "💎",
	"BNB":      "🟡",
	"SOL":      "◎",
	"ADA":      "₳",
	"AVAX":     "🔴",
	"DOT":      "●",
	"SWTH":     "🟡",
	"USDC":     "💙",
	"MATIC":    "🟣",
	"LINK":     "🔗",
	"UNI":      "🦄",
	"AAVE":     "🔴",
	"COMP":     "🟡",
	"BUSD":     "💵",
	"LUNA":     "🌙",
	"ATOM":     "⚛️",
	"GMX":      "🟢",
	"KUJI":     "🟣",
	"STRD":     "⭐",
	"EVMOS":    "🟢",
	"IBCX":     "🔵",
	"IRIS":     "🌸",
	"RATOM":    "⚛️",
	"STEVMOS":  "🟢",
	"STOSMO":   "🟢",
	"STATOM":   "⚛️",
	"OSMO":     "🟢",
	"rSWTH":    "🟡",
	"STLUNA":   "🌙",
	"LSI":      "💎",
	"OKB":      "🟡",
	"OKT":      "🟡",
	"USC":      "💵",
	"WBTC":     "₿",
	"wstETH":   "🔷",
	"YieldUSD": "💵",
	"ZIL":      "🟣",
}

// FallbackGlyph returns the static glyph for a symbol. Lookup is case
// sensitive: rSWTH and SWTH are distinct feed symbols.
func FallbackGlyph(symbol string) string {
	if glyph, ok := fallbackGlyphs[symbol]; ok {
		return glyph
	}
	return DefaultGlyph
}
