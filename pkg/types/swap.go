package types

import "time"

// PriceRecord is one entry of the bulk price feed. Several records may share
// a currency; the one with the latest AsOf is authoritative.
type PriceRecord struct {
	Currency string    `json:"currency"`
	AsOf     time.Time `json:"date"`
	Price    float64   `json:"price"`
}

// Token is a display-ready entry of the catalog
type Token struct {
	ID            string  `json:"id"`
	Price         float64 `json:"price"`
	IconURL       string  `json:"icon_url,omitempty"` // empty when no remote icon resolved
	FallbackGlyph string  `json:"fallback_glyph"`
}

// HasIcon reports whether a remote icon was resolved for the token
func (t Token) HasIcon() bool {
	return t.IconURL != ""
}

// SwapRequest holds validated swap parameters handed to a settlement backend
type SwapRequest struct {
	SubmissionID string
	FromCurrency string
	ToCurrency   string
	FromAmount   string
	ToAmount     string
	Rate         float64
}
