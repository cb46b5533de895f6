// Package catalog turns raw price records into the deduplicated,
// icon-enriched, price-sorted token list offered by the swap form.
package catalog

import (
	"context"
	"sort"
	"strings"

	"token-swap/pkg/types"
)

// IconResolver resolves icons for a batch of token ids. Every requested id
// must be present in the result; "" means no icon.
type IconResolver interface {
	ResolveIconsBatch(ctx context.Context, tokenIDs []string) map[string]string
}

// Latest keeps one record per currency: the one with the greatest AsOf.
// On equal timestamps the record seen last wins. Output order follows the
// first appearance of each currency.
func Latest(records []types.PriceRecord) []types.PriceRecord {
	index := make(map[string]int, len(records))
	out := make([]types.PriceRecord, 0, len(records))

	for _, rec := range records {
		i, ok := index[rec.Currency]
		if !ok {
			index[rec.Currency] = len(out)
			out = append(out, rec)
			continue
		}
		if !rec.AsOf.Before(out[i].AsOf) {
			out[i] = rec
		}
	}

	return out
}

// Build deduplicates records, resolves icons with a single batch call and
// returns tokens sorted by price descending. Equal prices keep the order of
// first appearance.
func Build(ctx context.Context, records []types.PriceRecord, icons IconResolver) []types.Token {
	latest := Latest(records)

	ids := make([]string, len(latest))
	for i, rec := range latest {
		ids[i] = rec.Currency
	}

	var resolved map[string]string
	if icons != nil && len(ids) > 0 {
		resolved = icons.ResolveIconsBatch(ctx, ids)
	}

	tokens := make([]types.Token, len(latest))
	for i, rec := range latest {
		tokens[i] = types.Token{
			ID:            rec.Currency,
			Price:         rec.Price,
			IconURL:       resolved[rec.Currency],
			FallbackGlyph: FallbackGlyph(rec.Currency),
		}
	}

	sort.SliceStable(tokens, func(a, b int) bool {
		return tokens[a].Price > tokens[b].Price
	})

	return tokens
}

// Find returns the token with the given id
func Find(tokens []types.Token, id string) (types.Token, bool) {
	for _, t := range tokens {
		if t.ID == id {
			return t, true
		}
	}
	return types.Token{}, false
}

// FindSymbol looks a token up ignoring case, preferring an exact match.
// Feed ids such as rSWTH or wstETH are mixed case while users type symbols
// in either case.
func FindSymbol(tokens []types.Token, symbol string) (types.Token, bool) {
	if t, ok := Find(tokens, symbol); ok {
		return t, true
	}
	for _, t := range tokens {
		if strings.EqualFold(t.ID, symbol) {
			return t, true
		}
	}
	return types.Token{}, false
}

// Filter returns the tokens whose id contains substr, case-insensitively
func Filter(tokens []types.Token, substr string) []types.Token {
	if substr == "" {
		return tokens
	}
	substr = strings.ToUpper(substr)

	var out []types.Token
	for _, t := range tokens {
		if strings.Contains(strings.ToUpper(t.ID), substr) {
			out = append(out, t)
		}
	}
	return out
}
