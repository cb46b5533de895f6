package parser

import (
	"fmt"
	"regexp"
	"strings"

	"token-swap/pkg/catalog"
	"token-swap/pkg/types"
)

// SwapCommand is a parsed "<amount> <from> to <to>" instruction
type SwapCommand struct {
	Amount string
	From   string
	To     string
}

// Pattern: [swap] <amount> <source_token> to <dest_token>
// Matches: "1 SOL to USDC", "swap 1.5 eth TO btc", "100 rSWTH to wstETH"
var swapPattern = regexp.MustCompile(`(?i)^(?:swap\s+)?(\d+\.?\d*|\.\d+)\s+([A-Za-z0-9.\-]+)\s+to\s+([A-Za-z0-9.\-]+)$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 SOL to USDC"
//   - "1.5 ETH to BTC"
//   - "100 USDC to SOL"
func ParseSwapCommand(command string) (*SwapCommand, error) {
	command = strings.Join(strings.Fields(command), " ")

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 ETH to USDC')")
	}

	return &SwapCommand{
		Amount: matches[1],
		From:   matches[2],
		To:     matches[3],
	}, nil
}

// Resolve maps the typed symbols onto catalog ids. Unknown symbols are
// returned unchanged so that form validation and rate derivation decide
// what to do with them.
func (c *SwapCommand) Resolve(tokens []types.Token) (from, to string, unknown []string) {
	from, to = c.From, c.To

	if t, ok := catalog.FindSymbol(tokens, c.From); ok {
		from = t.ID
	} else {
		unknown = append(unknown, c.From)
	}
	if t, ok := catalog.FindSymbol(tokens, c.To); ok {
		to = t.ID
	} else {
		unknown = append(unknown, c.To)
	}

	return from, to, unknown
}
