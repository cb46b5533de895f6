package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"token-swap/pkg/catalog"
	"token-swap/pkg/gateway"
	"token-swap/pkg/types"
)

var (
	filterSymbol string
	iconsOnly    bool
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List all tokens with a known price",
	Long: `List every token of the price feed, newest price per token, sorted by
price descending. Tokens without a remote icon show a fallback glyph.

Examples:
  token-swap list-tokens
  token-swap list-tokens --symbol usd
  token-swap list-tokens --with-icon --json`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
	tokensCmd.Flags().BoolVar(&iconsOnly, "with-icon", false, "Only show tokens that have a remote icon")
}

func runListTokens(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	tokens, err := a.loadCatalog(cmd.Context())
	if err != nil {
		printError(err)
		color.Yellow("Run again with --refresh to retry.\n")
		os.Exit(1)
	}

	// Apply filters
	filtered := catalog.Filter(tokens, filterSymbol)
	if iconsOnly {
		var temp []types.Token
		for _, token := range filtered {
			if token.HasIcon() {
				temp = append(temp, token)
			}
		}
		filtered = temp
	}

	// Output
	if a.json {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTokens(filtered)
	}

	if a.verbose {
		printGatewayStats(a.gateway)
	}
}

func displayTokens(tokens []types.Token) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                                 TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	withIcon := 0
	for _, token := range tokens {
		icon := color.HiBlackString("-")
		if token.HasIcon() {
			withIcon++
			icon = color.HiBlackString(token.IconURL)
		}

		fmt.Printf("  %-3s %-10s  %18s  %s\n",
			token.FallbackGlyph,
			color.YellowString(token.ID),
			formatPrice(token.Price),
			icon)
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens, %d with icons\n\n", len(tokens), withIcon)
}

func formatPrice(price float64) string {
	if price >= 1 {
		return fmt.Sprintf("$%.2f", price)
	}
	return fmt.Sprintf("$%.6f", price)
}

// printGatewayStats dumps the gateway counters gathered so far
func printGatewayStats(gw *gateway.Gateway) {
	families, err := gw.Registry().Gather()
	if err != nil {
		printError(err)
		return
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("  %-70s %v", name, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				lines = append(lines, fmt.Sprintf("  %-70s count=%d sum=%v", name,
					m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)

	color.Cyan("Gateway statistics (price cache TTL %s):", gw.TTL())
	for _, line := range lines {
		fmt.Println(line)
	}
	fmt.Println()
}
