package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "token-swap",
	Short: "Browse token prices and swap between currencies",
	Long: `token-swap loads the latest token prices, resolves token icons and lets
you compute and submit a currency swap from the command line.

Prices are cached for a few minutes; use --refresh to force a reload.

Examples:
  token-swap list-tokens
  token-swap list-tokens --symbol usd
  token-swap quote 2 ETH to BTC
  token-swap swap 2 ETH to BTC --yes
  token-swap balances wallet.json`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().Bool("refresh", false, "Ignore cached prices and icons")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
