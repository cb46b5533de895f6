package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"token-swap/pkg/balances"
)

var balancesCmd = &cobra.Command{
	Use:   "balances <file.json>",
	Short: "Show wallet balances ordered by blockchain priority",
	Long: `Read wallet balances from a JSON file and print the ones worth showing,
ordered by blockchain priority and valued with the latest token prices.

The file holds an array of {"currency", "amount", "blockchain"} objects.
Balances on unknown blockchains and empty balances are hidden.

Examples:
  token-swap balances wallet.json
  token-swap balances wallet.json --json`,
	Args: cobra.ExactArgs(1),
	Run:  runBalances,
}

func init() {
	rootCmd.AddCommand(balancesCmd)
}

func runBalances(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	wallet, err := readWalletBalances(args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// prices only, no icon probes
	prices := map[string]float64{}
	records, err := a.loadPrices(cmd.Context())
	if err != nil {
		a.log.Warn("balances shown without prices", zap.Error(err))
		if !a.json {
			color.Yellow("Warning: could not load prices, USD values are zero: %v\n", err)
		}
	} else {
		prices = balances.PricesFromRecords(records)
	}

	rows := balances.Format(balances.Sort(wallet), prices)

	if a.json {
		jsonData, _ := json.MarshalIndent(rows, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	displayBalances(rows)
}

func readWalletBalances(path string) ([]balances.WalletBalance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read balances file: %w", err)
	}

	var wallet []balances.WalletBalance
	if err := json.Unmarshal(data, &wallet); err != nil {
		return nil, fmt.Errorf("failed to parse balances file: %w", err)
	}
	return wallet, nil
}

func displayBalances(rows []balances.FormattedBalance) {
	if len(rows) == 0 {
		fmt.Println("\nNo balances to show.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nBLOCKCHAIN\tCURRENCY\tAMOUNT\tUSD VALUE")
	fmt.Fprintln(w, strings.Repeat("-", 60))

	var total float64
	for _, r := range rows {
		total += r.USDValue
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.Blockchain, color.YellowString(r.Currency), r.Formatted, fmt.Sprintf("$%.2f", r.USDValue))
	}
	w.Flush()

	fmt.Printf("\nTotal value: %s\n\n", color.GreenString("$%.2f", total))
}
