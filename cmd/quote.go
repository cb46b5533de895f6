package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"token-swap/pkg/parser"
	"token-swap/pkg/settlement"
	"token-swap/pkg/swapform"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <from-token> to <to-token>",
	Short: "Show the exchange rate and resulting amount for a swap",
	Long: `Compute the exchange rate between two tokens from the latest prices and
show how much of the target token the amount converts to. Nothing is submitted.

Examples:
  token-swap quote 2 ETH to BTC
  token-swap quote 100 usdc to atom --json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	form, unknown, err := a.prepareForm(cmd, args, nil)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer form.Close()

	errs := form.Validate()
	snap := form.Snapshot()

	if a.json {
		jsonData, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displaySwapForm(snap, "SWAP QUOTE")
		warnUnknown(unknown)
		displayFormErrors(errs)
	}

	if len(errs) > 0 {
		os.Exit(1)
	}
}

// prepareForm parses "<amount> <from> to <to>", loads the catalog and fills
// a form controller with the result
func (a *app) prepareForm(cmd *cobra.Command, args []string, settler settlement.Settler, opts ...swapform.Option) (*swapform.Controller, []string, error) {
	command, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		return nil, nil, err
	}

	tokens, err := a.loadCatalog(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	from, to, unknown := command.Resolve(tokens)

	opts = append([]swapform.Option{swapform.WithLogger(a.log.Named("swapform"))}, opts...)
	form := swapform.NewController(tokens, settler, opts...)

	for _, f := range []struct {
		field swapform.Field
		value string
	}{
		{swapform.FieldFromCurrency, from},
		{swapform.FieldToCurrency, to},
		{swapform.FieldFromAmount, command.Amount},
	} {
		if err := form.UpdateField(f.field, f.value); err != nil {
			form.Close()
			return nil, nil, err
		}
	}

	a.log.Debug("form prepared")
	return form, unknown, nil
}

func displaySwapForm(snap swapform.Snapshot, title string) {
	f := snap.Fields

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     %s", title)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s\n", f.FromAmount, color.YellowString(f.FromCurrency))
	if f.ToAmount != "" {
		fmt.Printf("  To:                ~%s %s\n", f.ToAmount, color.YellowString(f.ToCurrency))
	} else {
		fmt.Printf("  To:                %s\n", color.YellowString(f.ToCurrency))
	}
	if snap.ExchangeRate != nil {
		fmt.Printf("  Rate:              1 %s = %s %s\n", f.FromCurrency, formatRate(*snap.ExchangeRate), f.ToCurrency)
	} else {
		fmt.Printf("  Rate:              %s\n", color.HiBlackString("unavailable"))
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displayFormErrors(errs swapform.ValidationErrors) {
	if len(errs) == 0 {
		return
	}

	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	for _, f := range fields {
		color.Red("  ✗ %s", errs[swapform.Field(f)])
	}
	fmt.Println()
}

func warnUnknown(symbols []string) {
	for _, s := range symbols {
		color.Yellow("  ! %s has no price in the catalog", s)
	}
	if len(symbols) > 0 {
		fmt.Println()
	}
}

// formatRate keeps eight significant digits so tiny rates stay readable
func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'g', 8, 64)
}
