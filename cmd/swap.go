package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"token-swap/pkg/swapform"
)

var (
	noConfirm bool
	reverse   bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <from-token> to <to-token>",
	Short: "Submit a token swap",
	Long: `Fill the swap form from the command line, validate it and submit it for
settlement.

The settlement backend is chosen by settlement.mode in .token-swap.yaml
(or TOKEN_SWAP_SETTLEMENT_MODE): "simulated" (default) or "oneclick".

Examples:
  token-swap swap 2 ETH to BTC
  token-swap swap 0.5 BTC to USDC --reverse
  token-swap swap 100 USDC to ATOM --yes --json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	swapCmd.Flags().BoolVar(&reverse, "reverse", false, "Swap the direction before submitting")
}

func runSwap(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	form, unknown, err := a.prepareForm(cmd, args, a.newSettler(),
		swapform.WithDismissAfter(a.cfg.SuccessDismissAfter))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer form.Close()

	if reverse {
		form.SwapDirection()
	}

	if errs := form.Validate(); len(errs) > 0 {
		if a.json {
			jsonData, _ := json.MarshalIndent(form.Snapshot(), "", "  ")
			fmt.Println(string(jsonData))
		} else {
			displaySwapForm(form.Snapshot(), "SWAP")
			warnUnknown(unknown)
			displayFormErrors(errs)
		}
		os.Exit(1)
	}

	if !a.json {
		displaySwapForm(form.Snapshot(), "SWAP")
	}

	// Ask for confirmation
	if !noConfirm && !a.json {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !a.json {
		s.Suffix = " Submitting swap..."
		s.Start()
	}

	err = form.Submit(cmd.Context())
	if !a.json {
		s.Stop()
	}

	snap := form.Snapshot()
	if a.json {
		jsonData, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Println(string(jsonData))
		if err != nil {
			os.Exit(1)
		}
		return
	}

	var settleErr *swapform.SettlementError
	switch {
	case errors.As(err, &settleErr):
		color.Red("\n✗ %s", snap.Errors[swapform.FieldGeneral])
		if a.verbose {
			fmt.Printf("\nDebug: %v\n", settleErr.Err)
		}
		fmt.Println()
		os.Exit(1)
	case err != nil:
		printError(err)
		os.Exit(1)
	}

	color.Green("\n✓ Swap submitted successfully!")
	fmt.Printf("  Submission ID: %s\n", color.CyanString(snap.SubmissionID))
	if r := snap.Receipt; r != nil {
		if r.Reference != "" {
			fmt.Printf("  Reference:     %s\n", color.CyanString(r.Reference))
		}
		if r.AmountOut != "" {
			fmt.Printf("  Amount out:    ~%s %s\n", r.AmountOut, snap.Fields.ToCurrency)
		}
	}
	printSuccess(fmt.Sprintf("Swapped %s %s for %s %s.",
		snap.Fields.FromAmount, snap.Fields.FromCurrency, snap.Fields.ToAmount, snap.Fields.ToCurrency))
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
