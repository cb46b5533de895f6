package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"token-swap/config"
	"token-swap/pkg/catalog"
	"token-swap/pkg/gateway"
	"token-swap/pkg/logger"
	"token-swap/pkg/settlement"
	"token-swap/pkg/types"
)

// app wires the components shared by every command
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	gateway *gateway.Gateway
	loader  *catalog.Loader

	verbose bool
	json    bool
	refresh bool
}

func newApp(cmd *cobra.Command) (*app, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	refresh, _ := cmd.Flags().GetBool("refresh")

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logger.New(level, cfg.LogJSON)
	if err != nil {
		return nil, err
	}

	gw := gateway.New(cfg.PricesURL, cfg.IconsBaseURL,
		gateway.WithTTL(cfg.CacheTTL),
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		gateway.WithProbeMethod(cfg.IconProbeMethod),
		gateway.WithConcurrency(cfg.IconConcurrency),
		gateway.WithLogger(log.Named("gateway")),
	)

	return &app{
		cfg:     cfg,
		log:     log,
		gateway: gw,
		loader:  catalog.NewLoader(gw, log.Named("catalog")),
		verbose: verbose,
		json:    jsonOutput,
		refresh: refresh,
	}, nil
}

// loadCatalog builds the token catalog, showing a spinner on terminals
func (a *app) loadCatalog(ctx context.Context) ([]types.Token, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !a.json {
		s.Suffix = " Fetching token prices and icons..."
		s.Start()
	}

	var tokens []types.Token
	var err error
	if a.refresh {
		tokens, err = a.loader.Refresh(ctx)
	} else {
		tokens, err = a.loader.Load(ctx)
	}

	if !a.json {
		s.Stop()
	}
	return tokens, err
}

// loadPrices fetches the raw price feed without resolving icons
func (a *app) loadPrices(ctx context.Context) ([]types.PriceRecord, error) {
	if a.refresh {
		a.gateway.Invalidate()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !a.json {
		s.Suffix = " Fetching token prices..."
		s.Start()
	}

	records, err := a.gateway.FetchPrices(ctx)

	if !a.json {
		s.Stop()
	}
	return records, err
}

func (a *app) newSettler() settlement.Settler {
	s := a.cfg.Settlement
	if s.Mode == config.SettlementOneClick {
		return settlement.NewOneClick(s.JWTToken, s.Recipient, s.RefundTo, a.log.Named("settlement"))
	}
	return settlement.NewSimulated(s.Delay, s.SuccessRate, nil, a.log.Named("settlement"))
}

func (a *app) close() {
	_ = a.log.Sync()
}
