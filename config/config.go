package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settlement modes
const (
	SettlementSimulated = "simulated"
	SettlementOneClick  = "oneclick"
)

// Config holds the application configuration
type Config struct {
	PricesURL       string
	IconsBaseURL    string
	CacheTTL        time.Duration
	IconProbeMethod string
	IconConcurrency int
	HTTPTimeout     time.Duration

	SuccessDismissAfter time.Duration

	LogLevel string
	LogJSON  bool

	Settlement SettlementConfig
}

// SettlementConfig selects and tunes the settlement backend used by swaps
type SettlementConfig struct {
	Mode        string
	Delay       time.Duration
	SuccessRate float64
	JWTToken    string
	Recipient   string
	RefundTo    string
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".token-swap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("prices_url", "https://interview.switcheo.com/prices.json")
	viper.SetDefault("icons_base_url", "https://raw.githubusercontent.com/Switcheo/token-icons/main/tokens")
	viper.SetDefault("cache_ttl", "5m")
	viper.SetDefault("icon_probe_method", "GET")
	viper.SetDefault("icon_concurrency", 16)
	viper.SetDefault("http_timeout", "15s")
	viper.SetDefault("success_dismiss_after", "3s")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
	viper.SetDefault("settlement.mode", SettlementSimulated)
	viper.SetDefault("settlement.delay", "2.5s")
	viper.SetDefault("settlement.success_rate", 0.8)

	// Read from environment variables
	viper.SetEnvPrefix("TOKEN_SWAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		PricesURL:           viper.GetString("prices_url"),
		IconsBaseURL:        strings.TrimRight(viper.GetString("icons_base_url"), "/"),
		CacheTTL:            viper.GetDuration("cache_ttl"),
		IconProbeMethod:     strings.ToUpper(viper.GetString("icon_probe_method")),
		IconConcurrency:     viper.GetInt("icon_concurrency"),
		HTTPTimeout:         viper.GetDuration("http_timeout"),
		SuccessDismissAfter: viper.GetDuration("success_dismiss_after"),
		LogLevel:            viper.GetString("log_level"),
		LogJSON:             viper.GetBool("log_json"),
		Settlement: SettlementConfig{
			Mode:        strings.ToLower(viper.GetString("settlement.mode")),
			Delay:       viper.GetDuration("settlement.delay"),
			SuccessRate: viper.GetFloat64("settlement.success_rate"),
			JWTToken:    viper.GetString("settlement.jwt_token"),
			Recipient:   viper.GetString("settlement.recipient"),
			RefundTo:    viper.GetString("settlement.refund_to"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the loaded values are usable
func (c *Config) Validate() error {
	if c.PricesURL == "" {
		return fmt.Errorf("prices_url must not be empty")
	}
	if c.IconsBaseURL == "" {
		return fmt.Errorf("icons_base_url must not be empty")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %s", c.CacheTTL)
	}
	if c.IconProbeMethod != "GET" && c.IconProbeMethod != "HEAD" {
		return fmt.Errorf("icon_probe_method must be GET or HEAD, got %q", c.IconProbeMethod)
	}
	if c.IconConcurrency < 1 {
		return fmt.Errorf("icon_concurrency must be at least 1")
	}

	s := c.Settlement
	switch s.Mode {
	case SettlementSimulated:
		if s.SuccessRate < 0 || s.SuccessRate > 1 {
			return fmt.Errorf("settlement.success_rate must be between 0 and 1, got %v", s.SuccessRate)
		}
	case SettlementOneClick:
		if s.JWTToken == "" {
			return fmt.Errorf("JWT token not found. Please set TOKEN_SWAP_SETTLEMENT_JWT_TOKEN or settlement.jwt_token in .token-swap.yaml")
		}
		if s.Recipient == "" {
			return fmt.Errorf("settlement.recipient is required for oneclick settlement")
		}
	default:
		return fmt.Errorf("unknown settlement mode %q (expected %s or %s)", s.Mode, SettlementSimulated, SettlementOneClick)
	}
	return nil
}
