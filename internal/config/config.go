// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the layered runtime configuration of the agent. Values resolve
// config file -> environment (SOLANA_AGENT_*) -> hardcoded defaults, once at
// load time; components receive the resolved values at construction and never
// read ambient state afterwards.
type Config struct {
	RPCURL     string `mapstructure:"rpc_url"`
	PrivateKey string `mapstructure:"private_key"`

	// Principals allowed to spend from the controlled wallet.
	AdminIDs []string `mapstructure:"admin_ids"`

	ExtractorBaseURL string `mapstructure:"extractor_base_url"`
	ExtractorAPIKey  string `mapstructure:"extractor_api_key"`
	ExtractorModel   string `mapstructure:"extractor_model"`

	BirdeyeBaseURL string `mapstructure:"birdeye_base_url"`
	BirdeyeAPIKey  string `mapstructure:"birdeye_api_key"`

	JupiterBaseURL string `mapstructure:"jupiter_base_url"`
	SwapFeeBps     int    `mapstructure:"swap_fee_bps"`
	SwapFeeAccount string `mapstructure:"swap_fee_account"`

	PumpFunIPFSURL string `mapstructure:"pumpfun_ipfs_url"`

	// GasReserveSOL is the native balance kept aside so fees can always be
	// paid, expressed in SOL as a decimal string.
	GasReserveSOL string `mapstructure:"gas_reserve_sol"`

	SlippageBps   int           `mapstructure:"slippage_bps"`
	SubmitRetries int           `mapstructure:"submit_retries"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	PollAttempts  int           `mapstructure:"poll_attempts"`

	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`
}

const (
	DefaultRPCURL           = "https://api.mainnet-beta.solana.com"
	DefaultExtractorBaseURL = "https://api.openai.com/v1"
	DefaultExtractorModel   = "gpt-4o-mini"
	DefaultBirdeyeBaseURL   = "https://public-api.birdeye.so"
	DefaultJupiterBaseURL   = "https://quote-api.jup.ag/v6"
	DefaultPumpFunIPFSURL   = "https://pump.fun/api/ipfs"
	DefaultGasReserveSOL    = "0.001"
	DefaultSlippageBps      = 100
	DefaultSubmitRetries    = 3
	DefaultPollInterval     = time.Second
	DefaultPollAttempts     = 12
	DefaultLogFile          = "agent.log"
)

// LoadConfig reads the config file at path (optional) and merges environment
// overrides on top of defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"rpc_url":            DefaultRPCURL,
		"extractor_base_url": DefaultExtractorBaseURL,
		"extractor_model":    DefaultExtractorModel,
		"birdeye_base_url":   DefaultBirdeyeBaseURL,
		"jupiter_base_url":   DefaultJupiterBaseURL,
		"pumpfun_ipfs_url":   DefaultPumpFunIPFSURL,
		"gas_reserve_sol":    DefaultGasReserveSOL,
		"slippage_bps":       DefaultSlippageBps,
		"submit_retries":     DefaultSubmitRetries,
		"poll_interval":      DefaultPollInterval,
		"poll_attempts":      DefaultPollAttempts,
		"log_file":           DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("SOLANA_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvironmentKeys(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if raw := v.GetString("admin_ids"); raw != "" && len(cfg.AdminIDs) == 0 {
		for _, id := range strings.Split(raw, ",") {
			if clean := strings.TrimSpace(id); clean != "" {
				cfg.AdminIDs = append(cfg.AdminIDs, clean)
			}
		}
	}

	return &cfg, validateConfig(&cfg)
}

// bindEnvironmentKeys makes AutomaticEnv pick up keys that may be absent from
// the config file entirely.
func bindEnvironmentKeys(v *viper.Viper) {
	keys := []string{
		"rpc_url", "private_key", "admin_ids",
		"extractor_base_url", "extractor_api_key", "extractor_model",
		"birdeye_base_url", "birdeye_api_key",
		"jupiter_base_url", "swap_fee_bps", "swap_fee_account",
		"pumpfun_ipfs_url", "gas_reserve_sol",
		"slippage_bps", "submit_retries", "poll_interval", "poll_attempts",
		"debug_logging", "log_file",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("missing rpc_url in configuration")
	}
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	if cfg.PrivateKey == "" {
		return errors.New("missing private_key in configuration")
	}
	if len(cfg.AdminIDs) == 0 {
		return errors.New("admin_ids is empty")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.SwapFeeBps < 0 || cfg.SwapFeeBps > 10_000 {
		return errors.New("invalid swap_fee_bps")
	}
	if cfg.SlippageBps <= 0 || cfg.SlippageBps > 10_000 {
		return errors.New("invalid slippage_bps")
	}
	if cfg.SubmitRetries < 0 {
		return errors.New("invalid submit_retries count")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("invalid poll_interval")
	}
	if cfg.PollAttempts <= 0 {
		return errors.New("invalid poll_attempts")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}
