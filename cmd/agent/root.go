// cmd/agent/root.go
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/solana-agent/internal/chain"
	"github.com/rovshanmuradov/solana-agent/internal/config"
	"github.com/rovshanmuradov/solana-agent/internal/executor"
	"github.com/rovshanmuradov/solana-agent/internal/intent"
	"github.com/rovshanmuradov/solana-agent/internal/launch"
	"github.com/rovshanmuradov/solana-agent/internal/logger"
	"github.com/rovshanmuradov/solana-agent/internal/pipeline"
	"github.com/rovshanmuradov/solana-agent/internal/preflight"
	"github.com/rovshanmuradov/solana-agent/internal/quote"
	"github.com/rovshanmuradov/solana-agent/internal/token"
	"github.com/rovshanmuradov/solana-agent/internal/wallet"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "solana-agent",
	Short: "A conversational Solana trading agent",
	Long: `solana-agent turns natural-language requests into Solana transactions:
token swaps via the Jupiter aggregator and token launches on pump.fun.
Every transaction goes through balance preflight and an explicit user
confirmation before it is submitted.`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (optional)")
}

// agent bundles everything a command needs after wiring.
type agent struct {
	pipeline *pipeline.Pipeline
	wallet   *wallet.Wallet
	logger   *logger.Logger
}

func buildAgent() (*agent, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	w, err := wallet.NewWallet(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	gasReserve, err := decimal.NewFromString(cfg.GasReserveSOL)
	if err != nil {
		return nil, fmt.Errorf("parse gas reserve %q: %w", cfg.GasReserveSOL, err)
	}

	var feeAccount solana.PublicKey
	if cfg.SwapFeeAccount != "" {
		feeAccount, err = solana.PublicKeyFromBase58(cfg.SwapFeeAccount)
		if err != nil {
			return nil, fmt.Errorf("parse swap fee account: %w", err)
		}
	}

	extractor, err := intent.NewOpenAIExtractor(intent.OpenAIConfig{
		APIKey:  cfg.ExtractorAPIKey,
		BaseURL: cfg.ExtractorBaseURL,
		Model:   cfg.ExtractorModel,
	})
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}

	chainClient := chain.NewClient(cfg.RPCURL, log.Logger)
	birdeye := token.NewBirdeyeClient(cfg.BirdeyeBaseURL, cfg.BirdeyeAPIKey, log.Logger)

	deps := pipeline.Deps{
		Authorizer: preflight.NewStaticAuthorizer(cfg.AdminIDs),
		Extractor:  extractor,
		Classifier: intent.NewClassifier(extractor, log.Logger),
		Portfolio:  birdeye,
		Resolver:   token.NewResolver(birdeye, log.Logger),
		Validator:  preflight.NewValidator(chainClient, gasReserve, log.Logger),
		Fees:       quote.NewFeeResolver(chainClient, cfg.SwapFeeBps, feeAccount, log.Logger),
		Quoter:     quote.NewClient(cfg.JupiterBaseURL, log.Logger),
		Executor: executor.New(chainClient, w, executor.Options{
			SubmitRetries: uint(cfg.SubmitRetries),
			PollInterval:  cfg.PollInterval,
			PollAttempts:  cfg.PollAttempts,
		}, log.Logger),
		Launcher: launch.NewBuilder(chainClient, launch.NewMetadataUploader(cfg.PumpFunIPFSURL, log.Logger), log.Logger),
		Chain:    chainClient,
		Wallet:   w,
	}

	return &agent{
		pipeline: pipeline.New(deps, cfg.SlippageBps, log),
		wallet:   w,
		logger:   log,
	}, nil
}

func printError(err error) {
	color.Red("Error: %v", err)
}
