// internal/launch/launch.go
package launch

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-agent/internal/wallet"
)

// Priority fee settings applied to every launch transaction.
const (
	computeUnitLimit = 250_000
	computeUnitPrice = 100_000 // micro-lamports
)

const lamportsPerSOL = 1_000_000_000

// Chain is the RPC surface the launch builder depends on.
type Chain interface {
	AccountFetcher
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	TokenAccountUIBalance(ctx context.Context, account solana.PublicKey) (*float64, error)
}

// Request describes a token to create, with an optional initial buy funded
// in SOL.
type Request struct {
	Metadata     TokenMetadata
	BuyAmountSOL decimal.Decimal
	SlippageBps  int
}

// Plan is a fully built launch: the unsigned transaction plus the generated
// mint key, which must co-sign the create instruction.
type Plan struct {
	Transaction *solana.Transaction
	Mint        solana.PrivateKey
	MetadataURI string
	// BuyTokensRaw is the expected token output of the initial buy, zero
	// when no buy was requested.
	BuyTokensRaw uint64
}

// Builder assembles create-and-buy transactions for new pump.fun tokens.
type Builder struct {
	chain    Chain
	uploader *MetadataUploader
	logger   *zap.Logger
}

func NewBuilder(chain Chain, uploader *MetadataUploader, logger *zap.Logger) *Builder {
	return &Builder{
		chain:    chain,
		uploader: uploader,
		logger:   logger.Named("launch"),
	}
}

// Build uploads the token metadata, generates a fresh mint and assembles a
// single transaction carrying the create instruction and, when a buy amount
// was given, the creator's token account creation and the initial buy.
func (b *Builder) Build(ctx context.Context, creator *wallet.Wallet, req Request) (*Plan, error) {
	metadataURI, err := b.uploader.Upload(ctx, req.Metadata)
	if err != nil {
		return nil, fmt.Errorf("upload metadata: %w", err)
	}

	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate mint: %w", err)
	}
	mint := mintKey.PublicKey()

	addrs, err := DeriveAddresses(mint)
	if err != nil {
		return nil, err
	}

	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(computeUnitLimit).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(computeUnitPrice).Build(),
		BuildCreateInstruction(addrs, creator.PublicKey, req.Metadata.Name, req.Metadata.Symbol, metadataURI),
	}

	plan := &Plan{Mint: mintKey, MetadataURI: metadataURI}

	if req.BuyAmountSOL.IsPositive() {
		global, err := FetchGlobalAccount(ctx, b.chain, b.logger)
		if err != nil {
			return nil, err
		}

		buyLamports := req.BuyAmountSOL.Mul(decimal.NewFromInt(lamportsPerSOL)).Truncate(0).BigInt().Uint64()
		tokensOut := InitialBuyTokens(global, buyLamports)
		if tokensOut == 0 {
			return nil, fmt.Errorf("buy amount %s SOL is too small", req.BuyAmountSOL)
		}
		maxSolCost := buyLamports + buyLamports*uint64(req.SlippageBps)/10_000

		creatorATA, _, err := solana.FindAssociatedTokenAddress(creator.PublicKey, mint)
		if err != nil {
			return nil, fmt.Errorf("derive creator token account: %w", err)
		}

		instructions = append(instructions,
			creator.CreateAssociatedTokenAccountIdempotentInstruction(creator.PublicKey, creator.PublicKey, mint),
			BuildBuyInstruction(addrs, global.FeeRecipient, creator.PublicKey, creatorATA, tokensOut, maxSolCost),
		)
		plan.BuyTokensRaw = tokensOut

		b.logger.Info("Initial buy planned",
			zap.String("buy_amount_sol", req.BuyAmountSOL.String()),
			zap.Uint64("tokens_out", tokensOut),
			zap.Uint64("max_sol_cost", maxSolCost))
	}

	blockhash, err := b.chain.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(creator.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("build launch transaction: %w", err)
	}
	plan.Transaction = tx

	b.logger.Info("Launch transaction built",
		zap.String("mint", mint.String()),
		zap.String("name", req.Metadata.Name),
		zap.String("symbol", req.Metadata.Symbol))
	return plan, nil
}

// VerifyBuy probes the creator's token account after confirmation and
// reports the balance it holds. A nil balance means the account is not
// visible yet, which can happen right after confirmation.
func (b *Builder) VerifyBuy(ctx context.Context, creator, mint solana.PublicKey) (*float64, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(creator, mint)
	if err != nil {
		return nil, fmt.Errorf("derive token account: %w", err)
	}
	balance, err := b.chain.TokenAccountUIBalance(ctx, ata)
	if err != nil {
		return nil, fmt.Errorf("probe token account: %w", err)
	}
	return balance, nil
}

// InitialBuyTokens computes how many raw tokens a buy of amount lamports
// yields against a freshly initialized bonding curve, using the constant
// product reserves from the global account.
func InitialBuyTokens(global *GlobalAccount, amountLamports uint64) uint64 {
	if amountLamports == 0 {
		return 0
	}

	solReserves := new(big.Int).SetUint64(global.InitialVirtualSolReserves)
	tokenReserves := new(big.Int).SetUint64(global.InitialVirtualTokenReserves)
	amount := new(big.Int).SetUint64(amountLamports)

	product := new(big.Int).Mul(solReserves, tokenReserves)
	newSolReserves := new(big.Int).Add(solReserves, amount)
	newTokenReserves := new(big.Int).Add(new(big.Int).Div(product, newSolReserves), big.NewInt(1))
	tokensOut := new(big.Int).Sub(tokenReserves, newTokenReserves)

	if tokensOut.Sign() <= 0 {
		return 0
	}
	if realReserves := new(big.Int).SetUint64(global.InitialRealTokenReserves); tokensOut.Cmp(realReserves) > 0 {
		tokensOut = realReserves
	}
	return tokensOut.Uint64()
}
