// internal/quote/fees.go
package quote

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-agent/internal/chain"
	"github.com/rovshanmuradov/solana-agent/internal/wallet"
)

// FeeChain is the subset of the chain client the fee resolver needs.
type FeeChain interface {
	GetTokenProgramID(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error)
	EnsureTokenAccount(ctx context.Context, payer *wallet.Wallet, owner, mint solana.PublicKey) (solana.PublicKey, error)
}

// FeeResolver decides whether a platform fee applies to a given swap and,
// when it does, makes sure the fee recipient's token account exists before
// the swap references it.
type FeeResolver struct {
	chain      FeeChain
	bps        int
	feeAccount solana.PublicKey // owner the fee accrues to; zero disables fees
	logger     *zap.Logger
}

func NewFeeResolver(ch FeeChain, bps int, feeAccount solana.PublicKey, logger *zap.Logger) *FeeResolver {
	return &FeeResolver{
		chain:      ch,
		bps:        bps,
		feeAccount: feeAccount,
		logger:     logger.Named("fees"),
	}
}

// Resolve returns the platform fee bps and the fee token account for a swap
// spending inputMint, or (0, nil) when the fee does not apply. The fee is
// collected on the input leg. Any failure along the way disables the fee for
// this swap rather than blocking it; a missed fee is recoverable, a blocked
// user is not.
func (r *FeeResolver) Resolve(ctx context.Context, payer *wallet.Wallet, inputMint solana.PublicKey) (int, *solana.PublicKey) {
	if r.bps <= 0 || r.feeAccount.IsZero() {
		return 0, nil
	}

	programID, err := r.chain.GetTokenProgramID(ctx, inputMint)
	if err != nil {
		r.logger.Warn("Skipping platform fee, token program lookup failed",
			zap.String("mint", inputMint.String()), zap.Error(err))
		return 0, nil
	}
	// Jupiter's referral program cannot collect fees on Token-2022 mints.
	if programID.Equals(chain.Token2022ProgramID) {
		r.logger.Debug("Skipping platform fee for Token-2022 mint",
			zap.String("mint", inputMint.String()))
		return 0, nil
	}

	ata, err := r.chain.EnsureTokenAccount(ctx, payer, r.feeAccount, inputMint)
	if err != nil {
		r.logger.Warn("Skipping platform fee, fee token account unavailable",
			zap.String("mint", inputMint.String()), zap.Error(err))
		return 0, nil
	}
	return r.bps, &ata
}
