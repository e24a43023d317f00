// internal/chain/client.go
package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-agent/internal/wallet"
)

// Well-known addresses.
var (
	// NativeMint is the wrapped SOL mint, used as the canonical address of
	// the native asset.
	NativeMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	// Token2022ProgramID owns Token-2022 mints, which are excluded from
	// platform-fee account creation.
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// NativeDecimals is the decimal count of SOL/lamports.
const NativeDecimals = 9

var ErrAccountNotFound = errors.New("account not found")

// IsAccountNotFoundError reports whether err means the queried account does
// not exist on chain.
func IsAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAccountNotFound) ||
		strings.Contains(strings.ToLower(err.Error()), "not found")
}

// TransactionOptions control transaction submission at the RPC layer.
type TransactionOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
	MaxRetries          uint
}

// Client is a thin adapter over the solana-go RPC client. It exposes exactly
// the capability set the pipeline needs: balances, mint inspection,
// submission and signature-status polling.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

// NewClient creates a chain client for the given RPC endpoint.
func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("chain-client"),
	}
}

// GetRecentBlockhash returns the latest finalized blockhash.
func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		c.logger.Error("GetRecentBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

// SendTransactionWithOpts submits a signed transaction.
func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts TransactionOptions) (solana.Signature, error) {
	maxRetries := opts.MaxRetries
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: opts.PreflightCommitment,
		MaxRetries:          &maxRetries,
	})
	if err != nil {
		c.logger.Error("SendTransactionWithOpts error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// GetSignatureStatuses returns the confirmation statuses for signatures.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	result, err := c.rpc.GetSignatureStatuses(ctx, false, signatures...)
	if err != nil {
		c.logger.Error("GetSignatureStatuses error", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// NativeBalance returns the lamport balance of owner.
func (c *Client) NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Error("GetBalance error", zap.Error(err))
		return 0, err
	}
	return result.Value, nil
}

// TokenBalance returns the raw token balance and decimals of owner's
// associated token account for mint. A missing account is a zero balance,
// not an error.
func (c *Client) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, uint8, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, 0, fmt.Errorf("derive associated token account: %w", err)
	}

	result, err := c.rpc.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		if IsAccountNotFoundError(err) {
			decimals, decErr := c.GetTokenDecimals(ctx, mint)
			if decErr != nil {
				return 0, 0, decErr
			}
			return 0, decimals, nil
		}
		c.logger.Error("GetTokenAccountBalance error", zap.Error(err))
		return 0, 0, err
	}
	if result == nil || result.Value == nil {
		return 0, 0, fmt.Errorf("empty token balance response for %s", ata.String())
	}

	raw, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse raw token amount %q: %w", result.Value.Amount, err)
	}
	return raw, result.Value.Decimals, nil
}

// TokenAccountUIBalance returns the ui amount held in a specific token
// account, or nil when the account does not exist yet.
func (c *Client) TokenAccountUIBalance(ctx context.Context, account solana.PublicKey) (*float64, error) {
	result, err := c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentProcessed)
	if err != nil {
		if IsAccountNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, nil
	}
	return result.Value.UiAmount, nil
}

// GetTokenDecimals reads the decimal count from the mint account.
func (c *Client) GetTokenDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	if mint.Equals(NativeMint) {
		return NativeDecimals, nil
	}
	var mintAccount token.Mint
	if err := c.rpc.GetAccountDataInto(ctx, mint, &mintAccount); err != nil {
		c.logger.Debug("GetTokenDecimals error",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return 0, fmt.Errorf("read mint %s: %w", mint.String(), err)
	}
	return mintAccount.Decimals, nil
}

// GetTokenProgramID returns the token program owning mint. Resolving this
// both identifies Token-2022 mints and proves the address is a real token.
func (c *Client) GetTokenProgramID(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	info, err := c.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("get mint account %s: %w", mint.String(), err)
	}
	if info == nil || info.Value == nil {
		return solana.PublicKey{}, fmt.Errorf("mint %s: %w", mint.String(), ErrAccountNotFound)
	}
	owner := info.Value.Owner
	if !owner.Equals(solana.TokenProgramID) && !owner.Equals(Token2022ProgramID) {
		return solana.PublicKey{}, fmt.Errorf("account %s is not owned by a token program", mint.String())
	}
	return owner, nil
}

// GetAccountInfo fetches raw account info.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	result, err := c.rpc.GetAccountInfo(ctx, pubkey)
	if err != nil {
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// EnsureTokenAccount makes sure owner has an associated token account for
// mint, creating it (paid by the agent wallet) when absent. Returns the ATA
// address.
func (c *Client) EnsureTokenAccount(ctx context.Context, payer *wallet.Wallet, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated token account: %w", err)
	}

	info, err := c.GetAccountInfo(ctx, ata)
	if err == nil && info != nil && info.Value != nil {
		return ata, nil
	}
	if err != nil && !IsAccountNotFoundError(err) {
		return solana.PublicKey{}, err
	}

	blockhash, err := c.GetRecentBlockhash(ctx)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("get recent blockhash: %w", err)
	}

	ix := payer.CreateAssociatedTokenAccountIdempotentInstruction(payer.PublicKey, owner, mint)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash,
		solana.TransactionPayer(payer.PublicKey),
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("create transaction: %w", err)
	}
	if err := payer.SignTransaction(tx); err != nil {
		return solana.PublicKey{}, fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := c.SendTransactionWithOpts(ctx, tx, TransactionOptions{
		PreflightCommitment: rpc.CommitmentConfirmed,
		MaxRetries:          1,
	})
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("send create-account transaction: %w", err)
	}

	if err := c.waitForConfirmation(ctx, sig, 30*time.Second); err != nil {
		return solana.PublicKey{}, fmt.Errorf("confirm create-account transaction: %w", err)
	}
	c.logger.Info("Created associated token account",
		zap.String("ata", ata.String()),
		zap.String("mint", mint.String()))
	return ata, nil
}

func (c *Client) waitForConfirmation(ctx context.Context, signature solana.Signature, timeout time.Duration) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("confirmation timeout")
		case <-ticker.C:
			statuses, err := c.GetSignatureStatuses(ctx, signature)
			if err != nil {
				c.logger.Warn("Error getting signature statuses", zap.Error(err))
				continue
			}
			if statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
				status := statuses.Value[0]
				if status.ConfirmationStatus == rpc.ConfirmationStatusFinalized ||
					status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed {
					return nil
				}
			}
		}
	}
}
