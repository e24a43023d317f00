// internal/executor/executor.go
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-agent/internal/chain"
	"github.com/rovshanmuradov/solana-agent/internal/wallet"
)

// Status is the terminal state of an execution attempt.
type Status string

const (
	// StatusConfirmed means the cluster confirmed the transaction.
	StatusConfirmed Status = "confirmed"
	// StatusTimedOut means the transaction was submitted but polling
	// exhausted its attempts without seeing confirmation. The transaction
	// may still land.
	StatusTimedOut Status = "timed_out"
	// StatusFailed means submission failed, or the cluster reported an
	// on-chain error for the transaction.
	StatusFailed Status = "failed"
)

// Result reports what happened to a submitted transaction. Signature is set
// whenever submission succeeded, including on timeout, so the caller can
// surface it for manual inspection.
type Result struct {
	Signature solana.Signature
	Submitted bool
	Status    Status
	Err       error
}

// Chain is the RPC surface the executor depends on.
type Chain interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts chain.TransactionOptions) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Options tune submission retries and confirmation polling.
type Options struct {
	SubmitRetries uint
	PollInterval  time.Duration
	PollAttempts  int
}

// Executor signs, submits and tracks transactions for a single wallet.
type Executor struct {
	chain  Chain
	wallet *wallet.Wallet
	opts   Options
	logger *zap.Logger
}

func New(ch Chain, w *wallet.Wallet, opts Options, logger *zap.Logger) *Executor {
	return &Executor{
		chain:  ch,
		wallet: w,
		opts:   opts,
		logger: logger.Named("executor"),
	}
}

// Execute signs the transaction, submits it with bounded retries and polls
// until confirmation, an on-chain error, or the polling budget runs out.
// extraSigners co-sign alongside the wallet, e.g. a freshly generated mint.
func (e *Executor) Execute(ctx context.Context, tx *solana.Transaction, extraSigners ...solana.PrivateKey) *Result {
	sig, err := e.submit(ctx, tx, extraSigners...)
	if err != nil {
		e.logger.Error("Transaction submission failed", zap.Error(err))
		return &Result{Status: StatusFailed, Err: err}
	}

	log := e.logger.With(zap.String("signature", sig.String()))
	log.Info("Transaction submitted")

	status, err := e.awaitConfirmation(ctx, sig)
	result := &Result{Signature: sig, Submitted: true, Status: status, Err: err}
	switch status {
	case StatusConfirmed:
		log.Info("Transaction confirmed")
	case StatusTimedOut:
		log.Warn("Confirmation polling exhausted", zap.Error(err))
	case StatusFailed:
		log.Error("Transaction failed on chain", zap.Error(err))
	}
	return result
}

func (e *Executor) submit(ctx context.Context, tx *solana.Transaction, extraSigners ...solana.PrivateKey) (solana.Signature, error) {
	blockhash, err := e.chain.GetRecentBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("fetch blockhash: %w", err)
	}
	tx.Message.RecentBlockhash = blockhash

	if err := e.wallet.SignTransactionWith(tx, extraSigners...); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	maxRetries := uint(3)
	return backoff.Retry(ctx, func() (solana.Signature, error) {
		return e.chain.SendTransactionWithOpts(ctx, tx, chain.TransactionOptions{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentConfirmed,
			MaxRetries:          maxRetries,
		})
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(e.opts.SubmitRetries),
	)
}

func (e *Executor) awaitConfirmation(ctx context.Context, sig solana.Signature) (Status, error) {
	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < e.opts.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return StatusTimedOut, ctx.Err()
		case <-ticker.C:
		}

		statuses, err := e.chain.GetSignatureStatuses(ctx, sig)
		if err != nil {
			// Transient RPC trouble; keep polling until the budget runs out.
			e.logger.Debug("Status poll failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		if len(statuses.Value) == 0 || statuses.Value[0] == nil {
			continue
		}

		status := statuses.Value[0]
		if status.Err != nil {
			return StatusFailed, fmt.Errorf("transaction failed on chain: %v", status.Err)
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return StatusConfirmed, nil
		}
	}

	return StatusTimedOut, fmt.Errorf("no confirmation after %d attempts", e.opts.PollAttempts)
}
