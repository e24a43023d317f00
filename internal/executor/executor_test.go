// internal/executor/executor_test.go
package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-agent/internal/chain"
	"github.com/rovshanmuradov/solana-agent/internal/wallet"
)

type fakeChain struct {
	sendAttempts int
	sendFailures int // fail this many sends before succeeding
	sendErr      error
	signature    solana.Signature

	pollAttempts  int
	confirmAfter  int // report confirmed on this poll attempt; 0 = never
	statusErr     any // on-chain error reported by the status
	lastSentOpts  chain.TransactionOptions
	lastBlockhash solana.Hash
}

func (f *fakeChain) GetRecentBlockhash(_ context.Context) (solana.Hash, error) {
	f.lastBlockhash = solana.Hash{1, 2, 3}
	return f.lastBlockhash, nil
}

func (f *fakeChain) SendTransactionWithOpts(_ context.Context, _ *solana.Transaction, opts chain.TransactionOptions) (solana.Signature, error) {
	f.sendAttempts++
	f.lastSentOpts = opts
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	if f.sendAttempts <= f.sendFailures {
		return solana.Signature{}, errors.New("blockhash not found")
	}
	return f.signature, nil
}

func (f *fakeChain) GetSignatureStatuses(_ context.Context, _ ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.pollAttempts++
	if f.statusErr != nil {
		return &rpc.GetSignatureStatusesResult{
			Value: []*rpc.SignatureStatusesResult{{Err: f.statusErr}},
		}, nil
	}
	if f.confirmAfter > 0 && f.pollAttempts >= f.confirmAfter {
		return &rpc.GetSignatureStatusesResult{
			Value: []*rpc.SignatureStatusesResult{{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}},
		}, nil
	}
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{nil}}, nil
}

func testTransaction(t *testing.T, w *wallet.Wallet) *solana.Transaction {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(
			solana.MemoProgramID,
			solana.AccountMetaSlice{solana.Meta(w.PublicKey).SIGNER().WRITE()},
			[]byte("x"),
		)},
		solana.Hash{},
		solana.TransactionPayer(w.PublicKey),
	)
	require.NoError(t, err)
	return tx
}

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := wallet.NewWallet(key.String())
	require.NoError(t, err)
	return w
}

func testOptions() Options {
	return Options{SubmitRetries: 3, PollInterval: time.Millisecond, PollAttempts: 12}
}

func TestExecute_Confirmed(t *testing.T) {
	w := testWallet(t)
	sig := solana.Signature{9, 9}
	ch := &fakeChain{signature: sig, confirmAfter: 2}

	e := New(ch, w, testOptions(), zaptest.NewLogger(t))
	res := e.Execute(context.Background(), testTransaction(t, w))

	assert.True(t, res.Submitted)
	assert.Equal(t, StatusConfirmed, res.Status)
	assert.Equal(t, sig, res.Signature)
	assert.NoError(t, res.Err)
	assert.Equal(t, rpc.CommitmentConfirmed, ch.lastSentOpts.PreflightCommitment)
	assert.Equal(t, uint(3), ch.lastSentOpts.MaxRetries)
}

func TestExecute_RetriesSubmission(t *testing.T) {
	w := testWallet(t)
	ch := &fakeChain{signature: solana.Signature{1}, sendFailures: 2, confirmAfter: 1}

	e := New(ch, w, testOptions(), zaptest.NewLogger(t))
	res := e.Execute(context.Background(), testTransaction(t, w))

	assert.Equal(t, 3, ch.sendAttempts)
	assert.Equal(t, StatusConfirmed, res.Status)
}

func TestExecute_SubmissionExhausted(t *testing.T) {
	w := testWallet(t)
	ch := &fakeChain{sendErr: errors.New("node unavailable")}

	e := New(ch, w, testOptions(), zaptest.NewLogger(t))
	res := e.Execute(context.Background(), testTransaction(t, w))

	assert.False(t, res.Submitted)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Error(t, res.Err)
	assert.Equal(t, 3, ch.sendAttempts)
	assert.Zero(t, ch.pollAttempts)
}

func TestExecute_TimedOutKeepsSignature(t *testing.T) {
	w := testWallet(t)
	sig := solana.Signature{7}
	ch := &fakeChain{signature: sig} // never confirms

	e := New(ch, w, testOptions(), zaptest.NewLogger(t))
	res := e.Execute(context.Background(), testTransaction(t, w))

	assert.True(t, res.Submitted)
	assert.Equal(t, StatusTimedOut, res.Status)
	assert.Equal(t, sig, res.Signature)
	assert.Error(t, res.Err)
	assert.Equal(t, 12, ch.pollAttempts)
}

func TestExecute_OnChainErrorIsFailed(t *testing.T) {
	w := testWallet(t)
	ch := &fakeChain{signature: solana.Signature{3}, statusErr: map[string]any{"InstructionError": []any{0, "Custom"}}}

	e := New(ch, w, testOptions(), zaptest.NewLogger(t))
	res := e.Execute(context.Background(), testTransaction(t, w))

	assert.True(t, res.Submitted)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Error(t, res.Err)
}

func TestExecute_ContextCancelDuringPolling(t *testing.T) {
	w := testWallet(t)
	ch := &fakeChain{signature: solana.Signature{5}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	e := New(ch, w, Options{SubmitRetries: 1, PollInterval: time.Hour, PollAttempts: 12}, zaptest.NewLogger(t))
	res := e.Execute(ctx, testTransaction(t, w))

	assert.Equal(t, StatusTimedOut, res.Status)
	assert.True(t, res.Submitted)
}
