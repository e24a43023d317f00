// internal/quote/quote_test.go
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-agent/internal/chain"
	"github.com/rovshanmuradov/solana-agent/internal/wallet"
)

var (
	testInputMint  = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testOutputMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

func TestGetQuote(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quote", r.URL.Path)
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"inAmount":       "1000000000",
			"outAmount":      "153200000",
			"priceImpactPct": "0.01",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zaptest.NewLogger(t))
	q, err := c.GetQuote(context.Background(), QuoteParams{
		InputMint:      testInputMint,
		OutputMint:     testOutputMint,
		AmountRaw:      1_000_000_000,
		SlippageBps:    100,
		PlatformFeeBps: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000_000_000), q.InAmount)
	assert.Equal(t, uint64(153_200_000), q.OutAmount)
	assert.Equal(t, "0.01", q.PriceImpactPct)
	assert.NotEmpty(t, q.Raw)

	assert.Equal(t, testInputMint.String(), gotQuery["inputMint"])
	assert.Equal(t, testOutputMint.String(), gotQuery["outputMint"])
	assert.Equal(t, "1000000000", gotQuery["amount"])
	assert.Equal(t, "100", gotQuery["slippageBps"])
	assert.Equal(t, "50", gotQuery["platformFeeBps"])
}

func TestGetQuote_NoFeeParamWhenDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("platformFeeBps"))
		json.NewEncoder(w).Encode(map[string]any{"inAmount": "1", "outAmount": "1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zaptest.NewLogger(t))
	_, err := c.GetQuote(context.Background(), QuoteParams{
		InputMint:   testInputMint,
		OutputMint:  testOutputMint,
		AmountRaw:   1,
		SlippageBps: 100,
	})
	require.NoError(t, err)
}

func TestGetQuote_UpstreamErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": "Could not find any route"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zaptest.NewLogger(t))
	_, err := c.GetQuote(context.Background(), QuoteParams{
		InputMint:  testInputMint,
		OutputMint: testOutputMint,
		AmountRaw:  1,
	})
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadRequest, upstream.Status)
	assert.Contains(t, upstream.Message, "Could not find any route")
}

func TestBuildSwapTransaction(t *testing.T) {
	// A minimal signed-shape transaction to round-trip through base64.
	payer := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(
			solana.MemoProgramID,
			solana.AccountMetaSlice{solana.Meta(payer.PublicKey()).SIGNER().WRITE()},
			[]byte("hi"),
		)},
		solana.Hash{},
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)
	encoded, err := tx.ToBase64()
	require.NoError(t, err)

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/swap", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{"swapTransaction": encoded})
	}))
	defer srv.Close()

	feeATA := solana.NewWallet().PublicKey()
	c := NewClient(srv.URL, zaptest.NewLogger(t))
	decoded, err := c.BuildSwapTransaction(context.Background(), SwapParams{
		Quote:         &Quote{Raw: json.RawMessage(`{"outAmount":"1"}`)},
		UserPublicKey: payer.PublicKey(),
		FeeAccount:    &feeATA,
	})
	require.NoError(t, err)
	assert.Equal(t, payer.PublicKey(), decoded.Message.AccountKeys[0])

	assert.Equal(t, payer.PublicKey().String(), gotBody["userPublicKey"])
	assert.Equal(t, feeATA.String(), gotBody["feeAccount"])
	assert.Equal(t, true, gotBody["dynamicComputeUnitLimit"])
}

func TestSlippagePolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy SlippagePolicy
		quoted uint64
		want   uint64
	}{
		{"bps one percent", SlippagePolicy{Type: SlippageBps, Value: 100}, 1_000_000, 990_000},
		{"bps zero", SlippagePolicy{Type: SlippageBps, Value: 0}, 1_000_000, 1_000_000},
		{"bps over full range", SlippagePolicy{Type: SlippageBps, Value: 10_000}, 1_000_000, 1},
		{"bps large quote", SlippagePolicy{Type: SlippageBps, Value: 100}, 3_000_000_000_000_000, 2_970_000_000_000_000},
		{"bps max quote", SlippagePolicy{Type: SlippageBps, Value: 100}, 18_446_744_073_709_551_615, 18_262_276_632_972_456_098},
		{"fixed", SlippagePolicy{Type: SlippageFixed, Value: 42}, 1_000_000, 42},
		{"none", SlippagePolicy{Type: SlippageNone}, 1_000_000, 1},
		{"unknown defaults open", SlippagePolicy{Type: "??"}, 1_000_000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.MinAmountOut(tt.quoted))
		})
	}
}

type fakeFeeChain struct {
	programID  solana.PublicKey
	programErr error
	ata        solana.PublicKey
	ataErr     error
}

func (f *fakeFeeChain) GetTokenProgramID(_ context.Context, _ solana.PublicKey) (solana.PublicKey, error) {
	return f.programID, f.programErr
}

func (f *fakeFeeChain) EnsureTokenAccount(_ context.Context, _ *wallet.Wallet, _, _ solana.PublicKey) (solana.PublicKey, error) {
	return f.ata, f.ataErr
}

func TestFeeResolver(t *testing.T) {
	feeOwner := solana.NewWallet().PublicKey()
	feeATA := solana.NewWallet().PublicKey()
	logger := zaptest.NewLogger(t)

	t.Run("fee applies", func(t *testing.T) {
		r := NewFeeResolver(&fakeFeeChain{programID: solana.TokenProgramID, ata: feeATA}, 50, feeOwner, logger)
		bps, account := r.Resolve(context.Background(), nil, testOutputMint)
		assert.Equal(t, 50, bps)
		require.NotNil(t, account)
		assert.Equal(t, feeATA, *account)
	})

	t.Run("disabled when unconfigured", func(t *testing.T) {
		r := NewFeeResolver(&fakeFeeChain{programID: solana.TokenProgramID, ata: feeATA}, 0, feeOwner, logger)
		bps, account := r.Resolve(context.Background(), nil, testOutputMint)
		assert.Zero(t, bps)
		assert.Nil(t, account)

		r = NewFeeResolver(&fakeFeeChain{programID: solana.TokenProgramID, ata: feeATA}, 50, solana.PublicKey{}, logger)
		bps, account = r.Resolve(context.Background(), nil, testOutputMint)
		assert.Zero(t, bps)
		assert.Nil(t, account)
	})

	t.Run("skipped for token-2022", func(t *testing.T) {
		r := NewFeeResolver(&fakeFeeChain{programID: chain.Token2022ProgramID, ata: feeATA}, 50, feeOwner, logger)
		bps, account := r.Resolve(context.Background(), nil, testOutputMint)
		assert.Zero(t, bps)
		assert.Nil(t, account)
	})

	t.Run("skipped when fee account cannot be ensured", func(t *testing.T) {
		r := NewFeeResolver(&fakeFeeChain{programID: solana.TokenProgramID, ataErr: errors.New("rpc down")}, 50, feeOwner, logger)
		bps, account := r.Resolve(context.Background(), nil, testOutputMint)
		assert.Zero(t, bps)
		assert.Nil(t, account)
	})
}
