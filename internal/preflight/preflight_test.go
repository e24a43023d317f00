// internal/preflight/preflight_test.go
package preflight

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-agent/internal/chain"
)

type fakeBalances struct {
	native    uint64
	token     uint64
	decimals  uint8
	nativeErr error
	tokenErr  error
}

func (f *fakeBalances) NativeBalance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	return f.native, f.nativeErr
}

func (f *fakeBalances) TokenBalance(_ context.Context, _, _ solana.PublicKey) (uint64, uint8, error) {
	return f.token, f.decimals, f.tokenErr
}

var (
	testOwner = solana.MustPublicKeyFromBase58("DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy")
	usdcMint  = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

func newValidator(t *testing.T, balances BalanceSource, reserve string) *Validator {
	t.Helper()
	return NewValidator(balances, decimal.RequireFromString(reserve), zaptest.NewLogger(t))
}

func TestCheckBalances_TokenInsufficient(t *testing.T) {
	// 1.5 USDC on hand, asking for 2.
	v := newValidator(t, &fakeBalances{
		native:   1_000_000_000,
		token:    1_500_000,
		decimals: 6,
	}, "0.001")

	res, err := v.CheckBalances(context.Background(), testOwner, usdcMint,
		decimal.RequireFromString("2"), "USDC")
	require.NoError(t, err)

	assert.False(t, res.OK)
	assert.False(t, res.GasReserve)
	assert.Equal(t, "2", res.Required.String())
	assert.Equal(t, "1.5", res.Available.String())
	assert.Contains(t, res.Message(), "2")
	assert.Contains(t, res.Message(), "1.5")
	assert.Contains(t, res.Message(), "USDC")
}

func TestCheckBalances_TokenSufficient(t *testing.T) {
	v := newValidator(t, &fakeBalances{
		native:   1_000_000_000,
		token:    5_000_000,
		decimals: 6,
	}, "0.001")

	res, err := v.CheckBalances(context.Background(), testOwner, usdcMint,
		decimal.RequireFromString("2.5"), "USDC")
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, uint8(6), res.Decimals)
	assert.Equal(t, uint64(2_500_000), res.RawAmount)
}

func TestCheckBalances_GasReserveForTokenInput(t *testing.T) {
	// Plenty of USDC but only 0.0005 SOL for fees.
	v := newValidator(t, &fakeBalances{
		native:   500_000,
		token:    10_000_000,
		decimals: 6,
	}, "0.001")

	res, err := v.CheckBalances(context.Background(), testOwner, usdcMint,
		decimal.RequireFromString("1"), "USDC")
	require.NoError(t, err)

	assert.False(t, res.OK)
	assert.True(t, res.GasReserve)
	assert.Equal(t, "0.001", res.Required.String())
	assert.Equal(t, "0.0005", res.Available.String())
}

func TestCheckBalances_NativeInput(t *testing.T) {
	tests := []struct {
		name      string
		lamports  uint64
		amount    string
		wantOK    bool
		wantGas   bool
		wantReqd  string
		wantAvail string
	}{
		{
			name:     "remainder covers reserve",
			lamports: 2_000_000_000, // 2 SOL
			amount:   "1.5",
			wantOK:   true,
		},
		{
			name:     "remainder exactly the reserve",
			lamports: 1_001_000_000,
			amount:   "1",
			wantOK:   true,
		},
		{
			name:      "remainder below reserve",
			lamports:  1_000_500_000,
			amount:    "1",
			wantOK:    false,
			wantGas:   true,
			wantReqd:  "1.001",
			wantAvail: "1.0005",
		},
		{
			name:      "amount exceeds balance",
			lamports:  1_000_000_000,
			amount:    "2",
			wantOK:    false,
			wantGas:   false,
			wantReqd:  "2",
			wantAvail: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator(t, &fakeBalances{native: tt.lamports}, "0.001")

			res, err := v.CheckBalances(context.Background(), testOwner, chain.NativeMint,
				decimal.RequireFromString(tt.amount), "SOL")
			require.NoError(t, err)

			assert.Equal(t, tt.wantOK, res.OK)
			if !tt.wantOK {
				assert.Equal(t, tt.wantGas, res.GasReserve)
				assert.Equal(t, tt.wantReqd, res.Required.String())
				assert.Equal(t, tt.wantAvail, res.Available.String())
			}
		})
	}
}

func TestCheckBalances_RawAmountTruncates(t *testing.T) {
	v := newValidator(t, &fakeBalances{
		native:   10_000_000_000,
		token:    10_000_000,
		decimals: 6,
	}, "0.001")

	// More precision than the mint carries; sub-unit digits are dropped.
	res, err := v.CheckBalances(context.Background(), testOwner, usdcMint,
		decimal.RequireFromString("1.2345678"), "USDC")
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, uint64(1_234_567), res.RawAmount)
}

func TestStaticAuthorizer(t *testing.T) {
	auth := NewStaticAuthorizer([]string{"alice", "bob"})

	ok, err := auth.IsAdmin(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.IsAdmin(context.Background(), "mallory")
	require.NoError(t, err)
	assert.False(t, ok)

	empty := NewStaticAuthorizer(nil)
	ok, err = empty.IsAdmin(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}
