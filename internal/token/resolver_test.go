package token

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	wsolMint = "So11111111111111111111111111111111111111112"
	pumpMint = "7Xu2oddJ3DMQ1UdgoC8ewK6Kq73kcXUcYCcnfzxqpump"
)

type fakeRegistry struct {
	tokens map[string][]Holding
	err    error
	calls  []string
}

func (f *fakeRegistry) LookupBySymbol(_ context.Context, symbol string) ([]Holding, error) {
	f.calls = append(f.calls, symbol)
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens[symbol], nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want ReferenceKind
	}{
		{name: "spl mint is address", ref: usdcMint, want: KindAddress},
		{name: "wrapped sol 43 chars is address", ref: wsolMint, want: KindAddress},
		{name: "pump suffix mint is address", ref: pumpMint, want: KindAddress},
		{name: "ticker is symbol", ref: "USDC", want: KindSymbol},
		{name: "empty is symbol", ref: "", want: KindSymbol},
		{name: "44 chars but not base58 is symbol", ref: "O0l1!IIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIII", want: KindSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ref).Kind)
		})
	}
}

func TestResolve_AddressShapeShortCircuits(t *testing.T) {
	registry := &fakeRegistry{}
	resolver := NewResolver(registry, zaptest.NewLogger(t))

	// Even with holdings and a registry available, an address-shaped ref
	// must be returned unchanged without any lookup.
	holdings := []Holding{{Symbol: usdcMint, Address: pumpMint}}
	got, err := resolver.Resolve(context.Background(), holdings, usdcMint)
	require.NoError(t, err)
	assert.Equal(t, usdcMint, got.String())
	assert.Empty(t, registry.calls, "registry must not be consulted for address-shaped refs")
}

func TestResolve_AddressInSymbolPosition(t *testing.T) {
	resolver := NewResolver(&fakeRegistry{}, zaptest.NewLogger(t))

	// CA pasted by the user may arrive in the symbol field.
	got, err := resolver.Resolve(context.Background(), nil, "", pumpMint)
	require.NoError(t, err)
	assert.Equal(t, pumpMint, got.String())
}

func TestResolve_NativeAsset(t *testing.T) {
	registry := &fakeRegistry{}
	resolver := NewResolver(registry, zaptest.NewLogger(t))

	for _, ref := range []string{"SOL", "sol", "Sol"} {
		got, err := resolver.Resolve(context.Background(), nil, ref)
		require.NoError(t, err)
		assert.Equal(t, wsolMint, got.String())
	}
	assert.Empty(t, registry.calls, "native asset must bypass lookup")
}

func TestResolve_WalletHoldingsBeforeRegistry(t *testing.T) {
	registry := &fakeRegistry{tokens: map[string][]Holding{
		"USDC": {{Symbol: "USDC", Address: pumpMint}},
	}}
	resolver := NewResolver(registry, zaptest.NewLogger(t))

	holdings := []Holding{{Symbol: "USDC", Address: usdcMint, UIAmount: 12.5}}
	got, err := resolver.Resolve(context.Background(), holdings, "USDC")
	require.NoError(t, err)
	assert.Equal(t, usdcMint, got.String())
	assert.Empty(t, registry.calls, "wallet holdings take precedence over registry")
}

func TestResolve_RegistryFallback(t *testing.T) {
	registry := &fakeRegistry{tokens: map[string][]Holding{
		"WIF": {{Symbol: "WIF", Address: usdcMint}},
	}}
	resolver := NewResolver(registry, zaptest.NewLogger(t))

	got, err := resolver.Resolve(context.Background(), nil, "WIF")
	require.NoError(t, err)
	assert.Equal(t, usdcMint, got.String())
	assert.Equal(t, []string{"WIF"}, registry.calls)
}

func TestResolve_NotFound(t *testing.T) {
	tests := []struct {
		name     string
		registry *fakeRegistry
	}{
		{name: "registry empty", registry: &fakeRegistry{}},
		{name: "registry error", registry: &fakeRegistry{err: errors.New("rate limited")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolver(tt.registry, zaptest.NewLogger(t))
			_, err := resolver.Resolve(context.Background(), nil, "NOSUCH")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}
