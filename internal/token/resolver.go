// internal/token/resolver.go
package token

import (
	"context"
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-agent/internal/chain"
)

// ErrNotFound means no candidate could be turned into a contract address.
// The pipeline must stop and ask the user for the CA, never guess.
var ErrNotFound = errors.New("token reference not found")

// Registry is the external symbol -> address lookup service.
type Registry interface {
	LookupBySymbol(ctx context.Context, symbol string) ([]Holding, error)
}

// Resolver maps user-supplied token references (symbols or addresses) to
// canonical on-chain mint addresses.
type Resolver struct {
	registry Registry
	logger   *zap.Logger
}

// NewResolver creates a resolver backed by the given registry.
func NewResolver(registry Registry, logger *zap.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		logger:   logger.Named("token-resolver"),
	}
}

// Resolve turns one of the candidate strings into a mint address. Resolution
// order: address shape on any candidate, native-asset constant, exact symbol
// match among wallet holdings, then the external registry. The extractor may
// put a pasted CA in the symbol field, which is why every candidate gets the
// address-shape check before any symbol interpretation.
func (r *Resolver) Resolve(ctx context.Context, holdings []Holding, candidates ...string) (solana.PublicKey, error) {
	// Address shape short-circuits everything else.
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if ref := Classify(candidate); ref.Kind == KindAddress {
			return solana.PublicKeyFromBase58(ref.Value)
		}
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}

		// The native asset has a fixed well-known mint; no lookup needed.
		if strings.EqualFold(candidate, "SOL") {
			return chain.NativeMint, nil
		}

		for _, holding := range holdings {
			if holding.Symbol == candidate && IsAddressShape(holding.Address) {
				r.logger.Debug("Resolved symbol from wallet holdings",
					zap.String("symbol", candidate),
					zap.String("address", holding.Address))
				return solana.PublicKeyFromBase58(holding.Address)
			}
		}

		tokens, err := r.registry.LookupBySymbol(ctx, candidate)
		if err != nil {
			r.logger.Warn("Registry lookup failed",
				zap.String("symbol", candidate),
				zap.Error(err))
			continue
		}
		for _, t := range tokens {
			if IsAddressShape(t.Address) {
				r.logger.Debug("Resolved symbol via registry",
					zap.String("symbol", candidate),
					zap.String("address", t.Address))
				return solana.PublicKeyFromBase58(t.Address)
			}
		}
	}

	return solana.PublicKey{}, ErrNotFound
}
