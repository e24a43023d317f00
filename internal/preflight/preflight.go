// internal/preflight/preflight.go
package preflight

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-agent/internal/chain"
)

// BalanceSource provides the wallet balances consulted before a swap. They
// are fetched fresh per invocation; a cached balance would risk double-spend.
type BalanceSource interface {
	NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, uint8, error)
}

// CheckResult is the outcome of a balance preflight. All amounts are ui
// units (raw scaled down by the token's decimals) held as exact decimals;
// comparing on-chain amounts via floats is not acceptable here.
type CheckResult struct {
	OK bool

	// Shortfall details, populated when OK is false.
	Token      string
	Required   decimal.Decimal
	Available  decimal.Decimal
	GasReserve bool

	// Input-leg facts needed by later stages.
	Decimals  uint8
	RawAmount uint64
}

// Message renders the human-readable shortfall, stating required vs
// available amounts.
func (r *CheckResult) Message() string {
	if r.OK {
		return ""
	}
	if r.GasReserve {
		return fmt.Sprintf("Insufficient balance for swap gas fee, required: %s SOL but only have: %s SOL",
			r.Required.String(), r.Available.String())
	}
	return fmt.Sprintf("Insufficient %s balance for swap, required: %s but only have: %s",
		r.Token, r.Required.String(), r.Available.String())
}

// Validator performs the balance half of preflight: input-asset sufficiency
// plus the native gas reserve.
type Validator struct {
	balances   BalanceSource
	gasReserve decimal.Decimal // in SOL
	logger     *zap.Logger
}

// NewValidator creates a balance validator with the given gas reserve
// policy (in SOL).
func NewValidator(balances BalanceSource, gasReserve decimal.Decimal, logger *zap.Logger) *Validator {
	return &Validator{
		balances:   balances,
		gasReserve: gasReserve,
		logger:     logger.Named("preflight"),
	}
}

// CheckBalances verifies that owner can spend amount of inputMint and still
// pay fees. When the input token is the native asset, the reserve applies to
// what remains after the swap amount leaves the wallet.
func (v *Validator) CheckBalances(ctx context.Context, owner, inputMint solana.PublicKey, amount decimal.Decimal, tokenLabel string) (*CheckResult, error) {
	isNative := inputMint.Equals(chain.NativeMint)

	var (
		availableRaw uint64
		decimals     uint8
		err          error
	)
	if isNative {
		availableRaw, err = v.balances.NativeBalance(ctx, owner)
		decimals = chain.NativeDecimals
	} else {
		availableRaw, decimals, err = v.balances.TokenBalance(ctx, owner, inputMint)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch input balance: %w", err)
	}

	available := uiAmount(availableRaw, decimals)
	result := &CheckResult{
		OK:        true,
		Decimals:  decimals,
		RawAmount: rawAmount(amount, decimals),
	}

	if available.LessThan(amount) {
		result.OK = false
		result.Token = tokenLabel
		result.Required = amount
		result.Available = available
		v.logger.Warn("Insufficient input balance",
			zap.String("token", tokenLabel),
			zap.String("required", amount.String()),
			zap.String("available", available.String()))
		return result, nil
	}

	if isNative {
		// The amount being swapped away must not eat into the gas reserve.
		if available.Sub(amount).LessThan(v.gasReserve) {
			result.OK = false
			result.GasReserve = true
			result.Required = amount.Add(v.gasReserve)
			result.Available = available
			v.logger.Warn("Swap would breach the gas reserve",
				zap.String("required", result.Required.String()),
				zap.String("available", available.String()))
		}
		return result, nil
	}

	nativeRaw, err := v.balances.NativeBalance(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("fetch native balance: %w", err)
	}
	nativeAvailable := uiAmount(nativeRaw, chain.NativeDecimals)
	if nativeAvailable.LessThan(v.gasReserve) {
		result.OK = false
		result.GasReserve = true
		result.Required = v.gasReserve
		result.Available = nativeAvailable
		v.logger.Warn("Native balance below gas reserve",
			zap.String("required", v.gasReserve.String()),
			zap.String("available", nativeAvailable.String()))
	}
	return result, nil
}

// uiAmount converts raw on-chain units to a ui decimal.
func uiAmount(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
}

// rawAmount converts a ui decimal to raw on-chain units, truncating any
// precision beyond the token's decimals.
func rawAmount(amount decimal.Decimal, decimals uint8) uint64 {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt().Uint64()
}
