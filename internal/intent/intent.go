// internal/intent/intent.go
package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount means the extractor could not produce a usable numeric
// amount for the request.
var ErrInvalidAmount = errors.New("invalid or missing amount")

// SwapIntent is the normalized swap request extracted from conversation.
// Token references start out as whatever the user supplied (symbol or CA);
// the resolver turns them into canonical addresses before the economics and
// confirmation stages run.
type SwapIntent struct {
	InputTokenSymbol  string
	OutputTokenSymbol string
	InputTokenCA      string
	OutputTokenCA     string
	Amount            decimal.Decimal
}

// InputCandidates returns the input-leg reference candidates, CA first.
func (s *SwapIntent) InputCandidates() []string {
	return []string{s.InputTokenCA, s.InputTokenSymbol}
}

// OutputCandidates returns the output-leg reference candidates, CA first.
func (s *SwapIntent) OutputCandidates() []string {
	return []string{s.OutputTokenCA, s.OutputTokenSymbol}
}

// InputLabel returns a human-readable name for the input leg.
func (s *SwapIntent) InputLabel() string {
	if s.InputTokenSymbol != "" {
		return s.InputTokenSymbol
	}
	return s.InputTokenCA
}

// OutputLabel returns a human-readable name for the output leg.
func (s *SwapIntent) OutputLabel() string {
	if s.OutputTokenSymbol != "" {
		return s.OutputTokenSymbol
	}
	return s.OutputTokenCA
}

// LaunchIntent is the normalized create-and-buy request.
type LaunchIntent struct {
	Name         string
	Symbol       string
	Description  string
	Twitter      string
	Website      string
	Telegram     string
	BuyAmountSOL decimal.Decimal
}

// ParseSwapIntent decodes and scrubs the extractor output for a swap
// request. A non-numeric or missing amount yields ErrInvalidAmount; the
// pipeline must stop before making any further external call.
func ParseSwapIntent(raw json.RawMessage) (*SwapIntent, error) {
	var decoded struct {
		InputTokenSymbol  *string     `json:"inputTokenSymbol"`
		OutputTokenSymbol *string     `json:"outputTokenSymbol"`
		InputTokenCA      *string     `json:"inputTokenCA"`
		OutputTokenCA     *string     `json:"outputTokenCA"`
		Amount            interface{} `json:"amount"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode swap intent: %w", err)
	}

	out := &SwapIntent{
		InputTokenSymbol:  scrubNull(decoded.InputTokenSymbol),
		OutputTokenSymbol: scrubNull(decoded.OutputTokenSymbol),
		InputTokenCA:      scrubNull(decoded.InputTokenCA),
		OutputTokenCA:     scrubNull(decoded.OutputTokenCA),
	}

	amount, err := parseAmount(decoded.Amount)
	if err != nil {
		return out, err
	}
	out.Amount = amount
	return out, nil
}

// ParseLaunchIntent decodes and scrubs the extractor output for a token
// creation request. A missing buy amount means zero, not an error.
func ParseLaunchIntent(raw json.RawMessage) (*LaunchIntent, error) {
	var decoded struct {
		Name         *string     `json:"name"`
		Symbol       *string     `json:"symbol"`
		Description  *string     `json:"description"`
		Twitter      *string     `json:"twitter"`
		Website      *string     `json:"website"`
		Telegram     *string     `json:"telegram"`
		BuyAmountSol interface{} `json:"buyAmountSol"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode launch intent: %w", err)
	}

	out := &LaunchIntent{
		Name:        scrubNull(decoded.Name),
		Symbol:      scrubNull(decoded.Symbol),
		Description: scrubNull(decoded.Description),
		Twitter:     scrubNull(decoded.Twitter),
		Website:     scrubNull(decoded.Website),
		Telegram:    scrubNull(decoded.Telegram),
	}
	if out.Name == "" {
		return nil, errors.New("token name is required")
	}
	if out.Symbol == "" {
		return nil, errors.New("token symbol is required")
	}

	if decoded.BuyAmountSol == nil {
		out.BuyAmountSOL = decimal.Zero
		return out, nil
	}
	amount, err := parseAmount(decoded.BuyAmountSol)
	if err != nil {
		out.BuyAmountSOL = decimal.Zero
		return out, nil
	}
	out.BuyAmountSOL = amount
	return out, nil
}

// parseAmount accepts the amount as either JSON number or string, since the
// extractor schema allows both.
func parseAmount(v interface{}) (decimal.Decimal, error) {
	switch value := v.(type) {
	case nil:
		return decimal.Zero, ErrInvalidAmount
	case float64:
		d := decimal.NewFromFloat(value)
		if d.Sign() <= 0 {
			return decimal.Zero, ErrInvalidAmount
		}
		return d, nil
	case string:
		cleaned := strings.TrimSpace(value)
		if cleaned == "" || strings.EqualFold(cleaned, "null") {
			return decimal.Zero, ErrInvalidAmount
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil || d.Sign() <= 0 {
			return decimal.Zero, ErrInvalidAmount
		}
		return d, nil
	case json.Number:
		d, err := decimal.NewFromString(value.String())
		if err != nil || d.Sign() <= 0 {
			return decimal.Zero, ErrInvalidAmount
		}
		return d, nil
	default:
		return decimal.Zero, ErrInvalidAmount
	}
}

// scrubNull converts absent values and the literal string "null" (which
// extraction models emit instead of JSON null) to the empty string.
func scrubNull(s *string) string {
	if s == nil {
		return ""
	}
	cleaned := strings.TrimSpace(*s)
	if strings.EqualFold(cleaned, "null") {
		return ""
	}
	return cleaned
}
