// internal/quote/slippage.go
package quote

// SlippageType selects how the minimum acceptable output is derived.
type SlippageType string

const (
	// SlippageFixed uses an exact minimum output amount.
	SlippageFixed SlippageType = "fixed"
	// SlippageBps derives the minimum from the quoted output, in basis points.
	SlippageBps SlippageType = "bps"
	// SlippageNone places no lower bound on the output.
	SlippageNone SlippageType = "none"
)

// SlippagePolicy configures the acceptable deviation from the quoted price.
type SlippagePolicy struct {
	Type SlippageType `json:"type"`
	// Value holds the fixed minimum output for SlippageFixed, or the
	// tolerance in basis points for SlippageBps.
	Value uint64 `json:"value"`
}

// MinAmountOut computes the minimum output in raw units for a quoted output.
func (p SlippagePolicy) MinAmountOut(quotedOut uint64) uint64 {
	switch p.Type {
	case SlippageFixed:
		return p.Value
	case SlippageBps:
		if p.Value >= 10_000 {
			return 1
		}
		keep := 10_000 - p.Value
		// Split so the intermediate product fits in uint64 for any quote.
		return quotedOut/10_000*keep + quotedOut%10_000*keep/10_000
	case SlippageNone:
		return 1
	default:
		return 1
	}
}
