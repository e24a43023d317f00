// internal/pipeline/request.go
package pipeline

import (
	"github.com/rovshanmuradov/solana-agent/internal/intent"
)

// Action selects which pipeline a request runs through.
type Action string

const (
	// ActionSwap exchanges one token for another via the aggregator.
	ActionSwap Action = "swap"
	// ActionCreateAndBuy launches a new token, optionally buying some of
	// it in the same transaction.
	ActionCreateAndBuy Action = "create_and_buy"
)

// Request is a single conversational trading request. It is treated as
// immutable once handed to the pipeline.
type Request struct {
	CallerID     string
	Action       Action
	Conversation intent.Conversation
}

// Response is what goes back to the conversation layer.
type Response struct {
	Success bool
	// Pending means the pipeline is waiting for the user to confirm; the
	// message restates the transaction and asks for a yes or no.
	Pending bool
	Message string
	// Details carries machine-readable facts about the run, e.g. the
	// transaction signature or the new token's mint address.
	Details map[string]string
}
