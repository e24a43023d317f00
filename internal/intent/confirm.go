// internal/intent/confirm.go
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// State is the outcome of confirmation classification. It is transient:
// derived fresh from the last few conversation turns each time the
// orchestrator needs it, never stored across requests.
type State string

const (
	// StateConfirmed means the user explicitly acknowledged the pending
	// confirmation prompt.
	StateConfirmed State = "confirmed"
	// StateRejected means the user replied with anything other than a
	// confirmation after the prompt was issued.
	StateRejected State = "rejected"
	// StatePending means a fully-specified request exists but no
	// confirmation prompt has been acknowledged yet.
	StatePending State = "pending"
)

// confirmLookbackTurns bounds how much history the classifier sees. Older
// turns must not influence confirmation of the current request.
const confirmLookbackTurns = 3

// Classifier drives the confirmation state machine over the extractor.
type Classifier struct {
	extractor Extractor
	logger    *zap.Logger
}

// NewClassifier creates a confirmation classifier.
func NewClassifier(extractor Extractor, logger *zap.Logger) *Classifier {
	return &Classifier{
		extractor: extractor,
		logger:    logger.Named("confirm"),
	}
}

// Classify determines whether the latest user reply confirms, rejects, or
// still awaits the pending swap. An unrecognized classification degrades to
// Pending: the safe direction is re-prompting, never submitting.
func (c *Classifier) Classify(ctx context.Context, convo Conversation) (State, error) {
	raw, err := c.extractor.Extract(ctx, BuildConfirmPrompt(convo))
	if err != nil {
		return StatePending, fmt.Errorf("confirmation extraction: %w", err)
	}

	var decoded struct {
		UserAcked string `json:"userAcked"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return StatePending, fmt.Errorf("decode confirmation response: %w", err)
	}

	state := State(strings.ToLower(strings.TrimSpace(decoded.UserAcked)))
	switch state {
	case StateConfirmed, StateRejected, StatePending:
		c.logger.Debug("Classified confirmation state", zap.String("state", string(state)))
		return state, nil
	default:
		c.logger.Warn("Unrecognized confirmation state, treating as pending",
			zap.String("raw", decoded.UserAcked))
		return StatePending, nil
	}
}
