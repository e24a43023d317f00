// internal/pipeline/errors.go
package pipeline

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Code identifies the failure class of a pipeline run.
type Code string

const (
	CodeOK                   Code = "ok"
	CodeAuthorizationDenied  Code = "authorization_denied"
	CodeIncompleteIntent     Code = "incomplete_intent"
	CodeUnresolvedReference  Code = "unresolved_reference"
	CodeInsufficientBalance  Code = "insufficient_balance"
	CodeQuoteUnavailable     Code = "quote_unavailable"
	CodeUserRejected         Code = "user_rejected"
	CodeSubmissionFailed     Code = "submission_failed"
	CodeConfirmationTimedOut Code = "confirmation_timed_out"
	CodeInternal             Code = "internal"
)

// AuthorizationDeniedError means the caller is not an admin. The request is
// refused before any state is read.
type AuthorizationDeniedError struct {
	CallerID string
}

func (e *AuthorizationDeniedError) Error() string {
	return fmt.Sprintf("caller %s is not authorized", e.CallerID)
}

// IncompleteIntentError means the conversation did not yield an actionable
// intent, typically a missing or unparseable amount.
type IncompleteIntentError struct {
	Reason string
	Cause  error
}

func (e *IncompleteIntentError) Error() string {
	return fmt.Sprintf("incomplete intent: %s", e.Reason)
}

func (e *IncompleteIntentError) Unwrap() error { return e.Cause }

// UnresolvedReferenceError means a token mentioned in the conversation
// could not be mapped to a mint address.
type UnresolvedReferenceError struct {
	Reference string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("could not resolve token %q", e.Reference)
}

// InsufficientBalanceError means preflight found the wallet short, either
// on the input asset or on the native gas reserve.
type InsufficientBalanceError struct {
	Detail string
}

func (e *InsufficientBalanceError) Error() string { return e.Detail }

// QuoteUnavailableError means the aggregator could not price the swap. The
// upstream message is preserved for the user.
type QuoteUnavailableError struct {
	Reason string
	Cause  error
}

func (e *QuoteUnavailableError) Error() string {
	return fmt.Sprintf("no quote available: %s", e.Reason)
}

func (e *QuoteUnavailableError) Unwrap() error { return e.Cause }

// UserRejectedError means the user declined the pending transaction.
type UserRejectedError struct{}

func (e *UserRejectedError) Error() string { return "user rejected the transaction" }

// SubmissionFailedError means the transaction never reached the cluster, or
// the cluster reported an execution error for it.
type SubmissionFailedError struct {
	Cause error
}

func (e *SubmissionFailedError) Error() string {
	return fmt.Sprintf("transaction submission failed: %v", e.Cause)
}

func (e *SubmissionFailedError) Unwrap() error { return e.Cause }

// ConfirmationTimedOutError means the transaction was submitted but its
// confirmation was not observed within the polling budget. It may still
// land; the signature lets the user check.
type ConfirmationTimedOutError struct {
	Signature solana.Signature
}

func (e *ConfirmationTimedOutError) Error() string {
	return fmt.Sprintf("transaction %s not confirmed in time", e.Signature)
}

// Classify maps an error from a pipeline run to its failure code.
func Classify(err error) Code {
	if err == nil {
		return CodeOK
	}

	var (
		authErr      *AuthorizationDeniedError
		intentErr    *IncompleteIntentError
		refErr       *UnresolvedReferenceError
		balanceErr   *InsufficientBalanceError
		quoteErr     *QuoteUnavailableError
		rejectedErr  *UserRejectedError
		submitErr    *SubmissionFailedError
		confirmedErr *ConfirmationTimedOutError
	)
	switch {
	case errors.As(err, &authErr):
		return CodeAuthorizationDenied
	case errors.As(err, &intentErr):
		return CodeIncompleteIntent
	case errors.As(err, &refErr):
		return CodeUnresolvedReference
	case errors.As(err, &balanceErr):
		return CodeInsufficientBalance
	case errors.As(err, &quoteErr):
		return CodeQuoteUnavailable
	case errors.As(err, &rejectedErr):
		return CodeUserRejected
	case errors.As(err, &submitErr):
		return CodeSubmissionFailed
	case errors.As(err, &confirmedErr):
		return CodeConfirmationTimedOut
	default:
		return CodeInternal
	}
}
