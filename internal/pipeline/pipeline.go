// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-agent/internal/chain"
	"github.com/rovshanmuradov/solana-agent/internal/executor"
	"github.com/rovshanmuradov/solana-agent/internal/intent"
	"github.com/rovshanmuradov/solana-agent/internal/launch"
	"github.com/rovshanmuradov/solana-agent/internal/logger"
	"github.com/rovshanmuradov/solana-agent/internal/preflight"
	"github.com/rovshanmuradov/solana-agent/internal/quote"
	"github.com/rovshanmuradov/solana-agent/internal/token"
	"github.com/rovshanmuradov/solana-agent/internal/wallet"
)

// Quoter prices swaps and builds their transactions.
type Quoter interface {
	GetQuote(ctx context.Context, params quote.QuoteParams) (*quote.Quote, error)
	BuildSwapTransaction(ctx context.Context, params quote.SwapParams) (*solana.Transaction, error)
}

// PlatformFees decides whether a platform fee applies to a swap. The fee is
// taken on the input leg.
type PlatformFees interface {
	Resolve(ctx context.Context, payer *wallet.Wallet, inputMint solana.PublicKey) (int, *solana.PublicKey)
}

// Portfolio lists the wallet's current holdings with their symbols.
type Portfolio interface {
	WalletPortfolio(ctx context.Context, walletAddress string) ([]token.Holding, error)
}

// TokenResolver maps conversational token references to mint addresses.
type TokenResolver interface {
	Resolve(ctx context.Context, holdings []token.Holding, candidates ...string) (solana.PublicKey, error)
}

// BalanceChecker runs the balance and gas reserve preflight.
type BalanceChecker interface {
	CheckBalances(ctx context.Context, owner, inputMint solana.PublicKey, amount decimal.Decimal, tokenLabel string) (*preflight.CheckResult, error)
}

// ConfirmClassifier reads the recent conversation and decides whether the
// user has confirmed the pending transaction.
type ConfirmClassifier interface {
	Classify(ctx context.Context, convo intent.Conversation) (intent.State, error)
}

// TxExecutor signs, submits and tracks a transaction.
type TxExecutor interface {
	Execute(ctx context.Context, tx *solana.Transaction, extraSigners ...solana.PrivateKey) *executor.Result
}

// Launcher builds token launch transactions.
type Launcher interface {
	Build(ctx context.Context, creator *wallet.Wallet, req launch.Request) (*launch.Plan, error)
	VerifyBuy(ctx context.Context, creator, mint solana.PublicKey) (*float64, error)
}

// MintInspector validates that a resolved address really is a token mint
// and reads mint decimals for rendering amounts.
type MintInspector interface {
	GetTokenProgramID(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error)
	GetTokenDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
}

// Deps bundles everything the pipeline orchestrates.
type Deps struct {
	Authorizer preflight.Authorizer
	Extractor  intent.Extractor
	Classifier ConfirmClassifier
	Portfolio  Portfolio
	Resolver   TokenResolver
	Validator  BalanceChecker
	Fees       PlatformFees
	Quoter     Quoter
	Executor   TxExecutor
	Launcher   Launcher
	Chain      MintInspector
	Wallet     *wallet.Wallet
}

// Pipeline runs conversational trading requests end to end: authorization,
// intent extraction, token resolution, preflight, quoting, the confirmation
// gate and finally execution.
type Pipeline struct {
	deps        Deps
	slippageBps int
	locks       *walletLocks
	logger      *logger.Logger
}

func New(deps Deps, slippageBps int, log *logger.Logger) *Pipeline {
	return &Pipeline{
		deps:        deps,
		slippageBps: slippageBps,
		locks:       newWalletLocks(),
		logger:      log,
	}
}

// Handle runs a request through the pipeline for its action. The returned
// error, when non-nil, classifies the failure; the response always carries
// a user-facing message.
func (p *Pipeline) Handle(ctx context.Context, req Request) (*Response, error) {
	ok, err := p.deps.Authorizer.IsAdmin(ctx, req.CallerID)
	if err != nil {
		return fail("Authorization check failed, please try again."), fmt.Errorf("authorize: %w", err)
	}
	if !ok {
		p.logger.WithCaller(req.CallerID).Warn("Unauthorized request")
		return fail("You are not authorized to trade with this wallet."),
			&AuthorizationDeniedError{CallerID: req.CallerID}
	}

	switch req.Action {
	case ActionSwap:
		return p.handleSwap(ctx, req)
	case ActionCreateAndBuy:
		return p.handleLaunch(ctx, req)
	default:
		return fail("Unknown action."), fmt.Errorf("unknown action %q", req.Action)
	}
}

func (p *Pipeline) handleSwap(ctx context.Context, req Request) (*Response, error) {
	log := p.logger.WithOperation(string(ActionSwap)).With(zap.String("caller_id", req.CallerID))
	log.Info("Handling swap request", zap.String("message", req.Conversation.LastUserText()))

	raw, err := p.deps.Extractor.Extract(ctx, intent.BuildSwapPrompt(req.Conversation))
	if err != nil {
		return fail("I could not read your swap request, please rephrase it."),
			&IncompleteIntentError{Reason: "extraction failed", Cause: err}
	}
	swap, err := intent.ParseSwapIntent(raw)
	if err != nil {
		if errors.Is(err, intent.ErrInvalidAmount) {
			return fail("How much would you like to swap?"),
				&IncompleteIntentError{Reason: "missing or invalid amount", Cause: err}
		}
		return fail("I could not work out what to swap, please rephrase."),
			&IncompleteIntentError{Reason: "unparseable intent", Cause: err}
	}

	holdings, err := p.deps.Portfolio.WalletPortfolio(ctx, p.deps.Wallet.String())
	if err != nil {
		// Resolution falls back to the registry alone.
		log.Warn("Portfolio fetch failed", zap.Error(err))
		holdings = nil
	}

	inputMint, err := p.resolveMint(ctx, holdings, swap.InputLabel(), swap.InputCandidates())
	if err != nil {
		return fail(fmt.Sprintf("I could not find the token %q.", swap.InputLabel())), err
	}
	outputMint, err := p.resolveMint(ctx, holdings, swap.OutputLabel(), swap.OutputCandidates())
	if err != nil {
		return fail(fmt.Sprintf("I could not find the token %q.", swap.OutputLabel())), err
	}

	check, err := p.deps.Validator.CheckBalances(ctx, p.deps.Wallet.PublicKey, inputMint, swap.Amount, swap.InputLabel())
	if err != nil {
		return fail("I could not check your balance, please try again."), fmt.Errorf("preflight: %w", err)
	}
	if !check.OK {
		return fail(check.Message()), &InsufficientBalanceError{Detail: check.Message()}
	}

	feeBps, feeAccount := p.deps.Fees.Resolve(ctx, p.deps.Wallet, inputMint)

	q, err := p.deps.Quoter.GetQuote(ctx, quote.QuoteParams{
		InputMint:      inputMint,
		OutputMint:     outputMint,
		AmountRaw:      check.RawAmount,
		SlippageBps:    p.slippageBps,
		PlatformFeeBps: feeBps,
	})
	if err != nil {
		return fail("I could not get a price for that swap right now."), quoteFailure(err)
	}

	// The minimum-output bound, not the nominal quote, is what the user is
	// really agreeing to when they confirm.
	minOut := quote.SlippagePolicy{Type: quote.SlippageBps, Value: uint64(p.slippageBps)}.MinAmountOut(q.OutAmount)
	outDecimals, err := p.deps.Chain.GetTokenDecimals(ctx, outputMint)
	if err != nil {
		return fail("I could not inspect the output token, please try again."), fmt.Errorf("output decimals: %w", err)
	}

	summary := swapSummary(swap, inputMint, outputMint, q, minOut, outDecimals)
	state, err := p.deps.Classifier.Classify(ctx, req.Conversation)
	if err != nil {
		log.Warn("Confirmation classification failed, treating as pending", zap.Error(err))
		state = intent.StatePending
	}
	switch state {
	case intent.StateRejected:
		log.Info("Swap rejected by user")
		return fail("Okay, the swap is cancelled."), &UserRejectedError{}
	case intent.StatePending:
		return &Response{
			Pending: true,
			Message: summary + "\nReply yes to confirm or no to cancel.",
		}, nil
	}

	tx, err := p.deps.Quoter.BuildSwapTransaction(ctx, quote.SwapParams{
		Quote:         q,
		UserPublicKey: p.deps.Wallet.PublicKey,
		FeeAccount:    feeAccount,
	})
	if err != nil {
		return fail("I could not prepare the swap transaction."), quoteFailure(err)
	}

	release, err := p.locks.acquire(ctx, p.deps.Wallet.String())
	if err != nil {
		return fail("The swap was interrupted before submission."), fmt.Errorf("acquire wallet lock: %w", err)
	}
	defer release()

	result := p.deps.Executor.Execute(ctx, tx)
	resp, err := p.executionResponse(result, "swap")
	if resp.Details == nil {
		resp.Details = map[string]string{}
	}
	resp.Details["input_mint"] = inputMint.String()
	resp.Details["output_mint"] = outputMint.String()
	resp.Details["amount"] = swap.Amount.String()
	resp.Details["min_output"] = uiAmount(minOut, outDecimals).String()
	return resp, err
}

func (p *Pipeline) handleLaunch(ctx context.Context, req Request) (*Response, error) {
	log := p.logger.WithOperation(string(ActionCreateAndBuy)).With(zap.String("caller_id", req.CallerID))
	log.Info("Handling launch request", zap.String("message", req.Conversation.LastUserText()))

	raw, err := p.deps.Extractor.Extract(ctx, intent.BuildLaunchPrompt(req.Conversation))
	if err != nil {
		return fail("I could not read your launch request, please rephrase it."),
			&IncompleteIntentError{Reason: "extraction failed", Cause: err}
	}
	li, err := intent.ParseLaunchIntent(raw)
	if err != nil {
		return fail("I need at least a token name and symbol to launch."),
			&IncompleteIntentError{Reason: "missing token details", Cause: err}
	}

	if li.BuyAmountSOL.IsPositive() {
		check, err := p.deps.Validator.CheckBalances(ctx, p.deps.Wallet.PublicKey, chain.NativeMint, li.BuyAmountSOL, "SOL")
		if err != nil {
			return fail("I could not check your balance, please try again."), fmt.Errorf("preflight: %w", err)
		}
		if !check.OK {
			return fail(check.Message()), &InsufficientBalanceError{Detail: check.Message()}
		}
	}

	summary := launchSummary(li)
	state, err := p.deps.Classifier.Classify(ctx, req.Conversation)
	if err != nil {
		log.Warn("Confirmation classification failed, treating as pending", zap.Error(err))
		state = intent.StatePending
	}
	switch state {
	case intent.StateRejected:
		log.Info("Launch rejected by user")
		return fail("Okay, the launch is cancelled."), &UserRejectedError{}
	case intent.StatePending:
		return &Response{
			Pending: true,
			Message: summary + "\nReply yes to confirm or no to cancel.",
		}, nil
	}

	plan, err := p.deps.Launcher.Build(ctx, p.deps.Wallet, launch.Request{
		Metadata: launch.TokenMetadata{
			Name:        li.Name,
			Symbol:      li.Symbol,
			Description: li.Description,
			Twitter:     li.Twitter,
			Telegram:    li.Telegram,
			Website:     li.Website,
		},
		BuyAmountSOL: li.BuyAmountSOL,
		SlippageBps:  p.slippageBps,
	})
	if err != nil {
		return fail("I could not prepare the launch transaction."), &SubmissionFailedError{Cause: err}
	}

	release, err := p.locks.acquire(ctx, p.deps.Wallet.String())
	if err != nil {
		return fail("The launch was interrupted before submission."), fmt.Errorf("acquire wallet lock: %w", err)
	}
	defer release()

	result := p.deps.Executor.Execute(ctx, plan.Transaction, plan.Mint)
	resp, respErr := p.executionResponse(result, "launch")
	if resp.Details == nil {
		resp.Details = map[string]string{}
	}
	mint := plan.Mint.PublicKey()
	resp.Details["mint"] = mint.String()
	resp.Details["metadata_uri"] = plan.MetadataURI

	if resp.Success {
		resp.Message = fmt.Sprintf("Token %s (%s) created successfully!\nMint: %s\nTransaction: %s",
			li.Name, li.Symbol, mint, result.Signature)
		if plan.BuyTokensRaw > 0 {
			if balance, err := p.deps.Launcher.VerifyBuy(ctx, p.deps.Wallet.PublicKey, mint); err == nil && balance != nil {
				resp.Message += fmt.Sprintf("\nInitial buy landed: %f tokens in your wallet.", *balance)
			} else {
				resp.Message += "\nThe initial buy is not visible yet, it may take a moment to settle."
			}
		}
	}
	return resp, respErr
}

func (p *Pipeline) resolveMint(ctx context.Context, holdings []token.Holding, label string, candidates []string) (solana.PublicKey, error) {
	mint, err := p.deps.Resolver.Resolve(ctx, holdings, candidates...)
	if err != nil {
		if errors.Is(err, token.ErrNotFound) {
			return solana.PublicKey{}, &UnresolvedReferenceError{Reference: label}
		}
		return solana.PublicKey{}, fmt.Errorf("resolve %q: %w", label, err)
	}

	// A resolved address must actually be a token mint. The native asset is
	// exempt, its mint is synthetic.
	if !mint.Equals(chain.NativeMint) {
		if _, err := p.deps.Chain.GetTokenProgramID(ctx, mint); err != nil {
			p.logger.Warn("Resolved address is not a token mint",
				zap.String("reference", label), zap.String("address", mint.String()), zap.Error(err))
			return solana.PublicKey{}, &UnresolvedReferenceError{Reference: label}
		}
	}
	return mint, nil
}

func (p *Pipeline) executionResponse(result *executor.Result, kind string) (*Response, error) {
	if result.Submitted {
		p.logger.WithTransaction(result.Signature.String()).Info("Transaction settled",
			zap.String("kind", kind), zap.String("status", string(result.Status)))
	}
	switch result.Status {
	case executor.StatusConfirmed:
		return &Response{
			Success: true,
			Message: fmt.Sprintf("The %s completed successfully!\nTransaction: %s", kind, result.Signature),
			Details: map[string]string{"signature": result.Signature.String()},
		}, nil
	case executor.StatusTimedOut:
		return &Response{
			Message: fmt.Sprintf("The %s was submitted but has not confirmed yet.\nTransaction: %s\nIt may still land, check the signature in a moment.",
				kind, result.Signature),
			Details: map[string]string{"signature": result.Signature.String()},
		}, &ConfirmationTimedOutError{Signature: result.Signature}
	default:
		return fail(fmt.Sprintf("The %s failed to go through, no funds have moved.", kind)),
			&SubmissionFailedError{Cause: result.Err}
	}
}

func quoteFailure(err error) error {
	var upstream *quote.UpstreamError
	if errors.As(err, &upstream) && upstream.Message != "" {
		return &QuoteUnavailableError{Reason: upstream.Message, Cause: err}
	}
	return &QuoteUnavailableError{Reason: err.Error(), Cause: err}
}

// swapSummary states legs, amounts and the resolved contract addresses, so
// the user can verify which tokens were resolved before confirming.
func swapSummary(swap *intent.SwapIntent, inputMint, outputMint solana.PublicKey, q *quote.Quote, minOut uint64, outDecimals uint8) string {
	summary := fmt.Sprintf("Swapping %s %s (%s) for %s (%s).",
		swap.Amount, swap.InputLabel(), inputMint, swap.OutputLabel(), outputMint)
	summary += fmt.Sprintf(" Expected output: %s %s, at least %s after slippage.",
		uiAmount(q.OutAmount, outDecimals), swap.OutputLabel(), uiAmount(minOut, outDecimals))
	if q.PriceImpactPct != "" {
		summary += fmt.Sprintf(" Estimated price impact: %s%%.", q.PriceImpactPct)
	}
	return summary
}

// uiAmount renders a raw on-chain amount in token units.
func uiAmount(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
}

func launchSummary(li *intent.LaunchIntent) string {
	summary := fmt.Sprintf("Launching token %s (%s).", li.Name, li.Symbol)
	if li.BuyAmountSOL.IsPositive() {
		summary += fmt.Sprintf(" Initial buy: %s SOL.", li.BuyAmountSOL)
	}
	return summary
}

func fail(message string) *Response {
	return &Response{Message: message}
}
