// internal/quote/jupiter.go
package quote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// maxPriorityFeeLamports caps the priority fee Jupiter may attach when it
// builds the swap transaction.
const maxPriorityFeeLamports = 10_000_000

// UpstreamError carries the aggregator's own failure message so the user
// sees why no route exists (dust amounts, unlisted mints and so on).
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("aggregator: %s", e.Message)
	}
	return fmt.Sprintf("aggregator: status %d", e.Status)
}

// QuoteParams identifies the swap leg being priced. Amount is in raw units
// of the input mint.
type QuoteParams struct {
	InputMint      solana.PublicKey
	OutputMint     solana.PublicKey
	AmountRaw      uint64
	SlippageBps    int
	PlatformFeeBps int // 0 disables the platform fee
}

// Quote is a priced route. The raw body is kept verbatim because the swap
// endpoint expects the quote echoed back exactly as received.
type Quote struct {
	Raw            json.RawMessage
	InAmount       uint64
	OutAmount      uint64
	PriceImpactPct string
}

// SwapParams turns a quote into an unsigned transaction.
type SwapParams struct {
	Quote         *Quote
	UserPublicKey solana.PublicKey
	FeeAccount    *solana.PublicKey // nil when no platform fee applies
}

// Client talks to the Jupiter v6 aggregator.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.Named("jupiter"),
	}
}

// GetQuote fetches a priced route for the given leg.
func (c *Client) GetQuote(ctx context.Context, params QuoteParams) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", params.InputMint.String())
	q.Set("outputMint", params.OutputMint.String())
	q.Set("amount", strconv.FormatUint(params.AmountRaw, 10))
	q.Set("slippageBps", strconv.Itoa(params.SlippageBps))
	if params.PlatformFeeBps > 0 {
		q.Set("platformFeeBps", strconv.Itoa(params.PlatformFeeBps))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(body)}
	}

	var parsed struct {
		InAmount       string `json:"inAmount"`
		OutAmount      string `json:"outAmount"`
		PriceImpactPct string `json:"priceImpactPct"`
		Error          string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode quote response: %w", err)
	}
	if parsed.Error != "" {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: parsed.Error}
	}

	inAmount, err := strconv.ParseUint(parsed.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse quote inAmount %q: %w", parsed.InAmount, err)
	}
	outAmount, err := strconv.ParseUint(parsed.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse quote outAmount %q: %w", parsed.OutAmount, err)
	}

	c.logger.Debug("Received quote",
		zap.String("input_mint", params.InputMint.String()),
		zap.String("output_mint", params.OutputMint.String()),
		zap.Uint64("in_amount", inAmount),
		zap.Uint64("out_amount", outAmount),
		zap.String("price_impact_pct", parsed.PriceImpactPct))

	return &Quote{
		Raw:            json.RawMessage(body),
		InAmount:       inAmount,
		OutAmount:      outAmount,
		PriceImpactPct: parsed.PriceImpactPct,
	}, nil
}

// BuildSwapTransaction asks the aggregator for a serialized transaction
// implementing the quote and decodes it, still unsigned.
func (c *Client) BuildSwapTransaction(ctx context.Context, params SwapParams) (*solana.Transaction, error) {
	payload := map[string]any{
		"quoteResponse":             params.Quote.Raw,
		"userPublicKey":             params.UserPublicKey.String(),
		"dynamicComputeUnitLimit":   true,
		"dynamicSlippage":           true,
		"prioritizationFeeLamports": map[string]any{
			"priorityLevelWithMaxLamports": map[string]any{
				"maxLamports":   maxPriorityFeeLamports,
				"priorityLevel": "veryHigh",
			},
		},
	}
	if params.FeeAccount != nil {
		payload["feeAccount"] = params.FeeAccount.String()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("swap request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read swap response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(respBody)}
	}

	var parsed struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode swap response: %w", err)
	}
	if parsed.SwapTransaction == "" {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: "empty swap transaction"}
	}

	rawTx, err := base64.StdEncoding.DecodeString(parsed.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("decode swap transaction: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(rawTx))
	if err != nil {
		return nil, fmt.Errorf("deserialize swap transaction: %w", err)
	}
	return tx, nil
}

func upstreamMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return ""
}
