// internal/token/birdeye.go
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultHTTPTimeout = 15 * time.Second

// Holding is one token position of the controlled wallet.
type Holding struct {
	Symbol   string
	Address  string
	UIAmount float64
	Decimals int
}

// BirdeyeClient talks to the Birdeye public API: symbol search and wallet
// portfolio listing.
type BirdeyeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewBirdeyeClient creates a Birdeye API client.
func NewBirdeyeClient(baseURL, apiKey string, logger *zap.Logger) *BirdeyeClient {
	return &BirdeyeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logger.Named("birdeye"),
	}
}

// LookupBySymbol queries the token registry for tokens matching symbol,
// best match first.
func (c *BirdeyeClient) LookupBySymbol(ctx context.Context, symbol string) ([]Holding, error) {
	endpoint := fmt.Sprintf("%s/defi/v3/search?chain=solana&keyword=%s&target=token&sort_by=liquidity&sort_type=desc",
		c.baseURL, url.QueryEscape(symbol))

	var decoded struct {
		Success bool `json:"success"`
		Data    struct {
			Items []struct {
				Result []struct {
					Address  string `json:"address"`
					Symbol   string `json:"symbol"`
					Decimals int    `json:"decimals"`
				} `json:"result"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return nil, err
	}
	if !decoded.Success {
		return nil, fmt.Errorf("token lookup for %q failed", symbol)
	}

	var tokens []Holding
	for _, item := range decoded.Data.Items {
		for _, result := range item.Result {
			tokens = append(tokens, Holding{
				Symbol:   result.Symbol,
				Address:  result.Address,
				Decimals: result.Decimals,
			})
		}
	}
	return tokens, nil
}

// WalletPortfolio lists the tokens currently held by walletAddress. Fetched
// fresh on every pipeline pass; holdings are never cached.
func (c *BirdeyeClient) WalletPortfolio(ctx context.Context, walletAddress string) ([]Holding, error) {
	endpoint := fmt.Sprintf("%s/v1/wallet/token_list?wallet=%s",
		c.baseURL, url.QueryEscape(walletAddress))

	var decoded struct {
		Success bool `json:"success"`
		Data    struct {
			Items []struct {
				Address  string  `json:"address"`
				Symbol   string  `json:"symbol"`
				UIAmount float64 `json:"uiAmount"`
				Decimals int     `json:"decimals"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return nil, err
	}
	if !decoded.Success {
		return nil, fmt.Errorf("portfolio lookup for %s failed", walletAddress)
	}

	holdings := make([]Holding, 0, len(decoded.Data.Items))
	for _, item := range decoded.Data.Items {
		holdings = append(holdings, Holding{
			Symbol:   item.Symbol,
			Address:  item.Address,
			UIAmount: item.UIAmount,
			Decimals: item.Decimals,
		})
	}
	return holdings, nil
}

func (c *BirdeyeClient) getJSON(ctx context.Context, endpoint string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("x-chain", "solana")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("birdeye request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Warn("Birdeye returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.String("body", strings.TrimSpace(string(body))))
		return fmt.Errorf("birdeye returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode birdeye response: %w", err)
	}
	return nil
}
