// internal/chain/client_test.go
package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// tokenBalanceServer answers every RPC call as getTokenAccountBalance with
// the given raw amount string.
func tokenBalanceServer(t *testing.T, amount string, decimals uint8) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID any `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]any{
				"context": map[string]any{"slot": 1},
				"value": map[string]any{
					"amount":   amount,
					"decimals": decimals,
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestTokenBalance_ParsesFullUint64Range(t *testing.T) {
	srv := tokenBalanceServer(t, "18446744073709551615", 5)
	defer srv.Close()

	c := NewClient(srv.URL, zaptest.NewLogger(t))
	owner := solana.NewWallet().PublicKey()

	raw, decimals, err := c.TokenBalance(context.Background(), owner, NativeMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(18_446_744_073_709_551_615), raw)
	assert.Equal(t, uint8(5), decimals)
}

func TestTokenBalance_RejectsMalformedAmount(t *testing.T) {
	srv := tokenBalanceServer(t, "12abc", 6)
	defer srv.Close()

	c := NewClient(srv.URL, zaptest.NewLogger(t))
	owner := solana.NewWallet().PublicKey()

	_, _, err := c.TokenBalance(context.Background(), owner, NativeMint)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "12abc")
}
