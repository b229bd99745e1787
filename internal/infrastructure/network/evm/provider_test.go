package evm

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wallet_network/internal/pkg/apperrors"
)

type rpcMessage struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params []any           `json:"params"`
}

func answer(msg rpcMessage) map[string]any {
	resp := map[string]any{"jsonrpc": "2.0", "id": msg.ID}
	switch msg.Method {
	case "eth_getBalance":
		resp["result"] = "0xde0b6b3a7640000"
	default:
		resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
	}
	return resp
}

func newEVMNode(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")

		if strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
			var batch []rpcMessage
			require.NoError(t, json.Unmarshal(body, &batch))
			out := make([]map[string]any, 0, len(batch))
			for _, msg := range batch {
				out = append(out, answer(msg))
			}
			_ = json.NewEncoder(w).Encode(out)
			return
		}
		var msg rpcMessage
		require.NoError(t, json.Unmarshal(body, &msg))
		_ = json.NewEncoder(w).Encode(answer(msg))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProviderRejectsBadURL(t *testing.T) {
	p := NewProvider(time.Second, zap.NewNop())

	require.ErrorIs(t, p.SetProvider("not a url"), apperrors.ErrInvalidInput)
	require.ErrorIs(t, p.SetProvider("ftp://127.0.0.1:9650/ext/bc/C/rpc"), apperrors.ErrInvalidInput)
	require.Empty(t, p.URL())
}

func TestProviderNotSet(t *testing.T) {
	p := NewProvider(time.Second, zap.NewNop())
	_, err := p.GetBalances(context.Background(), []string{"0x8db97C7cEcE249c2b98bDC0226Cc4C2A57BF52FC"})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestProviderBalances(t *testing.T) {
	node := newEVMNode(t)
	p := NewProvider(2*time.Second, zap.NewNop())
	t.Cleanup(p.Close)

	rpcURL := node.URL + "/ext/bc/C/rpc"
	require.NoError(t, p.SetProvider(rpcURL))
	require.Equal(t, rpcURL, p.URL())

	results, err := p.GetBalances(context.Background(), []string{
		"0x8db97C7cEcE249c2b98bDC0226Cc4C2A57BF52FC",
		"not-an-address",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NoError(t, results[0].Error)
	want, _ := new(big.Int).SetString("1000000000000000000", 10)
	require.Equal(t, want, results[0].Balance)
	require.ErrorIs(t, results[1].Error, apperrors.ErrInvalidInput)
}

func TestProviderSameURLKeepsClient(t *testing.T) {
	node := newEVMNode(t)
	p := NewProvider(time.Second, zap.NewNop())
	t.Cleanup(p.Close)

	rpcURL := node.URL + "/ext/bc/C/rpc"
	require.NoError(t, p.SetProvider(rpcURL))
	first, err := p.current()
	require.NoError(t, err)

	require.NoError(t, p.SetProvider(rpcURL))
	second, err := p.current()
	require.NoError(t, err)
	require.Same(t, first, second)
}
