// internal/services/ledger_test.go
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLedgerAnchorsDeterministically(t *testing.T) {
	ledger := NewMockLedger("0x7a9fd3bc512f00a41c8e6b9d2f84e3a15c0ffeed")

	req := &AnchorRequest{
		VerificationID: "PA-TURMERIC-1735689600000-7KQ2XN",
		FarmerID:       uuid.MustParse("8f14e45f-ceea-467f-a8f9-10b19bb5a0f4"),
		FarmerName:     "sunrise_farm",
		ProductSnapshot: map[string]interface{}{
			"name":     "Lakadong turmeric",
			"category": "turmeric",
		},
	}

	first, err := ledger.Anchor(context.Background(), req)
	require.NoError(t, err)
	second, err := ledger.Anchor(context.Background(), req)
	require.NoError(t, err)

	// A retried anchor of the same payload lands on the same receipt.
	assert.Equal(t, first.TransactionHash, second.TransactionHash)
	assert.Equal(t, first.BlockNumber, second.BlockNumber)

	assert.Regexp(t, `^0x[0-9a-f]{64}$`, first.TransactionHash)
	assert.Equal(t, "0x7a9fd3bc512f00a41c8e6b9d2f84e3a15c0ffeed", first.LedgerAddress)
	assert.GreaterOrEqual(t, first.BlockNumber, int64(0))
	assert.False(t, first.Timestamp.IsZero())
}

func TestMockLedgerDifferentPayloadsDiffer(t *testing.T) {
	ledger := NewMockLedger("0xabc")

	a, err := ledger.Anchor(context.Background(), &AnchorRequest{VerificationID: "PA-RICE-1-AAAAAA"})
	require.NoError(t, err)
	b, err := ledger.Anchor(context.Background(), &AnchorRequest{VerificationID: "PA-RICE-1-BBBBBB"})
	require.NoError(t, err)

	assert.NotEqual(t, a.TransactionHash, b.TransactionHash)
}

func TestMockLedgerHonorsContextCancellation(t *testing.T) {
	ledger := NewMockLedger("0xabc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ledger.Anchor(ctx, &AnchorRequest{VerificationID: "PA-RICE-1-AAAAAA"})
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
}

func TestJSONRPCLedgerAnchor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "agritrust_anchorVerification", req.Method)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{
				"transaction_hash": "0xdeadbeef",
				"block_number":     42,
			},
		})
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Ledger.Mode = "jsonrpc"
	cfg.Ledger.RPCURL = server.URL

	ledger := NewLedgerAdapter(cfg)
	require.IsType(t, &JSONRPCLedger{}, ledger)

	receipt, err := ledger.Anchor(context.Background(), &AnchorRequest{VerificationID: "PA-TEA-1-AAAAAA"})
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", receipt.TransactionHash)
	assert.Equal(t, int64(42), receipt.BlockNumber)
}

func TestJSONRPCLedgerErrors(t *testing.T) {
	t.Run("rpc error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"code": -32000, "message": "node out of sync"},
			})
		}))
		defer server.Close()

		cfg := testConfig()
		cfg.Ledger.RPCURL = server.URL
		ledger := NewJSONRPCLedger(cfg)

		_, err := ledger.Anchor(context.Background(), &AnchorRequest{VerificationID: "PA-TEA-1-AAAAAA"})
		assert.ErrorIs(t, err, ErrLedgerUnavailable)
	})

	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		cfg := testConfig()
		cfg.Ledger.RPCURL = server.URL
		ledger := NewJSONRPCLedger(cfg)

		_, err := ledger.Anchor(context.Background(), &AnchorRequest{VerificationID: "PA-TEA-1-AAAAAA"})
		assert.ErrorIs(t, err, ErrLedgerUnavailable)
	})

	t.Run("missing result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{})
		}))
		defer server.Close()

		cfg := testConfig()
		cfg.Ledger.RPCURL = server.URL
		ledger := NewJSONRPCLedger(cfg)

		_, err := ledger.Anchor(context.Background(), &AnchorRequest{VerificationID: "PA-TEA-1-AAAAAA"})
		assert.ErrorIs(t, err, ErrLedgerUnavailable)
	})
}

func TestNewLedgerAdapterDefaultsToMock(t *testing.T) {
	cfg := testConfig()
	ledger := NewLedgerAdapter(cfg)
	assert.IsType(t, &MockLedger{}, ledger)

	// jsonrpc mode without a URL still falls back to the mock.
	cfg.Ledger.Mode = "jsonrpc"
	cfg.Ledger.RPCURL = ""
	ledger = NewLedgerAdapter(cfg)
	assert.IsType(t, &MockLedger{}, ledger)
}
