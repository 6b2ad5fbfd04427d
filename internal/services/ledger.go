// internal/services/ledger.go
package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/farmveda/agritrust-backend/internal/config"
)

// AnchorRequest is what the workflow engine sends to the notarization
// service when a verification is approved.
type AnchorRequest struct {
	VerificationID  string                 `json:"verification_id"`
	FarmerID        uuid.UUID              `json:"farmer_id"`
	FarmerName      string                 `json:"farmer_name"`
	ProductSnapshot map[string]interface{} `json:"product_snapshot"`
}

// LedgerReceipt is the proof of anchoring returned by the ledger.
type LedgerReceipt struct {
	TransactionHash string    `json:"transaction_hash"`
	BlockNumber     int64     `json:"block_number"`
	LedgerAddress   string    `json:"ledger_address"`
	Timestamp       time.Time `json:"timestamp"`
}

// LedgerAdapter anchors approvals on an external notarization service. The
// real implementation deduplicates by verification id; the mock derives its
// receipt from the request payload so a retried call yields an equivalent
// receipt.
type LedgerAdapter interface {
	Anchor(ctx context.Context, req *AnchorRequest) (*LedgerReceipt, error)
}

// NewLedgerAdapter selects the anchoring backend from configuration. Business
// logic never branches on the mode; it only sees the interface.
func NewLedgerAdapter(cfg *config.Config) LedgerAdapter {
	if cfg.Ledger.Mode == "jsonrpc" && cfg.Ledger.RPCURL != "" {
		return NewJSONRPCLedger(cfg)
	}
	return NewMockLedger(cfg.Ledger.ContractAddress)
}

// MockLedger simulates anchoring by hashing the canonical request payload,
// the same way real entries would be keyed on chain.
type MockLedger struct {
	address string
}

func NewMockLedger(address string) *MockLedger {
	return &MockLedger{address: address}
}

func (m *MockLedger) Anchor(ctx context.Context, req *AnchorRequest) (*LedgerReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode anchor request: %v", ErrLedgerUnavailable, err)
	}

	hash := sha256.Sum256(payload)

	// Derive a stable pseudo block number from the hash so retries for the
	// same payload land on the same receipt.
	blockNumber := int64(binary.BigEndian.Uint32(hash[:4]) % 10_000_000)

	logrus.WithFields(logrus.Fields{
		"verification_id": req.VerificationID,
		"tx_hash":         hex.EncodeToString(hash[:8]),
	}).Info("Mock ledger anchored verification")

	return &LedgerReceipt{
		TransactionHash: "0x" + hex.EncodeToString(hash[:]),
		BlockNumber:     blockNumber,
		LedgerAddress:   m.address,
		Timestamp:       time.Now().UTC(),
	}, nil
}

// JSONRPCLedger anchors through an external notarization node over JSON-RPC.
type JSONRPCLedger struct {
	url     string
	address string
	client  *http.Client
}

func NewJSONRPCLedger(cfg *config.Config) *JSONRPCLedger {
	return &JSONRPCLedger{
		url:     cfg.Ledger.RPCURL,
		address: cfg.Ledger.ContractAddress,
		client: &http.Client{
			Timeout: time.Duration(cfg.Ledger.TimeoutSeconds) * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	Result *struct {
		TransactionHash string `json:"transaction_hash"`
		BlockNumber     int64  `json:"block_number"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (l *JSONRPCLedger) Anchor(ctx context.Context, req *AnchorRequest) (*LedgerReceipt, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "agritrust_anchorVerification",
		Params:  []interface{}{l.address, req},
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode anchor request: %v", ErrLedgerUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ledger node returned status %d", ErrLedgerUnavailable, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode ledger response: %v", ErrLedgerUnavailable, err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("%w: rpc error %d: %s", ErrLedgerUnavailable, rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if rpcResp.Result == nil || rpcResp.Result.TransactionHash == "" {
		return nil, fmt.Errorf("%w: ledger response missing transaction hash", ErrLedgerUnavailable)
	}

	return &LedgerReceipt{
		TransactionHash: rpcResp.Result.TransactionHash,
		BlockNumber:     rpcResp.Result.BlockNumber,
		LedgerAddress:   l.address,
		Timestamp:       time.Now().UTC(),
	}, nil
}
