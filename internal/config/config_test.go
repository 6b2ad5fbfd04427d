// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Environment: "development",
		JWT:         JWTConfig{SecretKey: "test-secret"},
		Verification: VerificationConfig{
			DocumentationWeight: 0.3,
			QualityWeight:       0.4,
			AuthenticityWeight:  0.3,
			SLATargetHours:      48,
		},
		Ledger: LedgerConfig{
			Mode:           "mock",
			TimeoutSeconds: 10,
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := validConfig()
	cfg.Verification.QualityWeight = 0.5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights must sum to 1.0")
}

func TestValidateToleratesFloatRounding(t *testing.T) {
	cfg := validConfig()
	// 0.1+0.2+0.7 does not sum to exactly 1.0 in float64.
	cfg.Verification.DocumentationWeight = 0.1
	cfg.Verification.QualityWeight = 0.2
	cfg.Verification.AuthenticityWeight = 0.7

	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveSLA(t *testing.T) {
	cfg := validConfig()
	cfg.Verification.SLATargetHours = 0

	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresRPCURLInJSONRPCMode(t *testing.T) {
	cfg := validConfig()
	cfg.Ledger.Mode = "jsonrpc"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_RPC_URL")

	cfg.Ledger.RPCURL = "http://localhost:8545"
	assert.NoError(t, cfg.Validate())
}

func TestValidateGuardsProductionSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	cfg.JWT.SecretKey = "your-secret-key-change-in-production"

	assert.Error(t, cfg.Validate())
}
