// internal/config/config.go
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	AWS          AWSConfig
	Ledger       LedgerConfig
	Verification VerificationConfig
	Email        EmailConfig
	Frontend     FrontendConfig
}

type FrontendConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

// LedgerConfig selects and configures the anchoring backend. Mode "mock"
// (or an empty RPC URL) selects the in-process mock; "jsonrpc" talks to an
// external notarization node.
type LedgerConfig struct {
	Mode            string
	RPCURL          string
	ContractAddress string
	TimeoutSeconds  int
}

// VerificationConfig carries the scoring weights and the SLA target. The
// weights must sum to 1.0; this is checked once at startup, not per call.
type VerificationConfig struct {
	DocumentationWeight float64
	QualityWeight       float64
	AuthenticityWeight  float64
	SLATargetHours      int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "agritrust"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "ap-south-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "agritrust-product-images"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Ledger: LedgerConfig{
			Mode:            getEnv("LEDGER_MODE", "mock"),
			RPCURL:          getEnv("LEDGER_RPC_URL", ""),
			ContractAddress: getEnv("LEDGER_CONTRACT_ADDRESS", "0x7a9fd3bc512f00a41c8e6b9d2f84e3a15c0ffeed"),
			TimeoutSeconds:  getEnvAsInt("LEDGER_TIMEOUT_SECONDS", 10),
		},
		Verification: VerificationConfig{
			DocumentationWeight: getEnvAsFloat("VERIFICATION_WEIGHT_DOCUMENTATION", 0.3),
			QualityWeight:       getEnvAsFloat("VERIFICATION_WEIGHT_QUALITY", 0.4),
			AuthenticityWeight:  getEnvAsFloat("VERIFICATION_WEIGHT_AUTHENTICITY", 0.3),
			SLATargetHours:      getEnvAsInt("VERIFICATION_SLA_TARGET_HOURS", 48),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@agritrust.market"),
			FromName:     getEnv("FROM_NAME", "AgriTrust"),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	weightSum := c.Verification.DocumentationWeight + c.Verification.QualityWeight + c.Verification.AuthenticityWeight
	if math.Abs(weightSum-1.0) > 1e-9 {
		return fmt.Errorf("verification criteria weights must sum to 1.0, got %v", weightSum)
	}

	if c.Verification.SLATargetHours <= 0 {
		return fmt.Errorf("verification SLA target must be positive, got %d", c.Verification.SLATargetHours)
	}

	if c.Ledger.TimeoutSeconds <= 0 {
		return fmt.Errorf("ledger timeout must be positive, got %d", c.Ledger.TimeoutSeconds)
	}

	if c.Ledger.Mode == "jsonrpc" && c.Ledger.RPCURL == "" {
		return fmt.Errorf("LEDGER_RPC_URL is required when LEDGER_MODE is jsonrpc")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
