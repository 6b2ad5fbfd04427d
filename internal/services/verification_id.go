// internal/services/verification_id.go
package services

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/farmveda/agritrust-backend/internal/models"
)

// Verification codes look like PA-TURMERIC-1735689600000-7KQ2XN: a fixed
// product-authenticity prefix, the category, a millisecond timestamp and a
// short random suffix. Human-scannable and collision-resistant in practice;
// the store's unique index is the actual uniqueness guarantee.
const (
	verificationIDPrefix    = "PA"
	verificationIDAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	verificationIDSuffixLen = 6
)

// GenerateVerificationID produces a new verification code for a product in
// the given category. Pure apart from clock and randomness; fails only on an
// unknown category.
func GenerateVerificationID(category models.ProductCategory) (string, error) {
	if !category.IsValid() {
		return "", fmt.Errorf("unknown product category %q", category)
	}

	suffix, err := randomSuffix(verificationIDSuffixLen)
	if err != nil {
		return "", fmt.Errorf("failed to generate id suffix: %w", err)
	}

	return fmt.Sprintf("%s-%s-%d-%s",
		verificationIDPrefix,
		strings.ToUpper(string(category)),
		time.Now().UnixMilli(),
		suffix,
	), nil
}

func randomSuffix(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i, b := range buf {
		buf[i] = verificationIDAlphabet[int(b)%len(verificationIDAlphabet)]
	}
	return string(buf), nil
}
