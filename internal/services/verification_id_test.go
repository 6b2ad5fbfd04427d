// internal/services/verification_id_test.go
package services

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmveda/agritrust-backend/internal/models"
)

func TestGenerateVerificationIDFormat(t *testing.T) {
	code, err := GenerateVerificationID(models.CategoryTurmeric)
	require.NoError(t, err)

	assert.Regexp(t, `^PA-TURMERIC-\d{13}-[A-Z0-9]{6}$`, code)

	// The embedded timestamp is current, not a fixed constant.
	parts := strings.Split(code, "-")
	require.Len(t, parts, 4)
	millis, err := strconv.ParseInt(parts[2], 10, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().UnixMilli(), millis, float64(time.Minute.Milliseconds()))
}

func TestGenerateVerificationIDAllCategories(t *testing.T) {
	for _, category := range models.AllProductCategories {
		code, err := GenerateVerificationID(category)
		require.NoError(t, err, "category %s", category)
		assert.True(t, strings.HasPrefix(code, "PA-"+strings.ToUpper(string(category))+"-"))
	}
}

func TestGenerateVerificationIDRejectsUnknownCategory(t *testing.T) {
	_, err := GenerateVerificationID(models.ProductCategory("durian"))
	assert.Error(t, err)
}

func TestGenerateVerificationIDSuffixesVary(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateVerificationID(models.CategoryRice)
		require.NoError(t, err)
		suffix := code[strings.LastIndex(code, "-")+1:]
		seen[suffix] = true
	}
	// 50 draws from a 36^6 space collide astronomically rarely.
	assert.Greater(t, len(seen), 45)
}
