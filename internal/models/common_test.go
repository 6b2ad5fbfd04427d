// internal/models/common_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordStatusIsTerminal(t *testing.T) {
	assert.True(t, RecordStatusApproved.IsTerminal())
	assert.True(t, RecordStatusRejected.IsTerminal())

	assert.False(t, RecordStatusPending.IsTerminal())
	assert.False(t, RecordStatusInProgress.IsTerminal())
	assert.False(t, RecordStatusRequiresMoreInfo.IsTerminal())
}

func TestRecordStatusIsValid(t *testing.T) {
	for _, s := range []RecordStatus{
		RecordStatusPending, RecordStatusInProgress, RecordStatusApproved,
		RecordStatusRejected, RecordStatusRequiresMoreInfo,
	} {
		assert.True(t, s.IsValid(), "status %s", s)
	}

	assert.False(t, RecordStatus("archived").IsValid())
	assert.False(t, RecordStatus("").IsValid())
}

func TestProductCategoryIsValid(t *testing.T) {
	for _, c := range AllProductCategories {
		assert.True(t, c.IsValid(), "category %s", c)
	}

	assert.False(t, ProductCategory("durian").IsValid())
	assert.False(t, ProductCategory("Turmeric").IsValid(), "categories are lowercase")
}

func TestProductCategoryDisplayName(t *testing.T) {
	assert.Equal(t, "Turmeric", CategoryTurmeric.DisplayName())
	assert.Equal(t, "Tea", CategoryTea.DisplayName())
	assert.Equal(t, "", ProductCategory("").DisplayName())
}
