// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeFarmer UserType = "farmer"
	UserTypeBuyer  UserType = "buyer"
	UserTypeAdmin  UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

// ProductCategory is the fixed set of produce categories the platform lists.
type ProductCategory string

const (
	CategoryTurmeric ProductCategory = "turmeric"
	CategoryRice     ProductCategory = "rice"
	CategoryWheat    ProductCategory = "wheat"
	CategoryMillet   ProductCategory = "millet"
	CategoryMaize    ProductCategory = "maize"
	CategoryCoffee   ProductCategory = "coffee"
	CategoryTea      ProductCategory = "tea"
	CategoryCardamom ProductCategory = "cardamom"
	CategoryPepper   ProductCategory = "pepper"
	CategoryMango    ProductCategory = "mango"
	CategoryBanana   ProductCategory = "banana"
	CategoryTomato   ProductCategory = "tomato"
	CategoryOnion    ProductCategory = "onion"
	CategoryHoney    ProductCategory = "honey"
)

var productCategories = map[ProductCategory]bool{
	CategoryTurmeric: true,
	CategoryRice:     true,
	CategoryWheat:    true,
	CategoryMillet:   true,
	CategoryMaize:    true,
	CategoryCoffee:   true,
	CategoryTea:      true,
	CategoryCardamom: true,
	CategoryPepper:   true,
	CategoryMango:    true,
	CategoryBanana:   true,
	CategoryTomato:   true,
	CategoryOnion:    true,
	CategoryHoney:    true,
}

// AllProductCategories lists the categories in display order.
var AllProductCategories = []ProductCategory{
	CategoryTurmeric, CategoryRice, CategoryWheat, CategoryMillet,
	CategoryMaize, CategoryCoffee, CategoryTea, CategoryCardamom,
	CategoryPepper, CategoryMango, CategoryBanana, CategoryTomato,
	CategoryOnion, CategoryHoney,
}

func (c ProductCategory) IsValid() bool {
	return productCategories[c]
}

func (c ProductCategory) DisplayName() string {
	if len(c) == 0 {
		return ""
	}
	return strings.ToUpper(string(c[0])) + string(c[1:])
}

// VerificationStatus is the product-level verdict, mirrored from the active
// verification record by the workflow engine.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

// RecordStatus is the state of a single verification record.
type RecordStatus string

const (
	RecordStatusPending          RecordStatus = "pending"
	RecordStatusInProgress       RecordStatus = "in_progress"
	RecordStatusApproved         RecordStatus = "approved"
	RecordStatusRejected         RecordStatus = "rejected"
	RecordStatusRequiresMoreInfo RecordStatus = "requires_more_info"
)

// IsTerminal reports whether no further transition is permitted for the record.
func (s RecordStatus) IsTerminal() bool {
	return s == RecordStatusApproved || s == RecordStatusRejected
}

func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusPending, RecordStatusInProgress, RecordStatusApproved,
		RecordStatusRejected, RecordStatusRequiresMoreInfo:
		return true
	}
	return false
}

type VerificationType string

const (
	VerificationTypeInitial        VerificationType = "initial"
	VerificationTypeReverification VerificationType = "re_verification"
	VerificationTypeBatch          VerificationType = "batch"
	VerificationTypeRandomAudit    VerificationType = "random_audit"
	VerificationTypeComplaintBased VerificationType = "complaint_based"
)

type TimelineStage string

const (
	StageSubmitted           TimelineStage = "submitted"
	StageUnderReview         TimelineStage = "under_review"
	StageQualityTesting      TimelineStage = "quality_testing"
	StageBlockchainRecording TimelineStage = "blockchain_recording"
	StageCompleted           TimelineStage = "completed"
	StageRejected            TimelineStage = "rejected"
)

type ReverificationPriority string

const (
	ReverificationPriorityLow    ReverificationPriority = "low"
	ReverificationPriorityMedium ReverificationPriority = "medium"
	ReverificationPriorityHigh   ReverificationPriority = "high"
)
