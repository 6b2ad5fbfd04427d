// internal/models/verification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationRecord is one pass of a product through the verification
// workflow. A product accumulates records over its lifetime (initial
// verification, re-verifications, audits); terminal records are immutable.
type VerificationRecord struct {
	BaseModel
	ProductID        uuid.UUID        `json:"product_id" gorm:"type:uuid;not null;index"`
	FarmerID         uuid.UUID        `json:"farmer_id" gorm:"type:uuid;not null;index"`
	VerifiedBy       *uuid.UUID       `json:"verified_by" gorm:"type:uuid"`
	VerificationType VerificationType `json:"verification_type" gorm:"type:varchar(30);not null;default:'initial'"`
	Status           RecordStatus     `json:"status" gorm:"type:varchar(30);not null;default:'pending';index"`

	// VerificationID is the human-readable code assigned exactly once at
	// creation. The unique index is the actual uniqueness guarantee.
	VerificationID string `json:"verification_id" gorm:"uniqueIndex;size:64;not null"`

	// Criteria sub-scores, each 0-10. Nil means not yet scored.
	DocumentationScore *float64 `json:"documentation_score" gorm:"type:decimal(4,2)"`
	QualityScore       *float64 `json:"quality_score" gorm:"type:decimal(4,2)"`
	AuthenticityScore  *float64 `json:"authenticity_score" gorm:"type:decimal(4,2)"`

	// OverallScore is derived, never set directly; persisted only once the
	// record is approved.
	OverallScore *float64 `json:"overall_score" gorm:"type:decimal(4,2)"`

	RejectionReason string `json:"rejection_reason,omitempty" gorm:"type:text"`

	// Ledger receipt columns, populated only by a successful anchoring call
	// during the approved transition.
	LedgerTxHash      *string    `json:"ledger_tx_hash" gorm:"size:128"`
	LedgerBlockNumber *int64     `json:"ledger_block_number"`
	LedgerAddress     *string    `json:"ledger_address" gorm:"size:128"`
	LedgerAnchoredAt  *time.Time `json:"ledger_anchored_at"`

	// SLA fields. Actual hours and the compliance flag are frozen at the
	// first terminal transition and never recomputed.
	SLATargetHours  int      `json:"sla_target_hours" gorm:"default:48"`
	SLAActualHours  *float64 `json:"sla_actual_hours" gorm:"type:decimal(8,2)"`
	SLAWithinTarget *bool    `json:"sla_within_target" gorm:"column:sla_within_target"`

	// Optional re-audit schedule, only meaningful on approved records.
	NextVerificationDate     *time.Time             `json:"next_verification_date" gorm:"index"`
	NextVerificationReason   string                 `json:"next_verification_reason,omitempty" gorm:"size:255"`
	NextVerificationPriority ReverificationPriority `json:"next_verification_priority,omitempty" gorm:"type:varchar(10)"`

	// Version guards conditional writes; every successful mutation bumps it.
	Version int `json:"version" gorm:"not null;default:1"`

	// Relationships
	Product  Product                     `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Farmer   User                        `json:"farmer,omitempty" gorm:"foreignKey:FarmerID"`
	Verifier *User                       `json:"verifier,omitempty" gorm:"foreignKey:VerifiedBy"`
	Timeline []VerificationTimelineEntry `json:"timeline,omitempty" gorm:"foreignKey:RecordID"`
	AuditLog []VerificationAuditEntry    `json:"audit_log,omitempty" gorm:"foreignKey:RecordID"`
}

// CriteriaComplete reports whether all three sub-scores are present.
func (r *VerificationRecord) CriteriaComplete() bool {
	return r.DocumentationScore != nil && r.QualityScore != nil && r.AuthenticityScore != nil
}

// BlockchainRecord is the anchoring receipt view of a record.
type BlockchainRecord struct {
	TransactionHash string    `json:"transaction_hash"`
	BlockNumber     int64     `json:"block_number"`
	Timestamp       time.Time `json:"timestamp"`
	LedgerAddress   string    `json:"ledger_address"`
}

// BlockchainReceipt returns the anchoring receipt, or nil if the record was
// never anchored.
func (r *VerificationRecord) BlockchainReceipt() *BlockchainRecord {
	if r.LedgerTxHash == nil {
		return nil
	}
	receipt := &BlockchainRecord{TransactionHash: *r.LedgerTxHash}
	if r.LedgerBlockNumber != nil {
		receipt.BlockNumber = *r.LedgerBlockNumber
	}
	if r.LedgerAddress != nil {
		receipt.LedgerAddress = *r.LedgerAddress
	}
	if r.LedgerAnchoredAt != nil {
		receipt.Timestamp = *r.LedgerAnchoredAt
	}
	return receipt
}

// VerificationTimelineEntry is one workflow stage reached by a record.
// Rows are append-only; there is no update path.
type VerificationTimelineEntry struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RecordID  uuid.UUID     `json:"record_id" gorm:"type:uuid;not null;index"`
	Stage     TimelineStage `json:"stage" gorm:"type:varchar(30);not null"`
	ActorID   *uuid.UUID    `json:"actor_id" gorm:"type:uuid"`
	Actor     string        `json:"actor" gorm:"size:100"`
	Notes     string        `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt time.Time     `json:"created_at" gorm:"index"`
}

// VerificationAuditEntry records one action attempted against a record,
// successful or not. Distinct from the timeline: the timeline tracks stages,
// the audit log tracks mutations. Rows are append-only.
type VerificationAuditEntry struct {
	ID       uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RecordID uuid.UUID  `json:"record_id" gorm:"type:uuid;not null;index"`
	Action   string     `json:"action" gorm:"size:100;not null;index"`
	ActorID  *uuid.UUID `json:"actor_id" gorm:"type:uuid"`
	Actor    string     `json:"actor" gorm:"size:100"`
	// Changes holds the old/new values of fields touched by the action.
	Changes JSONB `json:"changes" gorm:"type:jsonb"`
	// Meta holds request metadata (ip, user agent) supplied by the caller.
	Meta      JSONB     `json:"meta" gorm:"type:jsonb"`
	Error     string    `json:"error,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// Audit action names.
const (
	AuditActionSubmit                 = "submit_for_verification"
	AuditActionTransition             = "transition"
	AuditActionTransitionFailed       = "transition_failed"
	AuditActionScheduleReverification = "schedule_reverification"
)
