// internal/services/verification_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/farmveda/agritrust-backend/internal/config"
	"github.com/farmveda/agritrust-backend/internal/models"
	"github.com/farmveda/agritrust-backend/internal/utils"
	"github.com/farmveda/agritrust-backend/internal/workflows"
)

// VerificationService owns the product verification workflow: it validates
// status transitions, assigns verification codes, anchors approvals on the
// ledger, maintains the per-record timeline and audit trail, and freezes SLA
// metrics at terminal decisions. All record mutations go through here.
type VerificationService struct {
	store         VerificationStore
	ledger        LedgerAdapter
	machine       *workflows.StateMachine
	notifications *NotificationService
	cfg           *config.Config

	// now is swapped in tests for deterministic SLA math.
	now func() time.Time
}

// Actor identifies who performed an operation. The engine records identity,
// it does not authenticate.
type Actor struct {
	ID   *uuid.UUID `json:"id"`
	Name string     `json:"name"`
}

// TransitionRequest is the payload of a transition call. Scores may ride
// along on in-progress and approved transitions; nothing is persisted unless
// the transition as a whole succeeds.
type TransitionRequest struct {
	Status             models.RecordStatus    `json:"status" validate:"required,oneof=pending in_progress approved rejected requires_more_info"`
	Notes              string                 `json:"notes,omitempty"`
	RejectionReason    string                 `json:"rejection_reason,omitempty"`
	DocumentationScore *float64               `json:"documentation_score,omitempty" validate:"omitempty,min=0,max=10"`
	QualityScore       *float64               `json:"quality_score,omitempty" validate:"omitempty,min=0,max=10"`
	AuthenticityScore  *float64               `json:"authenticity_score,omitempty" validate:"omitempty,min=0,max=10"`
	Meta               map[string]interface{} `json:"-"`
}

// StatsSummary aggregates verification outcomes over a creation-time window.
type StatsSummary struct {
	From                   time.Time                    `json:"from"`
	To                     time.Time                    `json:"to"`
	TotalRecords           int                          `json:"total_records"`
	CountsByStatus         map[models.RecordStatus]int  `json:"counts_by_status"`
	AverageOverallScore    float64                      `json:"average_overall_score"`
	ScoredRecords          int                          `json:"scored_records"`
	AverageTurnaroundHours float64                      `json:"average_turnaround_hours"`
	CompletedRecords       int                          `json:"completed_records"`
	WithinSLARate          float64                      `json:"within_sla_rate"`
}

func NewVerificationService(store VerificationStore, ledger LedgerAdapter, notifications *NotificationService, cfg *config.Config) *VerificationService {
	return &VerificationService{
		store:         store,
		ledger:        ledger,
		machine:       workflows.NewStateMachine(),
		notifications: notifications,
		cfg:           cfg,
		now:           time.Now,
	}
}

// ComputeOverallScore is the weighted sum of the three criteria scores.
// Derivation is explicit and pure; nothing recomputes it behind the engine's
// back.
func ComputeOverallScore(documentation, quality, authenticity float64, cfg config.VerificationConfig) float64 {
	return documentation*cfg.DocumentationWeight +
		quality*cfg.QualityWeight +
		authenticity*cfg.AuthenticityWeight
}

// SubmitForVerification creates a pending verification record for a product.
// The verification code is assigned here, exactly once, and never
// regenerated for the lifetime of the record.
func (s *VerificationService) SubmitForVerification(ctx context.Context, productID, farmerID uuid.UUID, verificationType models.VerificationType, actor Actor) (*models.VerificationRecord, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.FarmerID != farmerID {
		return nil, fmt.Errorf("product %s does not belong to farmer %s", productID, farmerID)
	}

	if verificationType == "" {
		verificationType = models.VerificationTypeInitial
	}

	code, err := GenerateVerificationID(product.Category)
	if err != nil {
		return nil, err
	}

	record := &models.VerificationRecord{
		ProductID:        productID,
		FarmerID:         farmerID,
		VerificationType: verificationType,
		Status:           models.RecordStatusPending,
		VerificationID:   code,
		SLATargetHours:   s.cfg.Verification.SLATargetHours,
		Version:          1,
	}

	if err := s.store.CreateRecord(ctx, record); err != nil {
		return nil, err
	}

	// A product entering (re)verification is no longer considered approved.
	if err := s.store.SetProductVerificationStatus(ctx, productID, models.VerificationStatusPending); err != nil {
		logrus.WithError(err).WithField("product_id", productID).Warn("Failed to mirror pending status onto product")
	}

	s.appendTimeline(ctx, record.ID, models.StageSubmitted, actor, fmt.Sprintf("submitted for %s verification", verificationType))
	s.appendAudit(ctx, record.ID, models.AuditActionSubmit, actor, models.JSONB{
		"new": map[string]interface{}{
			"status":          string(models.RecordStatusPending),
			"verification_id": code,
		},
	}, nil, "")

	return s.store.GetRecord(ctx, record.ID)
}

// Transition moves a record along one edge of the state machine. Exactly one
// audit entry is appended per call, for failures too; a failed call leaves
// the record row untouched.
func (s *VerificationService) Transition(ctx context.Context, recordID uuid.UUID, actor Actor, req *TransitionRequest) (*models.VerificationRecord, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	record, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if !s.machine.CanTransition(record.Status, req.Status) {
		terr := fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, record.Status, req.Status)
		s.auditFailure(ctx, record.ID, actor, req, terr)
		return nil, terr
	}

	now := s.now()
	patch := map[string]interface{}{"status": req.Status}
	oldValues := map[string]interface{}{"status": string(record.Status)}
	newValues := map[string]interface{}{"status": string(req.Status)}

	type stageNote struct {
		stage models.TimelineStage
		notes string
	}
	var stages []stageNote

	switch req.Status {
	case models.RecordStatusInProgress:
		if actor.ID != nil {
			patch["verified_by"] = *actor.ID
			newValues["verified_by"] = actor.ID.String()
		}
		s.applyScores(patch, oldValues, newValues, record, req)
		stages = append(stages, stageNote{models.StageUnderReview, req.Notes})

	case models.RecordStatusPending:
		// Resubmission after requires_more_info. The verification code was
		// assigned at creation and stays as it is.
		notes := req.Notes
		if notes == "" {
			notes = "resubmitted with additional evidence"
		}
		stages = append(stages, stageNote{models.StageSubmitted, notes})

	case models.RecordStatusRequiresMoreInfo:
		s.applyScores(patch, oldValues, newValues, record, req)

	case models.RecordStatusRejected:
		if strings.TrimSpace(req.RejectionReason) == "" {
			s.auditFailure(ctx, record.ID, actor, req, ErrRejectionReasonRequired)
			return nil, ErrRejectionReasonRequired
		}
		patch["rejection_reason"] = req.RejectionReason
		oldValues["rejection_reason"] = record.RejectionReason
		newValues["rejection_reason"] = req.RejectionReason
		s.freezeSLA(patch, newValues, record, now)
		stages = append(stages, stageNote{models.StageRejected, req.RejectionReason})

	case models.RecordStatusApproved:
		s.applyScores(patch, oldValues, newValues, record, req)

		doc := pickScore(req.DocumentationScore, record.DocumentationScore)
		quality := pickScore(req.QualityScore, record.QualityScore)
		authenticity := pickScore(req.AuthenticityScore, record.AuthenticityScore)
		if doc == nil || quality == nil || authenticity == nil {
			s.auditFailure(ctx, record.ID, actor, req, ErrIncompleteCriteria)
			return nil, ErrIncompleteCriteria
		}

		overall := ComputeOverallScore(*doc, *quality, *authenticity, s.cfg.Verification)
		patch["overall_score"] = overall
		newValues["overall_score"] = overall

		// The one blocking step in the happy path; bounded by the ledger
		// timeout. Anchoring before the conditional write guarantees the
		// record never reads approved without a receipt.
		anchorCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Ledger.TimeoutSeconds)*time.Second)
		receipt, err := s.ledger.Anchor(anchorCtx, s.anchorRequest(record))
		cancel()
		if err != nil {
			aerr := fmt.Errorf("%w: %v", ErrLedgerAnchoringFailed, err)
			s.auditFailure(ctx, record.ID, actor, req, aerr)
			return nil, aerr
		}

		patch["ledger_tx_hash"] = receipt.TransactionHash
		patch["ledger_block_number"] = receipt.BlockNumber
		patch["ledger_address"] = receipt.LedgerAddress
		patch["ledger_anchored_at"] = receipt.Timestamp
		newValues["ledger_tx_hash"] = receipt.TransactionHash
		s.freezeSLA(patch, newValues, record, now)

		stages = append(stages,
			stageNote{models.StageQualityTesting, "criteria scoring completed"},
			stageNote{models.StageBlockchainRecording, "anchored in tx " + receipt.TransactionHash},
			stageNote{models.StageCompleted, req.Notes},
		)
	}

	if _, err := s.store.UpdateRecord(ctx, record.ID, record.Version, patch); err != nil {
		s.auditFailure(ctx, record.ID, actor, req, err)
		return nil, err
	}

	if req.Status.IsTerminal() {
		verdict := models.VerificationStatusApproved
		if req.Status == models.RecordStatusRejected {
			verdict = models.VerificationStatusRejected
		}
		if err := s.store.SetProductVerificationStatus(ctx, record.ProductID, verdict); err != nil {
			logrus.WithError(err).WithField("product_id", record.ProductID).Warn("Failed to mirror verdict onto product")
		}
	}

	for _, st := range stages {
		s.appendTimeline(ctx, record.ID, st.stage, actor, st.notes)
	}

	s.appendAudit(ctx, record.ID, models.AuditActionTransition, actor,
		models.JSONB{"old": oldValues, "new": newValues}, req.Meta, "")

	if s.notifications != nil && (req.Status.IsTerminal() || req.Status == models.RecordStatusRequiresMoreInfo) {
		go s.notifications.SendVerificationDecision(record.FarmerID, record.VerificationID, req.Status, req.RejectionReason)
	}

	return s.store.GetRecord(ctx, record.ID)
}

// PreviewScore computes the weighted sum for a partially reviewed record
// without persisting anything. Returns nil until all three scores exist.
func (s *VerificationService) PreviewScore(ctx context.Context, recordID uuid.UUID) (*float64, error) {
	record, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !record.CriteriaComplete() {
		return nil, nil
	}
	overall := ComputeOverallScore(*record.DocumentationScore, *record.QualityScore, *record.AuthenticityScore, s.cfg.Verification)
	return &overall, nil
}

// ListByStatus returns the verification queue for one status.
func (s *VerificationService) ListByStatus(ctx context.Context, status models.RecordStatus) ([]models.VerificationRecord, error) {
	return s.store.FindByStatus(ctx, status)
}

// GetRecord returns one record with its timeline and audit trail.
func (s *VerificationService) GetRecord(ctx context.Context, recordID uuid.UUID) (*models.VerificationRecord, error) {
	return s.store.GetRecord(ctx, recordID)
}

// VerifyByCode resolves a verification code for the public trust page. Only
// approved records verify; anything else reports unverified without leaking
// review state.
func (s *VerificationService) VerifyByCode(ctx context.Context, code string) (*models.VerificationRecord, bool, error) {
	record, err := s.store.FindByVerificationID(ctx, code)
	if err != nil {
		return nil, false, err
	}
	return record, record.Status == models.RecordStatusApproved, nil
}

// ScheduleReverification attaches a forward-looking re-audit marker to the
// latest approved record of a product.
func (s *VerificationService) ScheduleReverification(ctx context.Context, productID uuid.UUID, date time.Time, reason string, priority models.ReverificationPriority, actor Actor) (*models.VerificationRecord, error) {
	record, err := s.store.FindLatestForProduct(ctx, productID, models.RecordStatusApproved)
	if err != nil {
		return nil, err
	}

	if priority == "" {
		priority = models.ReverificationPriorityMedium
	}

	patch := map[string]interface{}{
		"next_verification_date":     date,
		"next_verification_reason":   reason,
		"next_verification_priority": priority,
	}

	updated, err := s.store.UpdateRecord(ctx, record.ID, record.Version, patch)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, record.ID, models.AuditActionScheduleReverification, actor, models.JSONB{
		"new": map[string]interface{}{
			"next_verification_date":     date.Format(time.RFC3339),
			"next_verification_reason":   reason,
			"next_verification_priority": string(priority),
		},
	}, nil, "")

	return updated, nil
}

// DueForReverification lists approved records whose re-audit date has
// passed; an external scheduler turns these into new pending records.
func (s *VerificationService) DueForReverification(ctx context.Context, now time.Time) ([]models.VerificationRecord, error) {
	return s.store.FindDueForReverification(ctx, now)
}

// GetStats aggregates outcomes over records created in [from, to). Pure
// read, no mutation.
func (s *VerificationService) GetStats(ctx context.Context, from, to time.Time) (*StatsSummary, error) {
	records, err := s.store.FindCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := &StatsSummary{
		From:           from,
		To:             to,
		TotalRecords:   len(records),
		CountsByStatus: make(map[models.RecordStatus]int),
	}

	var scoreSum, hoursSum float64
	var withinSLA int
	for i := range records {
		r := &records[i]
		summary.CountsByStatus[r.Status]++
		if r.OverallScore != nil {
			scoreSum += *r.OverallScore
			summary.ScoredRecords++
		}
		if r.SLAActualHours != nil {
			hoursSum += *r.SLAActualHours
			summary.CompletedRecords++
			if r.SLAWithinTarget != nil && *r.SLAWithinTarget {
				withinSLA++
			}
		}
	}

	if summary.ScoredRecords > 0 {
		summary.AverageOverallScore = scoreSum / float64(summary.ScoredRecords)
	}
	if summary.CompletedRecords > 0 {
		summary.AverageTurnaroundHours = hoursSum / float64(summary.CompletedRecords)
		summary.WithinSLARate = float64(withinSLA) / float64(summary.CompletedRecords)
	}

	return summary, nil
}

// Helper methods

func (s *VerificationService) anchorRequest(record *models.VerificationRecord) *AnchorRequest {
	snapshot := map[string]interface{}{
		"product_id": record.ProductID.String(),
	}
	if record.Product.ID != uuid.Nil {
		snapshot["name"] = record.Product.Name
		snapshot["category"] = string(record.Product.Category)
		snapshot["farm_name"] = record.Product.FarmName
		snapshot["farm_location"] = record.Product.FarmLocation
		if record.Product.HarvestDate != nil {
			snapshot["harvest_date"] = record.Product.HarvestDate.Format("2006-01-02")
		}
	}

	req := &AnchorRequest{
		VerificationID:  record.VerificationID,
		FarmerID:        record.FarmerID,
		ProductSnapshot: snapshot,
	}
	if record.Farmer.ID != uuid.Nil {
		req.FarmerName = record.Farmer.Username
	}
	return req
}

func (s *VerificationService) applyScores(patch, oldValues, newValues map[string]interface{}, record *models.VerificationRecord, req *TransitionRequest) {
	if req.DocumentationScore != nil {
		patch["documentation_score"] = *req.DocumentationScore
		oldValues["documentation_score"] = record.DocumentationScore
		newValues["documentation_score"] = *req.DocumentationScore
	}
	if req.QualityScore != nil {
		patch["quality_score"] = *req.QualityScore
		oldValues["quality_score"] = record.QualityScore
		newValues["quality_score"] = *req.QualityScore
	}
	if req.AuthenticityScore != nil {
		patch["authenticity_score"] = *req.AuthenticityScore
		oldValues["authenticity_score"] = record.AuthenticityScore
		newValues["authenticity_score"] = *req.AuthenticityScore
	}
}

// freezeSLA derives turnaround metrics at the first terminal transition.
// Terminal states have no outgoing edges, so the values are never rewritten.
func (s *VerificationService) freezeSLA(patch, newValues map[string]interface{}, record *models.VerificationRecord, now time.Time) {
	if record.SLAActualHours != nil {
		return
	}
	actual := now.Sub(record.CreatedAt).Hours()
	within := actual <= float64(record.SLATargetHours)
	patch["sla_actual_hours"] = actual
	patch["sla_within_target"] = within
	newValues["sla_actual_hours"] = actual
	newValues["sla_within_target"] = within
}

func (s *VerificationService) appendTimeline(ctx context.Context, recordID uuid.UUID, stage models.TimelineStage, actor Actor, notes string) {
	entry := &models.VerificationTimelineEntry{
		RecordID: recordID,
		Stage:    stage,
		ActorID:  actor.ID,
		Actor:    actor.Name,
		Notes:    notes,
	}
	if err := s.store.AppendTimeline(ctx, entry); err != nil {
		logrus.WithError(err).WithField("record_id", recordID).Error("Failed to append timeline entry")
	}
}

func (s *VerificationService) appendAudit(ctx context.Context, recordID uuid.UUID, action string, actor Actor, changes models.JSONB, meta map[string]interface{}, errMsg string) {
	entry := &models.VerificationAuditEntry{
		RecordID: recordID,
		Action:   action,
		ActorID:  actor.ID,
		Actor:    actor.Name,
		Changes:  changes,
		Meta:     models.JSONB(meta),
		Error:    errMsg,
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		logrus.WithError(err).WithField("record_id", recordID).Error("Failed to append audit entry")
	}
}

func (s *VerificationService) auditFailure(ctx context.Context, recordID uuid.UUID, actor Actor, req *TransitionRequest, cause error) {
	s.appendAudit(ctx, recordID, models.AuditActionTransitionFailed, actor,
		models.JSONB{"requested_status": string(req.Status)}, req.Meta, cause.Error())
}

func pickScore(fromRequest, fromRecord *float64) *float64 {
	if fromRequest != nil {
		return fromRequest
	}
	return fromRecord
}
