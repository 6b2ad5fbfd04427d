// internal/services/verification_service_test.go
package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmveda/agritrust-backend/internal/config"
	"github.com/farmveda/agritrust-backend/internal/models"
)

// fakeStore is an in-memory VerificationStore used to exercise the workflow
// engine without a database.
type fakeStore struct {
	now      time.Time
	records  map[uuid.UUID]*models.VerificationRecord
	products map[uuid.UUID]*models.Product
	timeline map[uuid.UUID][]models.VerificationTimelineEntry
	audits   map[uuid.UUID][]models.VerificationAuditEntry
}

func newFakeStore(now time.Time) *fakeStore {
	return &fakeStore{
		now:      now,
		records:  make(map[uuid.UUID]*models.VerificationRecord),
		products: make(map[uuid.UUID]*models.Product),
		timeline: make(map[uuid.UUID][]models.VerificationTimelineEntry),
		audits:   make(map[uuid.UUID][]models.VerificationAuditEntry),
	}
}

func (s *fakeStore) CreateRecord(ctx context.Context, record *models.VerificationRecord) error {
	for _, existing := range s.records {
		if existing.VerificationID == record.VerificationID {
			return ErrDuplicateVerificationID
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = s.now
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *fakeStore) GetRecord(ctx context.Context, id uuid.UUID) (*models.VerificationRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	clone := *record
	clone.Timeline = append([]models.VerificationTimelineEntry(nil), s.timeline[id]...)
	clone.AuditLog = append([]models.VerificationAuditEntry(nil), s.audits[id]...)
	if product, ok := s.products[record.ProductID]; ok {
		clone.Product = *product
	}
	return &clone, nil
}

func (s *fakeStore) UpdateRecord(ctx context.Context, id uuid.UUID, expectedVersion int, patch map[string]interface{}) (*models.VerificationRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if record.Version != expectedVersion {
		return nil, ErrConcurrentModification
	}
	applyPatch(record, patch)
	record.Version++
	return s.GetRecord(ctx, id)
}

func (s *fakeStore) FindByStatus(ctx context.Context, status models.RecordStatus) ([]models.VerificationRecord, error) {
	var out []models.VerificationRecord
	for _, record := range s.records {
		if record.Status == status {
			out = append(out, *record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) FindDueForReverification(ctx context.Context, now time.Time) ([]models.VerificationRecord, error) {
	var out []models.VerificationRecord
	for _, record := range s.records {
		if record.Status == models.RecordStatusApproved &&
			record.NextVerificationDate != nil && !record.NextVerificationDate.After(now) {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (s *fakeStore) FindCreatedBetween(ctx context.Context, from, to time.Time) ([]models.VerificationRecord, error) {
	var out []models.VerificationRecord
	for _, record := range s.records {
		if !record.CreatedAt.Before(from) && record.CreatedAt.Before(to) {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (s *fakeStore) FindLatestForProduct(ctx context.Context, productID uuid.UUID, status models.RecordStatus) (*models.VerificationRecord, error) {
	var latest *models.VerificationRecord
	for _, record := range s.records {
		if record.ProductID != productID || record.Status != status {
			continue
		}
		if latest == nil || record.CreatedAt.After(latest.CreatedAt) {
			latest = record
		}
	}
	if latest == nil {
		return nil, ErrRecordNotFound
	}
	clone := *latest
	return &clone, nil
}

func (s *fakeStore) FindByVerificationID(ctx context.Context, code string) (*models.VerificationRecord, error) {
	for id, record := range s.records {
		if record.VerificationID == code {
			return s.GetRecord(ctx, id)
		}
	}
	return nil, ErrRecordNotFound
}

func (s *fakeStore) AppendTimeline(ctx context.Context, entry *models.VerificationTimelineEntry) error {
	entry.CreatedAt = s.now
	s.timeline[entry.RecordID] = append(s.timeline[entry.RecordID], *entry)
	return nil
}

func (s *fakeStore) AppendAudit(ctx context.Context, entry *models.VerificationAuditEntry) error {
	entry.CreatedAt = s.now
	s.audits[entry.RecordID] = append(s.audits[entry.RecordID], *entry)
	return nil
}

func (s *fakeStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, errors.New("product not found")
	}
	clone := *product
	return &clone, nil
}

func (s *fakeStore) SetProductVerificationStatus(ctx context.Context, productID uuid.UUID, status models.VerificationStatus) error {
	product, ok := s.products[productID]
	if !ok {
		return errors.New("product not found")
	}
	product.VerificationStatus = status
	return nil
}

func applyPatch(record *models.VerificationRecord, patch map[string]interface{}) {
	for key, value := range patch {
		switch key {
		case "status":
			record.Status = value.(models.RecordStatus)
		case "verified_by":
			id := value.(uuid.UUID)
			record.VerifiedBy = &id
		case "documentation_score":
			v := value.(float64)
			record.DocumentationScore = &v
		case "quality_score":
			v := value.(float64)
			record.QualityScore = &v
		case "authenticity_score":
			v := value.(float64)
			record.AuthenticityScore = &v
		case "overall_score":
			v := value.(float64)
			record.OverallScore = &v
		case "rejection_reason":
			record.RejectionReason = value.(string)
		case "ledger_tx_hash":
			v := value.(string)
			record.LedgerTxHash = &v
		case "ledger_block_number":
			v := value.(int64)
			record.LedgerBlockNumber = &v
		case "ledger_address":
			v := value.(string)
			record.LedgerAddress = &v
		case "ledger_anchored_at":
			v := value.(time.Time)
			record.LedgerAnchoredAt = &v
		case "sla_actual_hours":
			v := value.(float64)
			record.SLAActualHours = &v
		case "sla_within_target":
			v := value.(bool)
			record.SLAWithinTarget = &v
		case "next_verification_date":
			v := value.(time.Time)
			record.NextVerificationDate = &v
		case "next_verification_reason":
			record.NextVerificationReason = value.(string)
		case "next_verification_priority":
			record.NextVerificationPriority = value.(models.ReverificationPriority)
		}
	}
}

// failingLedger always refuses to anchor.
type failingLedger struct{}

func (failingLedger) Anchor(ctx context.Context, req *AnchorRequest) (*LedgerReceipt, error) {
	return nil, ErrLedgerUnavailable
}

func testConfig() *config.Config {
	return &config.Config{
		Verification: config.VerificationConfig{
			DocumentationWeight: 0.3,
			QualityWeight:       0.4,
			AuthenticityWeight:  0.3,
			SLATargetHours:      48,
		},
		Ledger: config.LedgerConfig{
			Mode:            "mock",
			ContractAddress: "0x7a9fd3bc512f00a41c8e6b9d2f84e3a15c0ffeed",
			TimeoutSeconds:  5,
		},
	}
}

type testEnv struct {
	svc     *VerificationService
	store   *fakeStore
	base    time.Time
	farmer  uuid.UUID
	admin   Actor
	product uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeStore(base)
	svc := NewVerificationService(store, NewMockLedger("0x7a9fd3bc512f00a41c8e6b9d2f84e3a15c0ffeed"), nil, testConfig())
	svc.now = func() time.Time { return store.now }

	farmerID := uuid.New()
	productID := uuid.New()
	store.products[productID] = &models.Product{
		BaseModel:          models.BaseModel{ID: productID},
		FarmerID:           farmerID,
		Name:               "Lakadong turmeric",
		Category:           models.CategoryTurmeric,
		FarmName:           "Sunrise Organic Farm",
		FarmLocation:       "Meghalaya",
		VerificationStatus: models.VerificationStatusPending,
		IsActive:           true,
	}

	adminID := uuid.New()
	return &testEnv{
		svc:     svc,
		store:   store,
		base:    base,
		farmer:  farmerID,
		admin:   Actor{ID: &adminID, Name: "reviewer"},
		product: productID,
	}
}

func (e *testEnv) submit(t *testing.T) *models.VerificationRecord {
	t.Helper()
	record, err := e.svc.SubmitForVerification(context.Background(), e.product, e.farmer,
		models.VerificationTypeInitial, Actor{ID: &e.farmer, Name: "farmer"})
	require.NoError(t, err)
	return record
}

func (e *testEnv) startReview(t *testing.T, recordID uuid.UUID, doc, quality, authenticity float64) *models.VerificationRecord {
	t.Helper()
	record, err := e.svc.Transition(context.Background(), recordID, e.admin, &TransitionRequest{
		Status:             models.RecordStatusInProgress,
		DocumentationScore: &doc,
		QualityScore:       &quality,
		AuthenticityScore:  &authenticity,
	})
	require.NoError(t, err)
	return record
}

func TestSubmitForVerification(t *testing.T) {
	env := newTestEnv(t)

	record := env.submit(t)

	assert.Equal(t, models.RecordStatusPending, record.Status)
	assert.Regexp(t, `^PA-TURMERIC-\d{13}-[A-Z0-9]{6}$`, record.VerificationID)
	assert.Equal(t, 48, record.SLATargetHours)
	assert.Equal(t, 1, record.Version)

	require.Len(t, record.Timeline, 1)
	assert.Equal(t, models.StageSubmitted, record.Timeline[0].Stage)

	require.Len(t, record.AuditLog, 1)
	assert.Equal(t, models.AuditActionSubmit, record.AuditLog[0].Action)

	assert.Equal(t, models.VerificationStatusPending, env.store.products[env.product].VerificationStatus)
}

func TestSubmitRejectsForeignProduct(t *testing.T) {
	env := newTestEnv(t)

	otherFarmer := uuid.New()
	_, err := env.svc.SubmitForVerification(context.Background(), env.product, otherFarmer,
		models.VerificationTypeInitial, Actor{Name: "intruder"})
	assert.Error(t, err)
}

func TestOverallScoreIsWeightedSum(t *testing.T) {
	cfg := testConfig()
	score := ComputeOverallScore(8.0, 8.5, 7.8, cfg.Verification)
	assert.InDelta(t, 8.14, score, 1e-9)
}

func TestApproveAnchorsAndFreezesSLA(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)
	env.startReview(t, record.ID, 8.0, 8.5, 7.8)

	// Decision lands 24h after submission, within the 48h target.
	env.store.now = env.base.Add(24 * time.Hour)

	approved, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusApproved,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RecordStatusApproved, approved.Status)
	require.NotNil(t, approved.OverallScore)
	assert.InDelta(t, 8.14, *approved.OverallScore, 1e-9)

	require.NotNil(t, approved.LedgerTxHash)
	assert.Regexp(t, `^0x[0-9a-f]{64}$`, *approved.LedgerTxHash)
	require.NotNil(t, approved.BlockchainReceipt())

	require.NotNil(t, approved.SLAActualHours)
	assert.InDelta(t, 24.0, *approved.SLAActualHours, 1e-9)
	require.NotNil(t, approved.SLAWithinTarget)
	assert.True(t, *approved.SLAWithinTarget)

	stages := make([]models.TimelineStage, 0, len(approved.Timeline))
	for _, entry := range approved.Timeline {
		stages = append(stages, entry.Stage)
	}
	assert.Equal(t, []models.TimelineStage{
		models.StageSubmitted,
		models.StageUnderReview,
		models.StageQualityTesting,
		models.StageBlockchainRecording,
		models.StageCompleted,
	}, stages)

	assert.Equal(t, models.VerificationStatusApproved, env.store.products[env.product].VerificationStatus)
	assert.Equal(t, 3, approved.Version)
}

func TestLateDecisionBreachesSLA(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)
	env.startReview(t, record.ID, 9.0, 9.0, 9.0)

	env.store.now = env.base.Add(72 * time.Hour)

	approved, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusApproved,
	})
	require.NoError(t, err)

	require.NotNil(t, approved.SLAWithinTarget)
	assert.False(t, *approved.SLAWithinTarget)
	assert.InDelta(t, 72.0, *approved.SLAActualHours, 1e-9)
}

func TestApproveRequiresAllCriteria(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)

	doc := 8.0
	_, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status:             models.RecordStatusInProgress,
		DocumentationScore: &doc,
	})
	require.NoError(t, err)

	_, err = env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusApproved,
	})
	assert.ErrorIs(t, err, ErrIncompleteCriteria)

	current, err := env.svc.GetRecord(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusInProgress, current.Status)
	assert.Nil(t, current.LedgerTxHash)
}

func TestRejectRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)
	env.startReview(t, record.ID, 4.0, 3.0, 2.0)

	_, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status:          models.RecordStatusRejected,
		RejectionReason: "   ",
	})
	assert.ErrorIs(t, err, ErrRejectionReasonRequired)

	current, err := env.svc.GetRecord(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusInProgress, current.Status)

	// The failed attempt still left an audit entry.
	last := current.AuditLog[len(current.AuditLog)-1]
	assert.Equal(t, models.AuditActionTransitionFailed, last.Action)
	assert.NotEmpty(t, last.Error)
}

func TestRejectMirrorsVerdict(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)
	env.startReview(t, record.ID, 4.0, 3.0, 2.0)

	rejected, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status:          models.RecordStatusRejected,
		RejectionReason: "certificates do not match the stated origin",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RecordStatusRejected, rejected.Status)
	assert.Equal(t, "certificates do not match the stated origin", rejected.RejectionReason)
	assert.NotNil(t, rejected.SLAActualHours)
	assert.Nil(t, rejected.LedgerTxHash)
	assert.Equal(t, models.VerificationStatusRejected, env.store.products[env.product].VerificationStatus)
}

func TestInvalidTransitionsAreRefused(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)

	// Cannot skip review.
	_, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusApproved,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	current, err := env.svc.GetRecord(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusPending, current.Status)
	assert.Equal(t, 1, current.Version)
}

func TestTerminalRecordsAreImmutable(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)
	env.startReview(t, record.ID, 8.0, 8.5, 7.8)

	_, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusApproved,
	})
	require.NoError(t, err)

	for _, next := range []models.RecordStatus{
		models.RecordStatusPending,
		models.RecordStatusInProgress,
		models.RecordStatusRejected,
		models.RecordStatusRequiresMoreInfo,
	} {
		_, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
			Status:          next,
			RejectionReason: "n/a",
		})
		assert.ErrorIs(t, err, ErrInvalidTransition, "approved -> %s should be refused", next)
	}
}

func TestRequiresMoreInfoRoundTripKeepsCode(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)
	code := record.VerificationID

	env.startReview(t, record.ID, 6.0, 6.0, 6.0)

	_, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusRequiresMoreInfo,
		Notes:  "need the organic certificate scan",
	})
	require.NoError(t, err)

	resubmitted, err := env.svc.Transition(context.Background(), record.ID,
		Actor{ID: &env.farmer, Name: "farmer"}, &TransitionRequest{
			Status: models.RecordStatusPending,
		})
	require.NoError(t, err)

	assert.Equal(t, models.RecordStatusPending, resubmitted.Status)
	assert.Equal(t, code, resubmitted.VerificationID)
	// Scores survive the round trip for the next reviewer.
	require.NotNil(t, resubmitted.DocumentationScore)
	assert.Equal(t, 6.0, *resubmitted.DocumentationScore)
}

// racingStore simulates another reviewer committing between our read and our
// conditional write.
type racingStore struct {
	*fakeStore
	raced bool
}

func (s *racingStore) GetRecord(ctx context.Context, id uuid.UUID) (*models.VerificationRecord, error) {
	record, err := s.fakeStore.GetRecord(ctx, id)
	if err == nil && !s.raced {
		s.raced = true
		s.fakeStore.records[id].Version++
	}
	return record, err
}

func TestConcurrentModificationDetected(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)

	env.svc.store = &racingStore{fakeStore: env.store}

	_, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusInProgress,
	})
	assert.ErrorIs(t, err, ErrConcurrentModification)

	// Nothing moved; the next reviewer sees the record as the winner left it.
	current, err := env.svc.GetRecord(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusPending, current.Status)
}

func TestFailedAnchorLeavesRecordRetryable(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)
	env.startReview(t, record.ID, 8.0, 8.5, 7.8)

	env.svc.ledger = failingLedger{}

	_, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusApproved,
	})
	assert.ErrorIs(t, err, ErrLedgerAnchoringFailed)

	current, err := env.svc.GetRecord(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusInProgress, current.Status)
	assert.Nil(t, current.LedgerTxHash)
	assert.Nil(t, current.SLAActualHours)

	// The ledger recovers; the same approval goes through.
	env.svc.ledger = NewMockLedger("0x7a9fd3bc512f00a41c8e6b9d2f84e3a15c0ffeed")

	approved, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusApproved,
	})
	require.NoError(t, err)
	assert.NotNil(t, approved.LedgerTxHash)
}

func TestAuditTrailGrowsMonotonically(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)

	counts := []int{1}
	env.startReview(t, record.ID, 8.0, 8.5, 7.8)
	current, _ := env.svc.GetRecord(context.Background(), record.ID)
	counts = append(counts, len(current.AuditLog))

	// A failed transition also appends.
	env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusPending,
	})
	current, _ = env.svc.GetRecord(context.Background(), record.ID)
	counts = append(counts, len(current.AuditLog))

	env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusApproved,
	})
	current, _ = env.svc.GetRecord(context.Background(), record.ID)
	counts = append(counts, len(current.AuditLog))

	assert.Equal(t, []int{1, 2, 3, 4}, counts)
}

func TestPreviewScoreDoesNotPersist(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)

	score, err := env.svc.PreviewScore(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Nil(t, score)

	env.startReview(t, record.ID, 8.0, 8.5, 7.8)

	score, err = env.svc.PreviewScore(context.Background(), record.ID)
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.InDelta(t, 8.14, *score, 1e-9)

	current, err := env.svc.GetRecord(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Nil(t, current.OverallScore)
}

func TestVerifyByCode(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)

	_, verified, err := env.svc.VerifyByCode(context.Background(), record.VerificationID)
	require.NoError(t, err)
	assert.False(t, verified)

	env.startReview(t, record.ID, 8.0, 8.5, 7.8)
	env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusApproved,
	})

	found, verified, err := env.svc.VerifyByCode(context.Background(), record.VerificationID)
	require.NoError(t, err)
	assert.True(t, verified)
	assert.Equal(t, record.VerificationID, found.VerificationID)

	_, _, err = env.svc.VerifyByCode(context.Background(), "PA-TURMERIC-0000000000000-XXXXXX")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestScheduleAndListReverification(t *testing.T) {
	env := newTestEnv(t)
	record := env.submit(t)
	env.startReview(t, record.ID, 8.0, 8.5, 7.8)
	_, err := env.svc.Transition(context.Background(), record.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusApproved,
	})
	require.NoError(t, err)

	due := env.base.AddDate(0, 6, 0)
	scheduled, err := env.svc.ScheduleReverification(context.Background(), env.product, due,
		"seasonal re-audit", models.ReverificationPriorityHigh, env.admin)
	require.NoError(t, err)

	require.NotNil(t, scheduled.NextVerificationDate)
	assert.True(t, scheduled.NextVerificationDate.Equal(due))
	assert.Equal(t, models.ReverificationPriorityHigh, scheduled.NextVerificationPriority)

	none, err := env.svc.DueForReverification(context.Background(), due.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Empty(t, none)

	dueList, err := env.svc.DueForReverification(context.Background(), due)
	require.NoError(t, err)
	require.Len(t, dueList, 1)
	assert.Equal(t, record.ID, dueList[0].ID)
}

func TestScheduleReverificationNeedsApprovedRecord(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t)

	_, err := env.svc.ScheduleReverification(context.Background(), env.product,
		env.base.AddDate(0, 6, 0), "audit", models.ReverificationPriorityLow, env.admin)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGetStats(t *testing.T) {
	env := newTestEnv(t)

	// First product approved within SLA.
	first := env.submit(t)
	env.startReview(t, first.ID, 8.0, 8.5, 7.8)
	env.store.now = env.base.Add(12 * time.Hour)
	_, err := env.svc.Transition(context.Background(), first.ID, env.admin, &TransitionRequest{
		Status: models.RecordStatusApproved,
	})
	require.NoError(t, err)

	// Second product rejected past the SLA target.
	secondProduct := uuid.New()
	env.store.products[secondProduct] = &models.Product{
		BaseModel:          models.BaseModel{ID: secondProduct},
		FarmerID:           env.farmer,
		Name:               "Basmati rice",
		Category:           models.CategoryRice,
		VerificationStatus: models.VerificationStatusPending,
		IsActive:           true,
	}
	env.store.now = env.base
	second, err := env.svc.SubmitForVerification(context.Background(), secondProduct, env.farmer,
		models.VerificationTypeInitial, Actor{ID: &env.farmer, Name: "farmer"})
	require.NoError(t, err)
	env.startReview(t, second.ID, 3.0, 2.0, 2.0)
	env.store.now = env.base.Add(60 * time.Hour)
	_, err = env.svc.Transition(context.Background(), second.ID, env.admin, &TransitionRequest{
		Status:          models.RecordStatusRejected,
		RejectionReason: "failed quality testing",
	})
	require.NoError(t, err)

	stats, err := env.svc.GetStats(context.Background(), env.base.Add(-time.Hour), env.base.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, 1, stats.CountsByStatus[models.RecordStatusApproved])
	assert.Equal(t, 1, stats.CountsByStatus[models.RecordStatusRejected])

	// Only the approved record carries an overall score.
	assert.Equal(t, 1, stats.ScoredRecords)
	assert.InDelta(t, 8.14, stats.AverageOverallScore, 1e-9)

	assert.Equal(t, 2, stats.CompletedRecords)
	assert.InDelta(t, 36.0, stats.AverageTurnaroundHours, 1e-9)
	assert.InDelta(t, 0.5, stats.WithinSLARate, 1e-9)
}
