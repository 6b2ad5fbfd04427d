// internal/services/verification_store.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/farmveda/agritrust-backend/internal/models"
)

// VerificationStore is the persistence boundary the workflow engine depends
// on. Records are mutated only through the version-guarded UpdateRecord;
// timeline and audit rows are append-only.
type VerificationStore interface {
	CreateRecord(ctx context.Context, record *models.VerificationRecord) error
	GetRecord(ctx context.Context, id uuid.UUID) (*models.VerificationRecord, error)
	// UpdateRecord applies patch only if the stored version still equals
	// expectedVersion, bumping the version on success. A lost race returns
	// ErrConcurrentModification.
	UpdateRecord(ctx context.Context, id uuid.UUID, expectedVersion int, patch map[string]interface{}) (*models.VerificationRecord, error)
	FindByStatus(ctx context.Context, status models.RecordStatus) ([]models.VerificationRecord, error)
	FindDueForReverification(ctx context.Context, now time.Time) ([]models.VerificationRecord, error)
	FindCreatedBetween(ctx context.Context, from, to time.Time) ([]models.VerificationRecord, error)
	FindLatestForProduct(ctx context.Context, productID uuid.UUID, status models.RecordStatus) (*models.VerificationRecord, error)
	FindByVerificationID(ctx context.Context, code string) (*models.VerificationRecord, error)

	AppendTimeline(ctx context.Context, entry *models.VerificationTimelineEntry) error
	AppendAudit(ctx context.Context, entry *models.VerificationAuditEntry) error

	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// SetProductVerificationStatus mirrors the record verdict onto the
	// product row; only the workflow engine calls it.
	SetProductVerificationStatus(ctx context.Context, productID uuid.UUID, status models.VerificationStatus) error
}

type gormVerificationStore struct {
	db *gorm.DB
}

// NewVerificationStore returns the GORM/Postgres-backed store.
func NewVerificationStore(db *gorm.DB) VerificationStore {
	return &gormVerificationStore{db: db}
}

func (s *gormVerificationStore) CreateRecord(ctx context.Context, record *models.VerificationRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateVerificationID, record.VerificationID)
		}
		return fmt.Errorf("failed to create verification record: %w", err)
	}
	return nil
}

func (s *gormVerificationStore) GetRecord(ctx context.Context, id uuid.UUID) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	err := s.db.WithContext(ctx).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("AuditLog", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Product").Preload("Farmer").Preload("Verifier").
		First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &record, nil
}

func (s *gormVerificationStore) UpdateRecord(ctx context.Context, id uuid.UUID, expectedVersion int, patch map[string]interface{}) (*models.VerificationRecord, error) {
	updates := make(map[string]interface{}, len(patch)+1)
	for k, v := range patch {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")

	result := s.db.WithContext(ctx).Model(&models.VerificationRecord{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return nil, fmt.Errorf("%w: record %s", ErrDuplicateVerificationID, id)
		}
		return nil, fmt.Errorf("failed to update verification record: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Either the record vanished or someone else won the version race.
		var count int64
		s.db.WithContext(ctx).Model(&models.VerificationRecord{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return nil, ErrRecordNotFound
		}
		return nil, ErrConcurrentModification
	}

	return s.GetRecord(ctx, id)
}

func (s *gormVerificationStore) FindByStatus(ctx context.Context, status models.RecordStatus) ([]models.VerificationRecord, error) {
	var records []models.VerificationRecord
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Preload("Product").Preload("Farmer").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records by status: %w", err)
	}
	return records, nil
}

func (s *gormVerificationStore) FindDueForReverification(ctx context.Context, now time.Time) ([]models.VerificationRecord, error) {
	var records []models.VerificationRecord
	err := s.db.WithContext(ctx).
		Where("status = ? AND next_verification_date IS NOT NULL AND next_verification_date <= ?",
			models.RecordStatusApproved, now).
		Order("next_verification_date ASC").
		Preload("Product").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records due for reverification: %w", err)
	}
	return records, nil
}

func (s *gormVerificationStore) FindCreatedBetween(ctx context.Context, from, to time.Time) ([]models.VerificationRecord, error) {
	var records []models.VerificationRecord
	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records in range: %w", err)
	}
	return records, nil
}

func (s *gormVerificationStore) FindLatestForProduct(ctx context.Context, productID uuid.UUID, status models.RecordStatus) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, status).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &record, nil
}

func (s *gormVerificationStore) FindByVerificationID(ctx context.Context, code string) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	err := s.db.WithContext(ctx).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Product").Preload("Farmer").
		Where("verification_id = ?", code).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &record, nil
}

func (s *gormVerificationStore) AppendTimeline(ctx context.Context, entry *models.VerificationTimelineEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append timeline entry: %w", err)
	}
	return nil
}

func (s *gormVerificationStore) AppendAudit(ctx context.Context, entry *models.VerificationAuditEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *gormVerificationStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Preload("Farmer").First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *gormVerificationStore) SetProductVerificationStatus(ctx context.Context, productID uuid.UUID, status models.VerificationStatus) error {
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("verification_status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update product verification status: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-index violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
