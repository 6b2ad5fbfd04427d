// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/farmveda/agritrust-backend/internal/models"
	"github.com/farmveda/agritrust-backend/internal/utils"
)

type ProductService struct {
	db           *gorm.DB
	verification *VerificationService
}

type CreateProductRequest struct {
	Name         string                 `json:"name" validate:"required,min=3,max=255"`
	Description  string                 `json:"description" validate:"required,min=10"`
	Category     models.ProductCategory `json:"category" validate:"required"`
	Price        float64                `json:"price" validate:"required,min=0.01"`
	Quantity     float64                `json:"quantity" validate:"min=0"`
	Unit         string                 `json:"unit,omitempty"`
	FarmName     string                 `json:"farm_name,omitempty"`
	FarmLocation string                 `json:"farm_location,omitempty"`
	HarvestDate  *time.Time             `json:"harvest_date,omitempty"`
	Images       []string               `json:"images,omitempty"`
}

type UpdateProductRequest struct {
	Name         string     `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Description  string     `json:"description,omitempty" validate:"omitempty,min=10"`
	Price        float64    `json:"price,omitempty" validate:"omitempty,min=0.01"`
	Quantity     *float64   `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Unit         string     `json:"unit,omitempty"`
	FarmName     string     `json:"farm_name,omitempty"`
	FarmLocation string     `json:"farm_location,omitempty"`
	HarvestDate  *time.Time `json:"harvest_date,omitempty"`
	Images       []string   `json:"images,omitempty"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	FarmerID *uuid.UUID `json:"farmer_id,omitempty"`
	PriceMin *float64   `json:"price_min,omitempty"`
	PriceMax *float64   `json:"price_max,omitempty"`
	Location string     `json:"location,omitempty"`
}

func NewProductService(db *gorm.DB, verification *VerificationService) *ProductService {
	return &ProductService{
		db:           db,
		verification: verification,
	}
}

// CreateProduct creates a listing and submits it into the verification
// workflow; the listing stays invisible to buyers until approved.
func (s *ProductService) CreateProduct(ctx context.Context, farmerID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if !req.Category.IsValid() {
		return nil, fmt.Errorf("unknown product category %q", req.Category)
	}

	var farmer models.User
	if err := s.db.First(&farmer, farmerID).Error; err != nil {
		return nil, fmt.Errorf("farmer not found: %w", err)
	}

	if farmer.Status != models.UserStatusActive {
		return nil, errors.New("farmer account is not active")
	}

	if farmer.UserType != models.UserTypeFarmer {
		return nil, errors.New("only farmers can list products")
	}

	unit := req.Unit
	if unit == "" {
		unit = "kg"
	}

	product := &models.Product{
		FarmerID:           farmerID,
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		Price:              req.Price,
		Quantity:           req.Quantity,
		Unit:               unit,
		FarmName:           req.FarmName,
		FarmLocation:       req.FarmLocation,
		HarvestDate:        req.HarvestDate,
		Images:             req.Images,
		VerificationStatus: models.VerificationStatusPending,
		IsActive:           true,
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	actor := Actor{ID: &farmerID, Name: farmer.Username}
	if _, err := s.verification.SubmitForVerification(ctx, product.ID, farmerID, models.VerificationTypeInitial, actor); err != nil {
		return nil, fmt.Errorf("failed to submit product for verification: %w", err)
	}

	s.db.Preload("Farmer").Preload("Verifications").First(product, product.ID)

	return product, nil
}

func (s *ProductService) GetProduct(id uuid.UUID, userID *uuid.UUID) (*models.Product, error) {
	var product models.Product
	query := s.db.Preload("Farmer").
		Preload("Verifications", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") })

	if err := query.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Unapproved or deactivated listings are visible only to the owner and admins.
	if product.VerificationStatus != models.VerificationStatusApproved || !product.IsActive {
		if userID == nil {
			return nil, errors.New("product not found")
		}
		if *userID != product.FarmerID {
			var user models.User
			if err := s.db.First(&user, *userID).Error; err != nil || user.UserType != models.UserTypeAdmin {
				return nil, errors.New("product not found")
			}
		}
	}

	return &product, nil
}

func (s *ProductService) UpdateProduct(id uuid.UUID, farmerID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.FarmerID != farmerID {
		return nil, errors.New("unauthorized to update this product")
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Price > 0 {
		updates["price"] = req.Price
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.Unit != "" {
		updates["unit"] = req.Unit
	}
	if req.FarmName != "" {
		updates["farm_name"] = req.FarmName
	}
	if req.FarmLocation != "" {
		updates["farm_location"] = req.FarmLocation
	}
	if req.HarvestDate != nil {
		updates["harvest_date"] = req.HarvestDate
	}
	if req.Images != nil {
		updates["images"] = pq.StringArray(req.Images)
	}

	if err := s.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.db.Preload("Farmer").First(&product, id)

	return &product, nil
}

// DeactivateProduct takes a listing off the marketplace. Listings are never
// hard-deleted; verification history stays attached.
func (s *ProductService) DeactivateProduct(id uuid.UUID, farmerID uuid.UUID) error {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("product not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if product.FarmerID != farmerID {
		return errors.New("unauthorized to deactivate this product")
	}

	if err := s.db.Model(&product).UpdateColumn("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}

	return nil
}

// SearchProducts lists approved, active produce for buyers.
func (s *ProductService) SearchProducts(params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Preload("Farmer").
		Where("verification_status = ? AND is_active = ?", models.VerificationStatusApproved, true)

	if params.FarmerID != nil {
		query = query.Where("farmer_id = ?", *params.FarmerID)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	if params.Location != "" {
		query = query.Where("LOWER(farm_location) LIKE ?", "%"+strings.ToLower(params.Location)+"%")
	}

	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}

	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "price", "harvest_date"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

// GetFarmerProducts lists a farmer's own products regardless of status.
func (s *ProductService) GetFarmerProducts(farmerID uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Where("farmer_id = ?", farmerID).
		Preload("Verifications", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") })

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count farmer products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "verification_status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch farmer products: %w", err)
	}

	return products, total, nil
}

// ResubmitForVerification creates a fresh verification record for a product
// whose previous record reached a terminal state (re-listing after
// rejection, or a scheduled re-audit).
func (s *ProductService) ResubmitForVerification(ctx context.Context, productID, farmerID uuid.UUID, verificationType models.VerificationType) (*models.VerificationRecord, error) {
	var farmer models.User
	if err := s.db.First(&farmer, farmerID).Error; err != nil {
		return nil, fmt.Errorf("farmer not found: %w", err)
	}

	actor := Actor{ID: &farmerID, Name: farmer.Username}
	return s.verification.SubmitForVerification(ctx, productID, farmerID, verificationType, actor)
}
