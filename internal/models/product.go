// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	FarmerID           uuid.UUID          `json:"farmer_id" gorm:"type:uuid;not null;index"`
	Name               string             `json:"name" gorm:"size:255;not null"`
	Description        string             `json:"description" gorm:"type:text"`
	Category           ProductCategory    `json:"category" gorm:"type:varchar(50);not null;index"`
	Price              float64            `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity           float64            `json:"quantity" gorm:"type:decimal(10,2);default:0"`
	Unit               string             `json:"unit" gorm:"size:20;default:'kg'"`
	FarmName           string             `json:"farm_name" gorm:"size:255"`
	FarmLocation       string             `json:"farm_location" gorm:"size:255"`
	HarvestDate        *time.Time         `json:"harvest_date"`
	Images             pq.StringArray     `json:"images" gorm:"type:text[]"`
	VerificationStatus VerificationStatus `json:"verification_status" gorm:"type:varchar(20);default:'pending';index"`
	IsActive           bool               `json:"is_active" gorm:"default:true;index"`

	// Relationships
	Farmer        User                 `json:"farmer,omitempty" gorm:"foreignKey:FarmerID"`
	Verifications []VerificationRecord `json:"verifications,omitempty" gorm:"foreignKey:ProductID"`
}
