package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hard bound on any single request, regardless of catalog configuration.
const MaxPerRequestCeiling = 99

// Commodity is a catalog entry for a consumable medical item. The caps on it
// are the configuration the request workflow validates against; the engine
// never mutates a commodity.
type Commodity struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name                 string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description          string    `gorm:"type:text" json:"description"`
	UnitOfMeasure        string    `gorm:"type:varchar(20);default:'pieces'" json:"unit_of_measure"` // tablets, bottles, packets...
	Category             string    `gorm:"type:varchar(50)" json:"category"`                         // Malaria, Family Planning...
	MaxPerRequest        int       `gorm:"not null;default:99" json:"max_per_request"`
	MaxMonthlyAllocation int       `gorm:"not null;default:200" json:"max_monthly_allocation"` // per worker per calendar month
	IsActive             bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Commodity) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
