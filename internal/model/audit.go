package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions recorded against a commodity request
const (
	ActionCreated   = "CREATED"
	ActionApproved  = "APPROVED"
	ActionRejected  = "REJECTED"
	ActionDelivered = "DELIVERED"
	ActionUpdated   = "UPDATED"
)

// RequestLog is the append-only audit trail of a commodity request. One entry
// is written per successful state transition, inside the same transaction as
// the transition itself; entries are never updated or deleted.
type RequestLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"request_id"`
	Action      string     `gorm:"type:varchar(10);not null;index" json:"action"`
	PerformedBy *uuid.UUID `gorm:"type:uuid;index" json:"performed_by"` // Nullable for system-initiated entries
	Performer   *Worker    `gorm:"foreignKey:PerformedBy" json:"performer,omitempty"`
	Details     string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload (quantities, old/new status)
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

func (l *RequestLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
