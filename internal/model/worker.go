package model

import (
	"time"

	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Worker role constants
const (
	RoleWorker     = "WORKER"     // field-level requester (community health worker)
	RoleSupervisor = "SUPERVISOR" // approver, oversees one or more workers
	RoleAdmin      = "ADMIN"      // unrestricted oversight
)

// Worker represents a member of the health workforce. A WORKER is always
// supervised by a SUPERVISOR; the supervisor link is what routes their
// commodity requests to the right approver.
type Worker struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone        string         `gorm:"type:varchar(20)" json:"phone"`
	Location     string         `gorm:"type:varchar(255)" json:"location"`
	Password     string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password hash from JSON
	Role         string         `gorm:"type:varchar(20);not null;index" json:"role"`
	SupervisorID *uuid.UUID     `gorm:"type:uuid;index" json:"supervisor_id"`
	Supervisor   *Worker        `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the ID client-side; there is no database-level
// default, so the same DDL works on any dialect.
func (w *Worker) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// ValidRole reports whether role is one of the known worker roles.
func ValidRole(role string) bool {
	return role == RoleWorker || role == RoleSupervisor || role == RoleAdmin
}

// ValidateSupervision checks the supervision edge between a worker and its
// prospective supervisor. The rules form a role-typed hierarchy:
//   - a WORKER must have a supervisor, and that supervisor must be a SUPERVISOR
//   - a SUPERVISOR may itself be supervised, but never by a WORKER
//   - an ADMIN is outside the hierarchy
func ValidateSupervision(role string, supervisor *Worker) error {
	switch role {
	case RoleWorker:
		if supervisor == nil {
			return apperror.Validation("a WORKER must have a SUPERVISOR assigned")
		}
		if supervisor.Role != RoleSupervisor {
			return apperror.Validation("a WORKER can only be supervised by a SUPERVISOR")
		}
	case RoleSupervisor:
		if supervisor != nil && supervisor.Role == RoleWorker {
			return apperror.Validation("a SUPERVISOR cannot be supervised by a WORKER")
		}
	}
	return nil
}
