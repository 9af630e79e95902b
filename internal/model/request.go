package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommodityRequest status constants
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusDelivered = "DELIVERED"
)

// allowedTransitions is the closed transition table of the request state
// machine. PENDING is the only non-terminal state besides APPROVED, which can
// still move to DELIVERED. Anything not listed here (including no-op
// transitions) is forbidden.
var allowedTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusApproved: true,
		StatusRejected: true,
	},
	StatusApproved: {
		StatusDelivered: true,
	},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to string) bool {
	return allowedTransitions[from][to]
}

// ValidStatus reports whether s is one of the known request statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusDelivered:
		return true
	}
	return false
}

// CommodityRequest is a worker's request for a quantity of a commodity,
// routed to the worker's supervisor for approval.
//
// The partial unique index on (requester_id, commodity_id, request_date)
// enforces the one-open-request-per-commodity-per-day rule at the database
// level, as a backstop behind the application-level duplicate check. Only
// PENDING and APPROVED rows occupy the slot; a rejection frees the day again.
type CommodityRequest struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID       uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_open_request_per_day,priority:1" json:"requester_id"`
	Requester         *Worker    `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	ApproverID        *uuid.UUID `gorm:"type:uuid;index" json:"approver_id"`
	Approver          *Worker    `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	CommodityID       uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_open_request_per_day,priority:2" json:"commodity_id"`
	Commodity         *Commodity `gorm:"foreignKey:CommodityID" json:"commodity,omitempty"`
	QuantityRequested int        `gorm:"not null" json:"quantity_requested"`
	QuantityApproved  *int       `json:"quantity_approved"`
	Status            string     `gorm:"type:varchar(10);not null;default:'PENDING';index" json:"status"`
	ReasonForRequest  string     `gorm:"type:text" json:"reason_for_request"`
	RejectionReason   string     `gorm:"type:text" json:"rejection_reason"`
	Notes             string     `gorm:"type:text" json:"notes"`
	RequestDate       time.Time  `gorm:"type:date;not null;uniqueIndex:uniq_open_request_per_day,priority:3,where:status = 'PENDING' OR status = 'APPROVED'" json:"request_date"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
	ApprovedAt        *time.Time `json:"approved_at"`
	DeliveredAt       *time.Time `json:"delivered_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (r *CommodityRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// DateOf truncates t to its calendar day in UTC. Request dates are stored
// this way so the daily-duplicate index compares equal for any two requests
// created on the same day.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthStartOf returns the first instant of t's calendar month in UTC,
// the lower bound of the rolling monthly allocation window.
func MonthStartOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
