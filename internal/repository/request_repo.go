package repository

import (
	"backend/internal/model"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestFilter narrows request listing to the caller's visible scope.
type RequestFilter struct {
	RequesterID  *uuid.UUID // only requests created by this worker
	SupervisorID *uuid.UUID // requests assigned to, or from workers supervised by, this supervisor
	Status       string     // PENDING, APPROVED, REJECTED, DELIVERED or empty for all
	Page         int
	Limit        int
}

// RequestRepository is the persistence boundary of the workflow engine. The
// allocation-ledger queries (SumApprovedInMonth, HasOpenRequestOn) live here
// so the duplicate and monthly checks can run inside the creation transaction.
type RequestRepository interface {
	Create(ctx context.Context, req *model.CommodityRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CommodityRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.CommodityRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.CommodityRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.CommodityRequest, int64, error)
	ListPendingForApprover(ctx context.Context, approverID uuid.UUID) ([]model.CommodityRequest, error)
	HasOpenRequestOn(ctx context.Context, requesterID, commodityID uuid.UUID, day time.Time) (bool, error)
	SumApprovedInMonth(ctx context.Context, requesterID, commodityID uuid.UUID, monthStart time.Time) (int, error)
	Update(ctx context.Context, req *model.CommodityRequest) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.CommodityRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CommodityRequest, error) {
	var req model.CommodityRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByIDForUpdate loads the request under a row lock so concurrent
// transitions on the same request serialize. Must run inside RunInTx.
func (r *requestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.CommodityRequest, error) {
	var req model.CommodityRequest
	if err := LockForUpdate(GetDB(ctx, r.db)).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.CommodityRequest, error) {
	var req model.CommodityRequest
	if err := GetDB(ctx, r.db).
		Preload("Requester").
		Preload("Approver").
		Preload("Commodity").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.CommodityRequest, int64, error) {
	var requests []model.CommodityRequest
	var total int64

	db := GetDB(ctx, r.db)
	applyScope := func(q *gorm.DB) *gorm.DB {
		if filter.RequesterID != nil {
			q = q.Where("requester_id = ?", *filter.RequesterID)
		}
		if filter.SupervisorID != nil {
			q = q.Where("approver_id = ? OR requester_id IN (SELECT id FROM workers WHERE supervisor_id = ?)",
				*filter.SupervisorID, *filter.SupervisorID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		return q
	}

	if err := applyScope(db.Model(&model.CommodityRequest{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	fetchQuery := applyScope(db.Preload("Requester").Preload("Approver").Preload("Commodity"))
	if err := fetchQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// ListPendingForApprover returns a supervisor's approval queue, oldest first.
func (r *requestRepository) ListPendingForApprover(ctx context.Context, approverID uuid.UUID) ([]model.CommodityRequest, error) {
	var requests []model.CommodityRequest
	if err := GetDB(ctx, r.db).
		Preload("Requester").
		Preload("Commodity").
		Where("approver_id = ? AND status = ?", approverID, model.StatusPending).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// HasOpenRequestOn reports whether the worker already has a PENDING or
// APPROVED request for the commodity on the given calendar day.
func (r *requestRepository) HasOpenRequestOn(ctx context.Context, requesterID, commodityID uuid.UUID, day time.Time) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.CommodityRequest{}).
		Where("requester_id = ? AND commodity_id = ? AND request_date = ? AND status IN ?",
			requesterID, commodityID, model.DateOf(day), []string{model.StatusPending, model.StatusApproved}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SumApprovedInMonth computes the quantity already committed (approved or
// delivered) for a worker/commodity pair since monthStart. Always queried
// fresh; concurrent approvals change it.
func (r *requestRepository) SumApprovedInMonth(ctx context.Context, requesterID, commodityID uuid.UUID, monthStart time.Time) (int, error) {
	var result struct {
		Total int
	}
	err := GetDB(ctx, r.db).Model(&model.CommodityRequest{}).
		Select("COALESCE(SUM(quantity_approved), 0) as total").
		Where("requester_id = ? AND commodity_id = ? AND created_at >= ? AND status IN ?",
			requesterID, commodityID, monthStart, []string{model.StatusApproved, model.StatusDelivered}).
		Scan(&result).Error
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

func (r *requestRepository) Update(ctx context.Context, req *model.CommodityRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}
