package service

import (
	"context"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
)

type CreateCommodityRequest struct {
	Name                 string `json:"name" binding:"required"`
	Description          string `json:"description"`
	UnitOfMeasure        string `json:"unit_of_measure"`
	Category             string `json:"category"`
	MaxPerRequest        int    `json:"max_per_request" binding:"required"`
	MaxMonthlyAllocation int    `json:"max_monthly_allocation" binding:"required"`
}

type UpdateCommodityRequest struct {
	Description          string `json:"description"`
	UnitOfMeasure        string `json:"unit_of_measure"`
	Category             string `json:"category"`
	MaxPerRequest        int    `json:"max_per_request"`
	MaxMonthlyAllocation int    `json:"max_monthly_allocation"`
	IsActive             *bool  `json:"is_active"`
}

type CommodityResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	UnitOfMeasure        string `json:"unit_of_measure"`
	Category             string `json:"category"`
	MaxPerRequest        int    `json:"max_per_request"`
	MaxMonthlyAllocation int    `json:"max_monthly_allocation"`
	IsActive             bool   `json:"is_active"`
	CreatedAt            string `json:"created_at"`
}

// CommodityService manages the catalog. The workflow engine only ever reads
// it; cap changes here take effect on the next request validation.
type CommodityService interface {
	CreateCommodity(ctx context.Context, req CreateCommodityRequest) (*CommodityResponse, error)
	GetCommodityByID(ctx context.Context, id string) (*CommodityResponse, error)
	ListCommodities(ctx context.Context, activeOnly bool, page, limit int) ([]CommodityResponse, int64, error)
	UpdateCommodity(ctx context.Context, id string, req UpdateCommodityRequest) (*CommodityResponse, error)
}

type commodityService struct {
	repo repository.CommodityRepository
}

func NewCommodityService(repo repository.CommodityRepository) CommodityService {
	return &commodityService{repo: repo}
}

func validateCaps(maxPerRequest, maxMonthly int) error {
	if maxPerRequest < 1 || maxPerRequest > model.MaxPerRequestCeiling {
		return apperror.Validation("max_per_request must be between 1 and %d", model.MaxPerRequestCeiling)
	}
	if maxMonthly < 1 {
		return apperror.Validation("max_monthly_allocation must be at least 1")
	}
	return nil
}

func mapToCommodityResponse(c *model.Commodity) *CommodityResponse {
	return &CommodityResponse{
		ID:                   c.ID.String(),
		Name:                 c.Name,
		Description:          c.Description,
		UnitOfMeasure:        c.UnitOfMeasure,
		Category:             c.Category,
		MaxPerRequest:        c.MaxPerRequest,
		MaxMonthlyAllocation: c.MaxMonthlyAllocation,
		IsActive:             c.IsActive,
		CreatedAt:            c.CreatedAt.Format(time.RFC3339),
	}
}

func (s *commodityService) CreateCommodity(ctx context.Context, req CreateCommodityRequest) (*CommodityResponse, error) {
	if err := validateCaps(req.MaxPerRequest, req.MaxMonthlyAllocation); err != nil {
		return nil, err
	}

	unit := req.UnitOfMeasure
	if unit == "" {
		unit = "pieces"
	}

	commodity := &model.Commodity{
		Name:                 req.Name,
		Description:          req.Description,
		UnitOfMeasure:        unit,
		Category:             req.Category,
		MaxPerRequest:        req.MaxPerRequest,
		MaxMonthlyAllocation: req.MaxMonthlyAllocation,
		IsActive:             true,
	}
	if err := s.repo.Create(ctx, commodity); err != nil {
		return nil, err
	}

	return mapToCommodityResponse(commodity), nil
}

func (s *commodityService) GetCommodityByID(ctx context.Context, id string) (*CommodityResponse, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid commodity id").Wrap(err)
	}
	commodity, err := s.repo.GetByID(ctx, parsed)
	if err != nil {
		return nil, notFoundOr(err, "commodity not found")
	}
	return mapToCommodityResponse(commodity), nil
}

func (s *commodityService) ListCommodities(ctx context.Context, activeOnly bool, page, limit int) ([]CommodityResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	commodities, total, err := s.repo.List(ctx, activeOnly, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CommodityResponse, 0, len(commodities))
	for i := range commodities {
		responses = append(responses, *mapToCommodityResponse(&commodities[i]))
	}
	return responses, total, nil
}

func (s *commodityService) UpdateCommodity(ctx context.Context, id string, req UpdateCommodityRequest) (*CommodityResponse, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid commodity id").Wrap(err)
	}
	commodity, err := s.repo.GetByID(ctx, parsed)
	if err != nil {
		return nil, notFoundOr(err, "commodity not found")
	}

	if req.Description != "" {
		commodity.Description = req.Description
	}
	if req.UnitOfMeasure != "" {
		commodity.UnitOfMeasure = req.UnitOfMeasure
	}
	if req.Category != "" {
		commodity.Category = req.Category
	}
	if req.MaxPerRequest != 0 {
		commodity.MaxPerRequest = req.MaxPerRequest
	}
	if req.MaxMonthlyAllocation != 0 {
		commodity.MaxMonthlyAllocation = req.MaxMonthlyAllocation
	}
	if err := validateCaps(commodity.MaxPerRequest, commodity.MaxMonthlyAllocation); err != nil {
		return nil, err
	}
	if req.IsActive != nil {
		commodity.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, commodity); err != nil {
		return nil, err
	}
	return mapToCommodityResponse(commodity), nil
}
