package service

import (
	"context"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationStatusResponse is one commodity's consumption snapshot for the
// current calendar month. Remaining is clamped to 0 for display; validation
// inside the workflow engine compares against the raw signed value instead.
type AllocationStatusResponse struct {
	CommodityID    string `json:"commodity_id"`
	CommodityName  string `json:"commodity_name"`
	UnitOfMeasure  string `json:"unit_of_measure"`
	MaxAllocation  int    `json:"max_allocation"`
	Used           int    `json:"used"`
	Remaining      int    `json:"remaining"`
	PercentageUsed string `json:"percentage_used"`
}

// AllocationService is the ledger read side: monthly consumption per
// (worker, commodity) pair, computed fresh on every call.
type AllocationService interface {
	MonthlyUsed(ctx context.Context, workerID, commodityID uuid.UUID, reference time.Time) (int, error)
	RemainingAllocation(ctx context.Context, workerID, commodityID uuid.UUID) (int, error)
	AllocationStatus(ctx context.Context, actorID string) ([]AllocationStatusResponse, error)
}

type allocationService struct {
	workers     repository.WorkerRepository
	commodities repository.CommodityRepository
	requests    repository.RequestRepository
}

func NewAllocationService(
	workers repository.WorkerRepository,
	commodities repository.CommodityRepository,
	requests repository.RequestRepository,
) AllocationService {
	return &allocationService{workers: workers, commodities: commodities, requests: requests}
}

// MonthlyUsed sums quantity_approved over the worker's APPROVED and DELIVERED
// requests for the commodity within reference's calendar month.
func (s *allocationService) MonthlyUsed(ctx context.Context, workerID, commodityID uuid.UUID, reference time.Time) (int, error) {
	return s.requests.SumApprovedInMonth(ctx, workerID, commodityID, model.MonthStartOf(reference))
}

// RemainingAllocation returns the signed monthly headroom. It can go negative
// when catalog caps were lowered after approvals; callers clamp for display.
func (s *allocationService) RemainingAllocation(ctx context.Context, workerID, commodityID uuid.UUID) (int, error) {
	commodity, err := s.commodities.GetByID(ctx, commodityID)
	if err != nil {
		return 0, notFoundOr(err, "commodity not found")
	}
	used, err := s.MonthlyUsed(ctx, workerID, commodityID, time.Now())
	if err != nil {
		return 0, err
	}
	return commodity.MaxMonthlyAllocation - used, nil
}

// AllocationStatus reports this month's usage across all active commodities
// for a WORKER.
func (s *allocationService) AllocationStatus(ctx context.Context, actorID string) ([]AllocationStatusResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, apperror.Validation("invalid worker id").Wrap(err)
	}
	actor, err := s.workers.GetByID(ctx, actorUUID)
	if err != nil {
		return nil, notFoundOr(err, "worker not found")
	}
	if actor.Role != model.RoleWorker {
		return nil, apperror.Authorization("only a WORKER has a monthly allocation")
	}

	commodities, err := s.commodities.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := make([]AllocationStatusResponse, 0, len(commodities))
	for _, commodity := range commodities {
		used, err := s.MonthlyUsed(ctx, actor.ID, commodity.ID, now)
		if err != nil {
			return nil, err
		}

		remaining := commodity.MaxMonthlyAllocation - used
		if remaining < 0 {
			remaining = 0
		}

		percentage := decimal.Zero
		if commodity.MaxMonthlyAllocation > 0 {
			percentage = decimal.NewFromInt(int64(used)).
				Div(decimal.NewFromInt(int64(commodity.MaxMonthlyAllocation))).
				Mul(decimal.NewFromInt(100))
		}

		result = append(result, AllocationStatusResponse{
			CommodityID:    commodity.ID.String(),
			CommodityName:  commodity.Name,
			UnitOfMeasure:  commodity.UnitOfMeasure,
			MaxAllocation:  commodity.MaxMonthlyAllocation,
			Used:           used,
			Remaining:      remaining,
			PercentageUsed: percentage.StringFixed(1),
		})
	}

	return result, nil
}
