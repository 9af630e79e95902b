package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyUsed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	worker, _ := env.seedSupervisedWorker(t, "amina")
	other, _ := env.seedSupervisedWorker(t, "joseph")
	commodity := env.seedCommodity(t, "Paracetamol", 10, 100)

	now := time.Now().UTC()
	monthStart := model.MonthStartOf(now)
	lastMonth := monthStart.Add(-time.Hour)

	// counted: approved and delivered this month
	env.seedRequest(t, worker, commodity, model.StatusApproved, intPtr(7), monthStart.Add(time.Hour))
	env.seedRequest(t, worker, commodity, model.StatusDelivered, intPtr(4), monthStart.Add(26*time.Hour))
	// not counted: pending, rejected, last month, other worker
	env.seedRequest(t, worker, commodity, model.StatusPending, nil, monthStart.Add(50*time.Hour))
	env.seedRequest(t, worker, commodity, model.StatusRejected, nil, monthStart.Add(2*time.Hour))
	env.seedRequest(t, worker, commodity, model.StatusDelivered, intPtr(50), lastMonth)
	env.seedRequest(t, other, commodity, model.StatusDelivered, intPtr(9), monthStart.Add(time.Hour))

	used, err := env.allocationService.MonthlyUsed(ctx, worker.ID, commodity.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 11, used)
}

func TestRemainingAllocation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	worker, _ := env.seedSupervisedWorker(t, "amina")
	commodity := env.seedCommodity(t, "Paracetamol", 10, 20)

	remaining, err := env.allocationService.RemainingAllocation(ctx, worker.ID, commodity.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, remaining)

	env.seedRequest(t, worker, commodity, model.StatusDelivered, intPtr(25), model.MonthStartOf(time.Now()).Add(time.Hour))

	// caps lowered after approvals leave the raw value negative
	remaining, err = env.allocationService.RemainingAllocation(ctx, worker.ID, commodity.ID)
	require.NoError(t, err)
	assert.Equal(t, -5, remaining)
}

func TestAllocationStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	worker, supervisor := env.seedSupervisedWorker(t, "amina")
	paracetamol := env.seedCommodity(t, "Paracetamol", 10, 20)
	zinc := env.seedCommodity(t, "Zinc", 10, 40)
	retired := env.seedCommodity(t, "Retired", 10, 40)
	require.NoError(t, env.db.Model(retired).Update("is_active", false).Error)

	env.seedRequest(t, worker, paracetamol, model.StatusDelivered, intPtr(15), model.MonthStartOf(time.Now()).Add(time.Hour))

	statuses, err := env.allocationService.AllocationStatus(ctx, worker.ID.String())
	require.NoError(t, err)
	require.Len(t, statuses, 2, "inactive commodities are not reported")

	byName := map[string]AllocationStatusResponse{}
	for _, s := range statuses {
		byName[s.CommodityName] = s
	}

	assert.Equal(t, 15, byName["Paracetamol"].Used)
	assert.Equal(t, 5, byName["Paracetamol"].Remaining)
	assert.Equal(t, "75.0", byName["Paracetamol"].PercentageUsed)

	assert.Equal(t, 0, byName["Zinc"].Used)
	assert.Equal(t, 40, byName["Zinc"].Remaining)
	assert.Equal(t, "0.0", byName["Zinc"].PercentageUsed)

	// over-consumption clamps remaining to zero for display
	env.seedRequest(t, worker, zinc, model.StatusDelivered, intPtr(50), model.MonthStartOf(time.Now()).Add(2*time.Hour))
	statuses, err = env.allocationService.AllocationStatus(ctx, worker.ID.String())
	require.NoError(t, err)
	for _, s := range statuses {
		if s.CommodityName == "Zinc" {
			assert.Equal(t, 50, s.Used)
			assert.Equal(t, 0, s.Remaining)
			assert.Equal(t, "125.0", s.PercentageUsed)
		}
	}

	_, err = env.allocationService.AllocationStatus(ctx, supervisor.ID.String())
	assert.True(t, apperror.IsAuthorization(err), "only a WORKER has an allocation")
}
