package service

import (
	"context"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatisticsService aggregates request data for the dashboards. Everything
// here is read-only reporting on top of the workflow engine's rows, scoped to
// what the caller is allowed to see.
type StatisticsService interface {
	DashboardStats(ctx context.Context, actorID string) (model.DashboardStats, error)
	Analytics(ctx context.Context, actorID string) (model.RequestAnalytics, error)
}

type statisticsService struct {
	db      *gorm.DB
	workers repository.WorkerRepository
}

func NewStatisticsService(db *gorm.DB, workers repository.WorkerRepository) StatisticsService {
	return &statisticsService{db: db, workers: workers}
}

// scopedQuery narrows commodity_requests to the actor's visibility: WORKERs
// their own rows, SUPERVISORs their approval scope, ADMINs everything.
func (s *statisticsService) scopedQuery(ctx context.Context, actor *model.Worker) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&model.CommodityRequest{})
	switch actor.Role {
	case model.RoleWorker:
		query = query.Where("requester_id = ?", actor.ID)
	case model.RoleSupervisor:
		query = query.Where("approver_id = ? OR requester_id IN (SELECT id FROM workers WHERE supervisor_id = ?)",
			actor.ID, actor.ID)
	}
	return query
}

func (s *statisticsService) loadActor(ctx context.Context, actorID string) (*model.Worker, error) {
	parsed, err := uuid.Parse(actorID)
	if err != nil {
		return nil, apperror.Validation("invalid worker id").Wrap(err)
	}
	actor, err := s.workers.GetByID(ctx, parsed)
	if err != nil {
		return nil, notFoundOr(err, "worker not found")
	}
	return actor, nil
}

func (s *statisticsService) DashboardStats(ctx context.Context, actorID string) (model.DashboardStats, error) {
	var stats model.DashboardStats

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return stats, err
	}

	if err := s.scopedQuery(ctx, actor).Count(&stats.TotalRequests).Error; err != nil {
		return stats, err
	}
	if err := s.scopedQuery(ctx, actor).Where("status = ?", model.StatusPending).Count(&stats.PendingRequests).Error; err != nil {
		return stats, err
	}
	if err := s.scopedQuery(ctx, actor).Where("status = ?", model.StatusApproved).Count(&stats.ApprovedRequests).Error; err != nil {
		return stats, err
	}
	if err := s.scopedQuery(ctx, actor).Where("status = ?", model.StatusRejected).Count(&stats.RejectedRequests).Error; err != nil {
		return stats, err
	}

	monthStart := model.MonthStartOf(time.Now())
	if err := s.scopedQuery(ctx, actor).Where("created_at >= ?", monthStart).Count(&stats.MonthlyRequests).Error; err != nil {
		return stats, err
	}

	// Top commodities over the trailing 30 days.
	last30Days := time.Now().AddDate(0, 0, -30)
	stats.TopCommodities, err = s.topCommodities(ctx, actor, last30Days, 5)
	if err != nil {
		return stats, err
	}

	// Last 10 requests in the caller's scope, newest first.
	if err := s.scopedQuery(ctx, actor).
		Preload("Requester").
		Preload("Commodity").
		Order("created_at DESC").
		Limit(10).
		Find(&stats.RecentRequests).Error; err != nil {
		return stats, err
	}

	return stats, nil
}

func (s *statisticsService) Analytics(ctx context.Context, actorID string) (model.RequestAnalytics, error) {
	var analytics model.RequestAnalytics

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return analytics, err
	}

	var statusCounts []model.StatusCount
	if err := s.scopedQuery(ctx, actor).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return analytics, err
	}
	analytics.StatusDistribution = statusCounts

	// Month buckets are computed Go-side so the query stays portable across
	// postgres and the sqlite test database.
	sixMonthsAgo := time.Now().AddDate(0, -6, 0)
	var createdAts []time.Time
	if err := s.scopedQuery(ctx, actor).
		Where("created_at >= ?", sixMonthsAgo).
		Order("created_at ASC").
		Pluck("created_at", &createdAts).Error; err != nil {
		return analytics, err
	}
	analytics.MonthlyTrends = bucketByMonth(createdAts)

	analytics.TopCommodities, err = s.topCommodities(ctx, actor, sixMonthsAgo, 10)
	if err != nil {
		return analytics, err
	}

	return analytics, nil
}

func (s *statisticsService) topCommodities(ctx context.Context, actor *model.Worker, since time.Time, limit int) ([]model.CommodityRanking, error) {
	var rankings []model.CommodityRanking
	err := s.scopedQuery(ctx, actor).
		Select("commodities.id as commodity_id, commodities.name as commodity_name, COUNT(*) as request_count, SUM(commodity_requests.quantity_requested) as total_quantity").
		Joins("JOIN commodities ON commodities.id = commodity_requests.commodity_id").
		Where("commodity_requests.created_at >= ?", since).
		Group("commodities.id, commodities.name").
		Order("request_count DESC").
		Limit(limit).
		Scan(&rankings).Error
	if err != nil {
		return nil, err
	}
	return rankings, nil
}

func bucketByMonth(createdAts []time.Time) []model.MonthlyTrend {
	type key struct {
		year  int
		month int
	}
	counts := make(map[key]int64)
	var order []key
	for _, t := range createdAts {
		k := key{year: t.UTC().Year(), month: int(t.UTC().Month())}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	trends := make([]model.MonthlyTrend, 0, len(order))
	for _, k := range order {
		trends = append(trends, model.MonthlyTrend{Year: k.year, Month: k.month, Count: counts[k]})
	}
	return trends
}
