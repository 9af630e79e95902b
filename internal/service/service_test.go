package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the repositories and services against an in-memory sqlite
// database, the same way cmd/api/main.go wires them against postgres.
type testEnv struct {
	db          *gorm.DB
	workers     repository.WorkerRepository
	commodities repository.CommodityRepository
	requests    repository.RequestRepository
	audits      repository.AuditRepository
	txManager   repository.TransactionManager

	workerService     WorkerService
	commodityService  CommodityService
	allocationService AllocationService
	requestService    RequestService
	auditService      AuditService
	statistics        StatisticsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every session on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:          db,
		workers:     repository.NewWorkerRepository(db),
		commodities: repository.NewCommodityRepository(db),
		requests:    repository.NewRequestRepository(db),
		audits:      repository.NewAuditRepository(db),
		txManager:   repository.NewTransactionManager(db),
	}
	env.workerService = NewWorkerService(env.workers)
	env.commodityService = NewCommodityService(env.commodities)
	env.allocationService = NewAllocationService(env.workers, env.commodities, env.requests)
	env.requestService = NewRequestService(db, env.workers, env.commodities, env.requests, env.audits, env.txManager, nil)
	env.auditService = NewAuditService(env.audits)
	env.statistics = NewStatisticsService(db, env.workers)
	return env
}

var testPasswordHash = func() string {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	return string(hash)
}()

func (e *testEnv) seedWorker(t *testing.T, username, role string, supervisorID *uuid.UUID) *model.Worker {
	t.Helper()
	worker := &model.Worker{
		Username:     username,
		Email:        username + "@clinic.test",
		Password:     testPasswordHash,
		Role:         role,
		SupervisorID: supervisorID,
		IsActive:     true,
	}
	require.NoError(t, e.db.Create(worker).Error)
	return worker
}

func (e *testEnv) seedSupervisedWorker(t *testing.T, username string) (*model.Worker, *model.Worker) {
	t.Helper()
	supervisor := e.seedWorker(t, username+"-sup", model.RoleSupervisor, nil)
	worker := e.seedWorker(t, username, model.RoleWorker, &supervisor.ID)
	return worker, supervisor
}

func (e *testEnv) seedCommodity(t *testing.T, name string, maxPerRequest, maxMonthly int) *model.Commodity {
	t.Helper()
	commodity := &model.Commodity{
		Name:                 name,
		UnitOfMeasure:        "tablets",
		MaxPerRequest:        maxPerRequest,
		MaxMonthlyAllocation: maxMonthly,
		IsActive:             true,
	}
	require.NoError(t, e.db.Create(commodity).Error)
	return commodity
}

// seedRequest inserts a request row directly, bypassing the engine, to set up
// historical state (earlier days, earlier months, already-approved rows).
func (e *testEnv) seedRequest(t *testing.T, worker *model.Worker, commodity *model.Commodity, status string, quantityApproved *int, createdAt time.Time) *model.CommodityRequest {
	t.Helper()
	request := &model.CommodityRequest{
		RequesterID:       worker.ID,
		ApproverID:        worker.SupervisorID,
		CommodityID:       commodity.ID,
		QuantityRequested: 10,
		QuantityApproved:  quantityApproved,
		Status:            status,
		RequestDate:       model.DateOf(createdAt),
		CreatedAt:         createdAt,
	}
	require.NoError(t, e.db.Create(request).Error)
	return request
}

func (e *testEnv) auditCount(t *testing.T, requestID uuid.UUID) int {
	t.Helper()
	logs, err := e.audits.ListByRequest(context.Background(), requestID)
	require.NoError(t, err)
	return len(logs)
}

func intPtr(n int) *int { return &n }
