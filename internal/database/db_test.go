package database

import (
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The schema must migrate on sqlite as well as postgres: the service tests run
// against an in-memory sqlite database, so no model may carry DDL only
// postgres can parse.
func TestMigrateOnSqlite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	// IDs come from the BeforeCreate hooks, not a column default.
	worker := &model.Worker{
		Username: "amina",
		Email:    "amina@clinic.test",
		Password: "x",
		Role:     model.RoleWorker,
	}
	require.NoError(t, db.Create(worker).Error)
	assert.NotEqual(t, uuid.Nil, worker.ID)

	commodity := &model.Commodity{Name: "Paracetamol", MaxPerRequest: 10, MaxMonthlyAllocation: 100}
	require.NoError(t, db.Create(commodity).Error)
	assert.NotEqual(t, uuid.Nil, commodity.ID)

	request := &model.CommodityRequest{
		RequesterID:       worker.ID,
		CommodityID:       commodity.ID,
		QuantityRequested: 1,
		Status:            model.StatusPending,
		RequestDate:       model.DateOf(time.Now()),
	}
	require.NoError(t, db.Create(request).Error)
	assert.NotEqual(t, uuid.Nil, request.ID)

	entry := &model.RequestLog{RequestID: request.ID, Action: model.ActionCreated, Details: "{}"}
	require.NoError(t, db.Create(entry).Error)
	assert.NotEqual(t, uuid.Nil, entry.ID)
}
