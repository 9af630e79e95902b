package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM. TranslateError
// maps driver duplicate-key errors to gorm.ErrDuplicatedKey, which the
// workflow engine relies on to detect lost same-day creation races.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for all models, including the partial
// unique index guarding the one-open-request-per-day rule.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Worker{},
		&model.Commodity{},
		&model.CommodityRequest{},
		&model.RequestLog{},
	)
}
