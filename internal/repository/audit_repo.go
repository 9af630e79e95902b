package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository is the append-only audit trail. The workflow engine is the
// only writer; there is no update or delete.
type AuditRepository interface {
	Log(ctx context.Context, entry *model.RequestLog) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.RequestLog, error)
	List(ctx context.Context, page, limit int) ([]model.RequestLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.RequestLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// ListByRequest returns a request's audit entries, newest first.
func (r *auditRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.RequestLog, error) {
	var logs []model.RequestLog
	if err := GetDB(ctx, r.db).
		Preload("Performer").
		Where("request_id = ?", requestID).
		Order("created_at desc").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *auditRepository) List(ctx context.Context, page, limit int) ([]model.RequestLog, int64, error) {
	var logs []model.RequestLog
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.RequestLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Performer").Order("created_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
