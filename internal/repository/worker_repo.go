package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkerRepository defines the interface for data access of Worker entities.
// This is the identity directory the workflow engine trusts for role and
// supervisor lookups.
type WorkerRepository interface {
	Create(ctx context.Context, worker *model.Worker) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Worker, error)
	GetByIDWithSupervisor(ctx context.Context, id uuid.UUID) (*model.Worker, error)
	GetByEmail(ctx context.Context, email string) (*model.Worker, error)
	GetByUsername(ctx context.Context, username string) (*model.Worker, error)
	List(ctx context.Context, role string, page, limit int) ([]model.Worker, int64, error)
	ListBySupervisor(ctx context.Context, supervisorID uuid.UUID) ([]model.Worker, error)
	Update(ctx context.Context, worker *model.Worker) error
}

type workerRepository struct {
	db *gorm.DB
}

// NewWorkerRepository returns a new instance of WorkerRepository
func NewWorkerRepository(db *gorm.DB) WorkerRepository {
	return &workerRepository{db: db}
}

func (r *workerRepository) Create(ctx context.Context, worker *model.Worker) error {
	return GetDB(ctx, r.db).Create(worker).Error
}

func (r *workerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	var worker model.Worker
	if err := GetDB(ctx, r.db).First(&worker, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepository) GetByIDWithSupervisor(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	var worker model.Worker
	if err := GetDB(ctx, r.db).Preload("Supervisor").First(&worker, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepository) GetByEmail(ctx context.Context, email string) (*model.Worker, error) {
	var worker model.Worker
	if err := GetDB(ctx, r.db).First(&worker, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepository) GetByUsername(ctx context.Context, username string) (*model.Worker, error) {
	var worker model.Worker
	if err := GetDB(ctx, r.db).First(&worker, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepository) List(ctx context.Context, role string, page, limit int) ([]model.Worker, int64, error) {
	var workers []model.Worker
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Worker{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Supervisor")
	if role != "" {
		fetchQuery = fetchQuery.Where("role = ?", role)
	}
	if err := fetchQuery.Order("username").Offset(offset).Limit(limit).Find(&workers).Error; err != nil {
		return nil, 0, err
	}

	return workers, total, nil
}

func (r *workerRepository) ListBySupervisor(ctx context.Context, supervisorID uuid.UUID) ([]model.Worker, error) {
	var workers []model.Worker
	if err := GetDB(ctx, r.db).Where("supervisor_id = ?", supervisorID).Order("username").Find(&workers).Error; err != nil {
		return nil, err
	}
	return workers, nil
}

func (r *workerRepository) Update(ctx context.Context, worker *model.Worker) error {
	return GetDB(ctx, r.db).Save(worker).Error
}
