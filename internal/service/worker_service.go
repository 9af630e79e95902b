package service

import (
	"context"
	"os"
	"regexp"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for request validation
type CreateWorkerRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone"`
	Location     string `json:"location"`
	Password     string `json:"password" binding:"required,min=6"`
	Role         string `json:"role" binding:"required"`
	SupervisorID string `json:"supervisor_id"`
}

type LoginWorkerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// WorkerResponse returns a Worker without exposing the password hash
type WorkerResponse struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Location       string  `json:"location"`
	Role           string  `json:"role"`
	SupervisorID   *string `json:"supervisor_id"`
	SupervisorName string  `json:"supervisor_name"`
	IsActive       bool    `json:"is_active"`
	CreatedAt      string  `json:"created_at"`
}

// WorkerService is the identity directory: provisioning, login, and the
// role-typed supervision hierarchy the workflow engine routes approvals
// through.
type WorkerService interface {
	CreateWorker(ctx context.Context, req CreateWorkerRequest) (*WorkerResponse, error)
	Login(ctx context.Context, req LoginWorkerRequest) (*TokenResponse, error)
	GetWorkerByID(ctx context.Context, id string) (*WorkerResponse, error)
	ListWorkers(ctx context.Context, role string, page, limit int) ([]WorkerResponse, int64, error)
	AssignSupervisor(ctx context.Context, workerID, supervisorID string) (*WorkerResponse, error)
	ListSupervised(ctx context.Context, supervisorID string) ([]WorkerResponse, error)
}

type workerService struct {
	repo repository.WorkerRepository
}

func NewWorkerService(repo repository.WorkerRepository) WorkerService {
	return &workerService{repo: repo}
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)

func mapToWorkerResponse(worker *model.Worker) *WorkerResponse {
	resp := &WorkerResponse{
		ID:        worker.ID.String(),
		Username:  worker.Username,
		Email:     worker.Email,
		Phone:     worker.Phone,
		Location:  worker.Location,
		Role:      worker.Role,
		IsActive:  worker.IsActive,
		CreatedAt: worker.CreatedAt.Format(time.RFC3339),
	}
	if worker.SupervisorID != nil {
		id := worker.SupervisorID.String()
		resp.SupervisorID = &id
	}
	if worker.Supervisor != nil {
		resp.SupervisorName = worker.Supervisor.Username
	}
	return resp
}

func (s *workerService) CreateWorker(ctx context.Context, req CreateWorkerRequest) (*WorkerResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, apperror.Validation("invalid role: must be WORKER, SUPERVISOR or ADMIN")
	}
	if !emailRegex.MatchString(req.Email) {
		return nil, apperror.Validation("invalid email format")
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperror.Conflict("username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Conflict("email already exists")
	}

	// Resolve and validate the supervision edge before saving anything.
	var supervisor *model.Worker
	var supervisorID *uuid.UUID
	if req.SupervisorID != "" {
		parsed, err := uuid.Parse(req.SupervisorID)
		if err != nil {
			return nil, apperror.Validation("invalid supervisor id").Wrap(err)
		}
		supervisor, err = s.repo.GetByID(ctx, parsed)
		if err != nil {
			return nil, notFoundOr(err, "supervisor not found")
		}
		supervisorID = &parsed
	}
	if err := model.ValidateSupervision(req.Role, supervisor); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	worker := &model.Worker{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		Location:     req.Location,
		Password:     string(hashedPassword),
		Role:         req.Role,
		SupervisorID: supervisorID,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, worker); err != nil {
		return nil, err
	}

	worker.Supervisor = supervisor
	return mapToWorkerResponse(worker), nil
}

func (s *workerService) Login(ctx context.Context, req LoginWorkerRequest) (*TokenResponse, error) {
	worker, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Authorization("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(worker.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Authorization("invalid email or password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  worker.ID.String(),
		"role": worker.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	return &TokenResponse{Token: tokenString}, nil
}

func (s *workerService) GetWorkerByID(ctx context.Context, id string) (*WorkerResponse, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid worker id").Wrap(err)
	}
	worker, err := s.repo.GetByIDWithSupervisor(ctx, parsed)
	if err != nil {
		return nil, notFoundOr(err, "worker not found")
	}
	return mapToWorkerResponse(worker), nil
}

func (s *workerService) ListWorkers(ctx context.Context, role string, page, limit int) ([]WorkerResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if role != "" && !model.ValidRole(role) {
		return nil, 0, apperror.Validation("invalid role filter %q", role)
	}

	workers, total, err := s.repo.List(ctx, role, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]WorkerResponse, 0, len(workers))
	for i := range workers {
		responses = append(responses, *mapToWorkerResponse(&workers[i]))
	}
	return responses, total, nil
}

// AssignSupervisor reassigns a worker's supervision edge, re-validating the
// hierarchy rules on every reassignment, not only at provisioning time.
func (s *workerService) AssignSupervisor(ctx context.Context, workerID, supervisorID string) (*WorkerResponse, error) {
	workerUUID, err := uuid.Parse(workerID)
	if err != nil {
		return nil, apperror.Validation("invalid worker id").Wrap(err)
	}
	supervisorUUID, err := uuid.Parse(supervisorID)
	if err != nil {
		return nil, apperror.Validation("invalid supervisor id").Wrap(err)
	}
	if workerUUID == supervisorUUID {
		return nil, apperror.Validation("a worker cannot supervise itself")
	}

	worker, err := s.repo.GetByID(ctx, workerUUID)
	if err != nil {
		return nil, notFoundOr(err, "worker not found")
	}
	supervisor, err := s.repo.GetByID(ctx, supervisorUUID)
	if err != nil {
		return nil, notFoundOr(err, "supervisor not found")
	}

	if err := model.ValidateSupervision(worker.Role, supervisor); err != nil {
		return nil, err
	}

	worker.SupervisorID = &supervisor.ID
	if err := s.repo.Update(ctx, worker); err != nil {
		return nil, err
	}

	worker.Supervisor = supervisor
	return mapToWorkerResponse(worker), nil
}

func (s *workerService) ListSupervised(ctx context.Context, supervisorID string) ([]WorkerResponse, error) {
	parsed, err := uuid.Parse(supervisorID)
	if err != nil {
		return nil, apperror.Validation("invalid supervisor id").Wrap(err)
	}

	workers, err := s.repo.ListBySupervisor(ctx, parsed)
	if err != nil {
		return nil, err
	}

	responses := make([]WorkerResponse, 0, len(workers))
	for i := range workers {
		responses = append(responses, *mapToWorkerResponse(&workers[i]))
	}
	return responses, nil
}
