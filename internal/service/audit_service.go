package service

import (
	"context"
	"time"

	"backend/internal/repository"
)

type AuditLogResponse struct {
	ID            string `json:"id"`
	RequestID     string `json:"request_id"`
	Action        string `json:"action"`
	PerformedBy   string `json:"performed_by"`
	PerformerName string `json:"performer_name"`
	Details       string `json:"details"`
	CreatedAt     string `json:"created_at"`
}

// AuditService is the read side of the audit trail, used by reporting.
type AuditService interface {
	GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		entry := AuditLogResponse{
			ID:        l.ID.String(),
			RequestID: l.RequestID.String(),
			Action:    l.Action,
			Details:   l.Details,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		}
		if l.PerformedBy != nil {
			entry.PerformedBy = l.PerformedBy.String()
		}
		if l.Performer != nil {
			entry.PerformerName = l.Performer.Username
		}
		res = append(res, entry)
	}

	return res, total, nil
}
