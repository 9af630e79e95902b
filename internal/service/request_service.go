package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRequestDTO struct {
	CommodityID       string `json:"commodity_id" binding:"required"`
	QuantityRequested int    `json:"quantity_requested" binding:"required,gt=0"`
	ReasonForRequest  string `json:"reason_for_request"`
}

// TransitionDTO carries the input of a status transition. Status is the
// target state; the other fields are required or ignored depending on it.
type TransitionDTO struct {
	Status           string `json:"status" binding:"required"`
	QuantityApproved *int   `json:"quantity_approved"`
	RejectionReason  string `json:"rejection_reason"`
	Notes            string `json:"notes"`
}

type RequestResponse struct {
	ID                string  `json:"id"`
	RequesterID       string  `json:"requester_id"`
	RequesterName     string  `json:"requester_name"`
	ApproverID        *string `json:"approver_id"`
	ApproverName      string  `json:"approver_name"`
	CommodityID       string  `json:"commodity_id"`
	CommodityName     string  `json:"commodity_name"`
	CommodityUnit     string  `json:"commodity_unit"`
	QuantityRequested int     `json:"quantity_requested"`
	QuantityApproved  *int    `json:"quantity_approved"`
	Status            string  `json:"status"`
	ReasonForRequest  string  `json:"reason_for_request"`
	RejectionReason   string  `json:"rejection_reason"`
	Notes             string  `json:"notes"`
	CreatedAt         string  `json:"created_at"`
	ApprovedAt        *string `json:"approved_at"`
	DeliveredAt       *string `json:"delivered_at"`
}

type RequestLogResponse struct {
	ID            string `json:"id"`
	Action        string `json:"action"`
	PerformedBy   string `json:"performed_by"`
	PerformerName string `json:"performer_name"`
	Details       string `json:"details"`
	CreatedAt     string `json:"created_at"`
}

// RequestEvent is the websocket payload pushed on every lifecycle change.
type RequestEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// --- Interface ---

// RequestService is the request workflow engine: it validates creation
// against the per-request, daily and monthly policy gates, routes every
// request to the requester's supervisor, and enforces the status state
// machine on transitions. All failures are typed apperror values; on failure
// nothing is persisted and no audit entry is written.
type RequestService interface {
	CreateRequest(ctx context.Context, actorID string, req CreateRequestDTO) (RequestResponse, error)
	Transition(ctx context.Context, id string, actorID string, input TransitionDTO) (RequestResponse, error)
	GetRequest(ctx context.Context, id string, actorID string) (RequestResponse, error)
	ListRequests(ctx context.Context, actorID string, status string, page, limit int) ([]RequestResponse, int64, error)
	ListPending(ctx context.Context, actorID string) ([]RequestResponse, error)
	GetRequestLogs(ctx context.Context, id string) ([]RequestLogResponse, error)
}

type requestService struct {
	db          *gorm.DB
	workers     repository.WorkerRepository
	commodities repository.CommodityRepository
	requests    repository.RequestRepository
	audits      repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub // optional, nil in tests
}

func NewRequestService(
	db *gorm.DB,
	workers repository.WorkerRepository,
	commodities repository.CommodityRepository,
	requests repository.RequestRepository,
	audits repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) RequestService {
	return &requestService{
		db:          db,
		workers:     workers,
		commodities: commodities,
		requests:    requests,
		audits:      audits,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Creation ---

// CreateRequest validates and persists a new commodity request in PENDING
// state. The checks run in order inside one transaction, serialized per
// (requester, commodity) pair by an advisory lock; the partial unique index
// on open requests per day backstops the duplicate check against races.
func (s *requestService) CreateRequest(ctx context.Context, actorID string, req CreateRequestDTO) (RequestResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, apperror.Validation("invalid worker id").Wrap(err)
	}
	commodityUUID, err := uuid.Parse(req.CommodityID)
	if err != nil {
		return RequestResponse{}, apperror.Validation("invalid commodity id").Wrap(err)
	}

	var requestID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		actor, err := s.workers.GetByIDWithSupervisor(txCtx, actorUUID)
		if err != nil {
			return notFoundOr(err, "worker not found")
		}
		if actor.Role != model.RoleWorker {
			return apperror.Authorization("only a WORKER can create commodity requests")
		}

		commodity, err := s.commodities.GetByID(txCtx, commodityUUID)
		if err != nil {
			return notFoundOr(err, "commodity not found")
		}
		if !commodity.IsActive {
			return apperror.Validation("commodity %s is not currently available", commodity.Name)
		}

		if req.QuantityRequested < 1 || req.QuantityRequested > commodity.MaxPerRequest {
			return apperror.Validation("per-request limit exceeded: maximum %d %s allowed per request",
				commodity.MaxPerRequest, commodity.Name)
		}

		// Serialize concurrent creations for the same (worker, commodity)
		// pair around the read-then-insert window below.
		repository.AdvisoryLock(repository.GetDB(txCtx, s.db), actor.ID.String()+"/"+commodity.ID.String())

		now := time.Now()
		duplicate, err := s.requests.HasOpenRequestOn(txCtx, actor.ID, commodity.ID, now)
		if err != nil {
			return err
		}
		if duplicate {
			return apperror.Conflict("duplicate request today: %s was already requested, one request per commodity per day",
				commodity.Name)
		}

		used, err := s.requests.SumApprovedInMonth(txCtx, actor.ID, commodity.ID, model.MonthStartOf(now))
		if err != nil {
			return err
		}
		remaining := commodity.MaxMonthlyAllocation - used
		if req.QuantityRequested > remaining {
			return apperror.ValidationRemaining(remaining,
				"monthly limit exceeded: only %d more %s available this month", remaining, commodity.Name)
		}

		if actor.SupervisorID == nil {
			return apperror.Validation("no supervisor assigned")
		}

		request := &model.CommodityRequest{
			RequesterID:       actor.ID,
			ApproverID:        actor.SupervisorID,
			CommodityID:       commodity.ID,
			QuantityRequested: req.QuantityRequested,
			Status:            model.StatusPending,
			ReasonForRequest:  req.ReasonForRequest,
			RequestDate:       model.DateOf(now),
		}
		if err := s.requests.Create(txCtx, request); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the race to a concurrent creation for the same day.
				return apperror.Conflict("duplicate request today: a concurrent request won")
			}
			return err
		}
		requestID = request.ID

		return s.writeAudit(txCtx, request.ID, model.ActionCreated, &actor.ID, map[string]interface{}{
			"quantity_requested": req.QuantityRequested,
		})
	})
	if err != nil {
		return RequestResponse{}, err
	}

	loaded, err := s.requests.FindByIDWithRelations(ctx, requestID)
	if err != nil {
		return RequestResponse{}, err
	}

	s.notify("request.created", loaded)
	return toRequestResponse(loaded), nil
}

// --- Transition ---

// Transition moves a request through the state machine. Authorization is
// checked before state legality: only the assigned approver may approve or
// reject, and delivery may additionally be confirmed by an ADMIN. The load,
// the checks, the mutation and the audit entry share one transaction under a
// row lock, so two concurrent transitions on the same request cannot both
// succeed.
func (s *requestService) Transition(ctx context.Context, id string, actorID string, input TransitionDTO) (RequestResponse, error) {
	requestUUID, err := uuid.Parse(id)
	if err != nil {
		return RequestResponse{}, apperror.Validation("invalid request id").Wrap(err)
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, apperror.Validation("invalid worker id").Wrap(err)
	}
	if !model.ValidStatus(input.Status) {
		return RequestResponse{}, apperror.Validation("unknown status %q", input.Status)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requests.FindByIDForUpdate(txCtx, requestUUID)
		if err != nil {
			return notFoundOr(err, "request not found")
		}
		actor, err := s.workers.GetByID(txCtx, actorUUID)
		if err != nil {
			return notFoundOr(err, "worker not found")
		}

		if err := authorizeTransition(request, actor, input.Status); err != nil {
			return err
		}
		if !model.CanTransition(request.Status, input.Status) {
			return apperror.InvalidTransition(request.Status, input.Status)
		}

		oldStatus := request.Status
		now := time.Now()
		details := map[string]interface{}{
			"old_status": oldStatus,
			"new_status": input.Status,
		}

		switch input.Status {
		case model.StatusApproved:
			if input.QuantityApproved == nil || *input.QuantityApproved < 1 {
				return apperror.Validation("quantity approved is required when approving a request")
			}
			qty := *input.QuantityApproved
			if qty > request.QuantityRequested {
				return apperror.Validation("quantity approved cannot exceed quantity requested (%d)", request.QuantityRequested)
			}
			// Pending requests do not reserve headroom at creation time, so
			// the cap has to be re-checked here against the current sum.
			commodity, err := s.commodities.GetByID(txCtx, request.CommodityID)
			if err != nil {
				return notFoundOr(err, "commodity not found")
			}
			// Same lock as creation: two approvals for the same pair must not
			// both read the sum before either commits.
			repository.AdvisoryLock(repository.GetDB(txCtx, s.db),
				request.RequesterID.String()+"/"+request.CommodityID.String())
			used, err := s.requests.SumApprovedInMonth(txCtx, request.RequesterID, request.CommodityID, model.MonthStartOf(now))
			if err != nil {
				return err
			}
			remaining := commodity.MaxMonthlyAllocation - used
			if qty > remaining {
				return apperror.ValidationRemaining(remaining,
					"monthly limit exceeded: approving %d would pass the cap, only %d remaining", qty, remaining)
			}
			request.QuantityApproved = &qty
			request.Status = model.StatusApproved
			if request.ApprovedAt == nil {
				request.ApprovedAt = &now
			}
			details["quantity_approved"] = qty

		case model.StatusRejected:
			if strings.TrimSpace(input.RejectionReason) == "" {
				return apperror.Validation("rejection reason is required when rejecting a request")
			}
			request.RejectionReason = input.RejectionReason
			request.Status = model.StatusRejected
			details["reason"] = input.RejectionReason

		case model.StatusDelivered:
			request.Status = model.StatusDelivered
			if request.DeliveredAt == nil {
				request.DeliveredAt = &now
			}
			if request.QuantityApproved != nil {
				details["quantity_approved"] = *request.QuantityApproved
			}
		}

		if input.Notes != "" {
			request.Notes = input.Notes
		}

		if err := s.requests.Update(txCtx, request); err != nil {
			return err
		}
		return s.writeAudit(txCtx, request.ID, input.Status, &actor.ID, details)
	})
	if err != nil {
		return RequestResponse{}, err
	}

	loaded, err := s.requests.FindByIDWithRelations(ctx, requestUUID)
	if err != nil {
		return RequestResponse{}, err
	}

	s.notify("request."+strings.ToLower(input.Status), loaded)
	return toRequestResponse(loaded), nil
}

// authorizeTransition enforces who may attempt a transition, independent of
// whether the transition would be legal from the current state.
func authorizeTransition(request *model.CommodityRequest, actor *model.Worker, target string) error {
	isApprover := request.ApproverID != nil && *request.ApproverID == actor.ID

	switch target {
	case model.StatusApproved, model.StatusRejected:
		if !isApprover || actor.Role != model.RoleSupervisor {
			return apperror.Authorization("only the assigned approver can approve or reject this request")
		}
	case model.StatusDelivered:
		if !isApprover && actor.Role != model.RoleAdmin {
			return apperror.Authorization("only the assigned approver or an ADMIN can confirm delivery")
		}
	default:
		if !isApprover && actor.Role != model.RoleAdmin {
			return apperror.Authorization("not allowed to modify this request")
		}
	}
	return nil
}

// --- Reads ---

func (s *requestService) GetRequest(ctx context.Context, id string, actorID string) (RequestResponse, error) {
	requestUUID, err := uuid.Parse(id)
	if err != nil {
		return RequestResponse{}, apperror.Validation("invalid request id").Wrap(err)
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, apperror.Validation("invalid worker id").Wrap(err)
	}

	request, err := s.requests.FindByIDWithRelations(ctx, requestUUID)
	if err != nil {
		return RequestResponse{}, notFoundOr(err, "request not found")
	}
	actor, err := s.workers.GetByID(ctx, actorUUID)
	if err != nil {
		return RequestResponse{}, notFoundOr(err, "worker not found")
	}

	// Owner, assigned approver and ADMIN may read a request.
	isOwner := request.RequesterID == actor.ID
	isApprover := request.ApproverID != nil && *request.ApproverID == actor.ID
	if !isOwner && !isApprover && actor.Role != model.RoleAdmin {
		return RequestResponse{}, apperror.Authorization("not allowed to view this request")
	}

	return toRequestResponse(request), nil
}

func (s *requestService) ListRequests(ctx context.Context, actorID string, status string, page, limit int) ([]RequestResponse, int64, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, 0, apperror.Validation("invalid worker id").Wrap(err)
	}
	actor, err := s.workers.GetByID(ctx, actorUUID)
	if err != nil {
		return nil, 0, notFoundOr(err, "worker not found")
	}
	if status != "" && !model.ValidStatus(status) {
		return nil, 0, apperror.Validation("unknown status %q", status)
	}

	filter := repository.RequestFilter{Status: status, Page: page, Limit: limit}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	// WORKERs see their own requests, SUPERVISORs their supervised workers',
	// ADMINs everything.
	switch actor.Role {
	case model.RoleWorker:
		filter.RequesterID = &actor.ID
	case model.RoleSupervisor:
		filter.SupervisorID = &actor.ID
	}

	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toRequestResponse(&requests[i]))
	}
	return result, total, nil
}

func (s *requestService) ListPending(ctx context.Context, actorID string) ([]RequestResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, apperror.Validation("invalid worker id").Wrap(err)
	}
	actor, err := s.workers.GetByID(ctx, actorUUID)
	if err != nil {
		return nil, notFoundOr(err, "worker not found")
	}
	if actor.Role != model.RoleSupervisor {
		return nil, apperror.Authorization("only a SUPERVISOR has a pending approval queue")
	}

	requests, err := s.requests.ListPendingForApprover(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	result := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toRequestResponse(&requests[i]))
	}
	return result, nil
}

func (s *requestService) GetRequestLogs(ctx context.Context, id string) ([]RequestLogResponse, error) {
	requestUUID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid request id").Wrap(err)
	}
	if _, err := s.requests.FindByID(ctx, requestUUID); err != nil {
		return nil, notFoundOr(err, "request not found")
	}

	logs, err := s.audits.ListByRequest(ctx, requestUUID)
	if err != nil {
		return nil, err
	}

	result := make([]RequestLogResponse, 0, len(logs))
	for _, l := range logs {
		entry := RequestLogResponse{
			ID:        l.ID.String(),
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
		result = append(result, entry)
	}
	return result, nil
}

// --- Helpers ---

func (s *requestService) writeAudit(ctx context.Context, requestID uuid.UUID, action string, actorID *uuid.UUID, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	return s.audits.Log(ctx, &model.RequestLog{
		RequestID:   requestID,
		Action:      action,
		PerformedBy: actorID,
		Details:     string(payload),
	})
}

// notify pushes a lifecycle event to connected websocket clients. Best
// effort: dropped when no hub is wired or nobody is draining it.
func (s *requestService) notify(event string, request *model.CommodityRequest) {
	if s.hub == nil {
		return
	}
	data := map[string]interface{}{
		"request_id": request.ID.String(),
		"status":     request.Status,
	}
	if request.Commodity != nil {
		data["commodity"] = request.Commodity.Name
	}
	if request.Requester != nil {
		data["requester"] = request.Requester.Username
	}
	payload, _ := json.Marshal(RequestEvent{Event: event, Data: data})
	select {
	case s.hub.Broadcast <- payload:
	default:
	}
}

// notFoundOr converts gorm's record-not-found into a typed NotFound error and
// passes every other error through untouched.
func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s", message)
	}
	return err
}

func toRequestResponse(r *model.CommodityRequest) RequestResponse {
	resp := RequestResponse{
		ID:                r.ID.String(),
		RequesterID:       r.RequesterID.String(),
		CommodityID:       r.CommodityID.String(),
		QuantityRequested: r.QuantityRequested,
		QuantityApproved:  r.QuantityApproved,
		Status:            r.Status,
		ReasonForRequest:  r.ReasonForRequest,
		RejectionReason:   r.RejectionReason,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
	if r.Requester != nil {
		resp.RequesterName = r.Requester.Username
	}
	if r.ApproverID != nil {
		id := r.ApproverID.String()
		resp.ApproverID = &id
	}
	if r.Approver != nil {
		resp.ApproverName = r.Approver.Username
	}
	if r.Commodity != nil {
		resp.CommodityName = r.Commodity.Name
		resp.CommodityUnit = r.Commodity.UnitOfMeasure
	}
	if r.ApprovedAt != nil {
		at := r.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &at
	}
	if r.DeliveredAt != nil {
		at := r.DeliveredAt.Format(time.RFC3339)
		resp.DeliveredAt = &at
	}
	return resp
}
