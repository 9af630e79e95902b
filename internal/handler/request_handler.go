package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/apperror"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService    service.RequestService
	allocationService service.AllocationService
}

func NewRequestHandler(requestService service.RequestService, allocationService service.AllocationService) *RequestHandler {
	return &RequestHandler{requestService: requestService, allocationService: allocationService}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		requests.GET("", middleware.RequireRole(model.RoleWorker, model.RoleSupervisor, model.RoleAdmin), h.ListRequests)
		requests.POST("", middleware.RequireRole(model.RoleWorker), h.CreateRequest)
		requests.GET("/pending", middleware.RequireRole(model.RoleSupervisor), h.ListPending)
		requests.GET("/allocation-status", middleware.RequireRole(model.RoleWorker), h.AllocationStatus)
		requests.GET("/:id", middleware.RequireRole(model.RoleWorker, model.RoleSupervisor, model.RoleAdmin), h.GetRequest)
		requests.GET("/:id/logs", middleware.RequireRole(model.RoleWorker, model.RoleSupervisor, model.RoleAdmin), h.GetRequestLogs)
		requests.PUT("/:id/approve", middleware.RequireRole(model.RoleSupervisor), h.ApproveRequest)
		requests.PUT("/:id/reject", middleware.RequireRole(model.RoleSupervisor), h.RejectRequest)
		requests.PUT("/:id/deliver", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.DeliverRequest)
	}
}

// respondError maps the typed engine errors onto HTTP statuses. Monthly-cap
// validation errors carry the remaining headroom in the payload.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	resp := response.Error(status, err.Error())
	if remaining, ok := apperror.RemainingOf(err); ok {
		resp.Data = gin.H{"remaining": remaining}
	}
	c.JSON(status, resp)
}

// actorID returns the authenticated worker's ID placed in context by the JWT middleware.
func actorID(c *gin.Context) string {
	id, _ := c.Get("workerID")
	idStr, _ := id.(string)
	return idStr
}

// CreateRequest submits a new commodity request for the authenticated WORKER
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.requestService.CreateRequest(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRequests returns the requests visible to the caller, optionally filtered by status
func (h *RequestHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)

	requests, total, err := h.requestService.ListRequests(c.Request.Context(), actorID(c), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, requests, total, params.Page, params.Limit))
}

// GetRequest returns a single request if the caller may see it
func (h *RequestHandler) GetRequest(c *gin.Context) {
	result, err := h.requestService.GetRequest(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListPending returns the supervisor's approval queue, oldest first
func (h *RequestHandler) ListPending(c *gin.Context) {
	requests, err := h.requestService.ListPending(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// GetRequestLogs returns a request's audit trail, newest first
func (h *RequestHandler) GetRequestLogs(c *gin.Context) {
	logs, err := h.requestService.GetRequestLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}

// AllocationStatus returns the caller's monthly usage per active commodity
func (h *RequestHandler) AllocationStatus(c *gin.Context) {
	status, err := h.allocationService.AllocationStatus(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, status))
}

type approveDTO struct {
	QuantityApproved *int   `json:"quantity_approved" binding:"required"`
	Notes            string `json:"notes"`
}

type rejectDTO struct {
	RejectionReason string `json:"rejection_reason"`
	Notes           string `json:"notes"`
}

// ApproveRequest moves a PENDING request to APPROVED
func (h *RequestHandler) ApproveRequest(c *gin.Context) {
	var req approveDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.requestService.Transition(c.Request.Context(), c.Param("id"), actorID(c), service.TransitionDTO{
		Status:           model.StatusApproved,
		QuantityApproved: req.QuantityApproved,
		Notes:            req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RejectRequest moves a PENDING request to REJECTED
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	var req rejectDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Missing reason is reported by the engine as a validation error
		req.RejectionReason = ""
	}

	result, err := h.requestService.Transition(c.Request.Context(), c.Param("id"), actorID(c), service.TransitionDTO{
		Status:          model.StatusRejected,
		RejectionReason: req.RejectionReason,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeliverRequest confirms delivery of an APPROVED request
func (h *RequestHandler) DeliverRequest(c *gin.Context) {
	result, err := h.requestService.Transition(c.Request.Context(), c.Param("id"), actorID(c), service.TransitionDTO{
		Status: model.StatusDelivered,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
