package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type WorkerHandler struct {
	workerService service.WorkerService
}

func NewWorkerHandler(workerService service.WorkerService) *WorkerHandler {
	return &WorkerHandler{workerService: workerService}
}

func (h *WorkerHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public routes
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)

	// Me route (any valid token)
	router.GET("/me", middleware.RequireRole(model.RoleWorker, model.RoleSupervisor, model.RoleAdmin), h.GetMe)

	workers := router.Group("/api/workers")
	{
		workers.GET("", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.ListWorkers)
		workers.POST("", middleware.RequireRole(model.RoleAdmin), h.CreateWorker)
		workers.GET("/:id", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.GetWorkerByID)
		workers.PUT("/:id/supervisor", middleware.RequireRole(model.RoleAdmin), h.AssignSupervisor)
		workers.GET("/:id/supervised", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.ListSupervised)
	}
}

// Login authenticates a worker and returns a signed JWT
func (h *WorkerHandler) Login(c *gin.Context) {
	var req service.LoginWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	token, err := h.workerService.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	middleware.SetTokenCookie(c, token.Token)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, token))
}

// Logout clears the access token cookie
func (h *WorkerHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "logged out"}))
}

// GetMe returns the authenticated worker's profile
func (h *WorkerHandler) GetMe(c *gin.Context) {
	worker, err := h.workerService.GetWorkerByID(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, worker))
}

// CreateWorker provisions a new worker (ADMIN only)
func (h *WorkerHandler) CreateWorker(c *gin.Context) {
	var req service.CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	worker, err := h.workerService.CreateWorker(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, worker))
}

// ListWorkers lists workers, optionally filtered by role
func (h *WorkerHandler) ListWorkers(c *gin.Context) {
	params := pagination.Parse(c)

	workers, total, err := h.workerService.ListWorkers(c.Request.Context(), c.Query("role"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, workers, total, params.Page, params.Limit))
}

// GetWorkerByID returns a single worker
func (h *WorkerHandler) GetWorkerByID(c *gin.Context) {
	worker, err := h.workerService.GetWorkerByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, worker))
}

type assignSupervisorDTO struct {
	SupervisorID string `json:"supervisor_id" binding:"required"`
}

// AssignSupervisor reassigns a worker's supervisor (ADMIN only)
func (h *WorkerHandler) AssignSupervisor(c *gin.Context) {
	var req assignSupervisorDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	worker, err := h.workerService.AssignSupervisor(c.Request.Context(), c.Param("id"), req.SupervisorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, worker))
}

// ListSupervised lists the workers supervised by the given supervisor
func (h *WorkerHandler) ListSupervised(c *gin.Context) {
	workers, err := h.workerService.ListSupervised(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, workers))
}
