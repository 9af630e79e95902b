package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/api/dashboard")
	{
		dashboard.GET("/stats", middleware.RequireRole(model.RoleWorker, model.RoleSupervisor, model.RoleAdmin), h.DashboardStats)
		dashboard.GET("/analytics", middleware.RequireRole(model.RoleWorker, model.RoleSupervisor, model.RoleAdmin), h.Analytics)
	}
}

// DashboardStats returns request counters scoped to the caller
func (h *StatisticsHandler) DashboardStats(c *gin.Context) {
	stats, err := h.statisticsService.DashboardStats(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// Analytics returns the chart datasets scoped to the caller
func (h *StatisticsHandler) Analytics(c *gin.Context) {
	analytics, err := h.statisticsService.Analytics(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, analytics))
}
