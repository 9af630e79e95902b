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

type CommodityHandler struct {
	commodityService service.CommodityService
}

func NewCommodityHandler(commodityService service.CommodityService) *CommodityHandler {
	return &CommodityHandler{commodityService: commodityService}
}

func (h *CommodityHandler) RegisterRoutes(router *gin.RouterGroup) {
	commodities := router.Group("/api/commodities")
	{
		commodities.GET("", middleware.RequireRole(model.RoleWorker, model.RoleSupervisor, model.RoleAdmin), h.ListCommodities)
		commodities.GET("/:id", middleware.RequireRole(model.RoleWorker, model.RoleSupervisor, model.RoleAdmin), h.GetCommodityByID)
		commodities.POST("", middleware.RequireRole(model.RoleAdmin), h.CreateCommodity)
		commodities.PUT("/:id", middleware.RequireRole(model.RoleAdmin), h.UpdateCommodity)
	}
}

// ListCommodities lists catalog entries; workers only see active ones
func (h *CommodityHandler) ListCommodities(c *gin.Context) {
	params := pagination.Parse(c)

	role, _ := c.Get("workerRole")
	activeOnly := role == model.RoleWorker || c.Query("active") == "true"

	commodities, total, err := h.commodityService.ListCommodities(c.Request.Context(), activeOnly, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, commodities, total, params.Page, params.Limit))
}

// GetCommodityByID returns a single catalog entry
func (h *CommodityHandler) GetCommodityByID(c *gin.Context) {
	commodity, err := h.commodityService.GetCommodityByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, commodity))
}

// CreateCommodity adds a catalog entry (ADMIN only)
func (h *CommodityHandler) CreateCommodity(c *gin.Context) {
	var req service.CreateCommodityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	commodity, err := h.commodityService.CreateCommodity(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, commodity))
}

// UpdateCommodity updates caps, metadata or the active flag (ADMIN only)
func (h *CommodityHandler) UpdateCommodity(c *gin.Context) {
	var req service.UpdateCommodityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	commodity, err := h.commodityService.UpdateCommodity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, commodity))
}
