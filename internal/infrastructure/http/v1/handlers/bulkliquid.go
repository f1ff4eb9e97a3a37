package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/domain/catalogs/bulkliquid"
	"essentia/internal/infrastructure/http/v1/dto"
)

// BulkLiquidHandler handles HTTP requests for bulk liquids.
type BulkLiquidHandler struct {
	*BaseHandler
	service *bulkliquid.Service
}

// NewBulkLiquidHandler creates a new bulk liquid handler.
func NewBulkLiquidHandler(base *BaseHandler, service *bulkliquid.Service) *BulkLiquidHandler {
	return &BulkLiquidHandler{BaseHandler: base, service: service}
}

// Create adds a bulk liquid to the catalog.
func (h *BulkLiquidHandler) Create(c *gin.Context) {
	var req dto.CreateBulkLiquidRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), b); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

// Get retrieves a bulk liquid.
func (h *BulkLiquidHandler) Get(c *gin.Context) {
	liquidID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), liquidID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, b)
}

// List retrieves bulk liquids.
func (h *BulkLiquidHandler) List(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 50)
	offset := h.ParseIntQuery(c, "offset", 0)

	liquids, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, liquids)
}

// RegisterRoutes registers bulk liquid routes.
func (h *BulkLiquidHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
}
