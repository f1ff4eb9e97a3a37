package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"essentia/internal/core/apperror"
	"essentia/internal/core/entity"
	"essentia/internal/core/id"
	"essentia/internal/domain/catalogs/material"
	"essentia/internal/domain/registers/ledger"
	"essentia/internal/infrastructure/http/v1/dto"
)

// MaterialHandler handles HTTP requests for raw materials.
type MaterialHandler struct {
	*BaseHandler
	service *material.Service
	ledger  *ledger.Service
}

// NewMaterialHandler creates a new raw material handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service, ledgerSvc *ledger.Service) *MaterialHandler {
	return &MaterialHandler{BaseHandler: base, service: service, ledger: ledgerSvc}
}

// Create adds a raw material to the catalog.
func (h *MaterialHandler) Create(c *gin.Context) {
	var req dto.CreateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// Get retrieves a material.
func (h *MaterialHandler) Get(c *gin.Context) {
	materialID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, m)
}

// Update changes catalog fields of a material. Stock is never mutated
// here; only batch posting moves stock.
func (h *MaterialHandler) Update(c *gin.Context) {
	materialID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	m, err := h.service.GetByID(ctx, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(m)

	if err := h.service.Update(ctx, m); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, m)
}

// List retrieves materials with filtering.
func (h *MaterialHandler) List(c *gin.Context) {
	filter := material.ListFilter{
		Search:       c.Query("search"),
		BelowReorder: c.Query("belowReorder") == "true",
		Limit:        h.ParseIntQuery(c, "limit", 50),
		Offset:       h.ParseIntQuery(c, "offset", 0),
	}

	if category := c.Query("category"); category != "" {
		cat := material.Category(category)
		filter.Category = &cat
	}

	materials, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, materials)
}

// History returns the stock ledger history for a material.
func (h *MaterialHandler) History(c *gin.Context) {
	materialID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	filter := ledger.HistoryFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if txType := c.Query("txType"); txType != "" {
		t := entity.TransactionType(txType)
		filter.TxType = &t
	}
	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.FromDate = &parsed
		}
	}
	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.ToDate = &parsed
		}
	}

	entries, err := h.ledger.History(c.Request.Context(), materialID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, entries)
}

// RegisterRoutes registers raw material routes.
func (h *MaterialHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.GET("/:id/history", h.History)
}
