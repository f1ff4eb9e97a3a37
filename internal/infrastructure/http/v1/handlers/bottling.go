package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/domain/documents/bottling"
	"essentia/internal/infrastructure/http/v1/dto"
)

// BottlingHandler handles HTTP requests for bottling batches.
type BottlingHandler struct {
	*BaseHandler
	service *bottling.Service
}

// NewBottlingHandler creates a new bottling batch handler.
func NewBottlingHandler(base *BaseHandler, service *bottling.Service) *BottlingHandler {
	return &BottlingHandler{BaseHandler: base, service: service}
}

// Create posts a new production batch.
func (h *BottlingHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	batch, err := h.service.Create(ctx, serviceReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromBatch(batch))
}

// Get retrieves a batch.
func (h *BottlingHandler) Get(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	batch, err := h.service.GetByID(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(batch))
}

// List retrieves batches with filtering.
func (h *BottlingHandler) List(c *gin.Context) {
	filter := bottling.ListFilter{
		SKU:    c.Query("sku"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if status := c.Query("status"); status != "" {
		s := bottling.Status(status)
		if !s.Valid() {
			h.Error(c, apperror.NewValidation("unknown status").WithDetail("status", status))
			return
		}
		filter.Status = &s
	}

	if recipeID := c.Query("recipeId"); recipeID != "" {
		if parsed, err := id.Parse(recipeID); err == nil {
			filter.RecipeID = &parsed
		}
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

	batches, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.BatchResponse, len(batches))
	for i, b := range batches {
		items[i] = dto.FromBatch(b)
	}

	h.OK(c, dto.BatchListResponse{
		Items: items,
		ListMeta: dto.ListMeta{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Count:  len(items),
		},
	})
}

// Advance moves a batch to the next lifecycle status.
func (h *BottlingHandler) Advance(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.AdvanceBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batch, err := h.service.Advance(c.Request.Context(), batchID, bottling.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(batch))
}

// Cancel reverses a batch.
func (h *BottlingHandler) Cancel(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	// Body is optional for cancellation.
	var req dto.CancelBatchRequest
	_ = c.ShouldBindJSON(&req)

	batch, err := h.service.Cancel(c.Request.Context(), batchID, req.CancelledBy)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(batch))
}

// Update changes production date and notes.
func (h *BottlingHandler) Update(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batch, err := h.service.Update(c.Request.Context(), batchID, bottling.UpdateRequest{
		ProductionDate: req.ProductionDate,
		Notes:          req.Notes,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(batch))
}

// Ledger returns all ledger entries caused by a batch.
func (h *BottlingHandler) Ledger(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	entries, err := h.service.Ledger(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, entries)
}

// RegisterRoutes registers bottling batch routes.
func (h *BottlingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.POST("/:id/advance", h.Advance)
	rg.POST("/:id/cancel", h.Cancel)
	rg.GET("/:id/ledger", h.Ledger)
}
