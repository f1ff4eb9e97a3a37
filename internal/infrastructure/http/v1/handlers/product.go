package handlers

import (
	"github.com/gin-gonic/gin"

	"essentia/internal/domain/catalogs/product"
)

// ProductHandler handles HTTP requests for finished products.
// Products are created by batch posting, never through the API, so
// there are only read endpoints here.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductHandler creates a new finished product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// List retrieves products.
func (h *ProductHandler) List(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 50)
	offset := h.ParseIntQuery(c, "offset", 0)

	products, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, products)
}

// GetBySKU retrieves a product by SKU.
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	p, err := h.service.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// RegisterRoutes registers finished product routes.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:sku", h.GetBySKU)
}
