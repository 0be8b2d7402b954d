package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	stockapp "github.com/pos/backend/internal/application/stock"
	"github.com/pos/backend/internal/interfaces/http/dto"
)

// StockHandler handles stock ledger API endpoints
type StockHandler struct {
	BaseHandler
	stockService      *stockapp.Service
	defaultOrder      string
	expiryWarningDays int
}

// NewStockHandler creates a new StockHandler. The default removal order
// and expiry warning window come from configuration.
func NewStockHandler(stockService *stockapp.Service, defaultOrder string, expiryWarningDays int) *StockHandler {
	return &StockHandler{
		stockService:      stockService,
		defaultOrder:      defaultOrder,
		expiryWarningDays: expiryWarningDays,
	}
}

// RegisterRoutes registers all stock ledger routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.POST("/add", h.Add)
		stock.POST("/remove", h.Remove)
		stock.POST("/adjust", h.Adjust)
		stock.GET("/movements", h.ListMovements)
		stock.GET("/products/:id/quantity", h.GetQuantity)
		stock.POST("/products/:id/recompute", h.Recompute)
		stock.GET("/products/:id/batches", h.ListBatches)
		stock.GET("/products/:id/value", h.InventoryValue)
		stock.GET("/batches/expiring", h.ListExpiringBatches)
		stock.POST("/batches/:id/deactivate", h.DeactivateBatch)
	}
}

func (h *StockHandler) Add(c *gin.Context) {
	var req stockapp.AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.stockService.AddStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

func (h *StockHandler) Remove(c *gin.Context) {
	var req stockapp.RemoveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Order == "" {
		req.Order = h.defaultOrder
	}

	result, err := h.stockService.RemoveStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

func (h *StockHandler) Adjust(c *gin.Context) {
	var req stockapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.stockService.AdjustStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

func (h *StockHandler) ListMovements(c *gin.Context) {
	var filter stockapp.MovementHistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.stockService.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

func (h *StockHandler) GetQuantity(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	quantity, err := h.stockService.GetQuantity(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"product_id": id, "quantity": quantity})
}

func (h *StockHandler) Recompute(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	quantity, err := h.stockService.RecomputeQuantity(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"product_id": id, "quantity": quantity})
}

func (h *StockHandler) ListBatches(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batches, err := h.stockService.ListBatches(c.Request.Context(), id, toDomainFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batches)
}

func (h *StockHandler) InventoryValue(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	value, err := h.stockService.InventoryValue(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"product_id": id, "value": value})
}

func (h *StockHandler) ListExpiringBatches(c *gin.Context) {
	withinDays := h.expiryWarningDays
	if raw := c.Query("within_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "within_days must be an integer")
			return
		}
		withinDays = parsed
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batches, err := h.stockService.ListExpiringBatches(c.Request.Context(), withinDays, toDomainFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batches)
}

func (h *StockHandler) DeactivateBatch(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	batch, err := h.stockService.DeactivateBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}
