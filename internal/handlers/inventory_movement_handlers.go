package handlers

import (
	"net/http"

	"backoffice_backend/internal/models"
	"backoffice_backend/internal/services"
	"backoffice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StockHandler exposes stock-in, stock-out, the movement ledger and balances.
type StockHandler struct {
	stockService services.StockService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(ss services.StockService) *StockHandler {
	return &StockHandler{stockService: ss}
}

// RecordStockIn handles receiving stock for a product.
func (h *StockHandler) RecordStockIn(c *gin.Context) {
	var req services.StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "RecordStockIn")
		return
	}
	result, err := h.stockService.RecordStockIn(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "RecordStockIn: Error from stockService.RecordStockIn", "Failed to record stock in.")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// RecordStockOut handles manual removal of stock (breakage, samples, corrections).
func (h *StockHandler) RecordStockOut(c *gin.Context) {
	var req services.StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "RecordStockOut")
		return
	}
	result, err := h.stockService.RecordStockOut(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "RecordStockOut: Error from stockService.RecordStockOut", "Failed to record stock out.")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetStockMovements handles listing the ledger, newest first.
func (h *StockHandler) GetStockMovements(c *gin.Context) {
	productID, err := optionalInt64Query(c, "product_id")
	if err != nil {
		utils.RespondValidationFailed(c, "product_id: "+err.Error())
		return
	}
	start, end, err := parseDateRange(c)
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	page, pageSize := parsePaging(c)
	filters := models.MovementFilters{
		ProductID:    productID,
		MovementType: utils.NewNullString(c.Query("movement_type")),
		StartDate:    start,
		EndDate:      end,
		Page:         page,
		PageSize:     pageSize,
	}

	movements, total, err := h.stockService.GetMovements(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetStockMovements: Error from stockService.GetMovements", "Failed to fetch stock movements.")
		return
	}
	if movements == nil {
		movements = []models.StockMovement{}
	}
	c.JSON(http.StatusOK, listResponse(movements, total, page, pageSize))
}

// GetProductStock handles reading the current balance and status of a product.
func (h *StockHandler) GetProductStock(c *gin.Context) {
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}
	level, err := h.stockService.GetCurrentStock(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err, "GetProductStock: Error from stockService.GetCurrentStock", "Failed to fetch stock.")
		return
	}
	c.JSON(http.StatusOK, level)
}

// ReconcileProduct compares the stored balance with the movement ledger.
func (h *StockHandler) ReconcileProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}
	rec, err := h.stockService.Reconcile(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err, "ReconcileProduct: Error from stockService.Reconcile", "Failed to reconcile stock.")
		return
	}
	c.JSON(http.StatusOK, rec)
}
