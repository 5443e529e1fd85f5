package handlers

import (
	"math"
	"net/http"
	"strconv"

	"backoffice_backend/internal/models"
	"backoffice_backend/internal/services"
	"backoffice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler records and lists sales. Recording goes through the stock service so the
// sale, its movement and the balance change commit together.
type SaleHandler struct {
	stockService services.StockService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ss services.StockService) *SaleHandler {
	return &SaleHandler{stockService: ss}
}

type recordSalePayload struct {
	services.RecordSaleRequest
	Date string `json:"date"`
}

type recordBottleSalePayload struct {
	services.RecordBottleSaleRequest
	Date string `json:"date"`
}

// saleResponse adds the discount granted off the list total.
type saleResponse struct {
	models.Sale
	Discount float64 `json:"discount"`
}

func newSaleResponse(sale models.Sale) saleResponse {
	return saleResponse{Sale: sale, Discount: math.Round(sale.Discount()*100) / 100}
}

// RecordSale handles a sale of a product.
func (h *SaleHandler) RecordSale(c *gin.Context) {
	var payload recordSalePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err, "RecordSale")
		return
	}
	date, err := parseOptionalDate(payload.Date)
	if err != nil {
		utils.RespondValidationFailed(c, "date: "+err.Error())
		return
	}
	req := payload.RecordSaleRequest
	req.Date = date

	sale, err := h.stockService.RecordSale(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "RecordSale: Error from stockService.RecordSale", "Failed to record sale.")
		return
	}
	c.JSON(http.StatusCreated, newSaleResponse(*sale))
}

// RecordBottleSale handles selling 3ml or 6ml bottles decanted from a perfume.
func (h *SaleHandler) RecordBottleSale(c *gin.Context) {
	var payload recordBottleSalePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err, "RecordBottleSale")
		return
	}
	date, err := parseOptionalDate(payload.Date)
	if err != nil {
		utils.RespondValidationFailed(c, "date: "+err.Error())
		return
	}
	req := payload.RecordBottleSaleRequest
	req.Date = date

	sale, err := h.stockService.RecordBottleSale(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "RecordBottleSale: Error from stockService.RecordBottleSale", "Failed to record bottle sale.")
		return
	}
	c.JSON(http.StatusCreated, newSaleResponse(*sale))
}

// GetSales handles listing sales, newest first.
func (h *SaleHandler) GetSales(c *gin.Context) {
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
	filters := models.SaleFilters{
		ProductID: productID,
		StartDate: start,
		EndDate:   end,
		Page:      page,
		PageSize:  pageSize,
	}

	sales, total, err := h.stockService.GetSales(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetSales: Error from stockService.GetSales", "Failed to fetch sales.")
		return
	}
	data := make([]saleResponse, 0, len(sales))
	for _, sale := range sales {
		data = append(data, newSaleResponse(sale))
	}
	c.JSON(http.StatusOK, listResponse(data, total, page, pageSize))
}

// GetSaleByID handles fetching a single sale.
func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	saleID, ok := parseIDParam(c, "id", "sale")
	if !ok {
		return
	}
	sale, err := h.stockService.GetSaleByID(c.Request.Context(), saleID)
	if err != nil {
		respondServiceError(c, err, "GetSaleByID: Error from stockService.GetSaleByID", "Failed to fetch sale.")
		return
	}
	c.JSON(http.StatusOK, newSaleResponse(*sale))
}

// DeleteSale removes a sale. With ?restock=true the sold quantity goes back into stock.
func (h *SaleHandler) DeleteSale(c *gin.Context) {
	saleID, ok := parseIDParam(c, "id", "sale")
	if !ok {
		return
	}
	restock, err := strconv.ParseBool(c.DefaultQuery("restock", "false"))
	if err != nil {
		utils.RespondValidationFailed(c, "restock must be true or false")
		return
	}
	if err := h.stockService.DeleteSale(c.Request.Context(), saleID, restock); err != nil {
		respondServiceError(c, err, "DeleteSale: Error from stockService.DeleteSale", "Failed to delete sale.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted successfully", "restocked": restock})
}
