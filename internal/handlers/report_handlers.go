package handlers

import (
	"net/http"
	"strconv"
	"time"

	"backoffice_backend/internal/models"
	"backoffice_backend/internal/services"
	"backoffice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the accounting summaries and the sales calendar.
type ReportHandler struct {
	reportService services.ReportService
	now           func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs, now: time.Now}
}

// GetMonthlySales handles GET /reports/monthly-sales?year=YYYY. Year defaults to the current one.
func (h *ReportHandler) GetMonthlySales(c *gin.Context) {
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(h.now().Year())))
	if err != nil {
		utils.RespondValidationFailed(c, "year must be a number")
		return
	}
	totals, err := h.reportService.GetMonthlySalesTotals(c.Request.Context(), year)
	if err != nil {
		respondServiceError(c, err, "GetMonthlySales: Error from reportService.GetMonthlySalesTotals", "Failed to fetch sales report.")
		return
	}
	if totals == nil {
		totals = []models.MonthlySalesTotal{}
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "data": totals})
}

// GetDailySales handles GET /reports/daily-sales?year=YYYY&month=M for the sales calendar.
func (h *ReportHandler) GetDailySales(c *gin.Context) {
	now := h.now()
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		utils.RespondValidationFailed(c, "year must be a number")
		return
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil {
		utils.RespondValidationFailed(c, "month must be a number")
		return
	}
	totals, err := h.reportService.GetDailySalesTotals(c.Request.Context(), year, month)
	if err != nil {
		respondServiceError(c, err, "GetDailySales: Error from reportService.GetDailySalesTotals", "Failed to fetch sales calendar.")
		return
	}
	if totals == nil {
		totals = []models.DailySalesTotal{}
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "data": totals})
}

// GetStockWorth handles GET /reports/stock-worth.
func (h *ReportHandler) GetStockWorth(c *gin.Context) {
	worth, err := h.reportService.GetStockWorth(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetStockWorth: Error from reportService.GetStockWorth", "Failed to fetch stock worth.")
		return
	}
	c.JSON(http.StatusOK, worth)
}
