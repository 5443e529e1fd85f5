package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"backoffice_backend/internal/services"
	"backoffice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service sentinels onto API errors. Anything unknown is a 500
// with the cause logged but hidden from the client.
func respondServiceError(c *gin.Context, err error, op string, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.LogWarn(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	case errors.Is(err, services.ErrProductNotFound):
		utils.LogWarn(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", err.Error()))
	case errors.Is(err, services.ErrSaleNotFound):
		utils.LogWarn(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Sale not found.", err.Error()))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.LogWarn(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Insufficient stock.", err.Error()))
	case errors.Is(err, services.ErrProductInUse):
		utils.LogWarn(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Product has sales or stock movements and cannot be deleted.", err.Error()))
	default:
		utils.LogError(err, op)
		utils.RespondInternalError(c, fallback)
	}
}

func respondBindError(c *gin.Context, err error, op string) {
	utils.LogWarn(err, op+": Failed to bind JSON")
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
}

// parseIDParam reads a positive int64 path parameter, writing a 400 on failure.
func parseIDParam(c *gin.Context, name, label string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		details := "must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+label+" ID format.", details))
		return 0, false
	}
	return id, true
}

// parsePaging reads page and page_size, defaulting to 1 and 20 and capping the size at 200.
func parsePaging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

// parseDateRange reads start_date and end_date (YYYY-MM-DD). end_date is inclusive.
func parseDateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if s := c.Query("start_date"); s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return nil, nil, err
		}
		start = &t
	}
	if s := c.Query("end_date"); s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return nil, nil, err
		}
		t = utils.EndOfDay(t)
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, fmt.Errorf("end_date must not be before start_date")
	}
	return start, end, nil
}

// parseOptionalDate accepts RFC 3339 or YYYY-MM-DD. Empty means "now" downstream.
func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := utils.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optionalInt64Query(c *gin.Context, key string) (*int64, error) {
	s := c.Query(key)
	if s == "" {
		return nil, nil
	}
	v, err := utils.StrToInt64(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func listResponse(data interface{}, total, page, pageSize int) gin.H {
	return gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}
}
