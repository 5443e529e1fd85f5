package handlers

import (
	"net/http"

	"backoffice_backend/internal/models"
	"backoffice_backend/internal/services"
	"backoffice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ProductHandler serves the product catalog.
type ProductHandler struct {
	productService services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ps services.ProductService) *ProductHandler {
	return &ProductHandler{productService: ps}
}

// CreateProduct handles adding a product with its opening stock.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateProduct")
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateProduct: Error from productService.CreateProduct", "Failed to create product.")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts handles listing products with filters and pagination.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	page, pageSize := parsePaging(c)
	filters := models.ProductFilters{
		Category: utils.NewNullString(c.Query("category")),
		Status:   utils.NewNullString(c.Query("status")),
		Search:   utils.NewNullString(c.Query("search")),
		Page:     page,
		PageSize: pageSize,
	}

	products, totalCount, err := h.productService.GetProducts(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetProducts: Error from productService.GetProducts", "Failed to fetch products.")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, listResponse(products, totalCount, page, pageSize))
}

// GetProductByID handles fetching a single product.
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}
	product, err := h.productService.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err, "GetProductByID: Error from productService.GetProductByID", "Failed to fetch product.")
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct handles editing product metadata. Stock cannot be edited here.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateProduct")
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), productID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateProduct: Error from productService.UpdateProduct", "Failed to update product.")
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles removing a product that has no history.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}
	if err := h.productService.DeleteProduct(c.Request.Context(), productID); err != nil {
		respondServiceError(c, err, "DeleteProduct: Error from productService.DeleteProduct", "Failed to delete product.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
