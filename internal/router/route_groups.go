package router

import (
	"backoffice_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupProductRoutes sets up the product catalog routes and the per-product stock views.
func SetupProductRoutes(apiGroup *gin.RouterGroup, productHandler *handlers.ProductHandler, stockHandler *handlers.StockHandler) {
	productRoutes := apiGroup.Group("/products")
	{
		productRoutes.POST("", productHandler.CreateProduct)
		productRoutes.GET("", productHandler.GetProducts)
		productRoutes.GET("/:id", productHandler.GetProductByID)
		productRoutes.PUT("/:id", productHandler.UpdateProduct)
		productRoutes.DELETE("/:id", productHandler.DeleteProduct)
		productRoutes.GET("/:id/stock", stockHandler.GetProductStock)
		productRoutes.GET("/:id/reconcile", stockHandler.ReconcileProduct)
	}
}

// SetupStockRoutes sets up manual stock adjustments and the movement ledger.
func SetupStockRoutes(apiGroup *gin.RouterGroup, stockHandler *handlers.StockHandler) {
	apiGroup.POST("/stock-in", stockHandler.RecordStockIn)
	apiGroup.POST("/stock-out", stockHandler.RecordStockOut)
	apiGroup.GET("/stock-movements", stockHandler.GetStockMovements)
}

// SetupSaleRoutes sets up the sale routes.
func SetupSaleRoutes(apiGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	saleRoutes := apiGroup.Group("/sales")
	{
		saleRoutes.POST("", saleHandler.RecordSale)
		saleRoutes.POST("/bottle", saleHandler.RecordBottleSale)
		saleRoutes.GET("", saleHandler.GetSales)
		saleRoutes.GET("/:id", saleHandler.GetSaleByID)
		saleRoutes.DELETE("/:id", saleHandler.DeleteSale)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(apiGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := apiGroup.Group("/reports")
	{
		reportRoutes.GET("/monthly-sales", reportHandler.GetMonthlySales)
		reportRoutes.GET("/daily-sales", reportHandler.GetDailySales)
		reportRoutes.GET("/stock-worth", reportHandler.GetStockWorth)
	}
}
