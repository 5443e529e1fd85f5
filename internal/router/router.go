package router

import (
	"net/http"

	"backoffice_backend/internal/cache"
	"backoffice_backend/internal/config"
	"backoffice_backend/internal/events"
	"backoffice_backend/internal/handlers"
	"backoffice_backend/internal/middleware"
	"backoffice_backend/internal/repositories"
	"backoffice_backend/internal/services"
	"backoffice_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// Dependencies are the process-wide resources built in main.
type Dependencies struct {
	DB        *sqlx.DB
	Reports   cache.ReportCache
	Publisher events.Publisher
}

// New builds the gin engine with the middleware stack and every route registered.
func New(cfg config.Config, deps Dependencies) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(utils.GinLogger())
	engine.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	Setup(engine, deps)
	return engine
}

func corsConfig(allowedOrigins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowOrigins = allowedOrigins
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader}
	c.ExposeHeaders = []string{middleware.RequestIDHeader}
	c.AllowCredentials = true
	return c
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	// Initialize Repositories
	productRepo := repositories.NewProductRepository(deps.DB)
	movementRepo := repositories.NewStockMovementRepository(deps.DB)
	saleRepo := repositories.NewSaleRepository(deps.DB)

	// Initialize Services
	productService := services.NewProductService(productRepo, deps.DB, deps.Reports, nil)
	stockService := services.NewStockService(productRepo, movementRepo, saleRepo, deps.DB, deps.Reports, deps.Publisher, nil)
	reportService := services.NewReportService(saleRepo, productRepo, deps.Reports)

	RegisterRoutes(engine, Handlers{
		Health:  handlers.NewHealthHandler(deps.DB),
		Product: handlers.NewProductHandler(productService),
		Stock:   handlers.NewStockHandler(stockService),
		Sale:    handlers.NewSaleHandler(stockService),
		Report:  handlers.NewReportHandler(reportService),
	})
}

// Handlers groups the HTTP handlers so tests can register routes over fakes.
type Handlers struct {
	Health  *handlers.HealthHandler
	Product *handlers.ProductHandler
	Stock   *handlers.StockHandler
	Sale    *handlers.SaleHandler
	Report  *handlers.ReportHandler
}

// RegisterRoutes mounts every route group under /api/v1.
func RegisterRoutes(engine *gin.Engine, h Handlers) {
	engine.GET("/ping", h.Health.Ping)
	engine.GET("/healthz", h.Health.Healthz)

	apiV1 := engine.Group("/api/v1")
	apiV1.GET("/ping", h.Health.Ping)
	apiV1.GET("/healthz", h.Health.Healthz)

	SetupProductRoutes(apiV1, h.Product, h.Stock)
	SetupStockRoutes(apiV1, h.Stock)
	SetupSaleRoutes(apiV1, h.Sale)
	SetupReportRoutes(apiV1, h.Report)
}
