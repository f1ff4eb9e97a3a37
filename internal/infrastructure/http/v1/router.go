// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"essentia/internal/core/numerator"
	"essentia/internal/domain/catalogs/bulkliquid"
	"essentia/internal/domain/catalogs/material"
	"essentia/internal/domain/catalogs/product"
	"essentia/internal/domain/catalogs/recipe"
	"essentia/internal/domain/costing"
	"essentia/internal/domain/currency"
	"essentia/internal/domain/documents/bottling"
	"essentia/internal/domain/registers/ledger"
	"essentia/internal/infrastructure/http/v1/handlers"
	"essentia/internal/infrastructure/http/v1/middleware"
	"essentia/internal/infrastructure/storage/postgres"
	"essentia/internal/infrastructure/storage/postgres/catalog_repo"
	"essentia/internal/infrastructure/storage/postgres/document_repo"
	"essentia/internal/infrastructure/storage/postgres/register_repo"
	"essentia/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Logger    *logger.Logger

	// Numerator for document number generation
	Numerator numerator.Generator

	// Converter for display-currency figures
	Converter currency.Converter

	CostingConfig costing.Config
	EngineConfig  bottling.Config
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	baseHandler := handlers.NewBaseHandler()

	// Repositories
	materialRepo := catalog_repo.NewMaterialRepo(cfg.TxManager)
	liquidRepo := catalog_repo.NewBulkLiquidRepo(cfg.TxManager)
	recipeRepo := catalog_repo.NewRecipeRepo(cfg.TxManager)
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	ledgerRepo := register_repo.NewLedgerRepo(cfg.TxManager)
	batchRepo := document_repo.NewBottlingRepo(cfg.TxManager)

	// Services
	materialService := material.NewService(materialRepo)
	liquidService := bulkliquid.NewService(liquidRepo)
	recipeService := recipe.NewService(recipeRepo, cfg.TxManager)
	productService := product.NewService(productRepo)
	ledgerService := ledger.NewService(ledgerRepo)
	calculator := costing.NewCalculator(cfg.CostingConfig)

	engine := bottling.NewService(
		batchRepo,
		recipeService,
		materialRepo,
		liquidRepo,
		productService,
		ledgerService,
		calculator,
		cfg.Converter,
		cfg.Numerator,
		cfg.TxManager,
		cfg.EngineConfig,
	)

	api := router.Group("/api/v1")
	{
		catalogs := api.Group("/catalog")
		handlers.NewMaterialHandler(baseHandler, materialService, ledgerService).
			RegisterRoutes(catalogs.Group("/materials"))
		handlers.NewBulkLiquidHandler(baseHandler, liquidService).
			RegisterRoutes(catalogs.Group("/bulk-liquids"))
		handlers.NewRecipeHandler(baseHandler, recipeService).
			RegisterRoutes(catalogs.Group("/recipes"))
		handlers.NewProductHandler(baseHandler, productService).
			RegisterRoutes(catalogs.Group("/products"))

		handlers.NewBottlingHandler(baseHandler, engine).
			RegisterRoutes(api.Group("/document/bottling-batches"))
	}

	return router
}
