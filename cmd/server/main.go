package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	adsentity "github.com/vastralabs/karkhana/internal/ads/entity"
	adshandler "github.com/vastralabs/karkhana/internal/ads/handler"
	"github.com/vastralabs/karkhana/internal/ads/meta"
	adsrepo "github.com/vastralabs/karkhana/internal/ads/repository"
	adssvc "github.com/vastralabs/karkhana/internal/ads/service"
	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"github.com/vastralabs/karkhana/internal/catalog/handler"
	"github.com/vastralabs/karkhana/internal/catalog/repository"
	"github.com/vastralabs/karkhana/internal/catalog/service"
	"github.com/vastralabs/karkhana/internal/config"
	fchandler "github.com/vastralabs/karkhana/internal/forecast/handler"
	fcrepo "github.com/vastralabs/karkhana/internal/forecast/repository"
	fcsvc "github.com/vastralabs/karkhana/internal/forecast/service"
	inventity "github.com/vastralabs/karkhana/internal/inventory/entity"
	invhandler "github.com/vastralabs/karkhana/internal/inventory/handler"
	invrepo "github.com/vastralabs/karkhana/internal/inventory/repository"
	invsvc "github.com/vastralabs/karkhana/internal/inventory/service"
	"github.com/vastralabs/karkhana/internal/middleware"
	ordentity "github.com/vastralabs/karkhana/internal/orders/entity"
	ordhandler "github.com/vastralabs/karkhana/internal/orders/handler"
	ordrepo "github.com/vastralabs/karkhana/internal/orders/repository"
	ordsvc "github.com/vastralabs/karkhana/internal/orders/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting karkhana service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := autoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}
	if err := seedComponentRoles(db); err != nil {
		zapLogger.Warn("Seed component roles warning", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)

	minioClient := initMinIO(cfg.MinIO)
	if minioClient == nil && cfg.MinIO.Endpoint != "" {
		zapLogger.Warn("MinIO unavailable, uploads disabled")
	}

	// Catalog
	catalogRepos := repository.NewRepositories(db)
	catalogSvcs := service.NewServices(db, catalogRepos, rdb, zapLogger)
	catalogHandlers := handler.NewHandlers(catalogSvcs)

	catalogSvcs.Recalc.Start()
	defer catalogSvcs.Recalc.Stop()

	// Orders
	orderRepo := ordrepo.NewOrderRepository(db)
	orderSvc := ordsvc.NewOrderService(db, orderRepo, catalogRepos.Product, zapLogger)
	orderHandlers := ordhandler.NewHandlers(orderSvc)

	// Inventory
	invRepo := invrepo.NewInventoryRepository(db)
	inventorySvc := invsvc.NewInventoryService(db, invRepo, catalogRepos.Component, zapLogger)
	documentSvc := invsvc.NewDocumentService(invRepo, catalogSvcs.Component, minioClient, cfg.MinIO.Bucket, zapLogger)
	invHandlers := invhandler.NewHandlers(inventorySvc, documentSvc)

	// Forecast
	demandRepo := fcrepo.NewDemandRepository(db)
	forecastSvc := fcsvc.NewForecastService(demandRepo, catalogSvcs.Resolver, catalogRepos.Product, rdb, zapLogger)
	forecastHandlers := fchandler.NewHandlers(forecastSvc)

	// Ads
	var metaClient adssvc.InsightClient
	if cfg.Meta.AccessToken != "" && cfg.Meta.AdAccountID != "" {
		metaClient = meta.NewClient(cfg.Meta.AccessToken, cfg.Meta.AdAccountID, cfg.Meta.APIVersion, cfg.Meta.BaseURL)
	}
	insightRepo := adsrepo.NewInsightRepository(db)
	insightSvc := adssvc.NewInsightService(insightRepo, metaClient, rdb, zapLogger)
	adsHandlers := adshandler.NewHandlers(insightSvc)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, cfg, catalogHandlers, orderHandlers, invHandlers, adsHandlers, forecastHandlers)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func initMinIO(cfg config.MinIOConfig) *minio.Client {
	if cfg.Endpoint == "" {
		return nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil
	}
	return client
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// catalog
		&entity.ComponentRole{},
		&entity.Product{},
		&entity.Variation{},
		&entity.SKU{},
		&entity.Fabric{},
		&entity.FabricColour{},
		&entity.TrimItem{},
		&entity.ServiceItem{},
		&entity.ProductBOMTemplate{},
		&entity.VariationBOMLine{},
		&entity.SKUBOMLine{},
		// orders
		&ordentity.Order{},
		&ordentity.OrderItem{},
		&ordentity.Return{},
		// inventory
		&inventity.Supplier{},
		&inventity.MaterialStock{},
		&inventity.StockMovement{},
		&inventity.MaterialDocument{},
		// ads
		&adsentity.AdInsight{},
	)
}

// seedComponentRoles inserts the standard garment roles, skipping any that
// already exist
func seedComponentRoles(db *gorm.DB) error {
	roles := []entity.ComponentRole{
		{Code: entity.RoleCodeMainFabric, Name: "Main Fabric", ComponentType: entity.ComponentTypeFabric, Required: true, DefaultQuantity: 1, DefaultUnit: "metres", SortOrder: 1},
		{Code: "lining", Name: "Lining", ComponentType: entity.ComponentTypeFabric, DefaultQuantity: 1, DefaultUnit: "metres", SortOrder: 2},
		{Code: "main_zipper", Name: "Main Zipper", ComponentType: entity.ComponentTypeTrim, DefaultQuantity: 1, DefaultUnit: "pcs", SortOrder: 3},
		{Code: "buttons", Name: "Buttons", ComponentType: entity.ComponentTypeTrim, AllowMultiple: true, DefaultQuantity: 1, DefaultUnit: "pcs", SortOrder: 4},
		{Code: "sewing_thread", Name: "Sewing Thread", ComponentType: entity.ComponentTypeTrim, DefaultQuantity: 1, DefaultUnit: "pcs", SortOrder: 5},
		{Code: "stitching", Name: "Stitching", ComponentType: entity.ComponentTypeService, DefaultQuantity: 1, DefaultUnit: "job", SortOrder: 6},
		{Code: "printing", Name: "Printing", ComponentType: entity.ComponentTypeService, DefaultQuantity: 1, DefaultUnit: "job", SortOrder: 7},
		{Code: "polybag", Name: "Polybag", ComponentType: entity.ComponentTypeTrim, DefaultQuantity: 1, DefaultUnit: "pcs", SortOrder: 8},
	}

	for i := range roles {
		roles[i].ID = uuid.New().String()[:32]
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}, {Name: "component_type"}},
			DoNothing: true,
		}).Create(&roles[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func registerRoutes(
	r *gin.Engine,
	cfg *config.Config,
	catalogH *handler.Handlers,
	orderH *ordhandler.Handlers,
	invH *invhandler.Handlers,
	adsH *adshandler.Handlers,
	fcH *fchandler.Handlers,
) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// component roles
		v1.GET("/component-roles", catalogH.Role.List)
		v1.GET("/component-roles/:id", catalogH.Role.Get)
		v1.POST("/component-roles", catalogH.Role.Create)
		v1.PUT("/component-roles/:id", catalogH.Role.Update)

		// products / variations / skus
		v1.GET("/products", catalogH.Product.List)
		v1.POST("/products", catalogH.Product.Create)
		v1.GET("/products/:id", catalogH.Product.Get)
		v1.PUT("/products/:id", catalogH.Product.Update)
		v1.GET("/products/:id/variations", catalogH.Product.ListVariations)
		v1.POST("/products/:id/variations", catalogH.Product.CreateVariation)
		v1.GET("/variations/:id", catalogH.Product.GetVariation)
		v1.GET("/variations/:id/skus", catalogH.Product.ListSKUs)
		v1.POST("/variations/:id/skus", catalogH.Product.CreateSKU)
		v1.GET("/skus/:id", catalogH.Product.GetSKU)

		// components
		v1.GET("/fabrics", catalogH.Component.ListFabrics)
		v1.POST("/fabrics", catalogH.Component.CreateFabric)
		v1.GET("/fabrics/:id", catalogH.Component.GetFabric)
		v1.GET("/fabrics/:id/colours", catalogH.Component.ListFabricColours)
		v1.POST("/fabrics/:id/colours", catalogH.Component.CreateFabricColour)
		v1.GET("/trim-items", catalogH.Component.ListTrimItems)
		v1.POST("/trim-items", catalogH.Component.CreateTrimItem)
		v1.GET("/service-items", catalogH.Component.ListServiceItems)
		v1.POST("/service-items", catalogH.Component.CreateServiceItem)

		// three-tier BOM
		v1.GET("/products/:id/bom", catalogH.BOM.GetProductBOM)
		v1.PUT("/products/:id/bom/lines", catalogH.BOM.SetTemplateLine)
		v1.DELETE("/products/:id/bom/lines/:roleId", catalogH.BOM.DeleteTemplateLine)
		v1.GET("/variations/:id/bom/lines", catalogH.BOM.ListVariationLines)
		v1.PUT("/variations/:id/bom/lines", catalogH.BOM.SetVariationLine)
		v1.DELETE("/variations/:id/bom/lines/:roleId", catalogH.BOM.DeleteVariationLine)
		v1.GET("/skus/:id/bom/lines", catalogH.BOM.ListSKULines)
		v1.PUT("/skus/:id/bom/lines", catalogH.BOM.SetSKULine)
		v1.DELETE("/skus/:id/bom/lines/:roleId", catalogH.BOM.DeleteSKULine)
		v1.GET("/variations/:id/bom/resolved", catalogH.BOM.ResolveVariation)
		v1.GET("/skus/:id/bom/resolved", catalogH.BOM.ResolveSKU)
		v1.POST("/fabric-mappings", catalogH.BOM.MapFabricColour)
		v1.POST("/fabric-mappings/clear", catalogH.BOM.ClearFabricMapping)

		// consumption grid
		v1.GET("/consumption/grid", catalogH.Consumption.GetGrid)
		v1.POST("/consumption/grid", catalogH.Consumption.ApplyGrid)
		v1.POST("/consumption/grid/reset", catalogH.Consumption.ResetGrid)
		v1.GET("/consumption/grid/export", catalogH.Consumption.ExportExcel)
		v1.POST("/consumption/grid/import", catalogH.Consumption.ImportExcel)
		v1.POST("/consumption/grid/import-csv", catalogH.Consumption.ImportLegacyCSV)

		// orders and returns
		v1.GET("/orders", orderH.Order.List)
		v1.POST("/orders", orderH.Order.Create)
		v1.GET("/orders/:id", orderH.Order.Get)
		v1.PUT("/orders/:id/status", orderH.Order.UpdateStatus)
		v1.GET("/returns", orderH.Order.ListReturns)
		v1.POST("/returns", orderH.Order.CreateReturn)
		v1.PUT("/returns/:id/status", orderH.Order.UpdateReturnStatus)

		// inventory
		v1.GET("/suppliers", invH.Inventory.ListSuppliers)
		v1.POST("/suppliers", invH.Inventory.CreateSupplier)
		v1.PUT("/suppliers/:id", invH.Inventory.UpdateSupplier)
		v1.GET("/stocks", invH.Inventory.ListStocks)
		v1.GET("/stocks/low", invH.Inventory.ListLowStocks)
		v1.POST("/stocks", invH.Inventory.CreateStock)
		v1.GET("/stocks/:id", invH.Inventory.GetStock)
		v1.POST("/stocks/:id/movements", invH.Inventory.RecordMovement)
		v1.GET("/stocks/:id/movements", invH.Inventory.ListMovements)
		v1.POST("/materials/:kind/:id/documents", invH.Document.Upload)
		v1.GET("/materials/:kind/:id/documents", invH.Document.List)
		v1.GET("/documents/:id/download", invH.Document.Download)

		// ads analytics
		v1.POST("/ads/sync", adsH.Insight.Sync)
		v1.GET("/ads/dashboard", adsH.Insight.Dashboard)
		v1.GET("/ads/insights", adsH.Insight.List)

		// demand forecast
		v1.GET("/forecast/demand", fcH.Forecast.GetDemand)
	}
}
