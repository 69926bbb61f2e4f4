package main

import (
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"repairbase/api"
	"repairbase/catalog"
	"repairbase/config"
	"repairbase/db"
	_ "repairbase/docs" // Import for side effect: registers swagger spec via init()
	"repairbase/notify"
	"repairbase/utils"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           RepairBase API
// @version         1.0.0

// @description     ## RepairBase API
// @description
// @description     Backend for phone and device repair shops: customer records, repair orders with a full status history, spare-part tracking, invoices, SMS notifications and revenue statistics.
// @description
// @description     Every account belongs to exactly one shop, and all business data (customers, orders, parts, templates, statistics) is scoped to that shop. The device catalog (device types, brands, series, models, issue suggestions) is scoped to the individual user instead, so every staff member curates their own suggestion lists.
// @description
// @description     **Order lifecycle:** eingegangen → in_bearbeitung → wartet_auf_teile → fertig → abgeholt, with storniert reachable from anywhere. Transitions are explicit (`POST /orders/{id}/transition`) and each one is recorded in the order's status history. The first transition to `fertig` assigns the order its invoice number (RE-YYYY-NNNNNN, one sequence per shop).
// @description
// @description     **Detail queries:** `GET /orders` can filter on the free-form `device_details` JSON. Each `detail_query` parameter is either a condition (`path operator value`) or a logical connector (`and` / `or`), alternating. Operators: `equals`, `contains`, `greater_than`, `less_than`, each also available with an `-insensitive` suffix for case-insensitive string comparison. Paths use dots for nesting (`display.condition`) and numeric indices for arrays (`accessories.0`).
// @description
// @description     Example: `?detail_query=water_damage equals true&detail_query=and&detail_query=accessories contains Ladekabel`

// @license.name  MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.jwt BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Seed random number generator (for OTPs)
	rand.Seed(time.Now().UnixNano())

	// --- Configuration ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL: Failed to load configuration: %v", err)
	}

	// --- Database ---
	database, err := db.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize database: %v", err)
	}

	// --- Catalog Storage ---
	catalogStorage, err := catalog.NewFileStorage(cfg.CatalogFilePath)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize catalog storage: %v", err)
	}

	// --- SMS Gateway ---
	var smsClient *notify.SMSClient
	if cfg.SmsGatewayURL != "" {
		smsClient = notify.NewSMSClient(cfg.SmsGatewayURL, cfg.SmsGatewayToken, cfg.SmsRatePerSec)
		log.Printf("INFO: SMS gateway configured: %s", cfg.SmsGatewayURL)
	} else {
		log.Printf("WARN: No SMS gateway configured; notification endpoints will return 502")
	}

	// --- Gin Router Setup ---
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// --- Public Routes (No Auth Required) ---
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", func(c *gin.Context) {
			api.SignupHandler(c, database, cfg)
		})
		authGroup.POST("/login", func(c *gin.Context) {
			api.LoginHandler(c, database, cfg)
		})
		authGroup.POST("/forgot-password", func(c *gin.Context) {
			api.ForgotPasswordHandler(c, database, cfg)
		})
		authGroup.POST("/reset-password", func(c *gin.Context) {
			api.ResetPasswordHandler(c, database, cfg)
		})
	}

	// --- Protected Routes (Auth Required) ---
	authMiddleware := utils.AuthMiddleware(cfg)
	adminOnly := utils.AdminOnly()

	router.POST("/auth/logout", authMiddleware, func(c *gin.Context) {
		api.LogoutHandler(c, database, cfg)
	})

	// Profile Routes
	profileGroup := router.Group("/profiles")
	profileGroup.Use(authMiddleware)
	{
		profileGroup.GET("/me", func(c *gin.Context) {
			api.GetProfileMeHandler(c, database, cfg)
		})
		profileGroup.PUT("/me", func(c *gin.Context) {
			api.UpdateProfileMeHandler(c, database, cfg)
		})
		profileGroup.GET("", func(c *gin.Context) {
			api.ListStaffHandler(c, database, cfg)
		})
		profileGroup.POST("", adminOnly, func(c *gin.Context) {
			api.CreateStaffHandler(c, database, cfg)
		})
		profileGroup.DELETE("/:id", adminOnly, func(c *gin.Context) {
			api.DeleteStaffHandler(c, database, cfg)
		})
	}

	// Shop Routes
	shopGroup := router.Group("/shop")
	shopGroup.Use(authMiddleware)
	{
		shopGroup.GET("", func(c *gin.Context) {
			api.GetShopHandler(c, database, cfg)
		})
		shopGroup.PUT("", adminOnly, func(c *gin.Context) {
			api.UpdateShopHandler(c, database, cfg)
		})
	}

	// Customer Routes
	customerGroup := router.Group("/customers")
	customerGroup.Use(authMiddleware)
	{
		customerGroup.POST("", func(c *gin.Context) {
			api.CreateCustomerHandler(c, database, cfg)
		})
		customerGroup.GET("", func(c *gin.Context) {
			api.SearchCustomersHandler(c, database, cfg)
		})
		customerGroup.GET("/:id", func(c *gin.Context) {
			api.GetCustomerHandler(c, database, cfg)
		})
		customerGroup.PUT("/:id", func(c *gin.Context) {
			api.UpdateCustomerHandler(c, database, cfg)
		})
		customerGroup.DELETE("/:id", func(c *gin.Context) {
			api.DeleteCustomerHandler(c, database, cfg)
		})
	}

	// Repair Order Routes
	orderGroup := router.Group("/orders")
	orderGroup.Use(authMiddleware)
	{
		orderGroup.POST("", func(c *gin.Context) {
			api.CreateRepairOrderHandler(c, database, cfg)
		})
		orderGroup.GET("", func(c *gin.Context) {
			api.ListRepairOrdersHandler(c, database, cfg)
		})
		orderGroup.GET("/:id", func(c *gin.Context) {
			api.GetRepairOrderHandler(c, database, cfg)
		})
		orderGroup.PUT("/:id", func(c *gin.Context) {
			api.UpdateRepairOrderHandler(c, database, cfg)
		})
		orderGroup.DELETE("/:id", adminOnly, func(c *gin.Context) {
			api.DeleteRepairOrderHandler(c, database, cfg)
		})
		orderGroup.POST("/:id/transition", func(c *gin.Context) {
			api.TransitionRepairOrderHandler(c, database, cfg)
		})
		orderGroup.GET("/:id/invoice", func(c *gin.Context) {
			api.GetInvoiceHandler(c, database, cfg)
		})
		orderGroup.POST("/:id/notify", func(c *gin.Context) {
			api.NotifyCustomerHandler(c, database, cfg, smsClient)
		})
	}

	// Part Order Routes
	partGroup := router.Group("/parts")
	partGroup.Use(authMiddleware)
	{
		partGroup.POST("", func(c *gin.Context) {
			api.CreatePartOrderHandler(c, database, cfg)
		})
		partGroup.GET("", func(c *gin.Context) {
			api.ListPartOrdersHandler(c, database, cfg)
		})
		partGroup.PUT("/:id/status", func(c *gin.Context) {
			api.UpdatePartStatusHandler(c, database, cfg)
		})
		partGroup.DELETE("/:id", func(c *gin.Context) {
			api.DeletePartOrderHandler(c, database, cfg)
		})
	}

	// Message Template Routes
	templateGroup := router.Group("/templates")
	templateGroup.Use(authMiddleware)
	{
		templateGroup.POST("", func(c *gin.Context) {
			api.CreateTemplateHandler(c, database, cfg)
		})
		templateGroup.GET("", func(c *gin.Context) {
			api.ListTemplatesHandler(c, database, cfg)
		})
		templateGroup.PUT("/:id", func(c *gin.Context) {
			api.UpdateTemplateHandler(c, database, cfg)
		})
		templateGroup.DELETE("/:id", func(c *gin.Context) {
			api.DeleteTemplateHandler(c, database, cfg)
		})
		templateGroup.POST("/:id/preview", func(c *gin.Context) {
			api.PreviewTemplateHandler(c, database, cfg)
		})
	}

	// Catalog Routes (per-user, not per-shop)
	catalogGroup := router.Group("/catalog")
	catalogGroup.Use(authMiddleware)
	{
		catalogGroup.GET("/device-types", func(c *gin.Context) {
			api.ListDeviceTypesHandler(c, catalogStorage)
		})
		catalogGroup.POST("/device-types", func(c *gin.Context) {
			api.AddDeviceTypeHandler(c, catalogStorage)
		})
		catalogGroup.DELETE("/device-types/:label", func(c *gin.Context) {
			api.DeleteDeviceTypeHandler(c, catalogStorage)
		})

		catalogGroup.GET("/brands", func(c *gin.Context) {
			api.ListBrandsHandler(c, catalogStorage)
		})
		catalogGroup.POST("/brands", func(c *gin.Context) {
			api.AddBrandHandler(c, catalogStorage)
		})
		catalogGroup.DELETE("/brands", func(c *gin.Context) {
			api.DeleteBrandHandler(c, catalogStorage)
		})

		catalogGroup.GET("/series", func(c *gin.Context) {
			api.ListSeriesHandler(c, catalogStorage)
		})
		catalogGroup.POST("/series", func(c *gin.Context) {
			api.AddSeriesHandler(c, catalogStorage)
		})
		catalogGroup.DELETE("/series", func(c *gin.Context) {
			api.DeleteSeriesHandler(c, catalogStorage)
		})

		catalogGroup.GET("/models", func(c *gin.Context) {
			api.ListModelsHandler(c, catalogStorage)
		})
		catalogGroup.POST("/models", func(c *gin.Context) {
			api.AddModelHandler(c, catalogStorage)
		})
		catalogGroup.DELETE("/models", func(c *gin.Context) {
			api.DeleteModelHandler(c, catalogStorage)
		})

		catalogGroup.GET("/issues", func(c *gin.Context) {
			api.ListIssuesHandler(c, catalogStorage)
		})
		catalogGroup.POST("/issues", func(c *gin.Context) {
			api.AddIssueHandler(c, catalogStorage)
		})
		catalogGroup.DELETE("/issues", func(c *gin.Context) {
			api.DeleteIssueHandler(c, catalogStorage)
		})

		catalogGroup.GET("/suggest", func(c *gin.Context) {
			api.SuggestHandler(c, catalogStorage)
		})
		catalogGroup.POST("/reseed", func(c *gin.Context) {
			api.ReseedHandler(c, catalogStorage)
		})
	}

	// Statistics Routes
	statsGroup := router.Group("/stats")
	statsGroup.Use(authMiddleware)
	{
		statsGroup.GET("", func(c *gin.Context) {
			api.GetStatsHandler(c, database, cfg)
		})
		statsGroup.GET("/export", func(c *gin.Context) {
			api.ExportStatsHandler(c, database, cfg)
		})
	}

	// --- Swagger Route ---
	router.StaticFS("/docs", http.Dir("docs"))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/swagger.json")))

	// --- Start Server ---
	listenAddr := fmt.Sprintf("%s:%s", cfg.ListenAddress, cfg.ListenPort)
	log.Printf("INFO: Starting server on %s", listenAddr)

	server := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("CRITICAL: Server failed to start: %v", err)
	}
}
