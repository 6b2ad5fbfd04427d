// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/farmveda/agritrust-backend/internal/config"
	"github.com/farmveda/agritrust-backend/internal/handlers"
	"github.com/farmveda/agritrust-backend/internal/middleware"
	"github.com/farmveda/agritrust-backend/internal/models"
	"github.com/farmveda/agritrust-backend/internal/services"
	"github.com/farmveda/agritrust-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)
	ledger := services.NewLedgerAdapter(cfg)
	store := services.NewVerificationStore(db)

	verificationService := services.NewVerificationService(store, ledger, notificationService, cfg)
	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db, storageService)
	productService := services.NewProductService(db, verificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	verificationHandler := handlers.NewVerificationHandler(verificationService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/verify-email/:token", authHandler.VerifyEmail)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/:id", userHandler.GetPublicProfile)

			protected := users.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.PUT("/profile", userHandler.UpdateProfile)
				protected.DELETE("/account", userHandler.DeleteAccount)
			}
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.SearchProducts)
			products.GET("/mine", middleware.AuthRequired(), middleware.FarmerRequired(), productHandler.GetMyProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)

			farmer := products.Group("")
			farmer.Use(middleware.AuthRequired(), middleware.FarmerRequired())
			{
				farmer.POST("", productHandler.CreateProduct)
				farmer.PUT("/:id", productHandler.UpdateProduct)
				farmer.DELETE("/:id", productHandler.DeactivateProduct)
				farmer.POST("/:id/resubmit", productHandler.ResubmitForVerification)
				farmer.POST("/upload-image", middleware.UploadRateLimit(), productHandler.UploadImage)
			}
		}

		// Public verification lookup (QR code scans)
		verify := v1.Group("/verify")
		{
			verify.GET("/:code", verificationHandler.VerifyProductByCode)
		}

		// Admin verification workflow
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			verifications := admin.Group("/verifications")
			{
				verifications.GET("", verificationHandler.ListQueue)
				verifications.GET("/due", verificationHandler.DueForReverification)
				verifications.GET("/stats", verificationHandler.GetStats)
				verifications.GET("/:id", verificationHandler.GetRecord)
				verifications.GET("/:id/score-preview", verificationHandler.PreviewScore)
				verifications.POST("/:id/transition", verificationHandler.Transition)
			}

			adminProducts := admin.Group("/products")
			{
				adminProducts.POST("/:id/schedule-reverification", verificationHandler.ScheduleReverification)
			}
		}

		// Category routes
		categories := v1.Group("/categories")
		{
			categories.GET("", getCategoriesHandler)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}

func getCategoriesHandler(c *gin.Context) {
	categories := make([]map[string]interface{}, 0, len(models.AllProductCategories))
	for _, category := range models.AllProductCategories {
		categories = append(categories, map[string]interface{}{
			"id":   string(category),
			"name": category.DisplayName(),
		})
	}

	utils.SuccessResponse(c, gin.H{
		"categories": categories,
	})
}
