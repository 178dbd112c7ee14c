package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/anteyko-labs/sushi-flutter/internal/auth"
	"github.com/anteyko-labs/sushi-flutter/internal/availability"
	"github.com/anteyko-labs/sushi-flutter/internal/cart"
	"github.com/anteyko-labs/sushi-flutter/internal/catalog"
	"github.com/anteyko-labs/sushi-flutter/internal/db"
	"github.com/anteyko-labs/sushi-flutter/internal/events"
	"github.com/anteyko-labs/sushi-flutter/internal/ingredient"
	"github.com/anteyko-labs/sushi-flutter/internal/loyalty"
	"github.com/anteyko-labs/sushi-flutter/internal/middleware"
	"github.com/anteyko-labs/sushi-flutter/internal/order"
	"github.com/anteyko-labs/sushi-flutter/internal/reports"
	"github.com/anteyko-labs/sushi-flutter/internal/storage"
)

func main() {

	// ───────────────────────── ENV ─────────────────────────
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	required := []string{
		"JWT_SECRET",
		"DATABASE_URL",
	}
	for _, k := range required {
		if os.Getenv(k) == "" {
			logrus.Fatalf("missing env var: %s", k)
		}
	}

	// ───────────────────────── DB ─────────────────────────
	pgDB := db.ConnectPostgres()
	defer pgDB.Close()

	// ───────────────────────── EVENTS ─────────────────────────
	var publisher events.Publisher = events.Nop{}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafka, err := events.NewKafkaPublisher(strings.Split(brokers, ","))
		if err != nil {
			logrus.Fatalf("kafka init failed: %v", err)
		}
		defer kafka.Close()
		publisher = kafka
	}

	// ───────────────────────── STORAGE ─────────────────────────
	var imageStorage catalog.Storage
	if os.Getenv("R2_ENDPOINT") != "" {
		r2Client, err := storage.NewR2Client(context.Background())
		if err != nil {
			logrus.Fatalf("R2 init failed: %v", err)
		}
		imageStorage = r2Client
	}

	// ───────────────────────── GIN ─────────────────────────
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// ───────────────────────── REPOS ─────────────────────────
	userRepo := auth.NewPostgresUserRepository(pgDB)
	ingredientRepo := ingredient.NewPostgresRepository(pgDB)
	catalogRepo := catalog.NewPostgresRepository(pgDB)
	cartRepo := cart.NewPostgresRepository(pgDB)
	orderRepo := order.NewPostgresRepository(pgDB)
	loyaltyRepo := loyalty.NewPostgresRepository(pgDB)
	reportsRepo := reports.NewRepository(pgDB)

	// ───────────────────────── SERVICES (ORDER MATTERS) ─────────────────────────
	resolver := availability.NewResolver(catalogRepo)

	catalogService := catalog.NewService(catalogRepo, imageStorage)
	ingredientService := ingredient.NewService(ingredientRepo, publisher, catalogService)
	cartService := cart.NewService(cartRepo, catalogRepo, resolver)
	loyaltyService := loyalty.NewService(loyaltyRepo, cartService)
	orderService := order.NewService(orderRepo, catalogRepo, cartService, loyaltyService, publisher)
	authService := auth.NewService(userRepo, cartService)

	// ───────────────────────── HANDLERS ─────────────────────────
	authHandler := auth.NewHandler(authService)
	ingredientHandler := ingredient.NewHandler(ingredientService)
	catalogHandler := catalog.NewHandler(catalogService, resolver)
	cartHandler := cart.NewHandler(cartService)
	orderHandler := order.NewHandler(orderService)
	loyaltyHandler := loyalty.NewHandler(loyaltyService)
	reportsHandler := reports.NewHandler(reportsRepo)

	// ───────────────────────── AUTH ROUTES ─────────────────────────
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)

		protected := authGroup.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/profile", authHandler.Profile)
		}
	}

	// ───────────────────────── PUBLIC CATALOG ─────────────────────────
	api := r.Group("/api")
	{
		api.GET("/rolls", catalogHandler.ListRolls)
		api.GET("/rolls/:id", catalogHandler.GetRoll)
		api.GET("/sets", catalogHandler.ListSets)
		api.GET("/sets/:id", catalogHandler.GetSet)
	}

	// ───────────────────────── CART ROUTES ─────────────────────────
	cartGroup := r.Group("/api/cart")
	cartGroup.Use(middleware.AuthMiddleware())
	{
		cartGroup.GET("", cartHandler.Get)
		cartGroup.POST("/items", cartHandler.Add)
		cartGroup.DELETE("/items/:item_id", cartHandler.Remove)
		cartGroup.DELETE("", cartHandler.Clear)
	}

	// ───────────────────────── ORDER ROUTES ─────────────────────────
	orders := r.Group("/api/orders")
	orders.Use(middleware.AuthMiddleware())
	{
		orders.POST("", orderHandler.Create)
		orders.GET("", orderHandler.ListMine)
		orders.GET("/:id", orderHandler.Get)
	}

	// ───────────────────────── LOYALTY ROUTES ─────────────────────────
	loyaltyGroup := r.Group("/api/loyalty")
	loyaltyGroup.Use(middleware.AuthMiddleware())
	{
		loyaltyGroup.GET("/status", loyaltyHandler.Status)
		loyaltyGroup.GET("/rolls", loyaltyHandler.AvailableRolls)
		loyaltyGroup.POST("/redeem", loyaltyHandler.Redeem)
		loyaltyGroup.GET("/history", loyaltyHandler.History)
	}

	// ───────────────────────── ADMIN ROUTES ─────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(
		middleware.AuthMiddleware(),
		middleware.RequireRole(auth.RoleAdmin),
	)
	{
		// Ingredient ledger
		admin.GET("/ingredients", ingredientHandler.List)
		admin.GET("/ingredients/:id", ingredientHandler.Get)
		admin.POST("/ingredients", ingredientHandler.Create)
		admin.PUT("/ingredients/:id", ingredientHandler.Update)
		admin.DELETE("/ingredients/:id", ingredientHandler.Delete)
		admin.POST("/ingredients/:id/adjust", ingredientHandler.Adjust)
		admin.GET("/ingredients/:id/movements", ingredientHandler.Movements)

		// Rolls and recipes
		admin.POST("/rolls", catalogHandler.CreateRoll)
		admin.PUT("/rolls/:id", catalogHandler.UpdateRoll)
		admin.DELETE("/rolls/:id", catalogHandler.DeleteRoll)
		admin.POST("/rolls/:id/image", catalogHandler.UploadRollImage)
		admin.GET("/rolls/:id/recipe", catalogHandler.Recipe)
		admin.POST("/rolls/:id/recipe", catalogHandler.AddRecipeLine)
		admin.PUT("/rolls/:id/recipe/:ingredient_id", catalogHandler.UpdateRecipeLine)
		admin.DELETE("/rolls/:id/recipe/:ingredient_id", catalogHandler.RemoveRecipeLine)

		// Sets and composition
		admin.POST("/sets", catalogHandler.CreateSet)
		admin.PUT("/sets/:id", catalogHandler.UpdateSet)
		admin.DELETE("/sets/:id", catalogHandler.DeleteSet)
		admin.POST("/sets/:id/image", catalogHandler.UploadSetImage)
		admin.GET("/sets/:id/composition", catalogHandler.Composition)
		admin.POST("/sets/:id/composition", catalogHandler.AddSetItem)
		admin.PUT("/sets/:id/composition/:roll_id", catalogHandler.UpdateSetItem)
		admin.DELETE("/sets/:id/composition/:roll_id", catalogHandler.RemoveSetItem)

		// Orders
		admin.GET("/orders", orderHandler.ListAll)
		admin.PUT("/orders/:id/status", orderHandler.UpdateStatus)
		admin.GET("/orders/:id/ingredients", orderHandler.Usage)

		// Loyalty program
		admin.POST("/loyalty/rolls", loyaltyHandler.AddRoll)
		admin.PUT("/loyalty/rolls/:id", loyaltyHandler.SetRollAvailability)

		// Reports
		admin.GET("/reports/ingredient-usage", reportsHandler.IngredientUsage)
		admin.GET("/reports/sales", reportsHandler.Sales)
		admin.GET("/reports/top-items", reportsHandler.TopItems)
	}

	// ───────────────────────── HEALTH ─────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ───────────────────────── START ─────────────────────────
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	logrus.Infof("API running at http://localhost:%s", port)
	if err := r.Run(":" + port); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
