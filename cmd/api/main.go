package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-stock-approval/internal/handler"
	"go-stock-approval/internal/middleware"
	"go-stock-approval/internal/model"
	"go-stock-approval/internal/repository"
	"go-stock-approval/internal/service"
	"go-stock-approval/internal/ws"
	"go-stock-approval/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.Variant{},
		&model.Transaction{},
	)

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 4. Dependency Injection (Wiring Layers)
	txManager := repository.NewTxManager(db)
	categoryRepo := repository.NewCategoryRepo(db)
	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 5. Seed default roles and admin user
	seedRolesAndAdmin(userRepo, roleRepo)

	invService := service.NewInventoryService(txManager, productRepo, txRepo, wsHub)
	catalogService := service.NewCatalogService(categoryRepo, productRepo)
	dashService := service.NewDashboardService(txRepo)
	authService := service.NewAuthService(userRepo)

	invHandler := handler.NewInventoryHandler(invService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Stock Approval API v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Dashboard Routes
	protected.Get("/reports/stats", dashHandler.GetDashboardStats)
	protected.Get("/reports/stock-movement", dashHandler.GetStockMovement)

	// Category Routes
	protected.Get("/categories", catalogHandler.GetCategories)
	protected.Get("/categories/:id", catalogHandler.GetCategory)
	protected.Post("/categories", middleware.RequireRole(model.RoleAdmin), catalogHandler.CreateCategory)
	protected.Put("/categories/:id", middleware.RequireRole(model.RoleAdmin), catalogHandler.UpdateCategory)
	protected.Delete("/categories/:id", middleware.RequireRole(model.RoleAdmin), catalogHandler.DeleteCategory)

	// Product Routes
	protected.Get("/products", catalogHandler.GetProducts)
	protected.Get("/products/:id", catalogHandler.GetProduct)
	protected.Post("/products", middleware.RequireRole(model.RoleAdmin), catalogHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequireRole(model.RoleAdmin), catalogHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequireRole(model.RoleAdmin), catalogHandler.DeleteProduct)

	// Inventory Transaction Routes
	// Submitting is open to warehouse managers; review is admin-only.
	protected.Get("/inventory", invHandler.GetTransactions)
	protected.Get("/inventory/:id", invHandler.GetTransaction)
	protected.Post("/inventory", middleware.RequireRole(model.RoleAdmin, model.RoleWarehouseManager), invHandler.SubmitTransaction)
	protected.Put("/inventory/:id/review", middleware.RequireRole(model.RoleAdmin), invHandler.ReviewTransaction)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedRolesAndAdmin creates the default roles and admin user if they don't exist
func seedRolesAndAdmin(userRepo repository.UserRepository, roleRepo repository.RoleRepository) {
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@example.com"
	}

	if _, err := userRepo.FindByEmail(adminEmail); err == nil {
		return
	}

	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err != nil {
		log.Printf("Warning: Admin role missing, skipping admin seed: %v", err)
		return
	}

	admin := &model.User{
		Email:    adminEmail,
		FullName: "Administrator",
		RoleID:   &adminRole.ID,
		IsActive: true,
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}
	if err := admin.SetPassword(adminPassword); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}

	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
	} else {
		log.Printf("Admin user created: %s (ADMIN)", adminEmail)
	}
}
