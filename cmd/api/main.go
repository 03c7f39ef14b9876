package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"komagene-kasa/internal/config"
	"komagene-kasa/internal/events"
	"komagene-kasa/internal/handler"
	"komagene-kasa/internal/legacy"
	"komagene-kasa/internal/middleware"
	"komagene-kasa/internal/model"
	"komagene-kasa/internal/repository"
	"komagene-kasa/internal/service"
	"komagene-kasa/internal/store"
	"komagene-kasa/internal/syncer"
	"komagene-kasa/internal/ws"
	"komagene-kasa/pkg/database"
	"komagene-kasa/pkg/jwt"
	"komagene-kasa/pkg/kv"
	zaplog "komagene-kasa/pkg/logger"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	zlog, err := zaplog.New(zaplog.Options{Mode: cfg.LogMode, Level: cfg.LogLevel, Filename: cfg.LogFile})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	jwt.SetSecret(cfg.JWTSecret)

	// 2. Device storage and the local store
	storage, err := openStorage(cfg)
	if err != nil {
		zlog.Fatal("open device storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}

	bus := events.NewBus()
	st := store.New(storage, store.Options{
		SnapshotKey: cfg.SnapshotKey,
		LegacyKey:   cfg.LegacyKey,
		Logger:      zlog.Named("store"),
		Bus:         bus,
		Now:         time.Now,
	})
	if err := st.Load(); err != nil {
		zlog.Fatal("hydrate store", zap.Error(err))
	}
	// Devices that ran the old single-file ledger keep serving it.
	oldLedger, err := legacy.OpenExisting(storage, cfg.LegacyKey, time.Now)
	if err != nil && !errors.Is(err, legacy.ErrNoLedger) {
		zlog.Warn("legacy ledger not readable", zap.String("key", cfg.LegacyKey), zap.Error(err))
	}

	// 3. Remote database. The node keeps running when it is unreachable.
	db, err := database.Connect(database.Options{
		DSN:      cfg.DatabaseURL,
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		TimeZone: cfg.DBTimeZone,
	})
	if err != nil {
		zlog.Fatal("configure database", zap.Error(err))
	}
	if err := db.AutoMigrate(&model.DailyRecord{}, &model.LedgerItem{}, &model.Product{},
		&model.User{}, &model.Privilege{}, &model.Role{}); err != nil {
		zlog.Warn("auto migrate skipped, remote database unreachable", zap.Error(err))
	} else {
		seedPrivilegesRolesAndAdmin(db, zlog)
	}

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(zlog.Named("ws"))
	go wsHub.Run()
	if err := events.Forward(bus, wsHub.OnChange); err != nil {
		zlog.Warn("store events not forwarded", zap.Error(err))
	}

	// 5. Dependency Injection (Wiring Layers)
	recordRepo := repository.NewDailyRecordRepo(db)
	ledgerRepo := repository.NewLedgerRepo(db)
	productRepo := repository.NewProductRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	syncRunner := syncer.New(st, repository.NewRemote(recordRepo, ledgerRepo), zlog.Named("sync"))

	var forwarder service.OrderForwarder
	if cfg.OrderWebhookURL != "" {
		forwarder = &service.WebhookForwarder{URL: cfg.OrderWebhookURL, Secret: cfg.OrderWebhookSecret}
	}

	authService := service.NewAuthService(userRepo, st, zlog.Named("auth"))
	recordService := service.NewRecordService(st, time.Now)
	creditService := service.NewCreditService(st, time.Now)
	reportService := service.NewReportService(st, cfg.ForecastWindowDays, time.Now)
	backupService := service.NewBackupService(st, zlog.Named("backup"), time.Now)
	productService := service.NewProductService(productRepo, cfg.MenuCacheTTL)
	posService := service.NewPosService(productRepo, st, time.Now)
	userService := service.NewUserService(userRepo, roleRepo)
	orderService := service.NewOrderService(st, forwarder, zlog.Named("orders"), time.Now)

	authHandler := handler.NewAuthHandler(authService)
	settingsHandler := handler.NewSettingsHandler(st)
	recordHandler := handler.NewRecordHandler(recordService)
	creditHandler := handler.NewCreditHandler(creditService)
	reportHandler := handler.NewReportHandler(reportService, time.Now)
	backupHandler := handler.NewBackupHandler(backupService, time.Now)
	syncHandler := handler.NewSyncHandler(syncRunner, wsHub)
	productHandler := handler.NewProductHandler(productService)
	posHandler := handler.NewPosHandler(posService)
	orderHandler := handler.NewOrderHandler(orderService)
	userHandler := handler.NewUserHandler(userService)
	legacyHandler := handler.NewLegacyHandler(oldLedger, time.Now)

	sched := startJobs(cfg, backupService, zlog.Named("jobs"))

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Komagene Kasa v1.0",
		BodyLimit: 16 * 1024 * 1024,
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.WebhookSecretHeader,
	}))

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)

	api.Get("/signage/menu", productHandler.Menu)
	api.Post("/orders/import", middleware.RequireWebhookSecret(cfg.OrderWebhookSecret), orderHandler.Import)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo, st))

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)

	protected.Get("/settings", settingsHandler.Get)
	protected.Put("/settings", settingsHandler.Update)

	// Daily records
	protected.Get("/records", middleware.RequirePrivilege(model.PrivRecordView), recordHandler.List)
	protected.Post("/records", middleware.RequirePrivilege(model.PrivRecordWrite), recordHandler.Create)
	protected.Get("/records/:id", middleware.RequirePrivilege(model.PrivRecordView), recordHandler.Get)
	protected.Put("/records/:id", middleware.RequirePrivilege(model.PrivRecordWrite), recordHandler.Update)
	protected.Delete("/records/:id", middleware.RequirePrivilege(model.PrivRecordDelete), recordHandler.Delete)
	protected.Post("/records/:id/close", middleware.RequirePrivilege(model.PrivRecordClose), recordHandler.Close)

	// Credit tabs
	protected.Get("/ledgers", middleware.RequirePrivilege(model.PrivLedgerView), creditHandler.List)
	protected.Post("/ledgers", middleware.RequirePrivilege(model.PrivLedgerWrite), creditHandler.Create)
	protected.Delete("/ledgers/:id", middleware.RequirePrivilege(model.PrivLedgerWrite), creditHandler.Delete)
	protected.Post("/ledgers/:id/pay", middleware.RequirePrivilege(model.PrivLedgerPay), creditHandler.Pay)

	// Reports
	reports := protected.Group("/reports", middleware.RequirePrivilege(model.PrivReportView))
	reports.Get("/summary", reportHandler.Summary)
	reports.Get("/best-worst", reportHandler.BestWorst)
	reports.Get("/forecast", reportHandler.Forecast)
	reports.Get("/export.csv", middleware.RequirePrivilege(model.PrivReportExport), reportHandler.ExportCSV)
	reports.Get("/export.xlsx", middleware.RequirePrivilege(model.PrivReportExport), reportHandler.ExportXLSX)

	// Backups
	protected.Get("/backup", middleware.RequirePrivilege(model.PrivBackupView), backupHandler.Download)
	protected.Post("/backup/restore", middleware.RequirePrivilege(model.PrivBackupRestore), backupHandler.Restore)

	// Sync
	protected.Get("/sync/status", syncHandler.Status)
	protected.Post("/sync/push", middleware.RequirePrivilege(model.PrivSyncRun), syncHandler.Push)
	protected.Post("/sync/pull", middleware.RequirePrivilege(model.PrivSyncRun), syncHandler.Pull)

	// Menu and POS
	protected.Get("/products", productHandler.List)
	protected.Post("/products", middleware.RequirePrivilege(model.PrivProductManage), productHandler.Create)
	protected.Put("/products/:id", middleware.RequirePrivilege(model.PrivProductManage), productHandler.Update)
	protected.Delete("/products/:id", middleware.RequirePrivilege(model.PrivProductManage), productHandler.Delete)
	protected.Post("/pos/checkout", middleware.RequirePrivilege(model.PrivPosCheckout), posHandler.Checkout)

	// Staff of the caller's branch
	protected.Get("/users", middleware.RequirePrivilege(model.PrivUserManage), userHandler.GetUsers)
	protected.Post("/users", middleware.RequirePrivilege(model.PrivUserManage), userHandler.CreateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege(model.PrivUserManage), userHandler.DeactivateUser)

	// Old single-file ledger
	legacyRoutes := protected.Group("/legacy", legacyHandler.Available)
	legacyRoutes.Get("/rows", middleware.RequirePrivilege(model.PrivRecordView), legacyHandler.List)
	legacyRoutes.Post("/rows", middleware.RequirePrivilege(model.PrivRecordWrite), legacyHandler.Create)
	legacyRoutes.Put("/rows/:id", middleware.RequirePrivilege(model.PrivRecordWrite), legacyHandler.Update)
	legacyRoutes.Delete("/rows/:id", middleware.RequirePrivilege(model.PrivRecordDelete), legacyHandler.Delete)
	legacyRoutes.Get("/summary", middleware.RequirePrivilege(model.PrivReportView), legacyHandler.Summary)
	legacyRoutes.Get("/export.csv", middleware.RequirePrivilege(model.PrivReportExport), legacyHandler.ExportCSV)
	legacyRoutes.Get("/backup", middleware.RequirePrivilege(model.PrivBackupView), legacyHandler.Backup)
	legacyRoutes.Post("/restore", middleware.RequirePrivilege(model.PrivBackupRestore), legacyHandler.Restore)

	// Roles and privileges
	protected.Get("/roles", func(c *fiber.Ctx) error {
		roles, err := roleRepo.FindAll()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch roles"})
		}
		return c.JSON(roles)
	})
	protected.Get("/privileges", func(c *fiber.Ctx) error {
		privileges, err := privilegeRepo.FindAll()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch privileges"})
		}
		return c.JSON(privileges)
	})

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
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		zlog.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Panic("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	<-sched.Stop().Done()
	wsHub.Stop()

	if err := storage.Close(); err != nil {
		zlog.Error("close device storage", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zlog.Info("server exited")
}

func openStorage(cfg *config.Config) (kv.Store, error) {
	switch cfg.StorageDriver {
	case "file":
		return kv.OpenFile(cfg.StoragePath)
	case "bolt":
		return kv.OpenBolt(cfg.StoragePath)
	}
	return nil, errors.New("unknown storage driver " + cfg.StorageDriver)
}

// seedPrivilegesRolesAndAdmin creates default privileges, roles and the
// first owner account when they don't exist.
func seedPrivilegesRolesAndAdmin(db *gorm.DB, zlog *zap.Logger) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	if err := privilegeRepo.SeedDefaults(); err != nil {
		zlog.Warn("seed privileges", zap.Error(err))
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		zlog.Warn("seed roles", zap.Error(err))
	}

	allPrivileges, err := privilegeRepo.FindAll()
	if err != nil {
		zlog.Warn("load privileges", zap.Error(err))
		return
	}
	if err := roleRepo.AssignDefaultPrivileges(allPrivileges); err != nil {
		zlog.Warn("assign role privileges", zap.Error(err))
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@komagene.local"
	}
	if _, err := userRepo.FindByEmail(email); err == nil {
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		zlog.Warn("look up owner account", zap.Error(err))
		return
	}

	owner, err := roleRepo.FindByCode(model.RoleOwner)
	if err != nil {
		zlog.Warn("owner role missing", zap.Error(err))
		return
	}

	branch := os.Getenv("ADMIN_BRANCH_ID")
	if branch == "" {
		branch = "merkez"
	}
	admin := &model.User{
		Email:    email,
		FullName: "İşletme Sahibi",
		BranchID: branch,
		RoleID:   &owner.ID,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	if err := admin.SetPassword(password); err != nil {
		zlog.Warn("hash owner password", zap.Error(err))
		return
	}
	if err := userRepo.Create(admin); err != nil {
		zlog.Warn("create owner account", zap.Error(err))
		return
	}
	zlog.Info("owner account created", zap.String("email", email), zap.String("branch_id", branch))
}
