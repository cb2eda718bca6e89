package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wellness-progression/catalog"
	"wellness-progression/config"
	"wellness-progression/handlers"
	"wellness-progression/middleware"
	"wellness-progression/services"
	"wellness-progression/store"
	"wellness-progression/utils"
	"wellness-progression/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceToken == "" {
		log.Fatal("GAME_SERVICE_TOKEN environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := store.Migrate(db); err != nil {
		log.Fatal(err)
	}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal("failed to load catalog:", err)
	}
	if _, err := catalog.Seed(ctx, db, cat); err != nil {
		log.Fatal("failed to seed catalog:", err)
	}
	catalogLevels, err := cat.LevelTable()
	if err != nil {
		log.Fatal("invalid level table:", err)
	}
	levels := store.LoadLevelTable(ctx, db, catalogLevels)

	var procs store.Procedures = store.NewTxProcedures(levels, cfg.StreakTimezone)
	if cfg.ServerProcedures {
		if cfg.DatabaseDriver != "postgres" {
			log.Fatal("SERVER_PROCEDURES requires DATABASE_DRIVER=postgres")
		}
		if err := store.InstallServerProcedures(ctx, db); err != nil {
			log.Fatal(err)
		}
		procs = store.NewServerProcedures(cfg.StreakTimezone)
	}

	points := services.NewPointsService(db, levels, procs)
	streaks := services.NewStreakService(db, procs)
	nutrition := services.NewNutritionService(db, streaks)
	nutrition.Location = cfg.StreakTimezone
	svc := handlers.Services{
		Points:       points,
		Benefits:     services.NewBenefitService(db, points, cfg.AllowNegativeBalance),
		Achievements: services.NewAchievementService(db, points),
		Badges:       services.NewBadgeService(db, points),
		Streaks:      streaks,
		Challenges:   services.NewChallengeService(db, points),
		Nutrition:    nutrition,
	}

	// --- Scheduled jobs ---
	scheduler, err := services.NewScheduler(ctx, cfg.StreakTimezone)
	if err != nil {
		log.Fatal("failed to create scheduler:", err)
	}
	sweeper := services.NewSweeper(db, svc.Achievements, svc.Badges)
	if err := services.RegisterProgressionJobs(scheduler, sweeper, svc.Benefits, cfg.SweepInterval, cfg.SweepLookback); err != nil {
		log.Fatal("failed to register progression jobs:", err)
	}

	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Store(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		archiver := workers.NewLedgerArchiver(db, r2, cfg.StreakTimezone)
		if err := scheduler.Daily("ledger-archive", 0, 15, archiver.ArchivePreviousDay); err != nil {
			log.Fatal("failed to register ledger archive:", err)
		}
	} else {
		log.Println("⚠️  R2 credentials not set, ledger archive disabled")
	}

	if cfg.NutritionSyncURL != "" {
		syncWorker := workers.NewNutritionSyncWorker(db, svc.Nutrition, cfg.NutritionSyncURL, "/api/v1/internal/nutrition-logs/changes", cfg.NutritionSyncToken)
		if err := scheduler.Every("nutrition-sync", time.Minute, syncWorker.SyncOnce); err != nil {
			log.Fatal("failed to register nutrition sync:", err)
		}
	}
	scheduler.Start()

	// --- HTTP ---
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	// 🔐❗ GLOBAL: only Gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	handlers.SetupProgressionRoutes(app, svc)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Level table: %d levels, allow negative balance: %t", len(levels.Levels()), cfg.AllowNegativeBalance)
	log.Println("✅ GatewayAuthMiddleware enforced globally, all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := scheduler.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}
