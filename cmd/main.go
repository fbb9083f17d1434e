package main

import (
	"context"
	"log"
	"time"

	"github.com/Kyz7/fincore/internal/cache"
	"github.com/Kyz7/fincore/internal/config"
	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/event"
	"github.com/Kyz7/fincore/internal/logger"
	"github.com/Kyz7/fincore/internal/permission"
	"github.com/Kyz7/fincore/internal/server"
	"github.com/Kyz7/fincore/internal/signup"
	"github.com/Kyz7/fincore/internal/user"
	"github.com/Kyz7/fincore/internal/utils"
	"github.com/Kyz7/fincore/internal/verification"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatal("❌ Logger setup failed: ", err)
	}
	defer zl.Sync()

	if err := utils.ValidateJWTSecret(cfg.JWTSecret); err != nil {
		if cfg.IsProduction() {
			log.Fatal("❌ JWT Configuration Error: ", err)
		}
		log.Println("⚠️  JWT secret is weak:", err)
	}
	utils.SetJWTSecret(cfg.JWTSecret)
	log.Println("✅ JWT secret loaded")

	// ========== DATABASE SETUP ==========
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("❌ Database connection failed:", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("❌ Migration failed: ", err)
	}
	log.Println("✅ Database migrated successfully")

	if err := database.RunMigrations(db, "./migrations"); err != nil {
		log.Printf("⚠️  SQL migrations failed: %v", err)
		log.Println("⚠️  Loan search may not use its indexes")
	} else {
		log.Println("✅ SQL migrations completed successfully")
	}

	// ========== STORAGE SETUP ==========
	if err := utils.InitStorage(cfg); err != nil {
		log.Println("⚠️  S3 initialization failed:", err)
		log.Println("⚠️  Falling back to local storage")
		if err := utils.InitLocalStorage(); err != nil {
			log.Fatal("❌ Failed to initialize local storage:", err)
		}
	}
	log.Printf("💾 Storage Mode: %s", utils.GetStorageMode())

	// ========== CACHE & EVENTS ==========
	store, err := cache.New(cfg)
	if err != nil {
		log.Println("⚠️  Redis unavailable, using in-memory cache:", err)
		store = cache.NewMemory()
	}

	var events event.Publisher = event.Nop{}
	if pub, err := event.NewPublisher(cfg.RabbitMQURI, db); err != nil {
		log.Println("⚠️  RabbitMQ unavailable, events will not be published:", err)
	} else {
		events = pub
	}
	defer events.Close()

	// ========== SEED DEFAULT DATA ==========
	if err := permission.NewService(db, store, events).SeedDefaultRolePermissions(context.Background()); err != nil {
		log.Println("⚠️  Failed to seed role permissions:", err)
	} else {
		log.Println("✅ Default role permissions seeded")
	}

	created, err := user.EnsureSuperAdmin(db, cfg.BootstrapAdminName, cfg.BootstrapAdminMobile, cfg.BootstrapAdminMPIN)
	if err != nil {
		log.Println("⚠️  Failed to provision super admin:", err)
	} else if created {
		log.Println("✅ Super admin provisioned for", cfg.BootstrapAdminMobile)
	}

	// ========== BACKGROUND JOBS ==========
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if n, err := utils.CleanupExpiredRefreshTokens(); err != nil {
				zap.L().Error("refresh token cleanup failed", zap.Error(err))
			} else if n > 0 {
				log.Printf("🧹 Cleaned up %d expired refresh tokens", n)
			}

			if n, err := signup.CleanupExpired(db, time.Now()); err != nil {
				zap.L().Error("signup session cleanup failed", zap.Error(err))
			} else if n > 0 {
				log.Printf("🧹 Cleaned up %d expired signup sessions", n)
			}
		}
	}()

	// ========== START SERVER ==========
	app := server.New(server.Deps{
		DB:        db,
		Cache:     store,
		Events:    events,
		Verifier:  verification.NewClient(cfg),
		RateLimit: true,
	})

	log.Printf("🚀 FinCore Server starting on %s", cfg.ServerAddr)
	log.Printf("🔐 JWT Authentication: Enabled")
	log.Printf("📈 Metrics: %s/metrics", cfg.ServerAddr)

	if err := app.Listen(cfg.ServerAddr); err != nil {
		log.Fatal("❌ Failed to start server:", err)
	}
}
