package server

import (
	"github.com/Kyz7/fincore/internal/cache"
	"github.com/Kyz7/fincore/internal/event"
	"github.com/Kyz7/fincore/internal/loan"
	"github.com/Kyz7/fincore/internal/signup"
	"github.com/Kyz7/fincore/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Verifier is the external verification provider used by signup and the
// loan RC lookup.
type Verifier interface {
	signup.Verifier
	loan.RCLookup
}

type Deps struct {
	DB       *gorm.DB
	Cache    cache.Cache
	Events   event.Publisher
	Verifier Verifier

	// RateLimit enables the per-IP limiters on the public auth and signup
	// endpoints.
	RateLimit bool
}

func New(deps Deps) *fiber.App {
	if deps.Cache == nil {
		deps.Cache = cache.NewMemory()
	}
	if deps.Events == nil {
		deps.Events = event.Nop{}
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Static("/uploads", utils.UploadBasePath, fiber.Static{
		Compress:  true,
		ByteRange: true,
		Browse:    false,
		MaxAge:    3600,
	})

	SetupRoutes(app, deps)

	return app
}
