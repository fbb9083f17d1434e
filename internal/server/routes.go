package server

import (
	"time"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/auth"
	"github.com/Kyz7/fincore/internal/creditcard"
	"github.com/Kyz7/fincore/internal/lead"
	"github.com/Kyz7/fincore/internal/loan"
	"github.com/Kyz7/fincore/internal/metrics"
	"github.com/Kyz7/fincore/internal/middleware"
	"github.com/Kyz7/fincore/internal/notification"
	"github.com/Kyz7/fincore/internal/otp"
	"github.com/Kyz7/fincore/internal/payout"
	"github.com/Kyz7/fincore/internal/permission"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/Kyz7/fincore/internal/search"
	"github.com/Kyz7/fincore/internal/signup"
	"github.com/Kyz7/fincore/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App, deps Deps) {
	permissions := permission.NewService(deps.DB, deps.Cache, deps.Events)
	permissionHandler := permission.NewHandler(permissions, middleware.Actor, middleware.SessionFrom)
	leadHandler := lead.NewHandler(deps.Events)

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "FinCore API is running",
		})
	})
	app.Get("/metrics", metrics.Handler())

	limit := func(n int, window time.Duration) fiber.Handler {
		if !deps.RateLimit {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return limiter.New(limiter.Config{
			Max:        n,
			Expiration: window,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return response.Error(c, fiber.StatusTooManyRequests, response.CodeTooManyRequests, "Too many requests, try again later", nil)
			},
		})
	}

	protected := []fiber.Handler{auth.JWTProtected(), middleware.LoadAccess(permissions)}

	// ==========================================
	// AUTH ROUTES
	// ==========================================
	authGroup := app.Group("/auth")
	authGroup.Post("/signin", limit(5, 15*time.Minute), auth.SigninHandler)
	authGroup.Post("/refresh", limit(10, 5*time.Minute), auth.RefreshHandler)
	authGroup.Post("/logout", auth.JWTProtected(), auth.LogoutHandler)
	authGroup.Get("/profile", auth.JWTProtected(), auth.ProfileHandler)

	// ==========================================
	// SIGNUP WIZARD (No authentication required)
	// ==========================================
	if deps.Verifier != nil {
		signupSvc := signup.NewService(deps.DB, otp.NewService(deps.Cache), deps.Verifier, deps.Events)
		signupGroup := app.Group("/signup", limit(30, 10*time.Minute))
		signup.NewHandler(signupSvc).Register(signupGroup)
	}

	// ==========================================
	// ACCESS
	// ==========================================
	app.Get("/me/access", append(protected, permissionHandler.MyAccess)...)

	permGroup := app.Group("/permissions", protected...)
	permGroup.Get("/roles", middleware.AdministratorOnly(), permissionHandler.RolePermissions)
	permGroup.Put("/roles/:role/:module/:action",
		middleware.RoleProtected(access.SuperAdmin),
		permissionHandler.UpdateRolePermission)
	permGroup.Get("/access", middleware.AdministratorOnly(), permissionHandler.ListUserAccess)
	permGroup.Post("/access/:user_id/:module/toggle", middleware.AdministratorOnly(), permissionHandler.ToggleModuleAccess)
	permGroup.Get("/fields/:user_id", middleware.AdministratorOnly(), permissionHandler.FieldPermissions)
	permGroup.Put("/fields/:user_id", middleware.AdministratorOnly(), permissionHandler.SaveFieldPermissions)
	permGroup.Post("/fields/:user_id/toggle", middleware.AdministratorOnly(), permissionHandler.ToggleFieldPermission)

	// ==========================================
	// USER MANAGEMENT (Admin only)
	// ==========================================
	userGroup := app.Group("/users", protected...)
	userGroup.Use(middleware.AdministratorOnly())
	userGroup.Get("/", user.ListUsersHandler)
	userGroup.Get("/:id", user.GetUserHandler)
	userGroup.Put("/:id/role", user.UpdateRoleHandler)
	userGroup.Post("/:id/deactivate", user.DeactivateUserHandler)
	userGroup.Post("/:id/activate", user.ActivateUserHandler)

	// ==========================================
	// CREDIT CARDS
	// ==========================================
	cardGroup := app.Group("/credit-cards", protected...)
	cardGroup.Get("/",
		middleware.ModuleProtected(access.CreditCards, access.View),
		creditcard.ListHandler)
	cardGroup.Get("/banks",
		middleware.ModuleProtected(access.CreditCards, access.View),
		creditcard.BanksHandler)
	cardGroup.Get("/:id",
		middleware.ModuleProtected(access.CreditCards, access.View),
		creditcard.GetHandler)
	cardGroup.Post("/",
		middleware.ModuleProtected(access.CreditCards, access.Add),
		creditcard.CreateHandler)
	cardGroup.Put("/:id",
		middleware.ModuleProtected(access.CreditCards, access.Edit),
		creditcard.UpdateHandler)
	cardGroup.Post("/:id/image",
		middleware.ModuleProtected(access.CreditCards, access.Edit),
		creditcard.UploadImageHandler)
	cardGroup.Delete("/:id",
		middleware.ModuleProtected(access.CreditCards, access.Delete),
		creditcard.DeleteHandler)

	// ==========================================
	// LOAN DISBURSEMENT
	// ==========================================
	var rc loan.RCLookup
	if deps.Verifier != nil {
		rc = deps.Verifier
	}

	loanGroup := app.Group("/loans", protected...)
	loanGroup.Get("/",
		middleware.ModuleProtected(access.LoanDisbursement, access.View),
		loan.ListHandler)
	loanGroup.Get("/summary",
		middleware.ModuleProtected(access.LoanDisbursement, access.View),
		loan.SummaryHandler)
	loanGroup.Post("/rc-lookup",
		middleware.ModuleProtected(access.LoanDisbursement, access.Add),
		loan.RCLookupHandler(rc))
	loanGroup.Get("/:id",
		middleware.ModuleProtected(access.LoanDisbursement, access.View),
		loan.GetHandler)
	loanGroup.Post("/",
		middleware.ModuleProtected(access.LoanDisbursement, access.Add),
		loan.CreateHandler)
	loanGroup.Put("/:id",
		middleware.ModuleProtected(access.LoanDisbursement, access.Edit),
		loan.UpdateHandler)
	loanGroup.Delete("/:id",
		middleware.ModuleProtected(access.LoanDisbursement, access.Delete),
		loan.DeleteHandler)

	// ==========================================
	// LEADS (gated per lead kind inside the handlers)
	// ==========================================
	leadGroup := app.Group("/leads", protected...)
	leadGroup.Get("/", leadHandler.List)
	leadGroup.Get("/stats", leadHandler.Stats)
	leadGroup.Get("/:id", leadHandler.Get)
	leadGroup.Get("/:id/history", leadHandler.History)
	leadGroup.Post("/", leadHandler.Create)
	leadGroup.Put("/:id/status", leadHandler.UpdateStatus)

	// ==========================================
	// PAYOUTS
	// ==========================================
	payoutGroup := app.Group("/payouts", protected...)
	payoutGroup.Get("/", payout.ListHandler)
	payoutGroup.Get("/summary", payout.SummaryHandler)
	payoutGroup.Post("/", middleware.AdministratorOnly(), payout.CreateHandler)
	payoutGroup.Put("/:id/status", middleware.AdministratorOnly(), payout.UpdateStatusHandler)

	// ==========================================
	// SEARCH (results limited to visible modules)
	// ==========================================
	app.Get("/search", append(protected, limit(60, time.Minute), search.SearchHandler)...)

	// ==========================================
	// NOTIFICATIONS
	// ==========================================
	notificationGroup := app.Group("/notifications", protected...)
	notificationGroup.Get("/", notification.ListHandler)
	notificationGroup.Get("/unread-count", notification.UnreadCountHandler)
	notificationGroup.Put("/read-all", notification.MarkAllReadHandler)
	notificationGroup.Put("/:id/read", notification.MarkReadHandler)
}
