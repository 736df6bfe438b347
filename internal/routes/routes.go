package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kivu-mc/kivu_mc/internal/auth"
	"github.com/kivu-mc/kivu_mc/internal/client"
	"github.com/kivu-mc/kivu_mc/internal/config"
	"github.com/kivu-mc/kivu_mc/internal/identity"
	"github.com/kivu-mc/kivu_mc/internal/ledger"
	"github.com/kivu-mc/kivu_mc/internal/loan"
	"github.com/kivu-mc/kivu_mc/internal/middleware"
	"github.com/kivu-mc/kivu_mc/internal/notification"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without a
// database the in-memory backends are wired instead, which keeps local
// development and tests free of external services.
func Setup(app *fiber.App, d Deps) error {
	if d.Cfg.IsProduction() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Storage backends.
	var wallets wallet.Store
	if d.DB != nil {
		wallets = wallet.NewPostgresStore(d.DB)
	} else {
		wallets = wallet.NewInMemory()
	}
	if err := wallet.EnsureHouse(context.Background(), wallets, d.Cfg.HouseWalletAddress, d.Cfg.HouseOpeningBalance); err != nil {
		return fmt.Errorf("seed house wallet: %w", err)
	}

	var ledgerRepo ledger.Repository
	if d.DB != nil {
		ledgerRepo = ledger.NewPostgresRepository(d.DB, d.Cfg.HouseWalletAddress)
	} else {
		ledgerRepo = ledger.NewInMemory(wallets, d.Cfg.HouseWalletAddress)
	}

	var clientRepo client.Repository
	if d.DB != nil {
		clientRepo = client.NewPostgresRepository(d.DB)
	} else {
		clientRepo = client.NewInMemory()
	}

	var loanRepo loan.Repository
	if d.DB != nil {
		loanRepo = loan.NewPostgresRepository(d.DB, d.Cfg.HouseWalletAddress)
	} else {
		loanRepo = loan.NewInMemory(ledgerRepo, d.Cfg.HouseWalletAddress)
	}

	var userRepo identity.Repository
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
	}

	// Services and handlers.
	notifier := notification.NewLoggerNotifier(d.Logger)
	ledgerSvc := ledger.NewService(ledgerRepo, notifier)
	clientSvc := client.NewService(clientRepo, wallets, d.Cfg.ClientOpeningBalance)
	loanSvc := loan.NewService(loanRepo, clientRepo, notifier)
	userSvc := identity.NewService(userRepo, wallets, d.Cfg.StaffOpeningBalance)
	tokenSvc := auth.NewService(d.Cfg, userRepo)

	// A fresh in-memory instance has no users and registration sits behind
	// an admin token, so dev mode seeds one.
	if d.DB == nil {
		if _, err := userSvc.Register(context.Background(), identity.RegisterInput{
			Name:     "Administrator",
			Email:    "admin@kivu.local",
			Password: "admin-dev-password",
			Role:     identity.RoleAdmin,
		}); err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}
		d.Logger.Warn("seeded development admin user", "email", "admin@kivu.local")
	}

	walletHandler := wallet.NewHandler(wallets)
	ledgerHandler := ledger.NewHandler(ledgerSvc)
	clientHandler := client.NewHandler(clientSvc)
	loanHandler := loan.NewHandler(loanSvc)
	userHandler := identity.NewHandler(userSvc)
	authHandler := auth.NewHandler(userSvc, tokenSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes.
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes.
	protected := api.Group("", middleware.JWTAuth(tokenSvc))
	if d.Cache != nil {
		// Writes through these groups replay their stored response when a
		// request is retried with the same Idempotency-Key.
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterUserRoutes(protected, userHandler)
	RegisterClientRoutes(protected, clientHandler, loanHandler, clientSvc, ledgerSvc)
	RegisterWalletRoutes(protected, walletHandler, ledgerHandler)
	RegisterTransactionRoutes(protected, ledgerHandler, walletHandler)
	RegisterLoanRoutes(protected, loanHandler)

	return nil
}
