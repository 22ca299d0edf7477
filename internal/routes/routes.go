// Package routes wires repositories, services, and handlers onto the fiber
// app: the merchant checkout API, the public consumer flow, and the admin
// control plane.
package routes

import (
	"context"
	"time"

	"fuelpass/internal/handlers"
	"fuelpass/internal/middleware"
	"fuelpass/internal/repositories"
	"fuelpass/internal/services/apikey"
	"fuelpass/internal/services/auth"
	"fuelpass/internal/services/checkout"
	"fuelpass/internal/services/merchant"
	"fuelpass/internal/services/risk"
	"fuelpass/internal/services/settlement"
	"fuelpass/internal/services/verification"
	"fuelpass/internal/services/webhook"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// SetupRoutes builds the full dependency graph and registers every route.
// Background workers (webhook outbox sweeper, session expiry sweeper) start
// under ctx and stop when it is cancelled.
func SetupRoutes(ctx context.Context, app *fiber.App) {
	// Repositories
	merchantRepo := repositories.NewMerchantRepository(repositories.DB)
	keyRepo := repositories.NewAPIKeyRepository(repositories.DB)
	sessionRepo := repositories.NewCheckoutRepository(repositories.DB)
	ratingRepo := repositories.NewRatingRepository(repositories.DB)
	ledgerRepo := repositories.NewLedgerRepository(repositories.DB)
	eventRepo := repositories.NewWebhookEventRepository(repositories.DB)
	userRepo := repositories.NewUserRepository(repositories.DB)

	// Risk signal providers, all backed by the shared cache.
	store := verification.NewRedisStore(repositories.CacheService)
	identity := verification.NewIdentitySimulator(store, verification.DigitSeed)
	compliance := verification.NewComplianceSimulator(verification.DigitSeed)
	bureau := verification.NewCreditBureauSimulator(store, verification.DigitSeed)
	employment := verification.NewEmploymentSimulator(verification.DigitSeed)

	riskService := risk.NewService(identity, compliance, bureau, employment,
		ratingRepo, risk.NewRatingCache(repositories.CacheService))

	// Core services
	notifier := webhook.NewService(eventRepo, merchantRepo, keyRepo)
	notifier.Start(ctx)

	checkoutService := checkout.NewService(sessionRepo, merchantRepo, ledgerRepo,
		riskService, settlement.NewCalculator(), notifier)
	checkoutService.StartExpirySweeper(ctx, time.Minute)

	merchantService := merchant.NewService(merchantRepo, keyRepo)
	authService := auth.NewService(userRepo)
	keyAuth := apikey.NewService(keyRepo, merchantRepo)

	// Handlers and middleware
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	consumerHandler := handlers.NewConsumerHandler(checkoutService, identity)
	adminHandler := handlers.NewAdminHandler(authService, merchantService, riskService, eventRepo, ledgerRepo)

	keyMiddleware := middleware.NewAPIKeyMiddleware(keyAuth)
	adminMiddleware := middleware.NewAdminMiddleware(authService)

	app.Get("/health", handlers.Health)

	api := app.Group("/api/v1")

	// Merchant API: authenticated by API key.
	merchantAPI := api.Group("/checkout", keyMiddleware.Handler)
	merchantAPI.Post("/sessions", checkoutHandler.Create)
	merchantAPI.Get("/sessions/:token", checkoutHandler.Get)
	merchantAPI.Post("/sessions/:token/cancel", checkoutHandler.Cancel)
	merchantAPI.Post("/sessions/:token/capture", checkoutHandler.Capture)

	// Consumer flow: public, token-scoped, rate-limited. The tight limit on
	// identity endpoints slows challenge brute-forcing.
	consumer := api.Group("/pay", limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
	}))
	consumer.Get("/:token", consumerHandler.GetSession)
	consumer.Post("/:token/confirm", consumerHandler.Confirm)

	identityGroup := api.Group("/pay/:token/identity", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
	}))
	identityGroup.Post("/initiate", consumerHandler.IdentityInitiate)
	identityGroup.Post("/confirm", consumerHandler.IdentityConfirm)

	// Admin control plane: JWT-authenticated operators.
	admin := api.Group("/admin")
	admin.Post("/login", adminHandler.Login)

	authed := admin.Group("/", adminMiddleware.Handler)
	authed.Post("/logout", adminHandler.Logout)
	authed.Get("/consumers/:user_id/rating", adminHandler.GetConsumerRating)

	merchants := authed.Group("/merchants", adminMiddleware.RequireAdmin)
	merchants.Post("/", adminHandler.RegisterMerchant)
	merchants.Get("/:id", adminHandler.GetMerchant)
	merchants.Post("/:id/activate", adminHandler.ActivateMerchant)
	merchants.Post("/:id/suspend", adminHandler.SuspendMerchant)
	merchants.Post("/:id/reinstate", adminHandler.ReinstateMerchant)
	merchants.Post("/:id/keys/rotate", adminHandler.RotateKeys)
	merchants.Get("/:id/webhook-events", adminHandler.ListWebhookEvents)
	merchants.Get("/:id/transactions", adminHandler.ListTransactions)
	merchants.Post("/:id/settlements", adminHandler.SettleMerchant)
}
