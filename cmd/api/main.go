// SettleUp is a shared expense ledger with settlement tracking.
//
// @title SettleUp API
// @version 1.0
// @description Shared expense ledger and settlement service.
// @BasePath /api/v1
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/adhamj/settleup/docs"
	"github.com/adhamj/settleup/internal/config"
	"github.com/adhamj/settleup/internal/database"
	"github.com/adhamj/settleup/internal/expense"
	"github.com/adhamj/settleup/internal/expense/split"
	"github.com/adhamj/settleup/internal/group"
	"github.com/adhamj/settleup/internal/notification"
	"github.com/adhamj/settleup/internal/settlement"
	"github.com/adhamj/settleup/internal/user"
	"github.com/adhamj/settleup/internal/wallet"
	"github.com/adhamj/settleup/pkg/logging"
	mw "github.com/adhamj/settleup/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	logging.Setup()
	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to database")

	splitFactory := split.NewFactory()

	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)

	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService, cfg.JWTSecret)

	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo, notificationService)
	groupHandler := group.NewHandler(groupService)

	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, splitFactory, notificationService)
	expenseHandler := expense.NewHandler(expenseService)

	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, notificationService)
	settlementHandler := settlement.NewHandler(settlementService)

	walletRepo := wallet.NewRepository(db)
	walletService := wallet.NewService(walletRepo)
	walletHandler := wallet.NewHandler(walletService)

	limiter := mw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r := chi.NewRouter()

	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Registration issues the session token, so the user routes sit
		// outside the auth gate.
		r.Group(func(r chi.Router) {
			r.Use(limiter.Handler)
			r.Mount("/users", userHandler.Routes())
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(cfg.JWTSecret, cfg.AllowTestHeader))
			r.Use(limiter.Handler)

			r.Mount("/groups", groupHandler.Routes())
			r.Mount("/expenses", expenseHandler.Routes())
			r.Mount("/settlements", settlementHandler.Routes())
			r.Mount("/wallet", walletHandler.Routes())
			r.Mount("/notifications", notificationHandler.Routes())
		})
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	slog.Info("server starting", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
