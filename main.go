package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/eastatwest/restaurant-app/clock"
	"github.com/eastatwest/restaurant-app/config"
	"github.com/eastatwest/restaurant-app/database"
	"github.com/eastatwest/restaurant-app/repository"
	"github.com/eastatwest/restaurant-app/router"
	"github.com/eastatwest/restaurant-app/services"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	utils.InitLogger()

	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	cfg := config.Load()
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
		utils.SetJSON()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sysClock := clock.NewSystem()

	// A misconfigured store does not stop the server: guests get the phone
	// fallback and the menu and info pages keep working.
	var (
		repo   repository.ReservationRepository
		outbox repository.Outbox
	)
	if cfg.StoreConfigured() {
		var closeStore func()
		var err error
		repo, outbox, closeStore, err = openStore(ctx, cfg, sysClock)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to open %s store: %v", cfg.Store, err)
		}
		defer closeStore()
	} else {
		utils.ErrorLogger.Errorf("Reservation store %q is not configured, reservations are disabled", cfg.Store)
	}

	if !config.IsEmailConfigured(cfg.Email.APIKey, cfg.Email.From) {
		utils.ErrorLogger.Error("Email provider is not configured, confirmations stay queued until RESEND_API_KEY is set")
	}
	resend := services.NewResendService(services.ResendConfig{
		APIKey:  cfg.Email.APIKey,
		From:    cfg.Email.From,
		BaseURL: cfg.Email.BaseURL,
		Timeout: cfg.Email.Timeout,
	})

	dispatcher := services.NewNotificationDispatcher(outbox, resend, sysClock)
	dispatcher.Interval = cfg.Dispatcher.Interval
	dispatcher.BatchSize = cfg.Dispatcher.BatchSize
	dispatcher.MaxAttempts = cfg.Dispatcher.MaxAttempts
	if outbox != nil {
		dispatcher.Start()
		defer dispatcher.Stop()
	}

	menu, err := services.NewMenuService()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load menu catalog: %v", err)
	}

	r := router.SetupRouter(router.Dependencies{
		Config:       cfg,
		Reservations: services.NewReservationService(repo, cfg.StoreConfigured, sysClock, cfg.RequestTimeout),
		Menu:         menu,
		Dispatcher:   dispatcher,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("Server shutdown: %v", err)
	}
}

// openStore connects the selected reservation store and the outbox the
// dispatcher drains.
func openStore(ctx context.Context, cfg *config.Config, c clock.Clock) (repository.ReservationRepository, repository.Outbox, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite, config.StoreMySQL:
		db, err := config.InitDB(cfg.Store, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		repo := repository.NewGormReservationRepository(db, c)
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return repo, repo, closeDB, nil

	case config.StorePostgres:
		pool, err := config.InitPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := repository.ApplyPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		repo := repository.NewPgReservationRepository(pool, c)
		return repo, repo, pool.Close, nil

	case config.StoreHosted:
		db, err := config.InitDB(config.StoreSQLite, cfg.OutboxDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open local outbox: %w", err)
		}
		if err := database.MigrateOutbox(db); err != nil {
			return nil, nil, nil, fmt.Errorf("migrate local outbox: %w", err)
		}
		outbox := repository.NewGormReservationRepository(db, c)
		repo := repository.NewHostedReservationRepository(repository.HostedConfig{
			URL:     cfg.Backend.URL,
			AnonKey: cfg.Backend.AnonKey,
			Timeout: cfg.RequestTimeout,
		}, outbox, c)
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return repo, outbox, closeDB, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}
