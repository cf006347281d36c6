package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/assistenteze/agro/internal/clock"
	"github.com/assistenteze/agro/internal/config"
	"github.com/assistenteze/agro/internal/handlers"
	"github.com/assistenteze/agro/internal/logger"
	"github.com/assistenteze/agro/internal/repository"
	"github.com/assistenteze/agro/internal/services"
	"github.com/assistenteze/agro/internal/storage"
)

const (
	shutdownTimeout = 30 * time.Second
	pruneInterval   = 10 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agro: %v\n", err)
		os.Exit(1)
	}
}

// run wires the server and blocks until it shuts down. Returning instead of
// exiting lets deferred cleanup close the store.
func run() error {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting AssistenteZé Agro API", map[string]interface{}{
		"version":        handlers.APIVersion,
		"environment":    cfg.Server.Env,
		"port":           cfg.Server.Port,
		"storage_driver": cfg.Storage.Driver,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Error("Failed to open storage", err, map[string]interface{}{
			"driver": cfg.Storage.Driver,
		})
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close storage", err, nil)
		}
	}()

	log.Info("Storage ready", map[string]interface{}{
		"driver":   cfg.Storage.Driver,
		"data_dir": cfg.Storage.DataDir,
	})

	// Initialize repository and service layers
	clk := clock.SystemClock{}
	sessions := repository.NewSessionRepository(store, clk, cfg.Session.TTL, log)
	propertyRepo := repository.NewPropertyRepository(store, log)

	geocoder := services.PlaceholderGeocoder{}
	otp := services.NewSimulatedOTPService(clk, cfg.OTP.SendDelay, cfg.OTP.VerifyDelay, cfg.OTP.DemoCode)
	authService := services.NewAuthService(otp, sessions, propertyRepo, log)
	propertyService := services.NewPropertyService(propertyRepo, geocoder, clk, log)
	wizardService := services.NewWizardService(propertyService, geocoder, services.SampleMapDrawer{}, clk, services.DefaultWizardIdleTimeout, log)

	// Setup Gin router
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := handlers.NewRouter(handlers.RouterConfig{
		Log:         log,
		Storage:     store,
		Auth:        authService,
		Properties:  propertyService,
		Wizards:     wizardService,
		Geocoder:    geocoder,
		Env:         cfg.Server.Env,
		Driver:      cfg.Storage.Driver,
		CORSOrigins: cfg.CORS.Origins,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				wizardService.Prune(gctx)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", err, map[string]interface{}{
				"timeout": shutdownTimeout.String(),
			})
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", err, nil)
		return err
	}

	log.Info("Server exited", nil)
	return nil
}
