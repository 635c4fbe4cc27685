package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lbrode/clientspace/internal/access"
	"github.com/lbrode/clientspace/internal/auth"
	"github.com/lbrode/clientspace/internal/cache"
	"github.com/lbrode/clientspace/internal/collab"
	"github.com/lbrode/clientspace/internal/config"
	"github.com/lbrode/clientspace/internal/gateway"
	"github.com/lbrode/clientspace/internal/sched"
	"github.com/lbrode/clientspace/internal/spacedata"
	"github.com/lbrode/clientspace/internal/transport/middleware"
	"github.com/lbrode/clientspace/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, wires the
// stores, cache, services and HTTP surface, and serves until ctx is
// cancelled, then shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	records := gateway.New(gateway.Config{
		BaseURL:       cfg.RecordStore.BaseURL,
		APIToken:      cfg.RecordStore.APIToken,
		Timeout:       cfg.RecordStore.Timeout,
		RatePerSecond: cfg.RecordStore.RatePerSecond,
		Burst:         cfg.RecordStore.Burst,
	}, logger)

	collabStore := collab.New(collab.Config{
		BaseURL: cfg.CollabStore.BaseURL,
		APIKey:  cfg.CollabStore.APIKey,
	}, logger)

	clock := clockwork.NewRealClock()
	store := cache.NewStore(clock)
	scheduler := sched.New(clock)
	defer scheduler.Stop()

	jwt := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	accessSvc := access.NewService(logger, records, collabStore, collabStore, jwt, store, access.Config{
		ShareTTL: cfg.Cache.ShareTTL,
		HashCost: cfg.Auth.HashCost,
	})

	dataSvc := spacedata.NewService(logger, records, store, scheduler, nil, spacedata.Config{
		RecordTTL:  cfg.Cache.RecordTTL,
		StatsTTL:   cfg.Cache.StatsTTL,
		RetryDelay: cfg.Retry.Delay,
	})

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	router := rest.NewRouter(
		rest.RouterConfig{
			AllowedOrigins:  cfg.CORS.Origins(),
			PublicPerMinute: cfg.Server.PublicPerMinute,
			AuthedPerMinute: cfg.Server.AuthedPerMinute,
		},
		rest.NewHealthHandler(records, collabStore, BuildVersion()),
		rest.NewAuthHandler(accessSvc, dataSvc, logger),
		rest.NewShareHandler(accessSvc, dataSvc, logger),
		rest.NewSpaceHandler(dataSvc, accessSvc, accessSvc, accessSvc, collabStore, logger),
		rest.NewWebhookHandler(records, collabStore, rest.WebhookConfig{
			EndpointKeys: cfg.Webhook.EndpointKeys(),
			Secret:       cfg.Webhook.Secret,
		}, logger),
		middleware.Auth(accessSvc),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		limiter,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("app.Run serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app.Run shutdown: %w", err)
	}

	return nil
}
