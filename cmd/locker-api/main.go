// cmd/locker-api/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visa-locker/internal/api"
	"visa-locker/internal/common/camunda"
	"visa-locker/internal/common/config"
	"visa-locker/internal/common/database"
	httpclient "visa-locker/internal/common/http"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/common/observability"
	"visa-locker/internal/locker"
	"visa-locker/internal/portal"
	"visa-locker/internal/questionnaire/catalog"
	"visa-locker/internal/repository"
	"visa-locker/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("locker-api")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Destinations ---
	reg, err := registry.Resolve(cfg.Registry.DestinationsPath)
	if err != nil {
		fatal(log, "destination registry load failed", err)
	}
	deriver := catalog.NewDeriver(reg)

	// --- Backing stores ---
	var pg *database.PostgresClient
	err = database.ConnectWithRetry(ctx, "PostgreSQL connection", 15, 2*time.Second, log, func(ctx context.Context) error {
		var err error
		if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
			return err
		}
		return pg.Ping(ctx)
	})
	if err != nil {
		fatal(log, "postgres failed after retries", err)
	}
	defer pg.Close()

	var rc *database.RedisClient
	err = database.ConnectWithRetry(ctx, "Redis connection", 10, 2*time.Second, log, func(ctx context.Context) error {
		var err error
		if rc, err = database.NewRedis(cfg.Database.Redis); err != nil {
			return err
		}
		return rc.Ping(ctx)
	})
	if err != nil {
		fatal(log, "redis failed after retries", err)
	}
	defer rc.Close()

	var zeebe *camunda.Client
	err = database.ConnectWithRetry(ctx, "Zeebe client initialization", 10, 2*time.Second, log, func(context.Context) error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	})
	if err != nil {
		fatal(log, "zeebe client failed after retries", err)
	}
	defer zeebe.Close()

	// --- Portal gateway ---
	gateway := portal.NewClient(cfg.Portal.BaseURL,
		httpclient.NewClient(config.GetDuration(cfg.Portal.Timeout)),
		portal.WithRetry(portal.RetryConfig{
			MaxRetries: cfg.Portal.MaxRetries,
			BaseDelay:  portal.DefaultRetryConfig.BaseDelay,
			MaxDelay:   portal.DefaultRetryConfig.MaxDelay,
		}),
		portal.WithObservability(obs),
		portal.WithLogger(log),
	)

	// --- Sessions ---
	guard := repository.NewRedisUploadGuard(rc, config.GetDuration(cfg.Locker.UploadLockTTL))
	drafts := repository.NewDraftCache(rc, time.Duration(cfg.Database.Redis.DraftTTL)*time.Second)
	hooks := locker.Hooks{
		repository.NewRecordRepository(pg, log),
		locker.NewSubmissionPublisher(zeebe, cfg.Camunda.SubmissionMessage),
	}
	lockerCfg := locker.Config{
		AccessBaseURL:         cfg.Portal.AccessBaseURL,
		ProgressSyncThreshold: cfg.Locker.ProgressSyncThreshold,
		ExemptCountries:       cfg.Locker.ExemptCountrySet(),
		Autosave: locker.AutosaveConfig{
			QueueSize:  cfg.Locker.Autosave.QueueSize,
			MaxRetries: cfg.Locker.Autosave.MaxRetries,
			BaseDelay:  config.GetDuration(cfg.Locker.Autosave.BaseDelay),
			MaxDelay:   config.GetDuration(cfg.Locker.Autosave.MaxDelay),
			Timeout:    config.GetDuration(cfg.Locker.Autosave.Timeout),
		},
	}

	sessions := api.NewSessions(func() *locker.Session {
		return locker.NewSession(gateway, lockerCfg, log,
			locker.WithDeriver(deriver),
			locker.WithUploadGuard(guard),
			locker.WithDraftStore(drafts),
			locker.WithSubmissionHook(hooks),
		)
	}, config.GetDuration(cfg.API.SessionIdle), log)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweepDone := make(chan struct{})
	go func() {
		sessions.Run(sweepCtx, time.Minute)
		close(sweepDone)
	}()

	handler := api.NewHTTPHandler(sessions, cfg.API.MaxUpload, log)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           api.NewRouter(handler, cfg.API.AllowOrigins, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("locker API listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("locker API failed", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("locker API shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	stopSweep()
	<-sweepDone
	log.Info("locker API stopped", nil)
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err.Error()})
	os.Exit(1)
}
