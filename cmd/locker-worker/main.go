// cmd/locker-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	awsclient "visa-locker/internal/common/aws"
	"visa-locker/internal/common/camunda"
	"visa-locker/internal/common/config"
	"visa-locker/internal/common/database"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/common/observability"
	"visa-locker/internal/questionnaire/catalog"
	"visa-locker/internal/questionnaire/condition"
	"visa-locker/internal/questionnaire/progress"
	"visa-locker/internal/questionnaire/summary"
	"visa-locker/internal/repository"
	"visa-locker/pkg/registry"

	ar "visa-locker/internal/workers/questionnaire/assess-readiness"
	is "visa-locker/internal/workers/questionnaire/index-summary"
	ns "visa-locker/internal/workers/questionnaire/notify-submission"
)

// worker is what main needs from each task handler.
type worker interface {
	camunda.JobHandler
	IsEnabled() bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting locker worker", map[string]interface{}{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	})

	obs := observability.New("locker-worker")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
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

	// --- PostgreSQL ---
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

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = database.ConnectWithRetry(ctx, "Elasticsearch connection", 15, 2*time.Second, log, func(ctx context.Context) error {
		var err error
		if esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch); err != nil {
			return err
		}
		return esClient.Ping(ctx)
	})
	if err != nil {
		fatal(log, "elasticsearch failed after retries", err)
	}

	// --- Redis ---
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

	// --- AWS ---
	var mail ns.SESService
	var sms ns.SNSService
	if cfg.Integrations.AWS.SES.Enabled || cfg.Integrations.AWS.SNS.Enabled {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			fatal(log, "aws config failed", err)
		}
		if cfg.Integrations.AWS.SES.Enabled {
			mail = awsclient.NewSESClient(awsCfg)
		}
		if cfg.Integrations.AWS.SNS.Enabled {
			sms = awsclient.NewSNSClient(awsCfg)
		}
	}

	records := repository.NewRecordRepository(pg, log)
	drafts := repository.NewDraftCache(rc, time.Duration(cfg.Database.Redis.DraftTTL)*time.Second)

	reg, err := registry.Resolve(cfg.Registry.DestinationsPath)
	if err != nil {
		fatal(log, "destination registry load failed", err)
	}
	deriver := catalog.NewDeriver(reg)
	evaluator := condition.New()

	readiness, err := ar.NewHandler(ar.FromAppConfig(cfg), ar.ServiceDependencies{
		Drafts:     drafts,
		Records:    records,
		Calculator: progress.NewCalculator(deriver, evaluator),
	}, log)
	if err != nil {
		fatal(log, "failed to create assess-readiness handler", err)
	}

	indexer, err := is.NewHandler(is.FromAppConfig(cfg), is.ServiceDependencies{
		Records:   records,
		Search:    esClient.Client,
		Projector: summary.NewProjector(deriver, evaluator),
	}, log)
	if err != nil {
		fatal(log, "failed to create index-summary handler", err)
	}

	notifier, err := ns.NewHandler(ns.FromAppConfig(cfg), ns.ServiceDependencies{
		SES:     mail,
		SNS:     sms,
		Auditor: records,
	}, log)
	if err != nil {
		fatal(log, "failed to create notify-submission handler", err)
	}

	var running []*camunda.Worker
	for taskType, h := range map[string]worker{
		ar.TaskType: readiness,
		is.TaskType: indexer,
		ns.TaskType: notifier,
	} {
		if !h.IsEnabled() {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		running = append(running, camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      taskType,
			MaxJobsActive: orDefault(wcfg.MaxJobsActive, cfg.Camunda.MaxJobsActive),
			Timeout:       config.GetDuration(orDefault(wcfg.Timeout, cfg.Camunda.Timeout)),
			Observability: obs,
		}, h, log))
	}
	log.Info("workers registered", map[string]interface{}{"count": len(running)})

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           routes(zeebe, pg, rc),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, w := range running {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("health/metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	log.Info("locker worker stopped", nil)
}

type pinger func(context.Context) error

func routes(zeebe *camunda.Client, pg *database.PostgresClient, rc *database.RedisClient) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]pinger{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    rc.Ping,
		}
		body := map[string]string{"status": "ready"}
		code := http.StatusOK
		for name, ping := range checks {
			if err := ping(r.Context()); err != nil {
				body[name] = err.Error()
				body["status"] = "not ready"
				code = http.StatusServiceUnavailable
			}
		}
		writeStatus(w, code, body)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	body["time"] = time.Now().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err.Error()})
	os.Exit(1)
}
