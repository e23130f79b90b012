// cmd/worker-manager/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"connector-workers/internal/common/camunda"
	"connector-workers/internal/common/config"
	"connector-workers/internal/common/database"
	"connector-workers/internal/common/llm"
	"connector-workers/internal/common/logger"
	"connector-workers/internal/common/observability"
	"connector-workers/internal/common/session"

	// Connector pipeline workers (6)
	ccs "connector-workers/internal/workers/connector/calculate-compatibility-score"
	ext "connector-workers/internal/workers/connector/extract-search-criteria"
	fc "connector-workers/internal/workers/connector/filter-candidates"
	gcs "connector-workers/internal/workers/connector/generate-conversation-starters"
	pct "connector-workers/internal/workers/connector/process-chat-turn"
	scn "connector-workers/internal/workers/connector/suggest-connections"

	// Data access workers (1)
	lcp "connector-workers/internal/workers/data-access/load-candidate-pool"
)

const serviceName = "connector-workers"

// retryWithBackoff runs operation until it succeeds, maxRetries is exhausted
// or ctx is done.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries uint64, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initialDelay
	expo.MaxElapsedTime = 0

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return operation()
	}, backoff.WithContext(backoff.WithMaxRetries(expo, maxRetries), ctx), func(err error, next time.Duration) {
		log.Warn(operationName+" failed, retrying...",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Uint64("maxRetries", maxRetries),
			zap.Duration("nextRetryIn", next),
		)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if err := cfg.ValidateWorkerRuntime(); err != nil {
		zapLog.Fatal("invalid worker configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	svc := cfg.Observability.ServiceName
	if svc == "" {
		svc = serviceName
	}
	obs, err := observability.New(svc)
	if err != nil {
		zapLog.Warn("otel metrics exporter unavailable", zap.Error(err))
	}
	defer obs.Shutdown()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingOptions{
		ServiceName: svc,
		Version:     cfg.App.Version,
		Endpoint:    cfg.Observability.TracingEndpoint,
		Insecure:    cfg.Observability.TracingInsecure,
		SampleRatio: cfg.Observability.SampleRatio,
	})
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}

	// --- Session store ---
	store, closeStore, err := session.NewFromConfig(cfg, log)
	if err != nil {
		zapLog.Fatal("session store init failed", zap.Error(err))
	}
	defer closeStore()
	zapLog.Info("Session store ready", zap.String("backend", cfg.Connector.Session.Backend))

	// --- Completion service ---
	sites, err := llm.NewCallSites(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("completion provider init failed", zap.Error(err))
	}
	if sites.Extraction == nil {
		zapLog.Warn("no completion provider configured, using rule-based extraction only")
	}

	// --- Candidate pool sources ---
	var db *sql.DB
	var es *elasticsearch.Client
	if config.IsWorkerEnabled(cfg, lcp.TaskType) {
		switch cfg.Connector.CandidatePool.Source {
		case config.PoolSourcePostgres:
			var pg *database.PostgresClient
			err = retryWithBackoff(ctx, func() error {
				var err error
				pg, err = database.NewPostgres(cfg.Database.Postgres)
				if err != nil {
					return err
				}
				return pg.Ping(ctx)
			}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
			if err != nil {
				zapLog.Fatal("postgres failed after retries", zap.Error(err))
			}
			defer pg.Close()
			db = pg.DB
			zapLog.Info("PostgreSQL connected successfully")
			if ok, err := pg.TableExists(ctx, "users"); err != nil || !ok {
				zapLog.Warn("users table not found, candidate pool jobs will fail", zap.Error(err))
			}

		case config.PoolSourceElasticsearch:
			var esClient *database.ElasticsearchClient
			err = retryWithBackoff(ctx, func() error {
				var err error
				esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
				if err != nil {
					return err
				}
				return esClient.Ping(ctx)
			}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
			if err != nil {
				zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
			}
			es = esClient.Client
			zapLog.Info("Elasticsearch connected successfully")
			index := cfg.Database.Elasticsearch.ProfileIndex
			if ok, err := esClient.IndexExists(ctx, index); err != nil || !ok {
				zapLog.Warn("profile index not found, candidate pool jobs will fail",
					zap.String("index", index), zap.Error(err))
			}
		}
	}

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, camunda.ClientConfigFrom(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	register := func(taskType string, handler camunda.HandlerFunc) {
		if w := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, zapLog); w != nil {
			workers = append(workers, w)
		}
	}

	register(ext.TaskType, ext.NewHandler(ext.FromAppConfig(cfg), sites.Extraction, log).Handle)
	register(fc.TaskType, fc.NewHandler(fc.FromAppConfig(cfg), sites.Disambiguation, log).Handle)
	register(ccs.TaskType, ccs.NewHandler(ccs.FromAppConfig(cfg), log).Handle)
	register(gcs.TaskType, gcs.NewHandler(gcs.FromAppConfig(cfg), log).Handle)
	register(pct.TaskType, pct.NewHandler(pct.FromAppConfig(cfg), pct.Dependencies{
		Store:         store,
		CallSites:     sites,
		Observability: obs,
		Logger:        log,
	}).Handle)
	register(scn.TaskType, scn.NewHandler(scn.FromAppConfig(cfg), sites.Disambiguation, log).Handle)
	register(lcp.TaskType, lcp.NewHandler(lcp.FromAppConfig(cfg), db, es, log).Handle)

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Observability.MetricsAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLog.Error("Error flushing traces", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
