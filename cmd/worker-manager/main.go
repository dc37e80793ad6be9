// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"school-match-workers/internal/catalog"
	"school-match-workers/internal/common/aws"
	"school-match-workers/internal/common/camunda"
	"school-match-workers/internal/common/config"
	"school-match-workers/internal/common/database"
	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/common/observability"
	"school-match-workers/internal/common/validation"
	"school-match-workers/internal/matching"
	"school-match-workers/internal/models"
	"school-match-workers/internal/plans"
	"school-match-workers/pkg/registry"

	sp "school-match-workers/internal/workers/catalog/search-programs"
	ss "school-match-workers/internal/workers/communication/send-shortlist"
	lr "school-match-workers/internal/workers/matching/lock-result"
	qm "school-match-workers/internal/workers/matching/quick-match"
	spg "school-match-workers/internal/workers/matching/score-program"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	log.Info("starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	ctx := context.Background()

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown(ctx)

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}

	// --- Stores ---
	conns, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		zapLog.Fatal("database connect failed", zap.Error(err))
	}

	provider, err := buildCatalog(cfg, conns, log)
	if err != nil {
		zapLog.Fatal("catalog init failed", zap.Error(err))
	}

	var store *plans.Store
	if conns.Redis != nil {
		store = plans.NewStore(conns.Redis.Client, cfg.Matching.PlanTTL, log)
	}

	engine, err := matching.NewEngine(
		matching.WithWeights(cfg.Matching.Weights),
		matching.WithParallelism(cfg.Matching.Parallelism),
		matching.WithSelectionPolicy(matching.SelectionPolicy{
			Reach:  cfg.Matching.Shortlist.Reach,
			Target: cfg.Matching.Shortlist.Target,
			Safety: cfg.Matching.Shortlist.Safety,
		}),
		matching.WithRankingPolicy(rankingPolicy(cfg.Matching.Ranking)),
	)
	if err != nil {
		zapLog.Fatal("matching engine config invalid", zap.Error(err))
	}

	validator, err := buildValidator(cfg)
	if err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	start := func(taskType string, handler camunda.JobHandler) {
		wc := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.NewWorker(
			zeebe.GetClient(), taskType,
			camunda.WorkerOptions{
				MaxJobsActive: wc.MaxJobsActive,
				Timeout:       config.GetDuration(wc.Timeout),
			},
			handler, obs, log,
		))
	}
	skip := func(taskType, reason string) {
		log.Warn("worker disabled", map[string]interface{}{"taskType": taskType, "reason": reason})
	}

	if config.IsWorkerEnabled(cfg, qm.TaskType) {
		qcfg := qm.LoadConfig()
		qcfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, qm.TaskType).Timeout)
		qcfg.SlowMatchThreshold = config.GetDuration(cfg.Matching.SlowMatchThreshold)
		if s, ok := models.ParseMatchStrategy(cfg.Matching.DefaultStrategy); ok {
			qcfg.DefaultStrategy = s
		}
		qcfg.SavePlans = store != nil
		start(qm.TaskType, qm.NewHandler(qcfg, provider, engine, store, validator, obs, log))
	}

	if config.IsWorkerEnabled(cfg, spg.TaskType) {
		scfg := spg.LoadConfig()
		scfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, spg.TaskType).Timeout)
		if s, ok := models.ParseMatchStrategy(cfg.Matching.DefaultStrategy); ok {
			scfg.DefaultStrategy = s
		}
		start(spg.TaskType, spg.NewHandler(scfg, provider, engine, validator, log))
	}

	if config.IsWorkerEnabled(cfg, lr.TaskType) {
		if store == nil {
			skip(lr.TaskType, "redis unavailable")
		} else {
			lcfg := lr.LoadConfig()
			lcfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, lr.TaskType).Timeout)
			start(lr.TaskType, lr.NewHandler(lcfg, store, validator, log))
		}
	}

	if config.IsWorkerEnabled(cfg, sp.TaskType) {
		if conns.Elasticsearch == nil {
			skip(sp.TaskType, "elasticsearch unavailable")
		} else {
			pcfg := sp.LoadConfig()
			pcfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, sp.TaskType).Timeout)
			searcher := catalog.NewProgramSearcher(conns.Elasticsearch.Client, cfg.Database.Elasticsearch.ProgramIndex)
			start(sp.TaskType, sp.NewHandler(pcfg, searcher, validator, log))
		}
	}

	if config.IsWorkerEnabled(cfg, ss.TaskType) {
		if store == nil {
			skip(ss.TaskType, "redis unavailable")
		} else {
			handler, err := buildShortlistHandler(ctx, cfg, store, validator, log)
			if err != nil {
				zapLog.Fatal("failed to create send-shortlist handler", zap.Error(err))
			}
			start(ss.TaskType, handler)
		}
	}

	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              cfg.App.HealthAddr,
		Handler:           newHealthMux(zeebe, conns),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping workers", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("health server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	for _, w := range workers {
		w.Stop()
	}
	if err := zeebe.Close(); err != nil {
		log.Error("error closing zeebe client", map[string]interface{}{"error": err.Error()})
	}
	if err := conns.Close(); err != nil {
		log.Error("error closing stores", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped gracefully", nil)
}

// buildCatalog picks the catalog source. A configured snapshot file replaces
// Postgres; Redis, when reachable, fronts either one.
func buildCatalog(cfg *config.Config, conns *database.Connections, log logger.Logger) (catalog.Provider, error) {
	var provider catalog.Provider
	if path := cfg.Catalog.SnapshotPath; path != "" {
		snap, err := catalog.LoadSnapshot(path)
		if err != nil {
			return nil, err
		}
		log.Info("catalog served from snapshot", map[string]interface{}{
			"path":     path,
			"schools":  len(snap.Schools),
			"programs": len(snap.Programs),
		})
		provider = catalog.NewMemoryProvider(snap)
	} else {
		provider = catalog.NewPostgresStore(conns.Postgres.DB, cfg.Catalog.PageSize, log)
	}

	if cfg.Catalog.CacheEnabled && conns.Redis != nil {
		provider = catalog.NewCachedProvider(provider, conns.Redis.Client, cfg.Catalog.CacheTTL, log)
	}
	return provider, nil
}

func rankingPolicy(rc config.RankingConfig) matching.RankingPolicy {
	p := matching.RankingPolicy{Floor: rc.Floor}
	for _, b := range rc.Bands {
		p.Bands = append(p.Bands, matching.RankingBand{UpTo: b.UpTo, From: b.From, To: b.To})
	}
	return p
}

func buildValidator(cfg *config.Config) (*validation.SchemaValidator, error) {
	reg := registry.Default()
	if cfg.Registry.Path != "" {
		loaded, err := registry.LoadRegistry(cfg.Registry.Path)
		if err != nil {
			return nil, err
		}
		reg = loaded
	}
	if errs := reg.Validate(); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return validation.NewSchemaValidator(reg)
}

func buildShortlistHandler(
	ctx context.Context,
	cfg *config.Config,
	store *plans.Store,
	validator *validation.SchemaValidator,
	log logger.Logger,
) (*ss.Handler, error) {
	n := cfg.Notifications
	scfg := ss.LoadConfig()
	scfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, ss.TaskType).Timeout)
	scfg.FromEmail = n.Email.FromEmail
	scfg.EmailEnabled = n.Email.Enabled
	scfg.SMSEnabled = n.SMS.Enabled

	var (
		email aws.EmailSender
		sms   aws.SMSSender
	)
	if n.Email.Enabled || n.SMS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, n.AWS.Region)
		if err != nil {
			return nil, err
		}
		if n.Email.Enabled {
			email = aws.NewSESClient(awsCfg)
		}
		if n.SMS.Enabled {
			sms = aws.NewSNSClient(awsCfg, n.SMS.SenderID)
		}
	}
	return ss.NewHandler(scfg, store, email, sms, validator, log), nil
}
