package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/changes"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/memory"
	infraRepo "github.com/BruksfildServices01/clinic-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-scheduler/internal/logger"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/observability/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/triage"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// App holds the wired engine. Close releases it in reverse order.
type App struct {
	Service    *ucAppointment.Service
	Triage     *triage.Router
	AuditStore audit.Store
	Registry   *prometheus.Registry

	closers []func() error
}

// Build wires the engine from cfg. A nil db selects the in-process stores.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger, db *gorm.DB) (*App, error) {
	log = logger.OrNop(log)
	a := &App{Registry: prometheus.NewRegistry()}

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// ======================================================
	// STORES
	// ======================================================
	deps := ucAppointment.Deps{
		Metrics: metrics.NewSchedulingMetrics(a.Registry),
		Log:     log,
	}

	if db != nil {
		deps.Ledger = infraRepo.NewAppointmentGormRepository(db)
		deps.Configs = infraRepo.NewConfigGormRepository(db)
		deps.Providers = infraRepo.NewProviderGormRepository(db)
		a.AuditStore = infraRepo.NewAuditLogGormRepository(db)
		log.Info("store backend", zap.String("backend", "postgres"))
	} else {
		deps.Ledger = memory.NewLedger()
		deps.Configs = memory.NewConfigStore()
		deps.Providers = memory.NewProviderDirectory()
		a.AuditStore = memory.NewAuditLogStore()
		log.Info("store backend", zap.String("backend", "memory"))
	}

	// ======================================================
	// CURSORS + NOTIFICATIONS
	// ======================================================
	var rdb *redis.Client
	var cursors changes.CursorStore = changes.NewMemoryCursorStore()

	if cfg.CursorBackend == "redis" {
		rdb = cache.NewRedis(cfg)
		if err := cache.Ping(ctx, rdb); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, rdb.Close)
		cursors = changes.NewRedisCursorStore(rdb)
	}
	deps.Changes = changes.NewNotifier(cursors, log)

	var publisher audit.Sink = notify.NewLogPublisher(log)
	if rdb != nil {
		publisher = notify.NewRedisPublisher(rdb, cfg.NotifyChannel)
	}

	dispatcher := audit.NewDispatcher(log, audit.New(a.AuditStore), publisher)
	deps.Audit = dispatcher
	a.closers = append(a.closers, func() error {
		dispatcher.Close()
		return nil
	})

	a.Service = ucAppointment.NewService(deps)

	// ======================================================
	// TRIAGE
	// ======================================================
	var classifier triage.Classifier = triage.NewKeywordClassifier()
	if cfg.GeminiAPIKey != "" {
		g, err := triage.NewGeminiClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, classifier, log)
		if err != nil {
			log.Warn("gemini unavailable, using keyword triage", zap.Error(err))
		} else {
			classifier = g
			a.closers = append(a.closers, g.Close)
		}
	}

	a.Triage = triage.NewRouter(
		classifier,
		a.Service.SuggestSlot,
		cfg.SuggestionHorizonDays,
		dispatcher,
		deps.Metrics,
		log,
	)

	return a, nil
}

func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
