// Command impactd serves dependency impact analyses over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nexalabs/impactgraph/internal/api"
	"github.com/nexalabs/impactgraph/internal/config"
	"github.com/nexalabs/impactgraph/internal/db"
	"github.com/nexalabs/impactgraph/internal/db/migrations"
	"github.com/nexalabs/impactgraph/internal/dbpool"
	"github.com/nexalabs/impactgraph/internal/domain"
	"github.com/nexalabs/impactgraph/internal/metrics"
	"github.com/nexalabs/impactgraph/internal/scoring"
	"github.com/nexalabs/impactgraph/internal/service"
	"github.com/nexalabs/impactgraph/internal/store"
	"github.com/nexalabs/impactgraph/internal/ws"
)

const (
	shutdownTimeout        = 5 * time.Second
	auditRetentionInterval = 24 * time.Hour
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("impactd exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		pool       *dbpool.Pool
		archive    domain.SnapshotArchive
		auditStore *store.AuditStore
		auditRepo  api.AuditRepository
	)

	if cfg.HasDatabase() {
		pool, err = dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), int32(cfg.DBMaxConns)) //nolint:gosec // bounded to 2..100 by config.
		if err != nil {
			return err
		}
		defer pool.Close()

		version, err := db.RunMigrations(ctx, pool, log, migrations.FS)
		if err != nil {
			return err
		}
		log.WithField("schema_version", version).Info("archive ready")
		metrics.RegisterPoolStats(func() metrics.PoolStats {
			s := pool.Stats()
			return metrics.PoolStats{Acquired: s.Acquired, Idle: s.Idle, Total: s.Total, Max: s.Max}
		})

		base := store.Base{Pool: pool, Log: log}
		archive = store.NewSnapshotStore(base)
		auditStore = store.NewAuditStore(base)
		auditRepo = service.NewAuditService(auditStore, log)
	} else {
		log.Warn("DATABASE_URL not set, snapshots are held in memory only")
	}

	// Workers stop only after the HTTP servers have drained.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var auditWorker service.AuditEnqueuer
	auditDone := make(chan struct{})
	if auditStore != nil {
		w := service.NewAuditWorker(auditStore, log, cfg.AuditQueueSize)
		auditWorker = w
		go func() {
			defer close(auditDone)
			w.Run(workerCtx)
		}()
	} else {
		close(auditDone)
	}

	hub := ws.NewHub(log)
	go hub.Run(workerCtx)

	registry := service.NewSnapshotRegistry()
	snapshots := service.NewSnapshotService(registry, archive, hub, auditWorker, log)
	impact := service.NewImpactService(registry, scoring.New(cfg.Policy), service.ImpactOptions{
		Workers:         cfg.AnalyzeWorkers,
		Timeout:         cfg.AnalyzeTimeout,
		DefaultMaxDepth: cfg.DefaultMaxDepth,
	}, auditWorker, log)

	if archive != nil && cfg.RestoreSnapshots {
		n, err := snapshots.Restore(ctx)
		if err != nil {
			return fmt.Errorf("restoring snapshots: %w", err)
		}
		log.WithField("orgs", n).Info("snapshots restored")
	}

	if pool != nil && cfg.PeerReload {
		if err := db.NewNotifyBridge(log, pool, snapshots).Start(ctx); err != nil {
			return err
		}
	}

	if auditStore != nil && cfg.AuditRetentionDays > 0 {
		go service.RunAuditRetention(ctx, auditStore, cfg.AuditRetentionDays, auditRetentionInterval, log)
	}

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Hub:         hub,
		Impact:      impact,
		Snapshots:   snapshots,
		Audit:       auditRepo,
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
	})

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	eg, egctx := errgroup.WithContext(ctx)
	servers := []*http.Server{
		newServer(egctx, cfg.Addr(), router),
		newServer(egctx, cfg.MetricsAddr(), metricsMux),
	}

	for _, srv := range servers {
		eg.Go(func() error {
			log.WithField("addr", srv.Addr).Info("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	eg.Go(func() error {
		<-egctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	err = eg.Wait()

	hub.Shutdown()
	cancelWorkers()
	<-auditDone

	log.Info("impactd stopped")
	return err
}

func newServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: h,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}
}
