package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"lease-mining-go/internal/accrual"
	"lease-mining-go/internal/api"
	"lease-mining-go/internal/catalog"
	"lease-mining-go/internal/database"
	"lease-mining-go/internal/leases"
	"lease-mining-go/internal/ledger"
	"lease-mining-go/internal/metrics"
	"lease-mining-go/internal/models"
	"lease-mining-go/internal/redisstore"
	"lease-mining-go/internal/scheduler"
	"lease-mining-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Store     store.KVStore
	Catalog   *catalog.Catalog
	Ledger    *ledger.Ledger
	Leases    *leases.Manager
	Engine    *accrual.Engine
	Metrics   *metrics.Collector
	Scheduler *scheduler.Scheduler
	Api       *api.LedgerService
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// OpenStore opens the configured durable backend.
func OpenStore(ctx context.Context, cfg *models.Config) (store.KVStore, error) {
	zap.L().Info("Opening state store", zap.String("backend", cfg.Store.Backend))

	switch cfg.Store.Backend {
	case "sqlite":
		db, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "redis":
		rs, err := redisstore.NewStore(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return rs, nil
	case "memory":
		zap.L().Warn("Using in-memory store, state will not survive a restart")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// InitializeServices opens the store, loads the account and wires the
// lease manager, accrual engine and session handle around it.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	kv, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.LoadFile(cfg.Catalog.File)
	if err != nil {
		kv.Close()
		return nil, err
	}
	zap.L().Info("Loaded catalog", zap.Int("offerings", cat.Len()))

	l := ledger.New(kv)
	if err := l.Load(ctx); err != nil {
		kv.Close()
		return nil, fmt.Errorf("failed to load account state: %w", err)
	}

	collector := metrics.NewCollector("")
	manager := leases.NewManager(l,
		leases.WithDuration(cfg.Mining.LeaseDuration),
		leases.WithMetrics(collector))
	engine := accrual.NewEngine(l,
		accrual.WithInterval(cfg.Mining.TickInterval),
		accrual.WithLeaseDuration(cfg.Mining.LeaseDuration),
		accrual.WithMetrics(collector))

	user := ResolveUser(cfg.Identity)

	service := api.NewLedgerService(api.Dependencies{
		Store:     kv,
		Ledger:    l,
		Leases:    manager,
		Engine:    engine,
		Catalog:   cat,
		User:      user,
		NoticeTTL: cfg.Mining.NoticeTTL,
	})

	return &Services{
		Store:     kv,
		Catalog:   cat,
		Ledger:    l,
		Leases:    manager,
		Engine:    engine,
		Metrics:   collector,
		Scheduler: scheduler.NewScheduler(l, cfg.Mining.LeaseDuration, collector),
		Api:       service,
	}, nil
}

// InitializeStoreOnly opens the durable store and loads the ledger without
// starting anything. Useful for read-only reports.
func InitializeStoreOnly(ctx context.Context, cfg *models.Config) (store.KVStore, *ledger.Ledger, error) {
	kv, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	l := ledger.New(kv)
	if err := l.Load(ctx); err != nil {
		kv.Close()
		return nil, nil, fmt.Errorf("failed to load account state: %w", err)
	}
	return kv, l, nil
}

func (cs *Services) Close() {
	if cs.Store != nil {
		if err := cs.Store.Close(); err != nil {
			zap.L().Warn("Failed to close store", zap.Error(err))
		}
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
