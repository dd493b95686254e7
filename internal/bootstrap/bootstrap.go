// Package bootstrap wires the optional infrastructure shared by the daemon
// and the batch CLI.
package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/policy-extract/internal/common"
	"github.com/joseph-ayodele/policy-extract/internal/masterdata"
	"github.com/joseph-ayodele/policy-extract/internal/repository"
	"github.com/joseph-ayodele/policy-extract/internal/services/ledger"
)

// Ledger is an opened extract_job ledger. The zero value means disabled.
type Ledger struct {
	Service *ledger.Service
	db      *repository.DB
}

// Close releases the database. Safe on a disabled ledger.
func (l Ledger) Close(logger *slog.Logger) {
	if l.db != nil {
		l.db.Close(logger)
	}
}

// OpenLedger connects, checks and migrates the ledger database. inmem forces
// a private in-memory sqlite database. A disabled config yields a zero Ledger.
func OpenLedger(ctx context.Context, cfg common.DatabaseConfig, inmem bool, modelName string, logger *slog.Logger) (Ledger, error) {
	if inmem {
		cfg.Driver, cfg.DSN = repository.DriverSQLite, "file::memory:"
	}
	if !inmem && !cfg.Enabled() {
		logger.Info("extract_job ledger disabled (no DB_URL)")
		return Ledger{}, nil
	}

	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return Ledger{}, common.NewAppError("DB_OPEN", "open ledger database", err)
	}
	if err := db.HealthCheck(ctx, 5*time.Second, logger); err != nil {
		db.Close(logger)
		return Ledger{}, common.NewAppError("DB_PING", "ping ledger database", err)
	}
	repo := repository.NewExtractJobRepository(db, logger)
	if err := repo.Migrate(ctx); err != nil {
		db.Close(logger)
		return Ledger{}, err
	}
	return Ledger{Service: ledger.NewService(repo, modelName, logger), db: db}, nil
}

// MasterData builds the master-data client, fronted by redis when an address
// is configured and by a process-local cache otherwise. It returns nil when
// no backend URL is set.
func MasterData(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*masterdata.Client, masterdata.Cache, error) {
	if cfg.MasterData.BaseURL == "" {
		logger.Info("master data disabled (no MASTER_DATA_URL)")
		return nil, nil, nil
	}

	var cache masterdata.Cache
	if cfg.Redis.Addr != "" {
		rc, err := masterdata.NewRedisCache(ctx, masterdata.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, common.NewAppError("REDIS", "connect master data cache", err)
		}
		logger.Info("master data cache: redis", "addr", cfg.Redis.Addr)
		cache = rc
	} else {
		cache = masterdata.NewMemoryCache()
	}

	client := masterdata.NewClient(masterdata.Config{
		BaseURL:  cfg.MasterData.BaseURL,
		Timeout:  cfg.MasterData.Timeout,
		CacheTTL: cfg.MasterData.CacheTTL,
	}, cache, logger)
	return client, cache, nil
}
