package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/artifact"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/config"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/extract"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/merge"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/metrics"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/pipelog"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/storage/postgres"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/trust"
)

// app bundles the shared wiring every pipeline subcommand needs: config,
// logging, the database pool, and the artifact store.
type app struct {
	cfg   config.Config
	log   *pipelog.Logger
	pool  *pgxpool.Pool
	repo  *postgres.Repository
	store *artifact.Store
}

func newApp(ctx context.Context) (*app, error) {
	config.LoadEnvFile(envFile)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	logger := config.NewLogger(cfg.Logging)
	metrics.Init(Version, GitCommit, BuildDate)

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &app{
		cfg:   cfg,
		log:   pipelog.New(logger),
		pool:  pool,
		repo:  repo,
		store: artifact.NewStore(cfg.Artifacts.Root),
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}

func (a *app) newRunner() *extract.Runner {
	return extract.NewRunner(
		a.repo.Captures(),
		a.repo.Extractions(),
		a.repo.Failures(),
		a.store,
		extract.DefaultRegistry(),
		a.log,
		a.cfg.Pipeline.Parallelism,
	)
}

func (a *app) newMerger() (*merge.EntityMerger, error) {
	hierarchy, err := trust.Load(a.cfg.Pipeline.TrustPath)
	if err != nil {
		return nil, fmt.Errorf("load trust hierarchy: %w", err)
	}
	return merge.NewEntityMerger(hierarchy, merge.NewConflictDetector(hierarchy, 0)), nil
}
