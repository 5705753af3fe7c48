package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/m-rossini/balance-category-pipeline/internal/classifier"
	"github.com/m-rossini/balance-category-pipeline/internal/commands"
	"github.com/m-rossini/balance-category-pipeline/internal/platform/auth"
	platformstore "github.com/m-rossini/balance-category-pipeline/internal/platform/objectstore"
	"github.com/m-rossini/balance-category-pipeline/internal/platform/postgres"
	"github.com/m-rossini/balance-category-pipeline/internal/repo"
	"github.com/m-rossini/balance-category-pipeline/internal/repo/filestore"
	repoobjects "github.com/m-rossini/balance-category-pipeline/internal/repo/objectstore"
	repopg "github.com/m-rossini/balance-category-pipeline/internal/repo/postgres"
	"github.com/m-rossini/balance-category-pipeline/internal/storage/objectstore"
	"github.com/m-rossini/balance-category-pipeline/internal/workflows"
)

const (
	storeFile     = "file"
	storePostgres = "postgres"
	storeMinio    = "minio"
)

const startupTimeout = 5 * time.Second

// openRunStore returns the selected run repository, a cleanup func and the
// exit code to use when it fails: exitUsage for bad configuration,
// exitFailure when the backend is unreachable.
func openRunStore(ctx context.Context, kind, metadataDir string, logger *slog.Logger) (repo.RunRepository, func(), int, error) {
	noop := func() {}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", storeFile:
		store, err := filestore.NewStore(metadataDir)
		if err != nil {
			return nil, noop, exitUsage, err
		}
		logger.Debug("using file run store", "dir", store.Dir())
		return store, noop, exitOK, nil

	case storePostgres:
		cfg, err := postgres.ConfigFromEnv()
		if err != nil {
			return nil, noop, exitUsage, err
		}
		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, noop, exitFailure, err
		}
		closeDB := func() { _ = db.Close() }
		store := repopg.NewRunStore(db)
		startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
		defer cancel()
		if err := store.EnsureSchema(startupCtx); err != nil {
			closeDB()
			return nil, noop, exitFailure, err
		}
		return store, closeDB, exitOK, nil

	case storeMinio:
		cfg, err := platformstore.ConfigFromEnv()
		if err != nil {
			return nil, noop, exitUsage, err
		}
		client, err := platformstore.NewMinIOClient(cfg)
		if err != nil {
			return nil, noop, exitUsage, err
		}
		startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
		defer cancel()
		if err := platformstore.EnsureRunsBucket(startupCtx, client, cfg); err != nil {
			return nil, noop, exitFailure, err
		}
		objects, err := objectstore.NewMinioStoreWithClient(client)
		if err != nil {
			return nil, noop, exitUsage, err
		}
		store, err := repoobjects.NewRunStore(objects, cfg.BucketRuns, cfg.RunsPrefix)
		if err != nil {
			return nil, noop, exitUsage, err
		}
		return store, noop, exitOK, nil

	default:
		return nil, noop, exitUsage, fmt.Errorf("--run-store must be one of: file, postgres, minio (got %q)", kind)
	}
}

func classifierConfig() (classifier.Config, error) {
	return classifier.ConfigFromEnv()
}

// workflowDeps wires only what def's steps use, so a local workflow never
// needs object storage or classifier credentials.
func workflowDeps(ctx context.Context, def workflows.Definition, logger *slog.Logger) (workflows.Deps, int, error) {
	deps := workflows.Deps{Logger: logger}

	if usesCommand(def, commands.NameRemoteCategorization) {
		cfg, err := classifierConfig()
		if err != nil {
			return deps, exitUsage, err
		}
		authCfg, err := auth.ConfigFromEnv()
		if err != nil {
			return deps, exitUsage, err
		}
		client, err := auth.HTTPClient(ctx, authCfg, &http.Client{})
		if err != nil {
			return deps, exitFailure, err
		}
		deps.Classifier = cfg
		deps.HTTPClient = client
		logger.Debug("classifier configured", "service_url", cfg.ServiceURL, "auth_mode", string(authCfg.Mode))
	}

	if usesCommand(def, commands.NameAppendObjects) {
		cfg, err := platformstore.ConfigFromEnv()
		if err != nil {
			return deps, exitUsage, err
		}
		client, err := platformstore.NewMinIOClient(cfg)
		if err != nil {
			return deps, exitUsage, err
		}
		startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
		defer cancel()
		if err := platformstore.CheckDatasetsBucket(startupCtx, client, cfg); err != nil {
			return deps, exitFailure, err
		}
		objects, err := objectstore.NewMinioStoreWithClient(client)
		if err != nil {
			return deps, exitUsage, err
		}
		deps.Objects = objects
		deps.DatasetsBucket = cfg.BucketDatasets
	}
	return deps, exitOK, nil
}

func usesCommand(def workflows.Definition, name string) bool {
	for _, step := range def.Steps {
		if strings.TrimSpace(step.Command) == name {
			return true
		}
	}
	return false
}
