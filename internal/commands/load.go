package commands

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/pipeline"
	"github.com/m-rossini/balance-category-pipeline/internal/storage/objectstore"
	"github.com/m-rossini/balance-category-pipeline/internal/tabular"
)

const defaultGlob = "*.csv"

// AppendFiles reads CSV files and stacks them into one dataset, newest file
// name first. Files lists explicit paths and takes precedence over Dir+Glob.
// Unreadable files are logged and skipped; the step halts only when no file
// could be read.
type AppendFiles struct {
	Dir    string
	Glob   string
	Files  []string
	Logger *slog.Logger
}

func (c *AppendFiles) Name() string { return NameAppendFiles }

func (c *AppendFiles) Process(ctx context.Context, _ *domain.Dataset, _ domain.PipelineContext) pipeline.Outcome {
	logger := loggerOr(c.Logger)

	files, outcome, ok := c.resolve()
	if !ok {
		return outcome
	}
	logger.DebugContext(ctx, "append files", "dir", c.Dir, "glob", c.glob(), "files", len(files))
	if len(files) == 0 {
		return pipeline.Halt("no files found", map[string]string{"folder": c.Dir, "glob": c.glob()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return filepath.Base(files[i]) > filepath.Base(files[j])
	})

	parts := make([]*domain.Dataset, 0, len(files))
	for _, f := range files {
		ds, err := tabular.ReadFile(f)
		if err != nil {
			logger.ErrorContext(ctx, "read file failed", "file", f, "error", err)
			continue
		}
		parts = append(parts, ds)
	}
	if len(parts) == 0 {
		return pipeline.Halt("no readable files", map[string]string{"folder": c.Dir})
	}

	combined := concat(parts)
	logger.InfoContext(ctx, "appended files", "files", len(parts), "rows", combined.Len())
	return pipeline.Success(combined)
}

func (c *AppendFiles) glob() string {
	if g := strings.TrimSpace(c.Glob); g != "" {
		return g
	}
	return defaultGlob
}

func (c *AppendFiles) resolve() ([]string, pipeline.Outcome, bool) {
	if c.Files != nil {
		return append([]string(nil), c.Files...), pipeline.Outcome{}, true
	}
	if strings.TrimSpace(c.Dir) == "" {
		return nil, pipeline.Halt("no input dir or input files provided", nil), false
	}
	matches, err := filepath.Glob(filepath.Join(c.Dir, c.glob()))
	if err != nil {
		return nil, pipeline.Halt("invalid file glob", map[string]string{"glob": c.glob(), "error": err.Error()}), false
	}
	return matches, pipeline.Outcome{}, true
}

// AppendObjects is AppendFiles over an object store bucket: every object
// under Prefix whose key ends in Suffix (default .csv) is read.
type AppendObjects struct {
	Store  objectstore.Store
	Bucket string
	Prefix string
	Suffix string
	Logger *slog.Logger
}

func (c *AppendObjects) Name() string { return NameAppendObjects }

func (c *AppendObjects) Process(ctx context.Context, _ *domain.Dataset, _ domain.PipelineContext) pipeline.Outcome {
	logger := loggerOr(c.Logger)
	if c.Store == nil {
		return pipeline.Halt("object store is not configured", nil)
	}
	bucket := strings.TrimSpace(c.Bucket)
	if bucket == "" {
		return pipeline.Halt("bucket is required", nil)
	}
	suffix := c.Suffix
	if suffix == "" {
		suffix = ".csv"
	}
	details := map[string]string{"bucket": bucket, "prefix": c.Prefix}

	objects, err := c.Store.List(ctx, bucket, c.Prefix)
	if err != nil {
		return pipeline.Halt("list objects failed: "+err.Error(), details)
	}
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, suffix) {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return pipeline.Halt("no objects found", details)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return path.Base(keys[i]) > path.Base(keys[j])
	})

	parts := make([]*domain.Dataset, 0, len(keys))
	for _, key := range keys {
		ds, err := c.read(ctx, bucket, key)
		if err != nil {
			logger.ErrorContext(ctx, "read object failed", "bucket", bucket, "key", key, "error", err)
			continue
		}
		parts = append(parts, ds)
	}
	if len(parts) == 0 {
		return pipeline.Halt("no readable objects", details)
	}

	combined := concat(parts)
	logger.InfoContext(ctx, "appended objects", "bucket", bucket, "objects", len(parts), "rows", combined.Len())
	return pipeline.Success(combined)
}

func (c *AppendObjects) read(ctx context.Context, bucket, key string) (*domain.Dataset, error) {
	body, _, err := c.Store.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return tabular.Read(body)
}
