package commands

import (
	"context"
	"log/slog"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/pipeline"
	"github.com/m-rossini/balance-category-pipeline/internal/transform"
)

// CleanData applies Functions in order. With no functions the dataset passes
// through unchanged.
type CleanData struct {
	Functions []transform.Func
	Logger    *slog.Logger
}

func (c *CleanData) Name() string { return NameCleanData }

func (c *CleanData) Process(ctx context.Context, ds *domain.Dataset, _ domain.PipelineContext) pipeline.Outcome {
	logger := loggerOr(c.Logger)
	if ds.IsEmpty() {
		logger.WarnContext(ctx, "no data to clean")
		return pipeline.Success(orEmpty(ds))
	}

	out := ds
	for i, fn := range c.Functions {
		if fn == nil {
			continue
		}
		next, err := fn(out)
		if err != nil {
			return pipeline.Haltf("clean function %d failed: %v", i, err)
		}
		out = orEmpty(next)
	}
	logger.InfoContext(ctx, "cleaned data", "input_rows", ds.Len(), "rows", out.Len())
	return pipeline.Success(out)
}
