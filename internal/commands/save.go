package commands

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/pipeline"
	"github.com/m-rossini/balance-category-pipeline/internal/tabular"
)

// SaveFile writes the dataset as CSV and reports the absolute output path.
// An empty dataset is skipped unless SaveEmpty is set.
type SaveFile struct {
	OutputPath string
	SaveEmpty  bool
	Logger     *slog.Logger
}

func (c *SaveFile) Name() string { return NameSaveFile }

func (c *SaveFile) Process(ctx context.Context, ds *domain.Dataset, _ domain.PipelineContext) pipeline.Outcome {
	logger := loggerOr(c.Logger)
	output := strings.TrimSpace(c.OutputPath)
	if output == "" {
		return pipeline.Halt("output path is required", nil)
	}
	ds = orEmpty(ds)
	if ds.IsEmpty() && !c.SaveEmpty {
		logger.WarnContext(ctx, "skipping save of empty dataset", "output_path", output)
		return pipeline.Success(ds)
	}

	abs, err := filepath.Abs(output)
	if err != nil {
		return pipeline.Halt("resolve output path: "+err.Error(), map[string]string{"output_path": output})
	}
	if err := tabular.WriteFile(abs, ds); err != nil {
		return pipeline.Halt("save failed: "+err.Error(), map[string]string{"output_path": abs})
	}
	logger.InfoContext(ctx, "saved dataset", "output_path", abs, "rows", ds.Len())
	return pipeline.Success(ds).WithTelemetry(&domain.RunExtra{OutputFilePath: abs})
}
