package quality

import (
	"context"
	"log/slog"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

// Reporter publishes the result of a scoring call.
type Reporter interface {
	Report(ctx context.Context, calculator string, metrics domain.QualityMetrics)
}

// LogReporter writes metrics as structured log records.
type LogReporter struct {
	logger *slog.Logger
}

func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(ctx context.Context, calculator string, metrics domain.QualityMetrics) {
	r.logger.InfoContext(ctx, "quality analysis",
		"calculator", calculator,
		"overall_quality_index", metrics.OverallQualityIndex,
		"total_rows", metrics.TotalRows,
	)
	r.logger.InfoContext(ctx, "quality dimensions",
		"calculator", calculator,
		DimensionCompleteness, metrics.Completeness,
		DimensionConfidence, metrics.Confidence,
		DimensionConsistency, metrics.Consistency,
	)
	for name, w := range metrics.Weights {
		r.logger.DebugContext(ctx, "quality weight", "dimension", name, "weight", w)
	}
}
