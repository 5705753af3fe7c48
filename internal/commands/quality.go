package commands

import (
	"context"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/pipeline"
	"github.com/m-rossini/balance-category-pipeline/internal/quality"
)

// QualityAnalysis scores the dataset and reports the metrics as run
// telemetry. The dataset passes through unchanged. A nil Calculator uses
// the simple calculator; Reporter is optional.
type QualityAnalysis struct {
	Calculator quality.Calculator
	Reporter   quality.Reporter
}

func (c *QualityAnalysis) Name() string { return NameQualityAnalysis }

func (c *QualityAnalysis) Process(ctx context.Context, ds *domain.Dataset, _ domain.PipelineContext) pipeline.Outcome {
	calc := c.Calculator
	if calc == nil {
		calc = quality.NewSimpleCalculator()
	}
	metrics := calc.Calculate(ds)
	if c.Reporter != nil {
		c.Reporter.Report(ctx, calc.Name(), metrics)
	}
	index := metrics.OverallQualityIndex
	return pipeline.Success(orEmpty(ds)).WithTelemetry(&domain.RunExtra{
		QualityIndex:   &index,
		CalculatorName: calc.Name(),
		QualityMetrics: &metrics,
	})
}
