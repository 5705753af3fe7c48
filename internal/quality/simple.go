package quality

import "github.com/m-rossini/balance-category-pipeline/internal/domain"

// SimpleCalculator scores each row by its raw confidence and reports the mean.
// A row missing its category, subcategory or confidence, or with a zero
// confidence, scores 0. Completeness and consistency are not computed.
type SimpleCalculator struct {
	columns Columns
}

func NewSimpleCalculator(opts ...Option) *SimpleCalculator {
	return &SimpleCalculator{columns: buildOptions(opts).columns}
}

func (c *SimpleCalculator) Name() string { return NameSimple }

func (c *SimpleCalculator) Calculate(ds *domain.Dataset) domain.QualityMetrics {
	n := ds.Len()
	if n == 0 {
		return domain.QualityMetrics{}
	}
	total := 0.0
	for _, row := range ds.Rows {
		total += c.rowScore(row)
	}
	mean := clamp01(total / float64(n))
	return domain.QualityMetrics{
		Confidence:          mean,
		OverallQualityIndex: mean,
		TotalRows:           n,
	}
}

func (c *SimpleCalculator) rowScore(row domain.Row) float64 {
	if _, ok := row.Value(c.columns.Category); !ok {
		return 0
	}
	if _, ok := row.Value(c.columns.SubCategory); !ok {
		return 0
	}
	v, ok := confidenceOf(row, c.columns.Confidence)
	if !ok || v == 0 {
		return 0
	}
	return v
}
