package quality

import (
	"errors"
	"fmt"
	"math"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

var ErrInvalidWeights = errors.New("invalid quality weights")

const weightTolerance = 1e-9

// Weights are the per-dimension factors of the overall quality index.
type Weights struct {
	Completeness float64 `yaml:"completeness" json:"completeness"`
	Confidence   float64 `yaml:"confidence" json:"confidence"`
	Consistency  float64 `yaml:"consistency" json:"consistency"`
}

var (
	DefaultWeights  = Weights{Completeness: 0.2, Confidence: 0.6, Consistency: 0.2}
	BalancedWeights = Weights{Completeness: 0.3, Confidence: 0.5, Consistency: 0.2}
)

func (w Weights) IsZero() bool {
	return w == Weights{}
}

func (w Weights) Validate() error {
	for name, v := range w.asMap() {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s weight %v", ErrInvalidWeights, name, v)
		}
	}
	sum := w.Completeness + w.Confidence + w.Consistency
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

func (w Weights) asMap() map[string]float64 {
	return map[string]float64{
		DimensionCompleteness: w.Completeness,
		DimensionConfidence:   w.Confidence,
		DimensionConsistency:  w.Consistency,
	}
}

// CompositeCalculator combines the completeness, confidence and consistency
// dimensions into one weighted index.
type CompositeCalculator struct {
	weights      Weights
	completeness Dimension
	confidence   Dimension
	consistency  Dimension
}

// NewCompositeCalculator validates weights up front. Zero weights select
// DefaultWeights.
func NewCompositeCalculator(weights Weights, opts ...Option) (*CompositeCalculator, error) {
	if weights.IsZero() {
		weights = DefaultWeights
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &CompositeCalculator{
		weights:      weights,
		completeness: NewCompleteness(o.columns),
		confidence:   NewConfidence(o.columns),
		consistency:  NewConsistency(o.columns, o.prefixLength),
	}, nil
}

func (c *CompositeCalculator) Name() string { return NameComposite }

func (c *CompositeCalculator) Weights() Weights { return c.weights }

func (c *CompositeCalculator) Calculate(ds *domain.Dataset) domain.QualityMetrics {
	completeness := c.completeness.Score(ds)
	confidence := c.confidence.Score(ds)
	consistency := c.consistency.Score(ds)

	overall := completeness*c.weights.Completeness +
		confidence*c.weights.Confidence +
		consistency*c.weights.Consistency

	return domain.QualityMetrics{
		Completeness:        completeness,
		Confidence:          confidence,
		Consistency:         consistency,
		OverallQualityIndex: clamp01(overall),
		Dimensions: map[string]float64{
			c.completeness.Name(): completeness,
			c.confidence.Name():   confidence,
			c.consistency.Name():  consistency,
		},
		Weights:   c.weights.asMap(),
		TotalRows: ds.Len(),
	}
}
