package quality

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

const (
	DimensionCompleteness = "completeness"
	DimensionConfidence   = "confidence"
	DimensionConsistency  = "consistency"
)

const (
	NameSimple    = "simple"
	NameComposite = "composite"
)

var ErrUnknownCalculator = errors.New("unknown quality calculator")

// Calculator scores a dataset. Every score it returns is in [0, 1].
type Calculator interface {
	Name() string
	Calculate(ds *domain.Dataset) domain.QualityMetrics
}

// Dimension is one independently scored axis of quality.
type Dimension interface {
	Name() string
	Score(ds *domain.Dataset) float64
}

// Columns names the dataset columns the calculators read.
type Columns struct {
	Category    string
	SubCategory string
	Confidence  string
	Description string
}

func DefaultColumns() Columns {
	return Columns{
		Category:    "CategoryAnnotation",
		SubCategory: "SubCategoryAnnotation",
		Confidence:  "Confidence",
		Description: "TransactionDescription",
	}
}

func (c Columns) withDefaults() Columns {
	def := DefaultColumns()
	if strings.TrimSpace(c.Category) == "" {
		c.Category = def.Category
	}
	if strings.TrimSpace(c.SubCategory) == "" {
		c.SubCategory = def.SubCategory
	}
	if strings.TrimSpace(c.Confidence) == "" {
		c.Confidence = def.Confidence
	}
	if strings.TrimSpace(c.Description) == "" {
		c.Description = def.Description
	}
	return c
}

type options struct {
	columns      Columns
	prefixLength int
}

type Option func(*options)

func WithColumns(c Columns) Option {
	return func(o *options) { o.columns = c.withDefaults() }
}

// WithPrefixLength sets how many leading runes of the description group rows
// for the consistency dimension.
func WithPrefixLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.prefixLength = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{columns: DefaultColumns(), prefixLength: DefaultPrefixLength}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// ByName returns the calculator registered under name. An empty name selects
// the composite calculator. weights only apply to the composite calculator.
func ByName(name string, weights Weights, opts ...Option) (Calculator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameSimple:
		return NewSimpleCalculator(opts...), nil
	case "", NameComposite:
		calc, err := NewCompositeCalculator(weights, opts...)
		if err != nil {
			return nil, err
		}
		return calc, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCalculator, name)
	}
}

// confidenceOf parses the row's confidence cell. Blank, unparsable and
// non-finite values are reported as absent.
func confidenceOf(row domain.Row, column string) (float64, bool) {
	raw, ok := row.Value(column)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
