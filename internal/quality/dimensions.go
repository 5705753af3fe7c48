package quality

import (
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

// DefaultPrefixLength is the number of description runes that form a
// consistency group.
const DefaultPrefixLength = 10

// Completeness is the mean, across rows, of the fraction of required fields
// that are present and non-blank.
type Completeness struct {
	Required []string
}

func NewCompleteness(cols Columns) Completeness {
	cols = cols.withDefaults()
	return Completeness{Required: []string{cols.Category, cols.SubCategory, cols.Description}}
}

func (Completeness) Name() string { return DimensionCompleteness }

func (c Completeness) Score(ds *domain.Dataset) float64 {
	if ds.Len() == 0 || len(c.Required) == 0 {
		return 0
	}
	total := 0.0
	for _, row := range ds.Rows {
		present := 0
		for _, field := range c.Required {
			if _, ok := row.Value(field); ok {
				present++
			}
		}
		total += float64(present) / float64(len(c.Required))
	}
	return clamp01(total / float64(ds.Len()))
}

// Confidence is a weighted mean of row confidences in which low values weigh
// more. Rows without a usable, non-zero confidence do not take part.
type Confidence struct {
	Column string
}

func NewConfidence(cols Columns) Confidence {
	return Confidence{Column: cols.withDefaults().Confidence}
}

func (Confidence) Name() string { return DimensionConfidence }

func (c Confidence) Score(ds *domain.Dataset) float64 {
	if ds.Len() == 0 {
		return 0
	}
	var sum, weights float64
	for _, row := range ds.Rows {
		v, ok := confidenceOf(row, c.Column)
		if !ok || v == 0 {
			continue
		}
		w := confidenceWeight(v)
		sum += v * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return clamp01(sum / weights)
}

func confidenceWeight(v float64) float64 {
	switch {
	case v < 0.70:
		return 3
	case v <= 0.90:
		return 2
	default:
		return 1
	}
}

// Consistency groups rows by a case-folded description prefix and reports the
// share of groups whose rows agree on a single (category, subcategory) pair.
type Consistency struct {
	CategoryColumn    string
	SubCategoryColumn string
	DescriptionColumn string
	PrefixLength      int
}

func NewConsistency(cols Columns, prefixLength int) Consistency {
	cols = cols.withDefaults()
	if prefixLength <= 0 {
		prefixLength = DefaultPrefixLength
	}
	return Consistency{
		CategoryColumn:    cols.Category,
		SubCategoryColumn: cols.SubCategory,
		DescriptionColumn: cols.Description,
		PrefixLength:      prefixLength,
	}
}

func (Consistency) Name() string { return DimensionConsistency }

type categoryPair struct {
	category    string
	subcategory string
}

func (c Consistency) Score(ds *domain.Dataset) float64 {
	if ds.Len() == 0 {
		return 0
	}
	groups := map[string]map[categoryPair]struct{}{}
	for _, row := range ds.Rows {
		desc, ok := row.Value(c.DescriptionColumn)
		if !ok {
			continue
		}
		key := descriptionPrefix(desc, c.PrefixLength)
		cat, _ := row.Value(c.CategoryColumn)
		sub, _ := row.Value(c.SubCategoryColumn)
		pairs, ok := groups[key]
		if !ok {
			pairs = map[categoryPair]struct{}{}
			groups[key] = pairs
		}
		pairs[categoryPair{category: cat, subcategory: sub}] = struct{}{}
	}
	if len(groups) == 0 {
		return 0
	}
	consistent := 0
	for _, pairs := range groups {
		if len(pairs) == 1 {
			consistent++
		}
	}
	return float64(consistent) / float64(len(groups))
}

func descriptionPrefix(desc string, n int) string {
	folded := []rune(strings.ToLower(strings.TrimSpace(desc)))
	if len(folded) > n {
		folded = folded[:n]
	}
	return string(folded)
}
