package transform

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

var ErrUnknownTransform = errors.New("unknown transform")

// Func maps a dataset to a new one. Implementations must not modify ds.
type Func func(ds *domain.Dataset) (*domain.Dataset, error)

const (
	NameIdentity                = "identity"
	NameBankExtractClean        = "bank_extract_clean"
	NameDeriveStatementFeatures = "derive_statement_features"
)

var registry = map[string]Func{
	NameIdentity:                Identity,
	NameBankExtractClean:        BankExtractClean,
	NameDeriveStatementFeatures: DeriveStatementFeatures,
}

// ByName resolves a transform for workflow definitions.
func ByName(name string) (Func, error) {
	fn, ok := registry[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, name)
	}
	return fn, nil
}

// Names lists the registered transforms in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func Identity(ds *domain.Dataset) (*domain.Dataset, error) {
	return ds.Clone(), nil
}

// formatNumber renders v without trailing zeros, dropping float noise below 1e-9.
func formatNumber(v float64) string {
	v = math.Round(v*1e9) / 1e9
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var amountReplacer = strings.NewReplacer(",", "", "(", "-", ")", "", "£", "", "$", "")

// parseAmount reads a bank amount such as "1,234.50", "(12.00)" or "£3".
// Anything it cannot read counts as 0.
func parseAmount(raw string) float64 {
	s := strings.TrimSpace(amountReplacer.Replace(raw))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
