package commands

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/pipeline"
	"github.com/m-rossini/balance-category-pipeline/internal/tabular"
	"github.com/m-rossini/balance-category-pipeline/internal/transform"
)

// MergeFiles left-joins previously trained annotations from InputFile onto
// the dataset. For each matched row:
//
//   - category and subcategory take the trained value when it is present and
//     the original is blank or the trained confidence is higher
//   - confidence takes the trained value when it is higher or the original
//     is missing
//
// The first trained row for a key wins.
type MergeFiles struct {
	InputFile string
	On        []string
	Logger    *slog.Logger
}

func (c *MergeFiles) Name() string { return NameMergeFiles }

func (c *MergeFiles) keys() []string {
	if len(c.On) == 0 {
		return []string{transform.ColumnTransactionNumber}
	}
	return c.On
}

func (c *MergeFiles) Process(ctx context.Context, ds *domain.Dataset, _ domain.PipelineContext) pipeline.Outcome {
	logger := loggerOr(c.Logger)
	input := strings.TrimSpace(c.InputFile)
	if ds == nil || input == "" {
		return pipeline.Halt("missing input dataset or input file", nil)
	}
	keys := c.keys()
	details := map[string]string{"input_file": input, "on": strings.Join(keys, ",")}

	trained, err := tabular.ReadFile(input)
	if err != nil {
		details["error"] = err.Error()
		return pipeline.Halt("read trained annotations failed", details)
	}
	for _, key := range keys {
		if !ds.HasColumn(key) {
			return pipeline.Halt("join column missing from dataset: "+key, details)
		}
		if !trained.HasColumn(key) {
			return pipeline.Halt("join column missing from trained file: "+key, details)
		}
	}
	logger.DebugContext(ctx, "merging trained annotations", "input_file", input, "on", keys)

	index := make(map[string]domain.Row, trained.Len())
	for _, row := range trained.Rows {
		k := joinKey(row, keys)
		if _, ok := index[k]; !ok {
			index[k] = row
		}
	}

	out := ds.Clone()
	for _, col := range []string{transform.ColumnCategory, transform.ColumnSubCategory, transform.ColumnConfidence} {
		out.EnsureColumn(col, "")
	}
	matched := 0
	for _, row := range out.Rows {
		t, ok := index[joinKey(row, keys)]
		if !ok {
			continue
		}
		matched++
		applyTrained(row, t)
	}

	logger.InfoContext(ctx, "merge completed", "rows", out.Len(), "matched", matched)
	return pipeline.Success(out)
}

func applyTrained(row, trained domain.Row) {
	trainedConf, trainedOK := parseConfidence(trained[transform.ColumnConfidence])
	origConf, origOK := parseConfidence(row[transform.ColumnConfidence])
	better := trainedOK && (!origOK || origConf < trainedConf)

	for _, col := range []string{transform.ColumnCategory, transform.ColumnSubCategory} {
		tv, ok := trained.Value(col)
		if !ok {
			continue
		}
		if _, present := row.Value(col); !present || better {
			row[col] = tv
		}
	}
	if better {
		row[transform.ColumnConfidence] = strings.TrimSpace(trained[transform.ColumnConfidence])
	}
}

func parseConfidence(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func joinKey(row domain.Row, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strings.TrimSpace(row[k])
	}
	return strings.Join(parts, "\x1f")
}
