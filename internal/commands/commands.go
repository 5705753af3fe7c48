// Package commands holds the concrete pipeline steps. Each command's Name is
// the key it is registered under in workflow definitions.
package commands

import (
	"log/slog"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

const (
	NameAppendFiles          = "append_files"
	NameAppendObjects        = "append_objects"
	NameCleanData            = "clean_data"
	NameMergeFiles           = "merge_files"
	NameRemoteCategorization = "ai_remote_categorization"
	NameQualityAnalysis      = "quality_analysis"
	NameSaveFile             = "save_file"
)

func loggerOr(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func orEmpty(ds *domain.Dataset) *domain.Dataset {
	if ds == nil {
		return domain.EmptyDataset()
	}
	return ds
}

// concat stacks datasets vertically. Columns are the union in first-seen
// order; rows lacking a column leave it absent.
func concat(parts []*domain.Dataset) *domain.Dataset {
	var columns []string
	seen := map[string]struct{}{}
	total := 0
	for _, part := range parts {
		for _, col := range part.Columns {
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = struct{}{}
			columns = append(columns, col)
		}
		total += part.Len()
	}
	out := domain.NewDataset(columns)
	out.Rows = make([]domain.Row, 0, total)
	for _, part := range parts {
		for _, row := range part.Rows {
			out.Rows = append(out.Rows, row.Clone())
		}
	}
	return out
}
