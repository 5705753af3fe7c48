package transform

import (
	"strconv"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

const (
	ColumnTransactionNumber = "TransactionNumber"
	ColumnTransactionValue  = "TransactionValue"
	ColumnCategory          = "CategoryAnnotation"
	ColumnSubCategory       = "SubCategoryAnnotation"
	ColumnConfidence        = "Confidence"

	columnSortCode = "SortCode"
	columnDebit    = "DebitAmount"
	columnCredit   = "CreditAmount"
	columnBalance  = "Balance"
)

// BankExtractClean normalizes a raw bank statement export:
//
//   - fully blank rows are dropped and the rest numbered in reverse (newest first = n)
//   - spaces are removed from column names
//   - quotes are stripped from SortCode
//   - TransactionValue = CreditAmount - DebitAmount, both columns dropped afterwards
//   - the annotation columns exist, empty when new
//   - every cell is trimmed
func BankExtractClean(ds *domain.Dataset) (*domain.Dataset, error) {
	if ds == nil {
		return domain.EmptyDataset(), nil
	}

	columns := make([]string, 0, len(ds.Columns)+1)
	rename := make(map[string]string, len(ds.Columns))
	for _, col := range ds.Columns {
		name := strings.ReplaceAll(col, " ", "")
		rename[col] = name
		if !containsString(columns, name) {
			columns = append(columns, name)
		}
	}

	rows := make([]domain.Row, 0, len(ds.Rows))
	for _, src := range ds.Rows {
		if blankRow(src) {
			continue
		}
		row := make(domain.Row, len(src)+5)
		for col, v := range src {
			name, ok := rename[col]
			if !ok {
				name = strings.ReplaceAll(col, " ", "")
			}
			row[name] = strings.TrimSpace(v)
		}
		rows = append(rows, row)
	}

	out := domain.NewDataset(columns)
	out.Rows = rows

	out.EnsureColumn(ColumnTransactionNumber, "")
	n := len(rows)
	for i, row := range rows {
		row[ColumnTransactionNumber] = strconv.Itoa(n - i)
	}

	hasDebit := out.HasColumn(columnDebit)
	hasCredit := out.HasColumn(columnCredit)
	hasBalance := out.HasColumn(columnBalance)
	hasSortCode := out.HasColumn(columnSortCode)
	out.EnsureColumn(ColumnTransactionValue, "")
	for _, row := range rows {
		if hasSortCode {
			row[columnSortCode] = strings.TrimSpace(strings.ReplaceAll(row[columnSortCode], "'", ""))
		}
		var debit, credit float64
		if hasDebit {
			debit = parseAmount(row[columnDebit])
		}
		if hasCredit {
			credit = parseAmount(row[columnCredit])
		}
		row[ColumnTransactionValue] = formatNumber(credit - debit)
		if hasBalance {
			if v, err := strconv.ParseFloat(strings.TrimSpace(row[columnBalance]), 64); err == nil {
				row[columnBalance] = formatNumber(v)
			} else {
				row[columnBalance] = ""
			}
		}
	}

	out.EnsureColumn(ColumnCategory, "")
	out.EnsureColumn(ColumnSubCategory, "")
	out.EnsureColumn(ColumnConfidence, "")
	out.DropColumn(columnDebit)
	out.DropColumn(columnCredit)
	return out, nil
}

func blankRow(row domain.Row) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
