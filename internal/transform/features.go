package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

const ColumnTransactionDate = "TransactionDate"

// Date layouts accepted for TransactionDate. Slash dates are day-first, as
// UK bank exports write them.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02 Jan 2006",
	"02-Jan-2006",
}

func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

type amountBin struct {
	upper float64
	label string
}

var amountBins = []amountBin{
	{10, "0-10"},
	{50, "10.01-50"},
	{150, "50.01-150"},
	{500, "150.01-500"},
	{1500, "500.01-1500"},
	{999999, "1500+"},
}

// binAmount places v in a right-closed bin; 0 belongs to the first bin and
// values outside [0, 999999] get no bin.
func binAmount(v float64) string {
	if v < 0 {
		return ""
	}
	for _, b := range amountBins {
		if v <= b.upper {
			return b.label
		}
	}
	return ""
}

// DeriveStatementFeatures adds calendar parts of TransactionDate, running
// totals of the amount (newest first, overall, per year and per month) and an
// amount bin. The amount is TransactionValue, or Amount when that is absent.
func DeriveStatementFeatures(ds *domain.Dataset) (*domain.Dataset, error) {
	if ds == nil {
		return domain.EmptyDataset(), nil
	}
	out := ds.Clone()
	if out.Len() == 0 {
		return out, nil
	}
	if !out.HasColumn(ColumnTransactionDate) {
		return nil, fmt.Errorf("derive features: missing column %s", ColumnTransactionDate)
	}
	amountCol := ColumnTransactionValue
	if !out.HasColumn(amountCol) && out.HasColumn("Amount") {
		amountCol = "Amount"
	}

	dates := make([]time.Time, out.Len())
	amounts := make([]float64, out.Len())
	for i, row := range out.Rows {
		d, err := parseDate(row[ColumnTransactionDate])
		if err != nil {
			return nil, fmt.Errorf("derive features: row %d: %w", i, err)
		}
		dates[i] = d
		amounts[i] = parseAmount(row[amountCol])
	}

	for _, col := range []string{
		"Year", "Month", "Day", "DayOfWeek", "WeekOfYear", "WeekOfMonth", "Quarter", "Semester", "IsWeekend",
		"RunningSum", "RunningCount", "RunningAverage",
		"RunningSumYear", "RunningCountYear", "RunningAverageYear",
		"RunningSumMonth", "RunningCountMonth", "RunningAverageMonth",
		"AmountBin",
	} {
		out.EnsureColumn(col, "")
	}

	for i, row := range out.Rows {
		d := dates[i]
		_, isoWeek := d.ISOWeek()
		weekday := (int(d.Weekday()) + 6) % 7 // Monday = 0
		month := int(d.Month())
		row["Year"] = strconv.Itoa(d.Year())
		row["Month"] = strconv.Itoa(month)
		row["Day"] = strconv.Itoa(d.Day())
		row["DayOfWeek"] = strconv.Itoa(weekday)
		row["WeekOfYear"] = strconv.Itoa(isoWeek)
		row["WeekOfMonth"] = strconv.Itoa((d.Day()-1)/7 + 1)
		row["Quarter"] = strconv.Itoa((month-1)/3 + 1)
		row["Semester"] = strconv.Itoa((month-1)/6 + 1)
		row["IsWeekend"] = strconv.FormatBool(weekday >= 5)
		row["AmountBin"] = binAmount(amounts[i])
	}

	order := make([]int, out.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return dates[order[a]].After(dates[order[b]]) })

	type acc struct {
		sum   float64
		count int
	}
	var overall acc
	perYear := map[int]*acc{}
	perMonth := map[[2]int]*acc{}
	for _, i := range order {
		row := out.Rows[i]
		y, m := dates[i].Year(), int(dates[i].Month())

		overall.sum += amounts[i]
		overall.count++

		ya, ok := perYear[y]
		if !ok {
			ya = &acc{}
			perYear[y] = ya
		}
		ya.sum += amounts[i]
		ya.count++

		ma, ok := perMonth[[2]int{y, m}]
		if !ok {
			ma = &acc{}
			perMonth[[2]int{y, m}] = ma
		}
		ma.sum += amounts[i]
		ma.count++

		row["RunningSum"] = formatNumber(overall.sum)
		row["RunningCount"] = strconv.Itoa(overall.count)
		row["RunningAverage"] = formatNumber(overall.sum / float64(overall.count))
		row["RunningSumYear"] = formatNumber(ya.sum)
		row["RunningCountYear"] = strconv.Itoa(ya.count)
		row["RunningAverageYear"] = formatNumber(ya.sum / float64(ya.count))
		row["RunningSumMonth"] = formatNumber(ma.sum)
		row["RunningCountMonth"] = strconv.Itoa(ma.count)
		row["RunningAverageMonth"] = formatNumber(ma.sum / float64(ma.count))
	}
	return out, nil
}
