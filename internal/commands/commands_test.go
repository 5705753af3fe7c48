package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/m-rossini/balance-category-pipeline/internal/classifier"
	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/pipeline"
	"github.com/m-rossini/balance-category-pipeline/internal/quality"
	"github.com/m-rossini/balance-category-pipeline/internal/storage/objectstore"
	"github.com/m-rossini/balance-category-pipeline/internal/tabular"
	"github.com/m-rossini/balance-category-pipeline/internal/transform"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func column(ds *domain.Dataset, col string) []string {
	out := make([]string, 0, ds.Len())
	for _, row := range ds.Rows {
		out = append(out, row[col])
	}
	return out
}

func TestCommandNames(t *testing.T) {
	cases := map[string]pipeline.Command{
		"append_files":             &AppendFiles{},
		"append_objects":           &AppendObjects{},
		"clean_data":               &CleanData{},
		"merge_files":              &MergeFiles{},
		"ai_remote_categorization": &RemoteCategorization{},
		"quality_analysis":         &QualityAnalysis{},
		"save_file":                &SaveFile{},
	}
	for want, cmd := range cases {
		if got := cmd.Name(); got != want {
			t.Fatalf("Name()=%q, want %q", got, want)
		}
	}
}

func TestAppendFilesNewestNameFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2024-01.csv", "Description,Amount\nold,1\n")
	writeFile(t, dir, "2024-03.csv", "Description,Amount,Extra\nnew,3,x\n")
	writeFile(t, dir, "2024-02.csv", "Description,Amount\nmid,2\n")
	writeFile(t, dir, "notes.txt", "ignored")

	out := (&AppendFiles{Dir: dir, Logger: quietLogger()}).Process(context.Background(), nil, nil)
	if out.StatusCode != 0 {
		t.Fatalf("StatusCode=%d, error=%+v", out.StatusCode, out.Error)
	}
	if got := column(out.Dataset, "Description"); !reflect.DeepEqual(got, []string{"new", "mid", "old"}) {
		t.Fatalf("row order=%v, want [new mid old]", got)
	}
	if !reflect.DeepEqual(out.Dataset.Columns, []string{"Description", "Amount", "Extra"}) {
		t.Fatalf("columns=%v", out.Dataset.Columns)
	}
	if _, ok := out.Dataset.Rows[1]["Extra"]; ok {
		t.Fatalf("rows from files without a column must leave it absent")
	}
}

func TestAppendFilesSkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a.csv", "Description\nok\n")
	empty := writeFile(t, dir, "b.csv", "")
	missing := filepath.Join(dir, "missing.csv")

	out := (&AppendFiles{Files: []string{good, empty, missing}, Logger: quietLogger()}).Process(context.Background(), nil, nil)
	if out.StatusCode != 0 || out.Dataset.Len() != 1 {
		t.Fatalf("Process()=%d rows=%d, want 0 and 1 row", out.StatusCode, out.Dataset.Len())
	}
}

func TestAppendFilesHalts(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]*AppendFiles{
		"no source":      {},
		"no files found": {Dir: dir},
		"none readable":  {Files: []string{filepath.Join(dir, "nope.csv")}},
	}
	for name, cmd := range cases {
		cmd.Logger = quietLogger()
		out := cmd.Process(context.Background(), nil, nil)
		if !out.Halted() || out.Error == nil || out.Dataset != nil {
			t.Fatalf("%s: Process()=%+v, want halt", name, out)
		}
	}
	out := (&AppendFiles{Files: []string{filepath.Join(dir, "nope.csv")}, Logger: quietLogger()}).Process(context.Background(), nil, nil)
	if out.Error.Message != "no readable files" {
		t.Fatalf("message=%q", out.Error.Message)
	}
}

func TestAppendObjects(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemoryStore()
	put := func(key, body string) {
		if err := store.Put(ctx, "datasets", key, strings.NewReader(body), int64(len(body)), "text/csv"); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	put("bank/2024-01.csv", "Description\nold\n")
	put("bank/2024-02.csv", "Description\nnew\n")
	put("bank/readme.md", "# nope")
	put("other/2025-01.csv", "Description\nelsewhere\n")

	out := (&AppendObjects{Store: store, Bucket: "datasets", Prefix: "bank/", Logger: quietLogger()}).Process(ctx, nil, nil)
	if out.StatusCode != 0 {
		t.Fatalf("StatusCode=%d error=%+v", out.StatusCode, out.Error)
	}
	if got := column(out.Dataset, "Description"); !reflect.DeepEqual(got, []string{"new", "old"}) {
		t.Fatalf("rows=%v, want [new old]", got)
	}

	out = (&AppendObjects{Store: store, Bucket: "datasets", Prefix: "none/", Logger: quietLogger()}).Process(ctx, nil, nil)
	if !out.Halted() {
		t.Fatalf("expected halt when no objects match")
	}
	out = (&AppendObjects{Bucket: "datasets"}).Process(ctx, nil, nil)
	if !out.Halted() {
		t.Fatalf("expected halt without store")
	}
}

func TestCleanDataAppliesFunctionsInOrder(t *testing.T) {
	appendCol := func(name string) transform.Func {
		return func(ds *domain.Dataset) (*domain.Dataset, error) {
			out := ds.Clone()
			out.EnsureColumn(name, name)
			return out, nil
		}
	}
	ds := domain.NewDataset([]string{"a"}, domain.Row{"a": "1"})
	out := (&CleanData{Functions: []transform.Func{appendCol("x"), appendCol("y")}, Logger: quietLogger()}).Process(context.Background(), ds, nil)
	if out.StatusCode != 0 {
		t.Fatalf("StatusCode=%d", out.StatusCode)
	}
	if !reflect.DeepEqual(out.Dataset.Columns, []string{"a", "x", "y"}) {
		t.Fatalf("columns=%v", out.Dataset.Columns)
	}
	if ds.HasColumn("x") {
		t.Fatalf("input dataset was modified")
	}
}

func TestCleanDataEmptyAndErrors(t *testing.T) {
	called := false
	fn := func(ds *domain.Dataset) (*domain.Dataset, error) {
		called = true
		return ds, nil
	}
	out := (&CleanData{Functions: []transform.Func{fn}, Logger: quietLogger()}).Process(context.Background(), domain.EmptyDataset(), nil)
	if out.StatusCode != 0 || called || out.Dataset == nil {
		t.Fatalf("empty input: status=%d called=%v", out.StatusCode, called)
	}

	failing := func(*domain.Dataset) (*domain.Dataset, error) { return nil, errors.New("bad input") }
	ds := domain.NewDataset([]string{"a"}, domain.Row{"a": "1"})
	out = (&CleanData{Functions: []transform.Func{failing}, Logger: quietLogger()}).Process(context.Background(), ds, nil)
	if !out.Halted() || !strings.Contains(out.Error.Message, "bad input") {
		t.Fatalf("Process()=%+v, want halt with cause", out)
	}
}

func TestCleanDataWithBankExtractClean(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "bank.csv", "Transaction Description,Debit Amount,Credit Amount\nTESCO,12.50,\nSALARY,,2000\n")
	ds, err := tabular.ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := (&CleanData{Functions: []transform.Func{transform.BankExtractClean}, Logger: quietLogger()}).Process(context.Background(), ds, nil)
	if out.StatusCode != 0 {
		t.Fatalf("StatusCode=%d", out.StatusCode)
	}
	if got := column(out.Dataset, transform.ColumnTransactionNumber); !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Fatalf("TransactionNumber=%v, want [2 1]", got)
	}
	if got := column(out.Dataset, transform.ColumnTransactionValue); !reflect.DeepEqual(got, []string{"-12.5", "2000"}) {
		t.Fatalf("TransactionValue=%v", got)
	}
}

const trainedCSV = `TransactionNumber,CategoryAnnotation,SubCategoryAnnotation,Confidence,Ignored
1,Food,Groceries,0.9,x
2,Transport,Fuel,0.5,x
3,Bills,Energy,,x
4,Leisure,Cinema,0.99,x
4,Other,Other,0.1,x
`

func TestMergeFiles(t *testing.T) {
	dir := t.TempDir()
	trained := writeFile(t, dir, "factoids.csv", trainedCSV)
	ds := domain.NewDataset(
		[]string{"TransactionNumber", "TransactionDescription", "CategoryAnnotation", "SubCategoryAnnotation", "Confidence"},
		domain.Row{"TransactionNumber": "1", "TransactionDescription": "TESCO", "CategoryAnnotation": "", "SubCategoryAnnotation": "", "Confidence": ""},
		domain.Row{"TransactionNumber": "2", "TransactionDescription": "SHELL", "CategoryAnnotation": "Car", "SubCategoryAnnotation": "Petrol", "Confidence": "0.8"},
		domain.Row{"TransactionNumber": "3", "TransactionDescription": "EDF", "CategoryAnnotation": "Utilities", "SubCategoryAnnotation": "", "Confidence": "0.4"},
		domain.Row{"TransactionNumber": "4", "TransactionDescription": "ODEON", "CategoryAnnotation": "Fun", "SubCategoryAnnotation": "Movies", "Confidence": "0.3"},
		domain.Row{"TransactionNumber": "9", "TransactionDescription": "UNKNOWN", "CategoryAnnotation": "", "SubCategoryAnnotation": "", "Confidence": ""},
	)

	out := (&MergeFiles{InputFile: trained, Logger: quietLogger()}).Process(context.Background(), ds, nil)
	if out.StatusCode != 0 {
		t.Fatalf("StatusCode=%d error=%+v", out.StatusCode, out.Error)
	}
	if out.Dataset.Len() != ds.Len() {
		t.Fatalf("rows=%d, want %d", out.Dataset.Len(), ds.Len())
	}
	if out.Dataset.HasColumn("Ignored") {
		t.Fatalf("columns outside the annotations must not be merged")
	}
	want := [][3]string{
		{"Food", "Groceries", "0.9"},   // blank original
		{"Car", "Petrol", "0.8"},       // original more confident
		{"Utilities", "Energy", "0.4"}, // no trained confidence, only blank subcategory filled
		{"Leisure", "Cinema", "0.99"},  // trained more confident, first duplicate wins
		{"", "", ""},                   // no match
	}
	for i, w := range want {
		row := out.Dataset.Rows[i]
		got := [3]string{row["CategoryAnnotation"], row["SubCategoryAnnotation"], row["Confidence"]}
		if got != w {
			t.Fatalf("row %d=%v, want %v", i, got, w)
		}
	}
	if ds.Rows[0]["CategoryAnnotation"] != "" {
		t.Fatalf("input dataset was modified")
	}
}

func TestMergeFilesAddsAnnotationColumns(t *testing.T) {
	dir := t.TempDir()
	trained := writeFile(t, dir, "factoids.csv", trainedCSV)
	ds := domain.NewDataset([]string{"TransactionNumber"}, domain.Row{"TransactionNumber": "2"})
	out := (&MergeFiles{InputFile: trained, On: []string{"TransactionNumber"}, Logger: quietLogger()}).Process(context.Background(), ds, nil)
	row := out.Dataset.Rows[0]
	if row["CategoryAnnotation"] != "Transport" || row["Confidence"] != "0.5" {
		t.Fatalf("row=%v", row)
	}
}

func TestMergeFilesHalts(t *testing.T) {
	dir := t.TempDir()
	trained := writeFile(t, dir, "factoids.csv", trainedCSV)
	ds := domain.NewDataset([]string{"TransactionNumber"}, domain.Row{"TransactionNumber": "1"})
	cases := map[string]struct {
		cmd *MergeFiles
		ds  *domain.Dataset
	}{
		"nil dataset":         {&MergeFiles{InputFile: trained}, nil},
		"no input file":       {&MergeFiles{}, ds},
		"missing file":        {&MergeFiles{InputFile: filepath.Join(dir, "nope.csv")}, ds},
		"missing join column": {&MergeFiles{InputFile: trained, On: []string{"Reference"}}, ds},
	}
	for name, tc := range cases {
		tc.cmd.Logger = quietLogger()
		if out := tc.cmd.Process(context.Background(), tc.ds, nil); !out.Halted() {
			t.Fatalf("%s: expected halt, got %+v", name, out)
		}
	}
}

func TestSaveFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out", "annotated.csv")
	ds := domain.NewDataset([]string{"a", "b"}, domain.Row{"a": "1", "b": "x,y"})

	out := (&SaveFile{OutputPath: target, Logger: quietLogger()}).Process(context.Background(), ds, nil)
	if out.StatusCode != 0 {
		t.Fatalf("StatusCode=%d error=%+v", out.StatusCode, out.Error)
	}
	if out.TelemetryUpdates == nil || out.TelemetryUpdates.OutputFilePath != target {
		t.Fatalf("telemetry=%+v, want output path %s", out.TelemetryUpdates, target)
	}
	back, err := tabular.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(back, ds) {
		t.Fatalf("saved=%+v, want %+v", back, ds)
	}
}

func TestSaveFileRelativePathIsReportedAbsolute(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	ds := domain.NewDataset([]string{"a"}, domain.Row{"a": "1"})
	out := (&SaveFile{OutputPath: "data/out.csv", Logger: quietLogger()}).Process(context.Background(), ds, nil)
	if out.StatusCode != 0 {
		t.Fatalf("StatusCode=%d", out.StatusCode)
	}
	if !filepath.IsAbs(out.TelemetryUpdates.OutputFilePath) {
		t.Fatalf("OutputFilePath=%q, want absolute", out.TelemetryUpdates.OutputFilePath)
	}
}

func TestSaveFileEmpty(t *testing.T) {
	dir := t.TempDir()
	skip := filepath.Join(dir, "skip.csv")
	out := (&SaveFile{OutputPath: skip, Logger: quietLogger()}).Process(context.Background(), domain.EmptyDataset(), nil)
	if out.StatusCode != 0 || out.TelemetryUpdates != nil {
		t.Fatalf("Process()=%+v, want success without telemetry", out)
	}
	if _, err := os.Stat(skip); !os.IsNotExist(err) {
		t.Fatalf("empty dataset must not be written")
	}

	keep := filepath.Join(dir, "keep.csv")
	out = (&SaveFile{OutputPath: keep, SaveEmpty: true, Logger: quietLogger()}).Process(context.Background(), domain.NewDataset([]string{"a"}), nil)
	if out.StatusCode != 0 {
		t.Fatalf("StatusCode=%d", out.StatusCode)
	}
	data, err := os.ReadFile(keep)
	if err != nil || string(data) != "a\n" {
		t.Fatalf("file=%q,%v, want header only", data, err)
	}
}

func TestSaveFileHaltsOnWriteError(t *testing.T) {
	dir := t.TempDir()
	blocker := writeFile(t, dir, "blocker", "x")
	out := (&SaveFile{OutputPath: filepath.Join(blocker, "out.csv"), Logger: quietLogger()}).Process(context.Background(), domain.NewDataset([]string{"a"}, domain.Row{"a": "1"}), nil)
	if !out.Halted() {
		t.Fatalf("expected halt when the parent is a file")
	}
	if out := (&SaveFile{}).Process(context.Background(), nil, nil); !out.Halted() {
		t.Fatalf("expected halt without output path")
	}
}

func TestQualityAnalysis(t *testing.T) {
	ds := domain.NewDataset(
		[]string{"TransactionDescription", "CategoryAnnotation", "SubCategoryAnnotation", "Confidence"},
		domain.Row{"TransactionDescription": "TESCO", "CategoryAnnotation": "Food", "SubCategoryAnnotation": "Groceries", "Confidence": "0.8"},
	)
	var buf bytes.Buffer
	cmd := &QualityAnalysis{Reporter: quality.NewLogReporter(slog.New(slog.NewJSONHandler(&buf, nil)))}
	out := cmd.Process(context.Background(), ds, nil)
	if out.StatusCode != 0 || out.Dataset != ds {
		t.Fatalf("Process() must pass the dataset through with status 0")
	}
	tel := out.TelemetryUpdates
	if tel == nil || tel.QualityIndex == nil || *tel.QualityIndex != 0.8 {
		t.Fatalf("telemetry=%+v, want quality index 0.8", tel)
	}
	if tel.CalculatorName != quality.NameSimple || tel.QualityMetrics == nil || tel.QualityMetrics.TotalRows != 1 {
		t.Fatalf("telemetry=%+v", tel)
	}
	if !strings.Contains(buf.String(), `"calculator":"simple"`) {
		t.Fatalf("reporter not called: %s", buf.String())
	}

	composite, err := quality.NewCompositeCalculator(quality.DefaultWeights)
	if err != nil {
		t.Fatalf("NewCompositeCalculator: %v", err)
	}
	out = (&QualityAnalysis{Calculator: composite}).Process(context.Background(), nil, nil)
	if out.StatusCode != 0 || out.Dataset == nil || out.TelemetryUpdates.CalculatorName != quality.NameComposite {
		t.Fatalf("Process(nil)=%+v", out)
	}
	if *out.TelemetryUpdates.QualityIndex != 0 {
		t.Fatalf("empty dataset must score 0")
	}
}

type fakeCategorizer struct {
	calls   []classifier.Request
	respond func(call int, req classifier.Request) (*classifier.Response, error)
}

func (f *fakeCategorizer) Categorize(ctx context.Context, req classifier.Request) (*classifier.Response, error) {
	f.calls = append(f.calls, req)
	return f.respond(len(f.calls), req)
}

func echoCategories(_ int, req classifier.Request) (*classifier.Response, error) {
	resp := &classifier.Response{Code: classifier.CodeSuccess}
	for _, tx := range req.Transactions {
		n := 100
		resp.Items = append(resp.Items, classifier.Item{
			ID:       classifier.ItemID(tx.ID),
			Category: &classifier.Category{Category: "Cat-" + tx.Description, Subcategory: "Sub", Confidence: 0.75, TransactionNumber: &n},
		})
	}
	return resp, nil
}

func transactions(n int) *domain.Dataset {
	ds := domain.NewDataset([]string{"TransactionDescription", "TransactionValue", "TransactionDate", "TransactionType"})
	for i := 0; i < n; i++ {
		ds.Rows = append(ds.Rows, domain.Row{
			"TransactionDescription": string(rune('A' + i)),
			"TransactionValue":       "-1.5",
			"TransactionDate":        "01/02/2024",
			"TransactionType":        "DEB",
		})
	}
	return ds
}

func TestRemoteCategorizationBatches(t *testing.T) {
	dir := t.TempDir()
	cats := writeFile(t, dir, "categories.json", `{"categories":["Food"]}`)
	codes := writeFile(t, dir, "codes.json", `[{"code":"DEB"}]`)
	fake := &fakeCategorizer{respond: echoCategories}
	cmd := &RemoteCategorization{Client: fake, BatchSize: 2, Logger: quietLogger()}
	ds := transactions(5)

	out := cmd.Process(context.Background(), ds, domain.PipelineContext{
		domain.ContextCategories: cats,
		domain.ContextTypeCode:   codes,
	})
	if out.StatusCode != 0 {
		t.Fatalf("StatusCode=%d", out.StatusCode)
	}
	if len(fake.calls) != 3 {
		t.Fatalf("calls=%d, want 3 batches", len(fake.calls))
	}
	first := fake.calls[0]
	if len(first.Context) != 2 || string(first.Context[1]) != `[{"code":"DEB"}]` {
		t.Fatalf("context=%s", first.Context)
	}
	if len(first.Transactions) != 2 || first.Transactions[1].ID != "1" || first.Transactions[1].Amount != -1.5 {
		t.Fatalf("transactions=%+v", first.Transactions)
	}
	if last := fake.calls[2].Transactions; len(last) != 1 || last[0].ID != "4" {
		t.Fatalf("last batch=%+v", last)
	}
	if got := column(out.Dataset, "CategoryAnnotation"); !reflect.DeepEqual(got, []string{"Cat-A", "Cat-B", "Cat-C", "Cat-D", "Cat-E"}) {
		t.Fatalf("categories=%v", got)
	}
	if out.Dataset.Rows[0]["Confidence"] != "0.75" || out.Dataset.Rows[0]["TransactionNumber"] != "100" {
		t.Fatalf("row=%v", out.Dataset.Rows[0])
	}
	if ds.HasColumn("CategoryAnnotation") {
		t.Fatalf("input dataset was modified")
	}
}

func TestRemoteCategorizationErrorBudget(t *testing.T) {
	fake := &fakeCategorizer{respond: func(call int, req classifier.Request) (*classifier.Response, error) {
		if call == 1 {
			return echoCategories(call, req)
		}
		return nil, errors.New("service down")
	}}
	cmd := &RemoteCategorization{Client: fake, BatchSize: 1, MaxErrors: 2, Logger: quietLogger()}

	out := cmd.Process(context.Background(), transactions(6), nil)
	if out.StatusCode != 0 {
		t.Fatalf("StatusCode=%d, want 0 after budget exhaustion", out.StatusCode)
	}
	if len(fake.calls) != 3 {
		t.Fatalf("calls=%d, want 3 (1 ok + 2 failed)", len(fake.calls))
	}
	if got := column(out.Dataset, "CategoryAnnotation"); !reflect.DeepEqual(got, []string{"Cat-A", "", "", "", "", ""}) {
		t.Fatalf("categories=%v", got)
	}
	if len(fake.calls[0].Context) != 0 || fake.calls[0].Context == nil {
		t.Fatalf("context must be an empty list without reference files")
	}
}

func TestRemoteCategorizationSkipsUnusableItems(t *testing.T) {
	fake := &fakeCategorizer{respond: func(int, classifier.Request) (*classifier.Response, error) {
		return &classifier.Response{Code: classifier.CodeSuccess, Items: []classifier.Item{
			{ID: "0", Category: nil},
			{ID: "x", Category: &classifier.Category{Category: "Bad"}},
			{ID: "99", Category: &classifier.Category{Category: "Bad"}},
			{ID: "1", Category: &classifier.Category{Category: "Good", Subcategory: "S", Confidence: 1}},
		}}, nil
	}}
	out := (&RemoteCategorization{Client: fake, Logger: quietLogger()}).Process(context.Background(), transactions(2), nil)
	if got := column(out.Dataset, "CategoryAnnotation"); !reflect.DeepEqual(got, []string{"", "Good"}) {
		t.Fatalf("categories=%v", got)
	}
	if out.Dataset.HasColumn("TransactionNumber") {
		t.Fatalf("TransactionNumber must only be added when the service returns one")
	}
}

func TestRemoteCategorizationInvalidContextIsSkipped(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.json", `{`)
	fake := &fakeCategorizer{respond: echoCategories}
	pc := domain.PipelineContext{domain.ContextCategories: bad, domain.ContextTypeCode: filepath.Join(dir, "missing.json")}
	(&RemoteCategorization{Client: fake, Logger: quietLogger()}).Process(context.Background(), transactions(1), pc)
	if len(fake.calls) != 1 || len(fake.calls[0].Context) != 0 {
		t.Fatalf("calls=%+v", fake.calls)
	}
}

func TestRemoteCategorizationEmptyAndUnconfigured(t *testing.T) {
	fake := &fakeCategorizer{respond: echoCategories}
	out := (&RemoteCategorization{Client: fake}).Process(context.Background(), nil, nil)
	if out.StatusCode != 0 || out.Dataset == nil || len(fake.calls) != 0 {
		t.Fatalf("empty input must succeed without calls")
	}
	if out := (&RemoteCategorization{}).Process(context.Background(), transactions(1), nil); !out.Halted() {
		t.Fatalf("expected halt without client")
	}
}

func TestRemoteCategorizationStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fake := &fakeCategorizer{}
	fake.respond = func(call int, req classifier.Request) (*classifier.Response, error) {
		cancel()
		return echoCategories(call, req)
	}
	out := (&RemoteCategorization{Client: fake, BatchSize: 1, Logger: quietLogger()}).Process(ctx, transactions(4), nil)
	if out.StatusCode != 0 || len(fake.calls) != 1 {
		t.Fatalf("status=%d calls=%d, want 0 and 1", out.StatusCode, len(fake.calls))
	}
}
