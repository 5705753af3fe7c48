package domain

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func sampleRun() RunRecord {
	start := time.Date(2025, 3, 1, 10, 0, 0, 123456789, time.UTC)
	index := 0.91
	return RunRecord{
		RunID:        "run-1",
		PipelineName: "bank_transaction_analysis",
		Status:       RunStatusSucceeded,
		StartTime:    start,
		EndTime:      start.Add(1500 * time.Millisecond),
		Steps: []StepRecord{
			{
				Name:            "append_files",
				InputRowCount:   0,
				OutputRowCount:  3,
				DurationSeconds: 0.25,
				StartTime:       start,
				EndTime:         start.Add(250 * time.Millisecond),
				Parameters:      map[string]string{},
			},
		},
		InputRowCount:  0,
		OutputRowCount: 3,
		ContextFiles:   PipelineContext{ContextCategories: "context/candidate_categories.json"},
		Extra: RunExtra{
			QualityIndex:   &index,
			CalculatorName: "SimpleQualityCalculator",
			QualityMetrics: &QualityMetrics{Confidence: 0.91, OverallQualityIndex: 0.91, TotalRows: 3},
		},
	}
}

func TestRunRecordJSONRoundTrip(t *testing.T) {
	run := sampleRun()
	raw, err := json.Marshal(run)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal doc: %v", err)
	}
	if doc["total_duration"] != 1.5 {
		t.Fatalf("total_duration=%v, want 1.5", doc["total_duration"])
	}
	if doc["run_id"] != "run-1" {
		t.Fatalf("run_id=%v, want run-1", doc["run_id"])
	}

	var decoded RunRecord
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(decoded, run) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, run)
	}
}

func TestTotalDurationDerived(t *testing.T) {
	run := sampleRun()
	if got := run.TotalDuration(); got != 1500*time.Millisecond {
		t.Fatalf("TotalDuration()=%v, want 1.5s", got)
	}
	run.EndTime = time.Time{}
	if got := run.TotalDuration(); got != 0 {
		t.Fatalf("TotalDuration()=%v, want 0 before end", got)
	}
}

func TestRunExtraMergeLastWriterWins(t *testing.T) {
	first := 0.5
	second := 0.75
	var extra RunExtra
	extra.Merge(&RunExtra{QualityIndex: &first, CalculatorName: "a"})
	extra.Merge(&RunExtra{QualityIndex: &second, OutputFilePath: "/tmp/out.csv"})

	if extra.QualityIndex == nil || *extra.QualityIndex != 0.75 {
		t.Fatalf("QualityIndex=%v, want 0.75", extra.QualityIndex)
	}
	if extra.CalculatorName != "a" {
		t.Fatalf("CalculatorName=%q, want a", extra.CalculatorName)
	}
	want := []string{ExtraQualityIndex, ExtraCalculatorName, ExtraOutputFilePath}
	if got := extra.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys()=%v, want %v", got, want)
	}

	second = 0.1
	if *extra.QualityIndex != 0.75 {
		t.Fatalf("merge must copy values, got %v", *extra.QualityIndex)
	}
}

func TestRunRecordCloneIsDeep(t *testing.T) {
	run := sampleRun()
	cp := run.Clone()
	cp.Steps[0].Parameters["k"] = "v"
	cp.ContextFiles["extra"] = "x"
	*cp.Extra.QualityIndex = 0

	if _, ok := run.Steps[0].Parameters["k"]; ok {
		t.Fatalf("clone shares step parameters")
	}
	if _, ok := run.ContextFiles["extra"]; ok {
		t.Fatalf("clone shares context files")
	}
	if *run.Extra.QualityIndex != 0.91 {
		t.Fatalf("clone shares extra quality index")
	}
}

func TestNormalizeRunStatus(t *testing.T) {
	cases := map[string]RunStatus{
		"Succeeded": RunStatusSucceeded,
		" failed ":  RunStatusFailed,
		"running":   RunStatusRunning,
		"bogus":     "",
	}
	for in, want := range cases {
		if got := NormalizeRunStatus(in); got != want {
			t.Fatalf("NormalizeRunStatus(%q)=%q, want %q", in, got, want)
		}
	}
}
