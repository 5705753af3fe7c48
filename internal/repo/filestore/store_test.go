package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/repo"
)

func testRun(id string) domain.RunRecord {
	start := time.Date(2025, 5, 4, 8, 30, 0, 42, time.UTC)
	index := 0.87
	return domain.RunRecord{
		RunID:        id,
		PipelineName: "bank_transaction_analysis",
		Status:       domain.RunStatusFailed,
		Error:        &domain.StepError{Message: "no readable files", Details: map[string]string{"folder": "data/extract"}},
		StartTime:    start,
		EndTime:      start.Add(3 * time.Second),
		Steps: []domain.StepRecord{
			{
				Name:            "append_files",
				OutputRowCount:  12,
				DurationSeconds: 1.25,
				StartTime:       start,
				EndTime:         start.Add(time.Second),
				Parameters:      map[string]string{"output_file_path": "/tmp/out.csv"},
			},
			{
				Name:          "merge_files",
				InputRowCount: 12,
				StartTime:     start.Add(time.Second),
				EndTime:       start.Add(2 * time.Second),
				Parameters:    map[string]string{},
				StatusCode:    -1,
				Error:         &domain.StepError{Message: "no readable files", Details: map[string]string{"folder": "data/extract"}},
			},
		},
		OutputRowCount: 0,
		ContextFiles:   domain.PipelineContext{domain.ContextCategories: "context/categories.json"},
		Extra: domain.RunExtra{
			QualityIndex:   &index,
			CalculatorName: "composite",
			QualityMetrics: &domain.QualityMetrics{
				Completeness:        1,
				Confidence:          0.8,
				Consistency:         1,
				OverallQualityIndex: 0.87,
				Dimensions:          map[string]float64{"confidence": 0.8},
				Weights:             map[string]float64{"confidence": 0.6},
				TotalRows:           12,
			},
			OutputFilePath: "/tmp/out.csv",
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "runs"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()
	run := testRun("0192-a")

	id, err := store.Save(ctx, run)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != run.RunID {
		t.Fatalf("Save()=%q, want %q", id, run.RunID)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "0192-a.json")); err != nil {
		t.Fatalf("expected run file: %v", err)
	}

	got, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || !reflect.DeepEqual(*got, run) {
		t.Fatalf("Load() mismatch:\n got %+v\nwant %+v", got, run)
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	ctx := context.Background()
	run := testRun("same")
	if _, err := store.Save(ctx, run); err != nil {
		t.Fatalf("Save: %v", err)
	}
	run.Status = domain.RunStatusSucceeded
	run.Error = nil
	if _, err := store.Save(ctx, run); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := store.Load(ctx, "same")
	if got.Status != domain.RunStatusSucceeded || got.Error != nil {
		t.Fatalf("second save did not overwrite: %+v", got)
	}
	ids, _ := store.ListRuns(ctx)
	if len(ids) != 1 {
		t.Fatalf("ListRuns()=%v, want 1 id", ids)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	got, err := store.Load(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("Load()=%v,%v, want nil,nil", got, err)
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, _ := NewStore(dir)
	if _, err := store.Load(context.Background(), "bad"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestStoreListRuns(t *testing.T) {
	store, _ := NewStore(filepath.Join(t.TempDir(), "nested", "runs"))
	ctx := context.Background()

	ids, err := store.ListRuns(ctx)
	if err != nil || len(ids) != 0 {
		t.Fatalf("ListRuns() on missing dir=%v,%v, want empty", ids, err)
	}

	for _, id := range []string{"c", "a", "b"} {
		if _, err := store.Save(ctx, testRun(id)); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}
	if err := os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ids, err = store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Fatalf("ListRuns()=%v, want [a b c]", ids)
	}
}

func TestStoreRejectsBadIDs(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	for _, id := range []string{"", "  ", "../escape", "a/b", ".."} {
		if _, err := store.Save(context.Background(), testRun(id)); !errors.Is(err, repo.ErrInvalidRunID) {
			t.Fatalf("Save(%q) err=%v, want ErrInvalidRunID", id, err)
		}
	}
}

func TestDefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	if dir != filepath.Join(home, ".metadata", "pipelines") {
		t.Fatalf("DefaultDir()=%q", dir)
	}
}
