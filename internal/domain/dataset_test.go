package domain

import "testing"

func TestDatasetLenNilSafe(t *testing.T) {
	var ds *Dataset
	if ds.Len() != 0 {
		t.Fatalf("Len()=%d, want 0 for nil dataset", ds.Len())
	}
	if !ds.IsEmpty() {
		t.Fatalf("nil dataset should be empty")
	}
	if EmptyDataset() == nil || EmptyDataset().Len() != 0 {
		t.Fatalf("EmptyDataset() must be non-nil and empty")
	}
}

func TestDatasetEnsureAndDropColumn(t *testing.T) {
	ds := NewDataset([]string{"a"}, Row{"a": "1"}, Row{"a": "2", "b": "x"})
	ds.EnsureColumn("b", "")
	if !ds.HasColumn("b") {
		t.Fatalf("expected column b")
	}
	if ds.Rows[0]["b"] != "" || ds.Rows[1]["b"] != "x" {
		t.Fatalf("EnsureColumn must not overwrite existing cells: %+v", ds.Rows)
	}

	ds.DropColumn("a")
	if ds.HasColumn("a") {
		t.Fatalf("column a should be dropped")
	}
	if _, ok := ds.Rows[0]["a"]; ok {
		t.Fatalf("cells of dropped column should be removed")
	}
}

func TestDatasetCloneIsDeep(t *testing.T) {
	ds := NewDataset([]string{"a"}, Row{"a": "1"})
	cp := ds.Clone()
	cp.Rows[0]["a"] = "changed"
	cp.Columns[0] = "z"
	if ds.Rows[0]["a"] != "1" || ds.Columns[0] != "a" {
		t.Fatalf("Clone() shares state with original")
	}
}

func TestRowValue(t *testing.T) {
	row := Row{"present": " x ", "blank": "   "}
	if v, ok := row.Value("present"); !ok || v != "x" {
		t.Fatalf("Value(present)=%q,%v", v, ok)
	}
	if _, ok := row.Value("blank"); ok {
		t.Fatalf("blank cell must be absent")
	}
	if _, ok := row.Value("missing"); ok {
		t.Fatalf("missing cell must be absent")
	}
}

func TestPipelineContextMerge(t *testing.T) {
	var pc PipelineContext
	pc = pc.Merge(PipelineContext{"a": "1"})
	pc = pc.Merge(PipelineContext{"a": "2", "b": "3"})
	if pc["a"] != "2" || pc["b"] != "3" {
		t.Fatalf("Merge()=%v", pc)
	}
	cp := pc.Clone()
	cp["a"] = "x"
	if pc["a"] != "2" {
		t.Fatalf("Clone() shares state")
	}
}
