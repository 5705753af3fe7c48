package tabular

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

func TestRead(t *testing.T) {
	in := "\ufeffTransaction Date, Transaction Description ,Debit Amount\n" +
		"01/02/2025,\"TESCO, STORES\",12.50\n" +
		"\n" +
		"02/02/2025,SHELL\n"
	ds, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	wantCols := []string{"Transaction Date", "Transaction Description", "Debit Amount"}
	if !reflect.DeepEqual(ds.Columns, wantCols) {
		t.Fatalf("Columns=%q, want %q", ds.Columns, wantCols)
	}
	if ds.Len() != 2 {
		t.Fatalf("Len()=%d, want 2", ds.Len())
	}
	if ds.Rows[0]["Transaction Description"] != "TESCO, STORES" {
		t.Fatalf("quoted cell=%q", ds.Rows[0]["Transaction Description"])
	}
	if _, ok := ds.Rows[1]["Debit Amount"]; ok {
		t.Fatalf("short record must leave trailing cell absent")
	}
}

func TestReadDuplicateHeaders(t *testing.T) {
	ds, err := Read(strings.NewReader("a,b,a,a\n1,2,3,4\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(ds.Columns, []string{"a", "b", "a.1", "a.2"}) {
		t.Fatalf("Columns=%q", ds.Columns)
	}
	if ds.Rows[0]["a.2"] != "4" {
		t.Fatalf("row=%v", ds.Rows[0])
	}
}

func TestReadEmpty(t *testing.T) {
	if _, err := Read(strings.NewReader("")); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("Read(\"\") err=%v, want ErrNoHeader", err)
	}
	ds, err := Read(strings.NewReader("a,b\n"))
	if err != nil || ds.Len() != 0 || len(ds.Columns) != 2 {
		t.Fatalf("header-only Read()=%+v,%v", ds, err)
	}
}

func TestWriteFileThenRead(t *testing.T) {
	ds := domain.NewDataset([]string{"id", "desc"},
		domain.Row{"id": "1", "desc": "a \"quoted\" value"},
		domain.Row{"id": "2"},
	)
	path := filepath.Join(t.TempDir(), "out", "data.csv")
	if err := WriteFile(path, ds); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.Rows[0]["desc"] != `a "quoted" value` || got.Rows[1]["desc"] != "" {
		t.Fatalf("rows=%v", got.Rows)
	}
}

func TestWriteNil(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write(nil): %v", err)
	}
	if buf.String() != "\n" {
		t.Fatalf("Write(nil)=%q", buf.String())
	}
}
