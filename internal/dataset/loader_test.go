package dataset

import (
	"errors"
	"testing"
)

func csvFile(body string) UploadedFile {
	return UploadedFile{Name: "data.csv", Kind: KindCSV, Content: []byte(body), Size: int64(len(body))}
}

func TestLoadCSVRoundTrip(t *testing.T) {
	tbl, err := Load(csvFile("a,b\n1,x\n2,y\n"), Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Rows() != 2 || len(tbl.Columns) != 2 {
		t.Fatalf("shape = %dx%d, want 2x2", tbl.Rows(), len(tbl.Columns))
	}
	if got := tbl.ColumnNames(); got[0] != "a" || got[1] != "b" {
		t.Fatalf("columns = %v", got)
	}
	if tbl.Columns[0].Type != Numeric || tbl.Columns[1].Type != Text {
		t.Fatalf("types = %s,%s", tbl.Columns[0].Type, tbl.Columns[1].Type)
	}
	if tbl.Name != "data.csv" {
		t.Fatalf("name = %q", tbl.Name)
	}
}

func TestLoadSizeBoundary(t *testing.T) {
	f := csvFile("a,b\n1,x\n")
	f.Size = 200 * 1024 * 1024
	if _, err := Load(f, Options{}); err != nil {
		t.Fatalf("exactly at limit should load: %v", err)
	}
	f.Size++
	_, err := Load(f, Options{})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("want ErrFileTooLarge, got %v", err)
	}
}

func TestLoadSizeCheckedBeforeParse(t *testing.T) {
	f := UploadedFile{Name: "x.csv", Kind: KindCSV, Content: []byte{}, Size: DefaultMaxBytes + 1}
	if _, err := Load(f, Options{}); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("want ErrFileTooLarge, got %v", err)
	}
	small := csvFile("a\n1\n")
	if _, err := Load(small, Options{MaxBytes: 2}); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("custom limit ignored: %v", err)
	}
}

func TestLoadUnsupportedKind(t *testing.T) {
	f := UploadedFile{Name: "x.parquet", Kind: Kind("parquet"), Content: []byte("PAR1")}
	if _, err := Load(f, Options{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadColumnTypeOverride(t *testing.T) {
	f := csvFile("code,amount\n001,10\n002,x\n")
	tbl, err := Load(f, Options{ColumnTypes: map[string]ColumnType{"code": Text}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Columns[0].Type != Text {
		t.Fatalf("override ignored: %s", tbl.Columns[0].Type)
	}
	if tbl.Columns[0].Values[0].Raw != "001" {
		t.Fatalf("leading zeros lost: %q", tbl.Columns[0].Values[0].Raw)
	}

	_, err = Load(f, Options{ColumnTypes: map[string]ColumnType{"amount": Numeric}})
	var pe *ParseError
	if !errors.As(err, &pe) || !errors.Is(err, ErrParse) {
		t.Fatalf("want ParseError for unconvertible forced column, got %v", err)
	}
}

func TestSelectSheet(t *testing.T) {
	names := []string{"One", "Two"}
	if got, _ := SelectSheet("")(names); got != "One" {
		t.Fatalf("empty selector = %q", got)
	}
	if got, _ := SelectSheet("Two")(names); got != "Two" {
		t.Fatalf("selector = %q", got)
	}
	if _, err := SelectSheet("Three")(names); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("want ErrSheetNotFound, got %v", err)
	}
}

func TestHeadersUniqueAndNamed(t *testing.T) {
	tbl, err := Load(csvFile("a,,a,a\n1,2,3,4\n"), Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"a", "Unnamed: 1", "a.1", "a.2"}
	for i, n := range tbl.ColumnNames() {
		if n != want[i] {
			t.Fatalf("columns = %v, want %v", tbl.ColumnNames(), want)
		}
	}
}

func TestHead(t *testing.T) {
	tbl, _ := Load(csvFile("n\n1\n2\n3\n"), Options{})
	h := tbl.Head(2)
	if h.Rows() != 2 || tbl.Rows() != 3 {
		t.Fatalf("head rows = %d, source rows = %d", h.Rows(), tbl.Rows())
	}
	if h.Columns[0].Type != Numeric {
		t.Fatalf("head lost type")
	}
	if tbl.Head(10).Rows() != 3 {
		t.Fatalf("head beyond end should clamp")
	}
}
