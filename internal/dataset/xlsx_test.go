package dataset

import (
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

// workbook builds an in-memory XLSX with the given sheets; each sheet is a row-major grid.
func workbook(t *testing.T, sheets []string, data map[string][][]any) UploadedFile {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range data[name] {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if err := f.SetCellValue(name, cell, v); err != nil {
					t.Fatalf("set %s: %v", cell, err)
				}
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return UploadedFile{Name: "book.xlsx", Kind: KindXLSX, Content: buf.Bytes(), Size: int64(buf.Len())}
}

func TestXLSXSingleSheet(t *testing.T) {
	f := workbook(t, []string{"Data"}, map[string][][]any{
		"Data": {{"id", "name", "ok"}, {1, "a", true}, {2, "b", false}, {3, "c", true}},
	})
	called := false
	tbl, err := Load(f, Options{SheetSelector: func([]string) (string, error) {
		called = true
		return "Data", nil
	}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if called {
		t.Fatalf("selector consulted for a single-sheet workbook")
	}
	if tbl.Rows() != 3 || len(tbl.Columns) != 3 || tbl.Sheet != "Data" {
		t.Fatalf("shape = %dx%d sheet=%q", tbl.Rows(), len(tbl.Columns), tbl.Sheet)
	}
	if tbl.Columns[0].Type != Numeric || tbl.Columns[1].Type != Text {
		t.Fatalf("types = %s,%s", tbl.Columns[0].Type, tbl.Columns[1].Type)
	}
}

func TestXLSXSkipsBlankRows(t *testing.T) {
	f := workbook(t, []string{"Data"}, map[string][][]any{
		"Data": {{"a", "b"}, {1, 2}, {}, {"  ", ""}, {3, 4}},
	})
	tbl, err := Load(f, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	csvTbl, err := Load(csvFile("a,b\n1,2\n\n3,4\n"), Options{})
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if tbl.Rows() != 2 || tbl.Rows() != csvTbl.Rows() {
		t.Fatalf("rows xlsx=%d csv=%d, want 2", tbl.Rows(), csvTbl.Rows())
	}
	if got := tbl.Row(1); got[0] != "3" || got[1] != "4" {
		t.Fatalf("second row = %v", got)
	}
}

func TestXLSXMultiSheetDefaultsToFirst(t *testing.T) {
	f := workbook(t, []string{"First", "Second"}, map[string][][]any{
		"First":  {{"a"}, {1}},
		"Second": {{"x", "y"}, {1, 2}, {3, 4}},
	})
	tbl, err := Load(f, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Sheet != "First" || tbl.Rows() != 1 {
		t.Fatalf("sheet=%q rows=%d", tbl.Sheet, tbl.Rows())
	}

	var offered []string
	tbl, err = Load(f, Options{SheetSelector: func(names []string) (string, error) {
		offered = names
		return "Second", nil
	}})
	if err != nil {
		t.Fatalf("load second: %v", err)
	}
	if len(offered) != 2 || tbl.Sheet != "Second" || tbl.Rows() != 2 || len(tbl.Columns) != 2 {
		t.Fatalf("offered=%v sheet=%q shape=%dx%d", offered, tbl.Sheet, tbl.Rows(), len(tbl.Columns))
	}

	_, err = Load(f, Options{SheetSelector: SelectSheet("Missing")})
	if !errors.Is(err, ErrSheetNotFound) || !errors.Is(err, ErrParse) {
		t.Fatalf("want ErrSheetNotFound, got %v", err)
	}
}

func TestXLSXSheetNames(t *testing.T) {
	f := workbook(t, []string{"A", "B", "C"}, nil)
	names, err := SheetNames(f, 0)
	if err != nil {
		t.Fatalf("sheet names: %v", err)
	}
	if len(names) != 3 || names[0] != "A" || names[2] != "C" {
		t.Fatalf("names = %v", names)
	}
	if names, err := SheetNames(csvFile("a\n1\n"), 0); err != nil || names != nil {
		t.Fatalf("csv sheet names = %v, %v", names, err)
	}
}

func TestXLSXCorrupt(t *testing.T) {
	f := UploadedFile{Name: "bad.xlsx", Kind: KindXLSX, Content: []byte("not a zip")}
	if _, err := Load(f, Options{}); !errors.Is(err, ErrParse) {
		t.Fatalf("want ErrParse, got %v", err)
	}
}
