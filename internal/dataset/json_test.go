package dataset

import (
	"errors"
	"testing"
)

func jsonFile(body string) UploadedFile {
	return UploadedFile{Name: "data.json", Kind: KindJSON, Content: []byte(body)}
}

func TestJSONOrients(t *testing.T) {
	cases := []struct {
		name string
		body string
		cols []string
		rows int
	}{
		{"records", `[{"b":1,"a":"x"},{"a":"y","c":true}]`, []string{"b", "a", "c"}, 2},
		{"values", `[[1,2],[3,4,5]]`, []string{"0", "1", "2"}, 2},
		{"scalars", `[1,2,3]`, []string{"0"}, 3},
		{"columns", `{"a":[1,2,3],"b":["x","y","z"]}`, []string{"a", "b"}, 3},
		{"index", `{"a":{"0":1,"1":2},"b":{"0":"x","2":"z"}}`, []string{"a", "b"}, 3},
		{"flat", `{"a":1,"b":"x"}`, []string{"a", "b"}, 1},
		{"empty", `[]`, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := Load(jsonFile(tc.body), Options{})
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if tbl.Rows() != tc.rows {
				t.Fatalf("rows = %d, want %d", tbl.Rows(), tc.rows)
			}
			got := tbl.ColumnNames()
			if len(got) != len(tc.cols) {
				t.Fatalf("columns = %v, want %v", got, tc.cols)
			}
			for i := range got {
				if got[i] != tc.cols[i] {
					t.Fatalf("columns = %v, want %v", got, tc.cols)
				}
			}
		})
	}
}

func TestJSONNullsAndNested(t *testing.T) {
	tbl, err := Load(jsonFile(`[{"a":null,"n":{"z":1,"y":[1,2]}},{"a":2.5,"n":null}]`), Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	a := tbl.Columns[0]
	if a.Missing() != 1 || a.Type != Numeric {
		t.Fatalf("a missing=%d type=%s", a.Missing(), a.Type)
	}
	if got := tbl.Columns[1].Values[0].Raw; got != `{"z":1,"y":[1,2]}` {
		t.Fatalf("nested = %s", got)
	}
	if tbl.Columns[1].Type != Text {
		t.Fatalf("nested type = %s", tbl.Columns[1].Type)
	}
}

func TestJSONMalformed(t *testing.T) {
	for _, body := range []string{`[{"a":1}`, `42`, `{"a":[1],"b":[1,2]}`, `[1,{"a":1}]`, ``, `[] []`} {
		if _, err := Load(jsonFile(body), Options{}); !errors.Is(err, ErrParse) {
			t.Errorf("%q: want ErrParse, got %v", body, err)
		}
	}
}
