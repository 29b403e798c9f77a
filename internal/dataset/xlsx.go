package dataset

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxParser struct{}

func openWorkbook(content []byte) (*excelize.File, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return wb, nil
}

func (xlsxParser) parse(content []byte, opt Options) (*Table, error) {
	wb, err := openWorkbook(content)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	names := wb.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := names[0]
	if len(names) > 1 {
		sel := opt.SheetSelector
		if sel == nil {
			sel = FirstSheet
		}
		if sheet, err = sel(names); err != nil {
			return nil, err
		}
		if !contains(names, sheet) {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrSheetNotFound, sheet, names)
		}
	}

	// Raw values keep numeric cells unformatted; dates surface as serial numbers.
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &Table{Sheet: sheet}, nil
	}

	header := rows[0]
	width := len(header)
	for _, r := range rows[1:] {
		if len(r) > width {
			width = len(r)
		}
	}
	if width > len(header) {
		header = append(append([]string(nil), header...), make([]string, width-len(header))...)
	}

	records := make([][]Value, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if blankRow(r) {
			continue
		}
		rec := make([]Value, width)
		for j, cell := range r {
			rec[j] = textValue(strings.TrimSpace(cell))
		}
		records = append(records, rec)
	}
	t := newTable(header, records)
	t.Sheet = sheet
	return t, nil
}

// SheetNames lists the sheets of an XLSX upload in workbook order. Other kinds have none.
// maxBytes applies the same guard as Load; 0 means DefaultMaxBytes.
func SheetNames(f UploadedFile, maxBytes int64) ([]string, error) {
	if err := CheckSize(f, maxBytes); err != nil {
		return nil, err
	}
	if f.Kind != KindXLSX {
		return nil, nil
	}
	wb, err := openWorkbook(f.Content)
	if err != nil {
		return nil, parseErr(f.Kind, err)
	}
	defer wb.Close()
	return wb.GetSheetList(), nil
}

// blankRow reports a row without any non-space cell; those are skipped like blank CSV lines.
func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
