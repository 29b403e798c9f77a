package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrFileTooLarge is returned before parsing when an upload exceeds the size guard.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedFormat indicates a kind other than csv, json or xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrParse matches every *ParseError via errors.Is.
	ErrParse = errors.New("parse error")
	// ErrSheetNotFound indicates the sheet selector chose a name the workbook lacks.
	ErrSheetNotFound = errors.New("sheet not found")
)

// ParseError reports content that cannot be read as its declared kind.
type ParseError struct {
	Kind Kind
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func parseErr(k Kind, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{Kind: k, Err: err}
}
