package dataset

import (
	"fmt"
)

// DefaultMaxBytes is the upload size guard (200 MiB).
const DefaultMaxBytes int64 = 200 << 20

// UploadedFile is one transient upload.
type UploadedFile struct {
	Name    string
	Kind    Kind
	Content []byte
	// Size is the declared byte length; the content length is used when it is larger.
	Size int64
}

func (f UploadedFile) size() int64 {
	if n := int64(len(f.Content)); n > f.Size {
		return n
	}
	return f.Size
}

// SheetSelector picks one name from a workbook's sheets. It is only consulted when the
// workbook holds more than one sheet.
type SheetSelector func(names []string) (string, error)

// Options controls loading.
type Options struct {
	// SheetSelector chooses the sheet of a multi-sheet workbook; nil picks the first.
	SheetSelector SheetSelector
	// ColumnTypes forces the type of the named columns instead of inferring it.
	ColumnTypes map[string]ColumnType
	// MaxBytes is the size guard; 0 means DefaultMaxBytes.
	MaxBytes int64
}

// FirstSheet is the default selector.
func FirstSheet(names []string) (string, error) {
	if len(names) == 0 {
		return "", ErrSheetNotFound
	}
	return names[0], nil
}

// SelectSheet returns a selector for an explicit sheet name; empty means the first sheet.
func SelectSheet(name string) SheetSelector {
	if name == "" {
		return FirstSheet
	}
	return func(names []string) (string, error) {
		for _, n := range names {
			if n == name {
				return n, nil
			}
		}
		return "", fmt.Errorf("%w: %q (available: %v)", ErrSheetNotFound, name, names)
	}
}

// parser reads one kind of content into an untyped table.
type parser interface {
	parse(content []byte, opt Options) (*Table, error)
}

var registry = map[Kind]parser{}

func register(k Kind, p parser) { registry[k] = p }

func init() {
	register(KindCSV, csvParser{})
	register(KindJSON, jsonParser{})
	register(KindXLSX, xlsxParser{})
}

// CheckSize applies the size guard without parsing.
func CheckSize(f UploadedFile, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if f.size() > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds the %d MiB limit", ErrFileTooLarge, f.size(), maxBytes>>20)
	}
	return nil
}

// Load parses an upload into a typed Table.
func Load(f UploadedFile, opt Options) (*Table, error) {
	if err := CheckSize(f, opt.MaxBytes); err != nil {
		return nil, err
	}
	p, ok := registry[f.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f.Kind)
	}
	t, err := p.parse(f.Content, opt)
	if err != nil {
		return nil, parseErr(f.Kind, err)
	}
	if err := t.validate(); err != nil {
		return nil, parseErr(f.Kind, err)
	}
	if err := applyTypes(t, opt.ColumnTypes); err != nil {
		return nil, parseErr(f.Kind, err)
	}
	if t.Name == "" {
		t.Name = f.Name
	}
	return t, nil
}
