package dataset

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the declared format of an upload.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindJSON Kind = "json"
	KindXLSX Kind = "xlsx"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (k Kind) String() string { return string(k) }

// ParseKind accepts a bare kind, a file extension or a MIME type.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.Index(s, ";"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	switch strings.TrimPrefix(s, ".") {
	case "csv", "text/csv", "application/csv":
		return KindCSV, nil
	case "json", "application/json", "text/json":
		return KindJSON, nil
	case "xlsx", xlsxMIME:
		return KindXLSX, nil
	}
	return "", ErrUnsupportedFormat
}

// KindFromName resolves the kind from a file name extension.
func KindFromName(name string) (Kind, error) {
	return ParseKind(filepath.Ext(name))
}

// DetectKind sniffs the content. Plain text that is not JSON is treated as CSV.
func DetectKind(content []byte) (Kind, error) {
	m := mimetype.Detect(content)
	for ; m != nil; m = m.Parent() {
		switch {
		case m.Is(xlsxMIME):
			return KindXLSX, nil
		case m.Is("application/json"):
			return KindJSON, nil
		case m.Is("text/csv"):
			return KindCSV, nil
		case m.Is("text/plain"):
			return KindCSV, nil
		}
	}
	return "", ErrUnsupportedFormat
}

// KindFromContentType maps a transport Content-Type header to a kind. Browsers send
// generic or misleading types, so an unknown value is not an error.
func KindFromContentType(ct string) (Kind, bool) {
	k, err := ParseKind(ct)
	return k, err == nil
}

// ResolveKind picks a kind from the declared value, then the name, then the content.
// A declared kind that is not recognized is ErrUnsupportedFormat.
func ResolveKind(declared, name string, content []byte) (Kind, error) {
	if strings.TrimSpace(declared) != "" {
		return ParseKind(declared)
	}
	if filepath.Ext(name) != "" {
		return KindFromName(name)
	}
	return DetectKind(content)
}
