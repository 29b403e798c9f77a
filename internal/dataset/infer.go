package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
	"<NA>": {},
}

func isMissing(s string) bool {
	_, ok := missingTokens[strings.TrimSpace(s)]
	return ok
}

var timeLayouts = []string{
	time.RFC3339Nano, time.RFC3339,
	"2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
	"1/2/2006 15:04", "1/2/2006 15:04:05", "1/2/2006",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// InferType decides a column type from its non-missing values:
// none -> Unknown; all true/false -> Boolean; all floats -> Numeric;
// all known date layouts -> DateTime; anything else -> Text.
func InferType(values []Value) ColumnType {
	var n, bools, nums, times int
	for _, v := range values {
		if !v.Valid {
			continue
		}
		n++
		if _, ok := parseBool(v.Raw); ok {
			bools++
			continue
		}
		if _, ok := parseFloat(v.Raw); ok {
			nums++
			continue
		}
		if _, ok := parseTime(v.Raw); ok {
			times++
		}
	}
	switch {
	case n == 0:
		return Unknown
	case bools == n:
		return Boolean
	case nums == n:
		return Numeric
	case times == n:
		return DateTime
	}
	return Text
}

// applyTypes infers every column type, honoring the override map. Override names
// match exactly first, then case-insensitively (config files lowercase map keys).
func applyTypes(t *Table, overrides map[string]ColumnType) error {
	folded := make(map[string]ColumnType, len(overrides))
	for name, typ := range overrides {
		folded[strings.ToLower(name)] = typ
	}
	for _, c := range t.Columns {
		forced, ok := overrides[c.Name]
		if !ok {
			forced, ok = folded[strings.ToLower(c.Name)]
		}
		if !ok {
			c.Type = InferType(c.Values)
			continue
		}
		if err := checkForced(c, forced); err != nil {
			return err
		}
		c.Type = forced
	}
	return nil
}

func checkForced(c *Column, typ ColumnType) error {
	for i, v := range c.Values {
		if !v.Valid {
			continue
		}
		var ok bool
		switch typ {
		case Numeric:
			_, ok = v.Float()
		case Boolean:
			_, ok = v.Bool()
		case DateTime:
			_, ok = v.Time()
		default:
			ok = true
		}
		if !ok {
			return fmt.Errorf("column %q row %d: cannot convert %q to %s", c.Name, i+1, v.Raw, typ)
		}
	}
	return nil
}
