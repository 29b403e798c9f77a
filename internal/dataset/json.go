package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

type jsonParser struct{}

// object keeps JSON object keys in document order.
type object struct {
	keys []string
	vals map[string]any
}

func (o *object) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(o.vals[k])
		if err != nil {
			return nil, err
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (jsonParser) parse(content []byte, _ Options) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	root, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after top-level value")
	}
	switch v := root.(type) {
	case []any:
		return tableFromArray(v)
	case *object:
		return tableFromObject(v)
	}
	return nil, errors.New("top-level value must be an array or an object")
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	case '{':
		obj := &object{vals: map[string]any{}}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := kt.(string)
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			if _, dup := obj.vals[key]; !dup {
				obj.keys = append(obj.keys, key)
			}
			obj.vals[key] = v
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %v", d)
}

// jsonCell converts a decoded JSON value into a cell.
func jsonCell(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case string:
		return Value{Raw: x, Valid: true}
	case json.Number:
		return Value{Raw: x.String(), Valid: true}
	case bool:
		return Value{Raw: strconv.FormatBool(x), Valid: true}
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return Value{}
		}
		return Value{Raw: string(b), Valid: true}
	}
}

// keyOrder accumulates keys in order of first appearance.
type keyOrder struct {
	keys []string
	seen map[string]struct{}
}

func (k *keyOrder) add(keys ...string) {
	if k.seen == nil {
		k.seen = map[string]struct{}{}
	}
	for _, key := range keys {
		if _, ok := k.seen[key]; ok {
			continue
		}
		k.seen[key] = struct{}{}
		k.keys = append(k.keys, key)
	}
}

func tableFromArray(arr []any) (*Table, error) {
	if len(arr) == 0 {
		return &Table{}, nil
	}
	var objects, arrays, scalars int
	for _, el := range arr {
		switch el.(type) {
		case *object:
			objects++
		case []any:
			arrays++
		default:
			scalars++
		}
	}
	switch {
	case objects == len(arr):
		var cols keyOrder
		for _, el := range arr {
			cols.add(el.(*object).keys...)
		}
		records := make([][]Value, len(arr))
		for i, el := range arr {
			o := el.(*object)
			row := make([]Value, len(cols.keys))
			for j, key := range cols.keys {
				row[j] = jsonCell(o.vals[key])
			}
			records[i] = row
		}
		return newTable(cols.keys, records), nil
	case arrays == len(arr):
		width := 0
		for _, el := range arr {
			if n := len(el.([]any)); n > width {
				width = n
			}
		}
		records := make([][]Value, len(arr))
		for i, el := range arr {
			cells := el.([]any)
			row := make([]Value, width)
			for j, c := range cells {
				row[j] = jsonCell(c)
			}
			records[i] = row
		}
		return newTable(indexHeader(width), records), nil
	case scalars == len(arr):
		records := make([][]Value, len(arr))
		for i, el := range arr {
			records[i] = []Value{jsonCell(el)}
		}
		return newTable(indexHeader(1), records), nil
	}
	return nil, errors.New("array elements mix objects, arrays and scalars")
}

func tableFromObject(obj *object) (*Table, error) {
	if len(obj.keys) == 0 {
		return &Table{}, nil
	}
	var objects, arrays int
	for _, k := range obj.keys {
		switch obj.vals[k].(type) {
		case *object:
			objects++
		case []any:
			arrays++
		}
	}
	switch {
	case objects == len(obj.keys):
		// {column: {index: value}}
		var index keyOrder
		for _, k := range obj.keys {
			index.add(obj.vals[k].(*object).keys...)
		}
		records := make([][]Value, len(index.keys))
		for i, idx := range index.keys {
			row := make([]Value, len(obj.keys))
			for j, k := range obj.keys {
				row[j] = jsonCell(obj.vals[k].(*object).vals[idx])
			}
			records[i] = row
		}
		return newTable(obj.keys, records), nil
	case arrays == len(obj.keys):
		n := len(obj.vals[obj.keys[0]].([]any))
		for _, k := range obj.keys {
			if m := len(obj.vals[k].([]any)); m != n {
				return nil, fmt.Errorf("column %q has %d values, want %d: arrays must all be the same length", k, m, n)
			}
		}
		records := make([][]Value, n)
		for i := range records {
			row := make([]Value, len(obj.keys))
			for j, k := range obj.keys {
				row[j] = jsonCell(obj.vals[k].([]any)[i])
			}
			records[i] = row
		}
		return newTable(obj.keys, records), nil
	case objects == 0 && arrays == 0:
		row := make([]Value, len(obj.keys))
		for j, k := range obj.keys {
			row[j] = jsonCell(obj.vals[k])
		}
		return newTable(obj.keys, [][]Value{row}), nil
	}
	return nil, errors.New("object values mix nested objects, arrays and scalars")
}

func indexHeader(n int) []string {
	h := make([]string, n)
	for i := range h {
		h[i] = strconv.Itoa(i)
	}
	return h
}
