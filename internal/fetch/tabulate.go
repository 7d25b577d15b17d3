package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/KaramelBytes/dataloom/internal/analysis"
)

// Tabulate converts a JSON array of objects into a Table. Nested objects are
// flattened into dotted column names; arrays are kept as JSON text. Every
// object must carry the same flattened key set. Columns follow the key order
// of the first object, and kinds are inferred as for uploaded files.
func Tabulate(payload []byte, name string) (*analysis.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, errors.New("payload is not a JSON array")
	}
	var header []string
	var keySet map[string]int
	var records [][]string
	for i := 0; dec.More(); i++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read element %d: %w", i, err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, fmt.Errorf("element %d is not an object", i)
		}
		var obj flatObject
		if err := obj.decode(dec, ""); err != nil {
			return nil, fmt.Errorf("read element %d: %w", i, err)
		}
		if k, dup := obj.duplicate(); dup {
			return nil, fmt.Errorf("element %d repeats key %q", i, k)
		}
		if i == 0 {
			header = obj.keys
			keySet = make(map[string]int, len(header))
			for j, k := range header {
				keySet[k] = j
			}
			if len(header) == 0 {
				return nil, errors.New("objects have no fields")
			}
		} else if !sameKeys(keySet, obj.keys) {
			return nil, fmt.Errorf("element %d has keys [%s], want [%s]", i, strings.Join(sortedCopy(obj.keys), ", "), strings.Join(sortedCopy(header), ", "))
		}
		row := make([]string, len(header))
		for j, k := range obj.keys {
			row[keySet[k]] = obj.vals[j]
		}
		records = append(records, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("array is empty")
	}
	return analysis.Infer(name, header, records, analysis.LoadOptions{})
}

// flatObject holds the scalar leaves of one object in document order.
type flatObject struct {
	keys []string
	vals []string
}

// decode consumes object members up to and including the closing brace.
func (o *flatObject) decode(dec *json.Decoder, prefix string) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				if err := o.decode(dec, key); err != nil {
					return err
				}
				continue
			case '[':
				raw, err := rawArray(dec)
				if err != nil {
					return err
				}
				o.add(key, raw)
				continue
			}
			return fmt.Errorf("unexpected delimiter %v", v)
		case nil:
			o.add(key, "")
		case bool:
			if v {
				o.add(key, "true")
			} else {
				o.add(key, "false")
			}
		case json.Number:
			o.add(key, v.String())
		case string:
			o.add(key, v)
		}
	}
	_, err := dec.Token()
	return err
}

func (o *flatObject) add(k, v string) {
	o.keys = append(o.keys, k)
	o.vals = append(o.vals, v)
}

// duplicate returns the first key that occurs twice, counting flattened
// paths, so {"a.b":1,"a":{"b":2}} repeats "a.b".
func (o *flatObject) duplicate() (string, bool) {
	seen := make(map[string]bool, len(o.keys))
	for _, k := range o.keys {
		if seen[k] {
			return k, true
		}
		seen[k] = true
	}
	return "", false
}

// rawArray re-encodes the remainder of an array whose '[' was consumed.
func rawArray(dec *json.Decoder) (string, error) {
	var items []json.RawMessage
	for dec.More() {
		var item json.RawMessage
		if err := dec.Decode(&item); err != nil {
			return "", err
		}
		items = append(items, item)
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func sameKeys(want map[string]int, keys []string) bool {
	if len(keys) != len(want) {
		return false
	}
	for _, k := range keys {
		if _, ok := want[k]; !ok {
			return false
		}
	}
	return true
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
