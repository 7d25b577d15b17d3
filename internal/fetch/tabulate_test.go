package fetch

import (
	"strings"
	"testing"
)

func TestTabulate(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		cols    string
		wantErr string
	}{
		{"flat", `[{"a":1,"b":"x"},{"b":"y","a":2}]`, "a,b", ""},
		{"nested", `[{"a":{"b":{"c":1}},"d":[1,2]}]`, "a.b.c,d", ""},
		{"object root", `{"a":1}`, "", "not a JSON array"},
		{"scalar elements", `[1,2]`, "", "element 0 is not an object"},
		{"empty", `[]`, "", "array is empty"},
		{"differing keys", `[{"a":1},{"a":1,"b":2}]`, "", "element 1 has keys [a, b], want [a]"},
		{"repeated key", `[{"a":1,"b":2},{"a":3,"a":4}]`, "", `element 1 repeats key "a"`},
		{"repeated key in first element", `[{"a":1,"a":2}]`, "", `element 0 repeats key "a"`},
		{"flattened collision", `[{"a.b":1,"a":{"b":2}}]`, "", `element 0 repeats key "a.b"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Tabulate([]byte(tt.payload), "api")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Tabulate: %v", err)
			}
			if got := strings.Join(tbl.ColumnNames(), ","); got != tt.cols {
				t.Fatalf("columns = %s, want %s", got, tt.cols)
			}
		})
	}
}

func TestTabulateKeepsArraysAsJSON(t *testing.T) {
	tbl, err := Tabulate([]byte(`[{"tags":["x", "y"],"n":null}]`), "api")
	if err != nil {
		t.Fatalf("Tabulate: %v", err)
	}
	if got := tbl.Cell("tags", 0); got != `["x","y"]` {
		t.Fatalf("tags = %q", got)
	}
	if got := tbl.Cell("n", 0); got != "" {
		t.Fatalf("null cell = %q", got)
	}
}
