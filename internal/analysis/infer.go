package analysis

import (
	"strconv"
	"strings"
	"time"
)

// cellParser recognizes one kind of value. Parsers are tried in the order of
// kindParsers; the first one that accepts every non-missing cell of a column
// decides the column kind. Categorical accepts anything and always comes last.
type cellParser struct {
	kind  Kind
	match func(v string, opt LoadOptions) bool
}

var kindParsers = []cellParser{
	{KindNumeric, func(v string, opt LoadOptions) bool { _, ok := parseNumeric(v, opt); return ok }},
	{KindDatetime, func(v string, _ LoadOptions) bool { _, ok := parseTimeMaybe(v); return ok }},
	{KindBoolean, func(v string, _ LoadOptions) bool { _, ok := parseBool(v); return ok }},
	{KindCategorical, func(string, LoadOptions) bool { return true }},
}

// missingTokens are cell spellings treated as absent values.
var missingTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "NaN": {}, "nan": {}, "null": {}, "NULL": {}, "None": {},
}

func normalizeCell(v string) string {
	v = strings.TrimSpace(v)
	if _, ok := missingTokens[v]; ok {
		return ""
	}
	return v
}

// InferKind returns the first kind whose parser accepts all non-missing values.
// A column with no values at all is numeric.
func InferKind(vals []string, opt LoadOptions) Kind {
	for _, p := range kindParsers {
		ok := true
		for _, v := range vals {
			if v == "" {
				continue
			}
			if !p.match(v, opt) {
				ok = false
				break
			}
		}
		if ok {
			return p.kind
		}
	}
	return KindCategorical
}

// ParseFloat parses a cell of a numeric column using the default locale.
func ParseFloat(v string) (float64, bool) {
	return parseNumeric(v, LoadOptions{})
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTime parses a cell of a datetime column.
func ParseTime(v string) (time.Time, bool) { return parseTimeMaybe(v) }

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}
	return false, false
}

func parseNumeric(s string, opt LoadOptions) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", ""))
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	if thou := opt.ThousandsSeparator; thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	// ParseFloat accepts "Inf" and "NaN" spellings; those stay text.
	if strings.ContainsAny(raw, "iInN") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
