package analysis

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// LoadOptions controls how uploaded bytes are turned into a Table.
type LoadOptions struct {
	// Delimiter for CSV. If 0, ',' (or '\t' for .tsv).
	Delimiter rune
	// Numeric parsing locale. Zero values mean '.' decimals and no thousands separator.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Sheet selects a worksheet by name (case-insensitive); SheetIndex is 1-based.
	Sheet      string
	SheetIndex int
	// MaxRows rejects files with more data rows; 0 means unlimited.
	MaxRows int
}

func (o LoadOptions) localized() bool {
	return (o.DecimalSeparator != 0 && o.DecimalSeparator != '.') || o.ThousandsSeparator != 0
}

// LoadErrorCode classifies load failures.
type LoadErrorCode string

const (
	UnsupportedFormat LoadErrorCode = "unsupported_format"
	EmptyFile         LoadErrorCode = "empty_file"
	ParseError        LoadErrorCode = "parse_error"
)

// LoadError is returned by Load for every failure.
type LoadError struct {
	Code     LoadErrorCode
	Filename string
	Msg      string
	Err      error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	switch e.Code {
	case UnsupportedFormat:
		b.WriteString("unsupported file format")
	case EmptyFile:
		b.WriteString("file has no data rows")
	default:
		b.WriteString("could not parse file")
	}
	if e.Filename != "" {
		fmt.Fprintf(&b, " %q", e.Filename)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Reader turns raw bytes of one file format into header-first records.
type Reader interface {
	CanRead(filename string) bool
	Read(data []byte, filename string, opt LoadOptions) ([][]string, error)
}

var readers []Reader

// RegisterReader adds a format reader. Earlier registrations win.
func RegisterReader(r Reader) {
	readers = append(readers, r)
}

func init() {
	RegisterReader(csvReader{})
	RegisterReader(xlsxReader{})
	RegisterReader(xlsReader{})
}

// Load parses an uploaded file into a Table. It dispatches on the file
// extension and never touches the filesystem.
func Load(data []byte, filename string, opt LoadOptions) (*Table, error) {
	name := filepath.Base(filename)
	var rd Reader
	for _, r := range readers {
		if r.CanRead(name) {
			rd = r
			break
		}
	}
	if rd == nil {
		ext := filepath.Ext(name)
		if ext == "" {
			ext = "(none)"
		}
		return nil, &LoadError{Code: UnsupportedFormat, Filename: name, Msg: "extension " + ext + " (accepted: .csv, .tsv, .xlsx, .xls)"}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &LoadError{Code: EmptyFile, Filename: name}
	}
	records, err := rd.Read(data, name, opt)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Filename = name
			return nil, le
		}
		return nil, &LoadError{Code: ParseError, Filename: name, Err: err}
	}
	records = dropBlankRows(records)
	if len(records) < 2 {
		return nil, &LoadError{Code: EmptyFile, Filename: name}
	}
	header, err := normalizeHeader(records[0])
	if err != nil {
		return nil, &LoadError{Code: ParseError, Filename: name, Err: err}
	}
	rows := records[1:]
	if opt.MaxRows > 0 && len(rows) > opt.MaxRows {
		return nil, &LoadError{Code: ParseError, Filename: name, Msg: fmt.Sprintf("file exceeds %d rows", opt.MaxRows)}
	}
	for i, rec := range rows {
		if len(rec) > len(header) && !blankTail(rec[len(header):]) {
			return nil, &LoadError{Code: ParseError, Filename: name, Msg: fmt.Sprintf("row %d has %d fields, header has %d", i+1, len(rec), len(header))}
		}
	}
	t, err := Infer(name, header, rows, opt)
	if err != nil {
		return nil, &LoadError{Code: ParseError, Filename: name, Err: err}
	}
	return t, nil
}

func normalizeHeader(raw []string) ([]string, error) {
	out := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if seen[h] {
			return nil, fmt.Errorf("duplicate column name %q", h)
		}
		seen[h] = true
		out[i] = h
	}
	return out, nil
}

func dropBlankRows(records [][]string) [][]string {
	out := records[:0:0]
	for _, rec := range records {
		if !blankTail(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func blankTail(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
