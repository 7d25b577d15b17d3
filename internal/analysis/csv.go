package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

type csvReader struct{}

func (csvReader) CanRead(filename string) bool { return hasExt(filename, ".csv", ".tsv") }

func (csvReader) Read(data []byte, filename string, opt LoadOptions) ([][]string, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(filename)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim

	var out [][]string
	kept := 0 // non-blank records, header included
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
		if !blankTail(rec) {
			kept++
		}
		if opt.MaxRows > 0 && kept > opt.MaxRows+1 {
			// one data row past the limit lets Load report it without buffering the rest
			break
		}
	}
	return out, nil
}

func sniffDelimiter(filename string) rune {
	if hasExt(filename, ".tsv") {
		return '\t'
	}
	return ','
}
