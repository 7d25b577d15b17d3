package analysis

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

const xlsxFixtureBase64 = `
UEsDBBQAAAAIAMEwN1vYAxPv/wAAALYCAAATABwAW0NvbnRlbnRfVHlwZXNdLnhtbFVUCQADyjjSaMo40mh1eAsAAQQAAAAABAAAAAC1ks1OwzAQhO95CsvX
Kt60B4RQkh74OQKH8gDG3iRW/CfbLeHtcVIEEqIIpHJaWTOz32jlejsZTQ4YonK2oWtWUYJWOKls39Cn3V15SbdtUe9ePUaSvTY2dEjJXwFEMaDhkTmPNiud
C4an/Aw9eC5G3iNsquoChLMJbSrTvIO2BSH1DXZ8rxO5nbJyRAfUkZLro3fGNZR7r5XgKetwsPILqHyHsJxcPHFQPq6ygcIpyCyeZnxGH/JFgpJIHnlI99xk
I0waXlwYn50b2c97vunquk4JlE7sTY6w6ANyGQfEZDRbJjNc2dWvKiz+CMtYn7nLx/6/V9n8d5Ualm/YFm9QSwMECgAAAAAAxDA3WwAAAAAAAAAAAAAAAAMA
HAB4bC9VVAkAA9A40mjyONJodXgLAAEEAAAAAAQAAAAAUEsDBBQAAAAIAMQwN1tM2kS6xQAAAEkBAAAPABwAeGwvd29ya2Jvb2sueG1sVVQJAAPQONJo0DjS
aHV4CwABBAAAAAAEAAAAAI1Qu27DMAzc/RUC90aOhyIwZGcJAnhvP0CxaVuIRRqk+vj8qjEMZOjQ7Y7k3ZF05++4mE8UDUwNHA8lGKSeh0BTA+9v15cTnNvC
fbHcb8x3k8dJG5hTWmtrtZ8xej3wipQ7I0v0KVOZrK6CftAZMcXFVmX5aqMPBJtDLf/x4HEMPV64/4hIaTMRXHzKy+ocVoW2MMY9QvQX7sSQj9hANxELgnnU
uiHfB0bqkIF0wxHsH5KLT/5JUD0Jqk3g7J7n7P6WtvgBUEsDBAoAAAAAANIwN1sAAAAAAAAAAAAAAAAOABwAeGwvd29ya3NoZWV0cy9VVAkAA+s40mjyONJo
dXgLAAEEAAAAAAQAAAAAUEsDBBQAAAAIANIwN1u3fFZsqwIAAIASAAAYABwAeGwvd29ya3NoZWV0cy9zaGVldDIueG1sVVQJAAPrONJo6zjSaHV4CwABBAAA
AAAEAAAAAJ3YT26bQBiH4X1OgVilkguD/wEVJkoMzibKJukBJngMqGYGDeMkvVXP0JN1nEhVQ/r7QCxx/BDsV9/gIbl6bY7Os9BdreTGDTzmOkIWal/LcuN+
f9x9jdyr9CJ5UfpHVwlhHPt+2W3cypj2m+93RSUa3nmqFdL+5aB0w4091KXftVrw/Rtqjv6csbXf8Fq66YXjJG8vZ9zw85E91urF0fb/u+/H9pXifHwduI7Z
uLU81lI8GO2mSd2liUlvtTq1iW/SxD+/4Bcf3Q1yWyULIY3mxn5e57L0777gs2zRWR5F0zqXv3/tCJwh/FAoLbDLkbtTBT+K+1PzJDTmO/jJuRGl0j8xvUX0
Xpn/XHDi22gf8837+ebgjNdEOmTYbEWkQipkRCKEAjYjWA6Zxxgpd0jyY1txogxyh1p3ZlSaRT/NYkIaZNhsTaRBKgyINAgFAZkGMi8YSIPkUBrkOlEouR/V
Ztlvs5zQBhk7NtTcILaOiTgIxdSI5vAKvXigDZJPwlBpEDNVrceVWfXLrMApb4gyyLBZSIRBKiS+4gyhgFw8c8g8tqLLIDk0Ncgd1EmbalSbdb/NekIbZOyK
Rk0NYuGSiINQPIuINvAKvTii2yA5MDWIHerDyDJhv0w4oQwytgzxdW0RCxdEGYTs2MyJNJB5bE6nQXJobJDr6teRbaJ+m2jCvQYZu8oQ39cWMSpohlBETg28
Qi8amBokS940VBrkOvFsNxzj4sT9OPGEwUHG3m6oJQ2xkPhplyEUU7e2HF6hF4d0HCQHljTERF1WI9ME7NPWlE2YHIgW1OfeQhZTvwagom/qOXaDGxxIh1Y2
CGU9dnqCz08P0I6Wmh+I7J2H2uZAFxJrYgaVvfcQ+6McO4/R29cdpENLHIRmYIVL/H+e9yT+34dJ6cUfUEsDBBQAAAAIAMcwN1sqMey0swAAAPgAAAAYABwA
eGwvd29ya3NoZWV0cy9zaGVldDEueG1sVVQJAAPWONJo1jjSaHV4CwABBAAAAAAEAAAAAE2P3WrDMAxG7/MURverkl6MUhyXwegLrHsA46iNqf+QxbLHr5OO
0cvzSfoO0qffGNQPcfU5jTDselCUXJ58uo3wfTm/HeBkOr1kvteZSFTbT3WEWaQcEaubKdq6y4VSm1wzRysN+Ya1MNlpO4oB933/jtH6BKZTSm/xpxW7UmPO
i+Lmhye3xK38MYCSEXwKPtGXMBjtq9FiSrCO5hwmYo1iNK4xur82bHWbBl88Gv+fMN0DUEsDBAoAAAAAAMYwN1sAAAAAAAAAAAAAAAAJABwAeGwvX3JlbHMv
VVQJAAPTONJo8jjSaHV4CwABBAAAAAAEAAAAAFBLAwQUAAAACADGMDdbCmPblLYAAACtAQAAGgAcAHhsL19yZWxzL3dvcmtib29rLnhtbC5yZWxzVVQJAAPT
ONJo0zjSaHV4CwABBAAAAAAEAAAAAL2QSwrCMBBA9z1FmL2dtgsRadqNCN1KPUBIpx/aJiGJv9sbBMWCgitXw/zePCYvr/PEzmTdoBWHNE6AkZK6GVTH4Vjv
Vxsoiyg/0CR8GHH9YBwLO8px6L03W0Qne5qFi7UhFTqttrPwIbUdGiFH0RFmSbJG+86AImJsgWVVw8FWTQqsvhn6Ba/bdpC00/I0k/IfruBF29H1RD5Ahe3I
c3iVHD5CGgcq4Fef7M8+2dMnx8XXi+gOUEsDBAoAAAAAAMMwN1sAAAAAAAAAAAAAAAAGABwAX3JlbHMvVVQJAAPNONJo8jjSaHV4CwABBAAAAAAEAAAAAFBL
AwQUAAAACADDMDdbDxvLDKoAAAAcAQAACwAcAF9yZWxzLy5yZWxzVVQJAAPNONJozTjSaHV4CwABBAAAAAAEAAAAAI3PsQ6CMBAG4J2naG6XgoMxxsJiTFgN
PkAtRyHQXtNWxbe3oxgHx8v9913+Y72YmT3Qh5GsgDIvgKFV1I1WC7i2580e6io7XnCWMUXCMLrA0o0NAoYY3YHzoAY0MuTk0KZNT97ImEavuZNqkhr5tih2
3H8aUGWMrVjWdAJ805XA2pfDf3jq+1HhidTdoI0/vnwlkiy9xihgmfmT/HQjmvKEAk8d+apklb0BUEsBAh4DFAAAAAgAwTA3W9gDE+//AAAAtgIAABMAGAAA
AAAAAQAAAKSBAAAAAFtDb250ZW50X1R5cGVzXS54bWxVVAUAA8o40mh1eAsAAQQAAAAABAAAAABQSwECHgMKAAAAAADEMDdbAAAAAAAAAAAAAAAAAwAYAAAA
AAAAABAA7UFMAQAAeGwvVVQFAAPQONJodXgLAAEEAAAAAAQAAAAAUEsBAh4DFAAAAAgAxDA3W0zaRLrFAAAASQEAAA8AGAAAAAAAAQAAAKSBiQEAAHhsL3dv
cmtib29rLnhtbFVUBQAD0DjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAwoAAAAAANIwN1sAAAAAAAAAAAAAAAAOABgAAAAAAAAAEADtQZcCAAB4bC93b3Jrc2hl
ZXRzL1VUBQAD6zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAxQAAAAIANIwN1u3fFZsqwIAAIASAAAYABgAAAAAAAEAAACkgd8CAAB4bC93b3Jrc2hlZXRzL3No
ZWV0Mi54bWxVVAUAA+s40mh1eAsAAQQAAAAABAAAAABQSwECHgMUAAAACADHMDdbKjHstLMAAAD4AAAAGAAYAAAAAAABAAAApIHcBQAAeGwvd29ya3NoZWV0
cy9zaGVldDEueG1sVVQFAAPWONJodXgLAAEEAAAAAAQAAAAAUEsBAh4DCgAAAAAAxjA3WwAAAAAAAAAAAAAAAAkAGAAAAAAAAAAQAO1B4QYAAHhsL19yZWxz
L1VUBQAD0zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAxQAAAAIAMYwN1sKY9uUtgAAAK0BAAAaABgAAAAAAAEAAACkgSQHAAB4bC9fcmVscy93b3JrYm9vay54
bWwucmVsc1VUBQAD0zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAwoAAAAAAMMwN1sAAAAAAAAAAAAAAAAGABgAAAAAAAAAEADtQS4IAABfcmVscy9VVAUAA804
0mh1eAsAAQQAAAAABAAAAABQSwECHgMUAAAACADDMDdbDxvLDKoAAAAcAQAACwAYAAAAAAABAAAApIFuCAAAX3JlbHMvLnJlbHNVVAUAA8040mh1eAsAAQQA
AAAABAAAAABQSwUGAAAAAAoACgBTAwAAXQkAAAAA
`

func xlsxFixture(t *testing.T) []byte {
	t.Helper()
	raw := strings.ReplaceAll(strings.TrimSpace(xlsxFixtureBase64), "\n", "")
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("decode xlsx fixture: %v", err)
	}
	return data
}

func loadErrCode(t *testing.T, err error) LoadErrorCode {
	t.Helper()
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error %v (%T) is not a *LoadError", err, err)
	}
	return le.Code
}

func TestLoadCSVShapeAndKinds(t *testing.T) {
	data := []byte(strings.Join([]string{
		"id,price,when,active,city",
		"1,9.5,2024-01-02,true,Oslo",
		"2,,2024-01-03,false,Bergen",
		"3,12,2024-02-01,yes,Oslo",
		"4,NA,,no,",
	}, "\n"))
	tbl, err := Load(data, "sales.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.NumRows() != 4 || tbl.NumCols() != 5 {
		t.Fatalf("shape = %dx%d, want 4x5", tbl.NumRows(), tbl.NumCols())
	}
	want := map[string]Kind{
		"id":     KindNumeric,
		"price":  KindNumeric,
		"when":   KindDatetime,
		"active": KindBoolean,
		"city":   KindCategorical,
	}
	for name, k := range want {
		got, ok := tbl.KindOf(name)
		if !ok || got != k {
			t.Errorf("kind(%s) = %q, want %q", name, got, k)
		}
	}
	if v := tbl.Cell("price", 3); v != "" {
		t.Errorf("NA cell = %q, want missing", v)
	}
	if tbl.Name() != "sales.csv" {
		t.Errorf("name = %q", tbl.Name())
	}
}

func TestLoadIsDeterministic(t *testing.T) {
	data := []byte("a,b\n1,x\n2,y\n3,x\n")
	t1, err := Load(data, "d.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t2, err := Load(data, "d.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !t1.Equal(t2) || t1.Fingerprint() != t2.Fingerprint() {
		t.Fatalf("reloading the same bytes produced different tables")
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		data     string
		want     LoadErrorCode
	}{
		{"unsupported", "notes.txt", "a,b\n1,2\n", UnsupportedFormat},
		{"no extension", "data", "a,b\n1,2\n", UnsupportedFormat},
		{"empty bytes", "empty.csv", "", EmptyFile},
		{"header only", "header.csv", "a,b\n", EmptyFile},
		{"blank rows only", "blank.csv", "a,b\n,\n\n", EmptyFile},
		{"too many fields", "wide.csv", "a,b\n1,2,3\n", ParseError},
		{"duplicate names", "dup.csv", "a,a\n1,2\n", ParseError},
		{"bad xlsx", "broken.xlsx", "not a zip archive", ParseError},
		{"legacy xls", "old.xls", "\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1rest", UnsupportedFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.data), tc.filename, LoadOptions{})
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := loadErrCode(t, err); got != tc.want {
				t.Fatalf("code = %q, want %q (%v)", got, tc.want, err)
			}
		})
	}
}

func TestLoadParseErrorWrapsCause(t *testing.T) {
	_, err := Load([]byte("garbage"), "x.xlsx", LoadOptions{})
	var le *LoadError
	if !errors.As(err, &le) || le.Err == nil {
		t.Fatalf("want wrapped cause, got %#v", err)
	}
	if !strings.Contains(err.Error(), "open xlsx") {
		t.Fatalf("message lacks parser detail: %v", err)
	}
}

func TestLoadPadsShortRowsAndNamesBlankHeaders(t *testing.T) {
	tbl, err := Load([]byte("a,,c\n1,2\n4,5,6\n"), "short.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tbl.ColumnNames(); strings.Join(got, "|") != "a|column_2|c" {
		t.Fatalf("names = %v", got)
	}
	if tbl.Cell("c", 0) != "" || tbl.Cell("c", 1) != "6" {
		t.Fatalf("padding wrong: %q %q", tbl.Cell("c", 0), tbl.Cell("c", 1))
	}
}

func TestLoadMaxRows(t *testing.T) {
	_, err := Load([]byte("a\n1\n2\n3\n"), "m.csv", LoadOptions{MaxRows: 2})
	if got := loadErrCode(t, err); got != ParseError {
		t.Fatalf("code = %q", got)
	}
	if _, err := Load([]byte("a\n1\n2\n"), "m.csv", LoadOptions{MaxRows: 2}); err != nil {
		t.Fatalf("at the limit: %v", err)
	}
	// blank rows do not count toward the limit, and must not hide extra rows
	_, err = Load([]byte("a,b\n,\n1,x\n2,y\n3,z\n"), "m.csv", LoadOptions{MaxRows: 2})
	if got := loadErrCode(t, err); got != ParseError {
		t.Fatalf("blank row before the limit: code = %q", got)
	}
	tbl, err := Load([]byte("a,b\n1,x\n,\n\n2,y\n"), "m.csv", LoadOptions{MaxRows: 2})
	if err != nil {
		t.Fatalf("blank rows within the limit: %v", err)
	}
	if tbl.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.NumRows())
	}
}

func TestLoadTSVAndLocale(t *testing.T) {
	data := []byte("name\tamount\nx\t1.234,5\ny\t10,25\n")
	tbl, err := Load(data, "eu.tsv", LoadOptions{DecimalSeparator: ',', ThousandsSeparator: '.'})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k, _ := tbl.KindOf("amount"); k != KindNumeric {
		t.Fatalf("amount kind = %q", k)
	}
	if v := tbl.Cell("amount", 0); v != "1234.5" {
		t.Fatalf("canonical value = %q, want 1234.5", v)
	}
}

func TestLoadXLSXBySheetNameAndIndex(t *testing.T) {
	data := xlsxFixture(t)
	opt := LoadOptions{Sheet: "data", DecimalSeparator: ',', ThousandsSeparator: '.'}
	byName, err := Load(data, "analysis_dataset.xlsx", opt)
	if err != nil {
		t.Fatalf("Load by name: %v", err)
	}
	if byName.NumRows() != 10 || byName.NumCols() != 7 {
		t.Fatalf("shape = %dx%d, want 10x7", byName.NumRows(), byName.NumCols())
	}
	for _, name := range []string{"Concentration (g/L)", "Temp (°F)", "Score", "LocaleNumber"} {
		if k, _ := byName.KindOf(name); k != KindNumeric {
			t.Errorf("kind(%s) = %q, want numeric", name, k)
		}
	}
	for _, name := range []string{"Group", "Category", "Note"} {
		if k, _ := byName.KindOf(name); k != KindCategorical {
			t.Errorf("kind(%s) = %q, want categorical", name, k)
		}
	}
	if v := byName.Cell("LocaleNumber", 0); v != "1000" {
		t.Errorf("LocaleNumber[0] = %q", v)
	}

	opt.Sheet = ""
	opt.SheetIndex = 2
	byIndex, err := Load(data, "analysis_dataset.xlsx", opt)
	if err != nil {
		t.Fatalf("Load by index: %v", err)
	}
	if !byIndex.Equal(byName) {
		t.Fatalf("sheet index 2 differs from sheet \"Data\"")
	}
}

func TestLoadXLSXDefaultSheetAndUnknownSheet(t *testing.T) {
	data := xlsxFixture(t)
	// the first sheet only has a header cell
	_, err := Load(data, "analysis_dataset.xlsx", LoadOptions{})
	if got := loadErrCode(t, err); got != EmptyFile {
		t.Fatalf("first sheet code = %q", got)
	}
	_, err = Load(data, "analysis_dataset.xlsx", LoadOptions{Sheet: "Nope"})
	if got := loadErrCode(t, err); got != ParseError {
		t.Fatalf("unknown sheet code = %q", got)
	}
	if !strings.Contains(err.Error(), "Ignore, Data") {
		t.Fatalf("error should list sheets: %v", err)
	}
}

func TestLoadXLSXWithLegacyExtension(t *testing.T) {
	tbl, err := Load(xlsxFixture(t), "renamed.xls", LoadOptions{Sheet: "Data"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.NumRows() != 10 {
		t.Fatalf("rows = %d", tbl.NumRows())
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"styles.xml", "xl/styles.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.expected {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestInferKindFirstMatchWins(t *testing.T) {
	cases := []struct {
		vals []string
		want Kind
	}{
		{[]string{"1", "0", "1"}, KindNumeric},
		{[]string{"", ""}, KindNumeric},
		{[]string{"2024-01-01", "2024-01-02T10:00:00Z"}, KindDatetime},
		{[]string{"true", "FALSE", ""}, KindBoolean},
		{[]string{"1", "x"}, KindCategorical},
		{[]string{"Inf", "NaN-ish"}, KindCategorical},
	}
	for _, tc := range cases {
		if got := InferKind(tc.vals, LoadOptions{}); got != tc.want {
			t.Errorf("InferKind(%q) = %q, want %q", tc.vals, got, tc.want)
		}
	}
}
