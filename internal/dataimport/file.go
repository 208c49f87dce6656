// Package dataimport loads the data that placeholder mappings resolve
// against: uploaded files and GraphQL query results.
package dataimport

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kayz/promptsmith/internal/placeholder"
)

// FullTextField is the single pseudo-field of an unstructured text file.
const FullTextField = "full_text"

// Format is the detected file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Dataset is an imported file. Structured formats expose their column or key
// names; the first record is the representative value of each field.
type Dataset struct {
	Name    string           `json:"name"`
	Format  Format           `json:"format"`
	Fields  []string         `json:"fields"`
	Records []map[string]any `json:"records,omitempty"`
	Text    string           `json:"text,omitempty"`
}

// FormatFromName maps a file extension to a Format.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	case "xls":
		return "", fmt.Errorf("%w: %s is a legacy Excel workbook, save it as .xlsx", ErrUnsupportedFormat, name)
	case "json":
		return FormatJSON, nil
	case "txt", "text", "md":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// LoadFile reads and parses the file at path.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}

// Read parses r using the format implied by name.
func Read(r io.Reader, name string) (*Dataset, error) {
	format, err := FormatFromName(name)
	if err != nil {
		return nil, err
	}
	var ds *Dataset
	switch format {
	case FormatCSV:
		ds, err = readCSV(r)
	case FormatXLSX:
		ds, err = readXLSX(r)
	case FormatJSON:
		ds, err = readJSON(r)
	default:
		ds, err = readText(r)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	ds.Name = name
	ds.Format = format
	return ds, nil
}

func readCSV(r io.Reader) (*Dataset, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func readXLSX(r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Dataset{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// fromRows treats the first row as the header.
func fromRows(rows [][]string) *Dataset {
	ds := &Dataset{}
	if len(rows) == 0 {
		return ds
	}
	ds.Fields = append(ds.Fields, rows[0]...)
	for _, row := range rows[1:] {
		rec := make(map[string]any, len(ds.Fields))
		for i, field := range ds.Fields {
			if i < len(row) {
				rec[field] = row[i]
			} else {
				rec[field] = ""
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds
}

func readJSON(r io.Reader) (*Dataset, error) {
	var doc any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	ds := &Dataset{}
	switch t := doc.(type) {
	case map[string]any:
		ds.Fields = sortedKeys(t)
		ds.Records = []map[string]any{t}
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				ds.Records = append(ds.Records, m)
			}
		}
		if len(t) > 0 {
			if first, ok := t[0].(map[string]any); ok {
				ds.Fields = sortedKeys(first)
			}
		}
	}
	return ds, nil
}

func readText(r io.Reader) (*Dataset, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return &Dataset{Fields: []string{FullTextField}, Text: buf.String()}, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the representative value of field: the text of a text file,
// or the field of the first record. Dotted paths reach into nested JSON.
func (d *Dataset) Lookup(field string) (any, bool) {
	if d == nil {
		return nil, false
	}
	if d.Format == FormatText {
		if field == FullTextField {
			return d.Text, true
		}
		return nil, false
	}
	if len(d.Records) == 0 {
		return nil, false
	}
	first := d.Records[0]
	if v, ok := first[field]; ok {
		if v == nil {
			return nil, false
		}
		return v, true
	}
	return placeholder.Resolve(first, field)
}

// Preview returns up to n records.
func (d *Dataset) Preview(n int) []map[string]any {
	if n <= 0 || n > len(d.Records) {
		n = len(d.Records)
	}
	return d.Records[:n]
}
