package simpleexport

import (
	"encoding/csv"
	"fmt"
	"slices"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/gocarina/gocsv"
	"golang.org/x/exp/maps"
)

// Default CSV punctuation
const (
	DefaultDelimiter = ","
	DefaultEscape    = `"`
)

// Table is tabular data handed to a CSVRenderer. Headers is optional.
type Table struct {
	Headers []string
	Rows    [][]string
}

// csvRenderer quotes a field when it contains the delimiter, the escape
// character or a newline, doubling any escape characters inside it.
type csvRenderer struct{}

// NewCSVRenderer returns the default CSVRenderer
func NewCSVRenderer() CSVRenderer {
	return csvRenderer{}
}

// RenderCSV joins rows with "\n" and fields with delimiter. An empty table renders as "".
func (csvRenderer) RenderCSV(table Table, delimiter, escape string) (string, error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	if escape == "" {
		escape = DefaultEscape
	}

	rows := table.Rows
	if len(table.Headers) > 0 {
		rows = append([][]string{table.Headers}, rows...)
	}
	if len(rows) == 0 {
		return "", nil
	}

	lines := make([]string, len(rows))
	fields := make([]string, 0)
	for i, row := range rows {
		fields = fields[:0]
		for _, item := range row {
			item = strings.ReplaceAll(item, escape, escape+escape)
			if strings.Contains(item, delimiter) || strings.Contains(item, escape) || strings.Contains(item, "\n") {
				item = escape + item + escape
			}
			fields = append(fields, item)
		}
		lines[i] = strings.Join(fields, delimiter)
	}
	return strings.Join(lines, "\n"), nil
}

// toTable normalizes every non-text CSVInput variant
func toTable(input CSVInput) (Table, error) {
	switch in := input.(type) {
	case CSVRows:
		return Table{Rows: in}, nil
	case CSVRecords:
		return recordsTable(in), nil
	case CSVStructs:
		return structsTable(in.V)
	default:
		return Table{}, fmt.Errorf("%w: %T", ErrUnsupportedInput, input)
	}
}

func recordsTable(in CSVRecords) Table {
	if len(in.Records) == 0 {
		return Table{}
	}
	keys := in.Order
	if len(keys) == 0 {
		keys = maps.Keys(in.Records[0])
		slices.Sort(keys)
	}

	rows := make([][]string, len(in.Records))
	for i, record := range in.Records {
		row := make([]string, len(keys))
		for j, key := range keys {
			if v, ok := record[key]; ok && v != nil {
				row[j] = fmt.Sprint(v)
			}
		}
		rows[i] = row
	}
	return Table{Headers: keys, Rows: rows}
}

// structsTable marshals tagged structs with gocsv, then reads the records back
// so the configured delimiter and escape policy apply.
func structsTable(v any) (Table, error) {
	text, err := gocsv.MarshalString(v)
	if err != nil {
		return Table{}, fmt.Errorf("marshal structs: %w", err)
	}
	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read marshaled structs: %w", err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}
	return Table{Headers: records[0], Rows: records[1:]}, nil
}

// ParseCSVJSON decodes a JSON array of arrays into CSVRows, or a JSON array
// of objects into CSVRecords. Invalid JSON is a *ParseError.
func ParseCSVJSON(data []byte) (CSVInput, error) {
	var items []any
	if err := gojson.Unmarshal(data, &items); err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(items) == 0 {
		return CSVRows{}, nil
	}

	switch items[0].(type) {
	case []any:
		rows := make(CSVRows, 0, len(items))
		for _, item := range items {
			cells, ok := item.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: mixed rows", ErrUnsupportedInput)
			}
			row := make([]string, len(cells))
			for i, cell := range cells {
				if cell != nil {
					row[i] = fmt.Sprint(cell)
				}
			}
			rows = append(rows, row)
		}
		return rows, nil

	case map[string]any:
		records := make([]map[string]any, 0, len(items))
		for _, item := range items {
			record, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: mixed rows", ErrUnsupportedInput)
			}
			records = append(records, record)
		}
		return CSVRecords{Records: records}, nil

	default:
		return nil, fmt.Errorf("%w: csv rows must be arrays or objects", ErrUnsupportedInput)
	}
}
