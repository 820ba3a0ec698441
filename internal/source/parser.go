// Package source reads tabular client data out of uploaded files.
// Supported formats: CSV, XLSX, XLS, JSON, XML and SQL dumps.
package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ChunkSize is the number of rows handed to the pipeline per batch.
const ChunkSize = 100

// ErrUnsupportedFormat indicates the file extension has no parser.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Row is one parsed record with its 1-based position in the file
// (header excluded).
type Row struct {
	Number int               `json:"row_number"`
	Data   map[string]string `json:"data"`
}

// Result is a fully parsed file.
type Result struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ParseFile reads the whole file and returns its header and rows.
func ParseFile(path string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	var table [][]string
	switch ext {
	case "csv", "txt", "tsv":
		table, err = parseCSV(raw)
	case "xlsx", "xls":
		table, err = parseExcel(raw)
	case "json":
		table, err = parseJSON(raw)
	case "xml":
		table, err = parseXML(raw)
	case "sql":
		table, err = parseSQL(raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	return buildResult(table), nil
}

// DetectColumns returns the header and total data row count without
// materializing row maps for the caller.
func DetectColumns(path string) ([]string, int, error) {
	result, err := ParseFile(path)
	if err != nil {
		return nil, 0, err
	}
	return result.Columns, len(result.Rows), nil
}

// ParseChunk returns up to limit rows starting at offset (0-based).
func ParseChunk(path string, offset, limit int) ([]Row, error) {
	result, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset >= len(result.Rows) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(result.Rows) {
		end = len(result.Rows)
	}
	return result.Rows[offset:end], nil
}

func parseCSV(raw []byte) ([][]string, error) {
	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return records, nil
}

func parseExcel(raw []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// delimiterCandidates in priority order for ties.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

func detectDelimiter(text string) rune {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	best := ','
	bestCount := 0
	for _, candidate := range delimiterCandidates {
		if count := strings.Count(line, string(candidate)); count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}

func buildResult(table [][]string) *Result {
	table = filterEmptyRows(table)
	if len(table) == 0 {
		return &Result{Columns: []string{}, Rows: []Row{}}
	}

	columns := sanitizeHeaders(table[0])
	rows := make([]Row, 0, len(table)-1)
	for i, record := range table[1:] {
		record = padRow(record, len(columns))
		data := make(map[string]string, len(columns))
		for j, column := range columns {
			data[column] = strings.TrimSpace(record[j])
		}
		rows = append(rows, Row{Number: i + 1, Data: data})
	}
	return &Result{Columns: columns, Rows: rows}
}

// sanitizeHeaders trims each header cell and fills blanks so every
// column stays addressable.
func sanitizeHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = fmt.Sprintf("colonne_%d", i+1)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

func padRow(record []string, width int) []string {
	if len(record) >= width {
		return record[:width]
	}
	padded := make([]string, width)
	copy(padded, record)
	return padded
}

func filterEmptyRows(table [][]string) [][]string {
	out := table[:0]
	for _, record := range table {
		empty := true
		for _, cell := range record {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, record)
		}
	}
	return out
}
