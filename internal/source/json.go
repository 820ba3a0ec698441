package source

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// wrapperKeys are the envelope keys commonly wrapping the record list
// in JSON exports.
var wrapperKeys = []string{"data", "results", "items", "records", "clients", "rows", "entries"}

func parseJSON(raw []byte) ([][]string, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}

	records, err := extractRecords(doc)
	if err != nil {
		return nil, err
	}
	return tabulate(records), nil
}

func extractRecords(doc any) ([]map[string]any, error) {
	switch v := doc.(type) {
	case []any:
		return toObjectList(v)
	case map[string]any:
		for _, key := range wrapperKeys {
			if inner, ok := v[key].([]any); ok {
				return toObjectList(inner)
			}
		}
		// A bare object is a single record.
		return []map[string]any{v}, nil
	default:
		return nil, fmt.Errorf("json document is not a record list")
	}
}

func toObjectList(items []any) ([]map[string]any, error) {
	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, obj)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("json document contains no records")
	}
	return records, nil
}

// tabulate flattens record maps into a header + rows table. Map
// iteration is unordered, so columns are sorted to keep the header
// deterministic across parses.
func tabulate(records []map[string]any) [][]string {
	var columns []string
	seen := make(map[string]bool)
	for _, record := range records {
		for key := range record {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	sort.Strings(columns)

	table := make([][]string, 0, len(records)+1)
	table = append(table, columns)
	for _, record := range records {
		row := make([]string, len(columns))
		for i, column := range columns {
			if value, ok := record[column]; ok {
				row[i] = stringifyScalar(value)
			}
		}
		table = append(table, row)
	}
	return table
}

func stringifyScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}
