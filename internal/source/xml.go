package source

import (
	"encoding/xml"
	"fmt"
	"strings"
)

type xmlNode struct {
	XMLName  xml.Name
	Content  string    `xml:",chardata"`
	Children []xmlNode `xml:",any"`
}

// parseXML treats each child of the document root as one record and
// that child's own elements as its fields.
func parseXML(raw []byte) ([][]string, error) {
	var root xmlNode
	if err := xml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("failed to parse xml: %w", err)
	}
	if len(root.Children) == 0 {
		return nil, fmt.Errorf("xml document contains no records")
	}

	var columns []string
	seen := make(map[string]bool)
	records := make([]map[string]string, 0, len(root.Children))
	for _, record := range root.Children {
		if len(record.Children) == 0 {
			continue
		}
		fields := make(map[string]string, len(record.Children))
		for _, field := range record.Children {
			name := field.XMLName.Local
			fields[name] = strings.TrimSpace(field.Content)
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
		records = append(records, fields)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("xml document contains no records")
	}

	table := make([][]string, 0, len(records)+1)
	table = append(table, columns)
	for _, record := range records {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = record[column]
		}
		table = append(table, row)
	}
	return table, nil
}
