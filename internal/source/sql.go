package source

import (
	"fmt"
	"regexp"
	"strings"
)

var insertPattern = regexp.MustCompile(`(?is)insert\s+into\s+[` + "`" + `"']?([a-zA-Z_][a-zA-Z0-9_]*)[` + "`" + `"']?\s*\(([^)]+)\)\s*values\s*`)

// parseSQL extracts rows from INSERT statements in a SQL dump. The
// first insert defines the table and column list; inserts into other
// tables are skipped.
func parseSQL(raw []byte) ([][]string, error) {
	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	locations := insertPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locations) == 0 {
		return nil, fmt.Errorf("sql dump contains no insert statements")
	}

	var table string
	var columns []string
	var rows [][]string
	for _, loc := range locations {
		name := text[loc[2]:loc[3]]
		if table == "" {
			table = name
			columns = splitColumnList(text[loc[4]:loc[5]])
		} else if !strings.EqualFold(name, table) {
			continue
		}

		tuples, err := scanValueTuples(text[loc[1]:])
		if err != nil {
			return nil, fmt.Errorf("failed to parse insert into %s: %w", name, err)
		}
		for _, tuple := range tuples {
			rows = append(rows, padRow(tuple, len(columns)))
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("sql dump contains no usable insert statements")
	}

	out := make([][]string, 0, len(rows)+1)
	out = append(out, columns)
	out = append(out, rows...)
	return out, nil
}

func splitColumnList(list string) []string {
	parts := strings.Split(list, ",")
	columns := make([]string, 0, len(parts))
	for _, part := range parts {
		columns = append(columns, strings.Trim(strings.TrimSpace(part), "`\"'"))
	}
	return columns
}

// scanValueTuples reads (v, v, ...)[, (...)]* up to the statement's
// terminating semicolon.
func scanValueTuples(text string) ([][]string, error) {
	var tuples [][]string
	pos := 0
	for {
		pos = skipSpaces(text, pos)
		if pos >= len(text) || text[pos] != '(' {
			return nil, fmt.Errorf("expected value tuple at offset %d", pos)
		}
		tuple, next, err := scanTuple(text, pos)
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, tuple)
		pos = skipSpaces(text, next)
		if pos < len(text) && text[pos] == ',' {
			pos++
			continue
		}
		return tuples, nil
	}
}

func scanTuple(text string, pos int) ([]string, int, error) {
	pos++ // consume '('
	var values []string
	for {
		pos = skipSpaces(text, pos)
		if pos >= len(text) {
			return nil, 0, fmt.Errorf("unterminated value tuple")
		}
		value, next, err := scanValue(text, pos)
		if err != nil {
			return nil, 0, err
		}
		values = append(values, value)
		pos = skipSpaces(text, next)
		if pos >= len(text) {
			return nil, 0, fmt.Errorf("unterminated value tuple")
		}
		switch text[pos] {
		case ',':
			pos++
		case ')':
			return values, pos + 1, nil
		default:
			return nil, 0, fmt.Errorf("unexpected character %q in value tuple", text[pos])
		}
	}
}

func scanValue(text string, pos int) (string, int, error) {
	if quote := text[pos]; quote == '\'' || quote == '"' {
		var sb strings.Builder
		i := pos + 1
		for i < len(text) {
			c := text[i]
			switch {
			case c == '\\' && i+1 < len(text):
				sb.WriteByte(text[i+1])
				i += 2
			case c == quote && i+1 < len(text) && text[i+1] == quote:
				sb.WriteByte(quote)
				i += 2
			case c == quote:
				return sb.String(), i + 1, nil
			default:
				sb.WriteByte(c)
				i++
			}
		}
		return "", 0, fmt.Errorf("unterminated string literal")
	}

	end := pos
	for end < len(text) && text[end] != ',' && text[end] != ')' {
		end++
	}
	token := strings.TrimSpace(text[pos:end])
	if strings.EqualFold(token, "null") {
		token = ""
	}
	return token, end, nil
}

func skipSpaces(text string, pos int) int {
	for pos < len(text) && (text[pos] == ' ' || text[pos] == '\t' || text[pos] == '\n' || text[pos] == '\r') {
		pos++
	}
	return pos
}
