package core

// csvparse.go turns raw CSV text into validated rows.
//
// The lexer works line by line: the input is split on newlines first, so a
// quoted field may contain commas and escaped quotes but not line breaks.
// Every accepted row carries the same key set, derived from the header.

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// RequiredFields lists the header fields every import file must contain.
var RequiredFields = []string{"name", "email", "admin_name"}

var headerSpaceRegex = regexp.MustCompile(`\s+`)

// Parse splits, validates and collects the rows of an import file.
// It never fails as a whole: problems are reported through ParseResult.Errors.
func Parse(raw string) ParseResult {
	lines := splitLines(raw)
	if len(lines) == 0 {
		return ParseResult{
			Errors: []ParseError{{Row: 0, Message: "Empty CSV file", Kind: KindStructural}},
		}
	}

	fields := splitFields(lines[0])
	for i, f := range fields {
		fields[i] = NormalizeHeader(f)
	}

	result := ParseResult{Meta: ParseMeta{Fields: fields}}

	if missing := missingRequired(fields); len(missing) > 0 {
		result.Errors = append(result.Errors, ParseError{
			Row:     0,
			Message: fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")),
			Kind:    KindStructural,
		})
		return result
	}

	for i := 1; i < len(lines); i++ {
		rowNum := i + 1
		values := splitFields(lines[i])

		if len(values) != len(fields) {
			result.Errors = append(result.Errors, ParseError{
				Row:     rowNum,
				Message: fmt.Sprintf("Expected %d columns, got %d", len(fields), len(values)),
				Kind:    KindStructural,
			})
			continue
		}

		row := ParsedRow{Line: rowNum, Values: make(map[string]string, len(fields))}
		for j, field := range fields {
			row.Values[field] = strings.TrimSpace(values[j])
		}

		if errs := ValidateRow(row, rowNum); len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}

		result.Data = append(result.Data, row)
	}

	result.Meta.RowCount = len(result.Data)
	return result
}

// NormalizeHeader lower-cases a header cell and replaces whitespace runs with "_".
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return headerSpaceRegex.ReplaceAllString(h, "_")
}

// splitLines splits raw text on newlines, dropping "\r" and blank lines.
func splitLines(raw string) []string {
	parts := strings.Split(raw, "\n")
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(p, "\r")
		if strings.TrimSpace(p) == "" {
			continue
		}
		lines = append(lines, p)
	}
	return lines
}

// splitFields splits one line on commas, honoring double-quoted fields.
// Inside quotes a comma is literal and "" decodes to a single quote.
func splitFields(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}

	return append(fields, cur.String())
}

func missingRequired(fields []string) []string {
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f] = true
	}

	var missing []string
	for _, req := range RequiredFields {
		if !present[req] {
			missing = append(missing, req)
		}
	}
	return missing
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// prepareInput strips a leading byte-order mark and replaces invalid UTF-8.
func prepareInput(data []byte) []byte {
	return sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM))
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
