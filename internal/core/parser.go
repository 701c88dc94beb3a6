package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidCSV marks text whose quoting cannot be resolved into records.
var ErrInvalidCSV = errors.New("invalid csv")

// DelimiterCandidates are the separators considered by auto-detection, in
// tie-break order.
var DelimiterCandidates = []rune{',', ';'}

// ParseOptions controls how decoded text is split into rows.
type ParseOptions struct {
	// Delimiter forces a field separator. Zero means detect from the header line.
	Delimiter rune
}

// RawRow is one data line, positionally aligned with Table.Headers.
type RawRow struct {
	Line   int      // 1-indexed line number of the record start in the file
	Values []string // Exactly len(Table.Headers) values
}

// Table is the result of parsing: one header row plus its data rows.
type Table struct {
	Delimiter rune
	Headers   []string
	Rows      []RawRow
}

// Get returns the value of the first column named header, or "".
func (t *Table) Get(row RawRow, header string) string {
	for i, h := range t.Headers {
		if h == header {
			return row.Values[i]
		}
	}
	return ""
}

// Record returns a header-keyed view of a row. When a header repeats, the
// first occurrence wins.
func (t *Table) Record(row RawRow) map[string]string {
	rec := make(map[string]string, len(t.Headers))
	for i, h := range t.Headers {
		if _, seen := rec[h]; !seen {
			rec[h] = row.Values[i]
		}
	}
	return rec
}

// Parse splits decoded CSV text into a header and data rows.
//
// The first non-blank line is the header. Blank lines and lines whose cells
// are all blank are skipped. Short rows are padded with "" and surplus
// trailing cells are dropped, so every RawRow has one value per header.
// Text with no header at all yields a Table with nil Headers and no error.
//
// Stray quotes inside unquoted fields are kept as text. A quoted field that is
// never closed fails with ErrInvalidCSV instead of absorbing the rest of the
// file.
func Parse(text string, opts ParseOptions) (*Table, error) {
	comma := opts.Delimiter
	if comma == 0 {
		comma = DetectDelimiter(firstLine(text))
	}

	if perr := unclosedQuote(text, comma); perr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, perr)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	table := &Table{Delimiter: comma}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
		}

		if isEmptyRow(record) {
			continue
		}

		if table.Headers == nil {
			table.Headers = cleanHeaders(record)
			continue
		}

		line, _ := r.FieldPos(0)
		table.Rows = append(table.Rows, RawRow{
			Line:   line,
			Values: fitRow(record, len(table.Headers)),
		})
	}

	return table, nil
}

// DetectDelimiter picks the candidate that occurs most often outside quotes
// in line. Ties, including a line with no candidate at all, go to the
// earlier entry of DelimiterCandidates.
func DetectDelimiter(line string) rune {
	counts := make(map[rune]int, len(DelimiterCandidates))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best := DelimiterCandidates[0]
	for _, c := range DelimiterCandidates[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

// unclosedQuote scans text the way a lazy-quote csv.Reader splits it and
// reports a quoted field still open at the end of the input. Inside a quoted
// field a doubled quote is an escape, and a quote closes the field only when
// followed by the delimiter, a line break or the end of the text.
func unclosedQuote(text string, comma rune) *csv.ParseError {
	var (
		inQuotes   bool
		fieldStart = true
		line, col  = 1, 0
		startLine  int
	)

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		col++

		if r == '\n' {
			line++
			col = 0
		}

		if inQuotes {
			if r != '"' {
				continue
			}
			if i+1 == len(runes) {
				inQuotes = false
				continue
			}
			switch runes[i+1] {
			case '"':
				i++
				col++
			case comma, '\n', '\r':
				inQuotes = false
			}
			continue
		}

		switch {
		case r == '"' && fieldStart:
			inQuotes = true
			startLine = line
			fieldStart = false
		case r == comma, r == '\n':
			fieldStart = true
		case r == '\r':
			// CRLF; the '\n' ends the field
		default:
			fieldStart = false
		}
	}

	if !inQuotes {
		return nil
	}
	return &csv.ParseError{StartLine: startLine, Line: line, Column: col + 1, Err: csv.ErrQuote}
}

// firstLine returns the first line of text that has any non-space content.
func firstLine(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	for len(text) > 0 {
		line, rest, _ := strings.Cut(text, "\n")
		if strings.TrimSpace(line) != "" {
			return line
		}
		text = rest
	}
	return ""
}

func cleanHeaders(record []string) []string {
	headers := make([]string, len(record))
	for i, h := range record {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return headers
}

// fitRow pads or truncates record to n cells.
func fitRow(record []string, n int) []string {
	row := make([]string, n)
	copy(row, record)
	return row
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
