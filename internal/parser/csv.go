package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/sift-money/sift/internal/common"
)

// delimiterCandidates is the fixed set scanned when sniffing a header line.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// sniffDelimiter picks the candidate delimiter that yields the most columns
// on the header line.
func sniffDelimiter(header string) (rune, int) {
	best := ','
	bestCols := 1
	for _, d := range delimiterCandidates {
		cols := len(strings.Split(header, string(d)))
		if cols > bestCols {
			best = d
			bestCols = cols
		}
	}
	return best, bestCols
}

// splitAmountFragment matches the digits that land in their own column when
// an unquoted decimal-comma amount is cut by a comma delimiter.
var splitAmountFragment = regexp.MustCompile(`^\d{1,2}$`)

// splitAmountHead matches the integer part left behind, optionally signed
// and thousands-separated.
var splitAmountHead = regexp.MustCompile(`^[-+]?\d{1,3}(?:\.\d{3})*$`)

// repairSplitAmount merges a trailing decimal fragment back into the field
// before it. Comma-delimited exports with unquoted decimal-comma amounts
// (`...,-45,67`) overflow by exactly this shape; anything else is left for
// the column-count check.
func repairSplitAmount(record []string, want int) []string {
	for len(record) > want {
		n := len(record)
		last := strings.TrimSpace(record[n-1])
		prev := strings.TrimSpace(record[n-2])
		if !splitAmountFragment.MatchString(last) || !splitAmountHead.MatchString(prev) {
			return record
		}
		record[n-2] = prev + "," + last
		record = record[:n-1]
	}
	return record
}

// parseCSV reads delimited text with a header row. Rows whose column count
// differs from the header are diagnostics-only failures.
func parseCSV(ctx context.Context, blob []byte) (*Result, error) {
	lines := splitLines(string(blob))
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty input", common.ErrUnreadableInput)
	}

	delimiter, cols := sniffDelimiter(lines[0])
	if cols < 2 {
		return nil, fmt.Errorf("%w: no delimiter found in header", common.ErrUnreadableInput)
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnreadableInput, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	result := &Result{}
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Line:    line,
				Message: fmt.Sprintf("unparseable row: %v", err),
			})
			continue
		}

		if delimiter == ',' && len(record) > len(header) {
			record = repairSplitAmount(record, len(header))
		}

		if len(record) != len(header) {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Line:    line,
				Message: fmt.Sprintf("expected %d columns, got %d", len(header), len(record)),
			})
			continue
		}

		fields := make(map[string]string, len(header))
		empty := true
		for i, name := range header {
			value := strings.TrimSpace(record[i])
			fields[name] = value
			if value != "" {
				empty = false
			}
		}
		if empty {
			continue
		}

		result.Rows = append(result.Rows, Row{Fields: fields, Line: line})
	}

	return result, nil
}
