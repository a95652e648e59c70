package parser

import (
	"context"
	"regexp"
	"strings"
)

// Date shapes recognized in free text, tried in order.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
	regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{2,4}\b`),
	regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{2,4}\b`),
}

// amountPattern matches currency amounts in the common thousands/decimal
// separator conventions, with an optional sign and symbol.
var amountPattern = regexp.MustCompile(`[-+]?(?:R\$|US\$|[€$£])?\s?\d+(?:[.,]\d{3})*(?:[.,]\d{1,2})?\b`)

// columnSplit matches runs of 2+ whitespace used as ad hoc column breaks in
// PDF text dumps.
var columnSplit = regexp.MustCompile(`\t+|\s{2,}`)

// parseText applies a cascade of date+amount patterns line by line, falling
// back to whitespace-run splitting. Rows from this path are best effort.
func parseText(ctx context.Context, blob []byte) (*Result, error) {
	result := &Result{}

	for i, line := range splitLines(string(blob)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo := i + 1

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if row, ok := matchStructured(trimmed, lineNo); ok {
			result.Rows = append(result.Rows, row)
			continue
		}

		if row, ok := matchColumns(trimmed, lineNo); ok {
			result.Rows = append(result.Rows, row)
			continue
		}

		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Line:    lineNo,
			Message: "no date/amount pair recognized",
		})
	}

	return result, nil
}

// matchStructured extracts date, amount, and description from a line using
// the regex cascade. The amount is the last money-looking token that does
// not overlap the date.
func matchStructured(line string, lineNo int) (Row, bool) {
	var dateLoc []int
	for _, re := range datePatterns {
		if loc := re.FindStringIndex(line); loc != nil {
			dateLoc = loc
			break
		}
	}
	if dateLoc == nil {
		return Row{}, false
	}

	var amountLoc []int
	for _, loc := range amountPattern.FindAllStringIndex(line, -1) {
		if loc[0] >= dateLoc[0] && loc[0] < dateLoc[1] {
			continue
		}
		amountLoc = loc
	}
	if amountLoc == nil {
		return Row{}, false
	}

	// Description is whatever remains once date and amount are cut out.
	cuts := [][]int{dateLoc, amountLoc}
	if dateLoc[0] > amountLoc[0] {
		cuts = [][]int{amountLoc, dateLoc}
	}
	description := line[:cuts[0][0]] + " " + line[cuts[0][1]:cuts[1][0]] + " " + line[cuts[1][1]:]
	description = strings.TrimSpace(strings.Join(strings.Fields(description), " "))
	if description == "" {
		return Row{}, false
	}

	return Row{
		Fields: map[string]string{
			"date":        line[dateLoc[0]:dateLoc[1]],
			"description": description,
			"amount":      strings.TrimSpace(line[amountLoc[0]:amountLoc[1]]),
		},
		Line:       lineNo,
		BestEffort: true,
	}, true
}

// matchColumns treats runs of 2+ whitespace as column breaks and reads the
// line as [date, description..., amount].
func matchColumns(line string, lineNo int) (Row, bool) {
	parts := columnSplit.Split(line, -1)
	cleaned := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			cleaned = append(cleaned, strings.TrimSpace(p))
		}
	}
	if len(cleaned) < 3 {
		return Row{}, false
	}

	return Row{
		Fields: map[string]string{
			"date":        cleaned[0],
			"description": strings.Join(cleaned[1:len(cleaned)-1], " "),
			"amount":      cleaned[len(cleaned)-1],
		},
		Line:       lineNo,
		BestEffort: true,
	}, true
}
