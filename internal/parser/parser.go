// Package parser turns raw statement exports (CSV, spreadsheets, OFX, or
// pasted text) into loosely-typed rows ready for normalization.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sift-money/sift/internal/common"
)

// Format identifies an input file format.
type Format string

// Supported input formats.
const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatText Format = "text"
	FormatOFX  Format = "ofx"
)

// Row is one loosely-typed record extracted from the input. Keys come from
// the header row (or synthetic names for unstructured text).
type Row struct {
	Fields map[string]string
	Line   int
	// BestEffort marks rows recovered from unstructured text, which carry
	// less signal than rows from structured formats.
	BestEffort bool
}

// Diagnostic records a per-row failure with its 1-based line number.
type Diagnostic struct {
	Message string
	Line    int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// Result is the outcome of parsing one blob. A malformed row never aborts
// the parse; it is skipped and recorded in Diagnostics.
type Result struct {
	Rows        []Row
	Diagnostics []Diagnostic
}

// Parser dispatches a blob to the right format parser.
type Parser struct{}

// New creates a parser.
func New() *Parser {
	return &Parser{}
}

// Parse extracts rows from blob. With FormatAuto the format is sniffed from
// the content. Total unreadability is the only fatal outcome.
func (p *Parser) Parse(ctx context.Context, blob []byte, format Format) (*Result, error) {
	if len(bytes.TrimSpace(blob)) == 0 {
		return nil, fmt.Errorf("%w: empty input", common.ErrUnreadableInput)
	}

	if format == FormatAuto || format == "" {
		format = sniffFormat(blob)
	}

	switch format {
	case FormatCSV:
		return parseCSV(ctx, blob)
	case FormatXLSX:
		return parseXLSX(ctx, blob)
	case FormatText:
		return parseText(ctx, blob)
	case FormatOFX:
		return parseOFX(ctx, blob)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", common.ErrUnreadableInput, format)
	}
}

// sniffFormat guesses the input format from content alone.
func sniffFormat(blob []byte) Format {
	// XLSX files are zip archives.
	if bytes.HasPrefix(blob, []byte("PK\x03\x04")) {
		return FormatXLSX
	}

	head := string(blob)
	if len(head) > 4096 {
		head = head[:4096]
	}
	upper := strings.ToUpper(head)
	if strings.Contains(upper, "OFXHEADER") || strings.Contains(upper, "<OFX>") {
		return FormatOFX
	}

	// A delimited file has a header line whose delimiter repeats on the
	// data lines below it.
	lines := splitLines(head)
	if len(lines) >= 2 {
		if _, cols := sniffDelimiter(lines[0]); cols >= 2 {
			return FormatCSV
		}
	}

	return FormatText
}

// splitLines splits on \n, tolerating \r\n, and drops a trailing empty line.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
