package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sift-money/sift/internal/common"
	"github.com/xuri/excelize/v2"
)

// parseXLSX reads the first sheet of a spreadsheet, treating row 1 as
// headers. Empty cells become empty strings; a completely empty row is
// skipped silently.
func parseXLSX(ctx context.Context, blob []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnreadableInput, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", common.ErrUnreadableInput)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnreadableInput, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: first sheet is empty", common.ErrUnreadableInput)
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.TrimSpace(cell)
	}

	result := &Result{}
	for i, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := i + 2

		fields := make(map[string]string, len(header))
		empty := true
		for j, name := range header {
			if name == "" {
				continue
			}
			value := ""
			if j < len(cells) {
				value = strings.TrimSpace(cells[j])
			}
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
