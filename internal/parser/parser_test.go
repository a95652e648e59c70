package parser

import (
	"context"
	"testing"

	"github.com/sift-money/sift/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want Format
	}{
		{
			name: "comma delimited",
			blob: "Date,Description,Amount\n2024-01-15,CONTINENTE,-45.67\n",
			want: FormatCSV,
		},
		{
			name: "semicolon delimited",
			blob: "Data;Descrição;Valor\n15/01/2024;CONTINENTE;-45,67\n",
			want: FormatCSV,
		},
		{
			name: "ofx header",
			blob: "OFXHEADER:100\nDATA:OFXSGML\n<OFX><BANKMSGSRSV1></BANKMSGSRSV1></OFX>",
			want: FormatOFX,
		},
		{
			name: "xlsx zip magic",
			blob: "PK\x03\x04rest-of-archive",
			want: FormatXLSX,
		},
		{
			name: "free text",
			blob: "2024-01-15 CONTINENTE LISBOA 45.67",
			want: FormatText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffFormat([]byte(tt.blob)))
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	p := New()

	_, err := p.Parse(context.Background(), []byte("   \n  "), FormatAuto)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnreadableInput)
}

func TestParseUnknownFormat(t *testing.T) {
	p := New()

	_, err := p.Parse(context.Background(), []byte("anything"), Format("pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnreadableInput)
}

func TestParseCSV(t *testing.T) {
	p := New()
	blob := []byte("Date,Description,Amount\n" +
		"2024-01-15,CONTINENTE LISBOA,-45.67\n" +
		"2024-01-16,GALP COMBUSTIVEIS,-30.00\n")

	result, err := p.Parse(context.Background(), blob, FormatCSV)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Empty(t, result.Diagnostics)

	assert.Equal(t, "2024-01-15", result.Rows[0].Fields["Date"])
	assert.Equal(t, "CONTINENTE LISBOA", result.Rows[0].Fields["Description"])
	assert.Equal(t, "-45.67", result.Rows[0].Fields["Amount"])
	assert.Equal(t, 2, result.Rows[0].Line)
	assert.Equal(t, 3, result.Rows[1].Line)
	assert.False(t, result.Rows[0].BestEffort)
}

func TestParseCSVSemicolonDelimiter(t *testing.T) {
	p := New()
	blob := []byte("Data;Descrição;Valor\n15/01/2024;CONTINENTE;-45,67\n")

	result, err := p.Parse(context.Background(), blob, FormatAuto)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "-45,67", result.Rows[0].Fields["Valor"])
}

func TestParseCSVMalformedRowIsDiagnosticOnly(t *testing.T) {
	p := New()
	blob := []byte("Date,Description,Amount\n" +
		"2024-01-15,CONTINENTE,-45.67\n" +
		"2024-01-16,only-two-columns\n" +
		"2024-01-17,GALP,-30.00\n")

	result, err := p.Parse(context.Background(), blob, FormatCSV)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, 3, result.Diagnostics[0].Line)
	assert.Contains(t, result.Diagnostics[0].Message, "columns")
}

func TestParseCSVUnquotedDecimalCommaAmount(t *testing.T) {
	p := New()
	blob := []byte("Date,Description,Amount\n" +
		"15/01/2024,Continente supermercado,-45,67\n" +
		"16/01/2024,TRANSFERENCIA RECEBIDA,-1.234,56\n")

	result, err := p.Parse(context.Background(), blob, FormatCSV)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Empty(t, result.Diagnostics)

	assert.Equal(t, "-45,67", result.Rows[0].Fields["Amount"])
	assert.Equal(t, "-1.234,56", result.Rows[1].Fields["Amount"])
}

func TestParseCSVExtraTextColumnStaysDiagnostic(t *testing.T) {
	p := New()
	blob := []byte("Date,Description,Amount\n" +
		"2024-01-15,CONTINENTE,-45.67,unexpected trailing note\n")

	result, err := p.Parse(context.Background(), blob, FormatCSV)
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].Message, "columns")
}

func TestParseCSVSkipsEmptyRows(t *testing.T) {
	p := New()
	blob := []byte("Date,Description,Amount\n,,\n2024-01-15,CONTINENTE,-45.67\n")

	result, err := p.Parse(context.Background(), blob, FormatCSV)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)
	assert.Empty(t, result.Diagnostics)
}

func TestParseCSVNoDelimiter(t *testing.T) {
	p := New()

	_, err := p.Parse(context.Background(), []byte("justoneword\nanother\n"), FormatCSV)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnreadableInput)
}

func TestParseText(t *testing.T) {
	p := New()
	blob := []byte("2024-01-15 CONTINENTE LISBOA 45,67\n" +
		"16/01/2024 GALP COMBUSTIVEIS -30.00\n" +
		"\n" +
		"this line has nothing usable\n")

	result, err := p.Parse(context.Background(), blob, FormatText)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	first := result.Rows[0]
	assert.Equal(t, "2024-01-15", first.Fields["date"])
	assert.Equal(t, "CONTINENTE LISBOA", first.Fields["description"])
	assert.Equal(t, "45,67", first.Fields["amount"])
	assert.True(t, first.BestEffort)

	second := result.Rows[1]
	assert.Equal(t, "16/01/2024", second.Fields["date"])
	assert.Equal(t, "-30.00", second.Fields["amount"])

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, 4, result.Diagnostics[0].Line)
}

func TestParseTextColumnFallback(t *testing.T) {
	p := New()
	blob := []byte("15 Jan 2024\tCONTINENTE LISBOA\t45,67\n")

	result, err := p.Parse(context.Background(), blob, FormatText)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "15 Jan 2024", row.Fields["date"])
	assert.Equal(t, "CONTINENTE LISBOA", row.Fields["description"])
	assert.Equal(t, "45,67", row.Fields["amount"])
	assert.True(t, row.BestEffort)
}

func TestParseTextPicksAmountAfterDate(t *testing.T) {
	// The date must not be mistaken for the amount.
	p := New()
	blob := []byte("15/01/2024 TRANSFER REF 445566 2.500,00\n")

	result, err := p.Parse(context.Background(), blob, FormatText)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "2.500,00", result.Rows[0].Fields["amount"])
	assert.Equal(t, "15/01/2024", result.Rows[0].Fields["date"])
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Line: 7, Message: "missing amount"}
	assert.Equal(t, "line 7: missing amount", d.String())
}
