package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	n := NewNormalizer(Config{Now: fixedNow})

	tests := []struct {
		name        string
		input       string
		want        time.Time
		wantAssumed bool
	}{
		{
			name:  "iso",
			input: "2024-01-15",
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "slash day month year",
			input: "15/01/2024",
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "dot day month year",
			input: "15.01.2024",
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "two digit year",
			input: "15/01/24",
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "single digit day and month",
			input: "5/1/2024",
			want:  time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "year first with slashes",
			input: "2024/01/15",
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "written month",
			input: "15 Jan 2024",
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "empty falls back to today",
			input:       "",
			want:        time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantAssumed: true,
		},
		{
			name:        "garbage falls back to today",
			input:       "not a date",
			want:        time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantAssumed: true,
		},
		{
			name:        "overflowing day falls back",
			input:       "30/02/2024",
			want:        time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantAssumed: true,
		},
		{
			name:        "month out of range falls back",
			input:       "15/13/2024",
			want:        time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantAssumed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, assumed := n.parseDate(tt.input)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			assert.Equal(t, tt.wantAssumed, assumed)
		})
	}
}
