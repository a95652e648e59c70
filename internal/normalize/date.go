package normalize

import (
	"strconv"
	"strings"
	"time"
)

// Native layouts tried before the manual day-month-year split.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// parseDate resolves a date string, interpreting ambiguous numeric dates as
// day-month-year. When nothing parses it falls back to today rather than
// dropping the row; the second return reports that fallback.
func (n *Normalizer) parseDate(raw string) (time.Time, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return today(n.now()), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, false
		}
	}

	if t, ok := parseDayMonthYear(cleaned); ok {
		return t, false
	}

	return today(n.now()), true
}

// parseDayMonthYear splits on /, -, or . and reads the parts as
// day-month-year, assuming a 2000s century for 2-digit years.
func parseDayMonthYear(s string) (time.Time, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	// A leading 4-digit field is year-month-day, not day-month-year.
	if len(parts[0]) == 4 {
		day, year = year, day
	}
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); treat that as invalid.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}

	return t, true
}

func today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
