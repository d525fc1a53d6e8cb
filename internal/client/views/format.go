package views

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	http.TimeFormat,
	time.RFC1123,
}

// ParseDate accepts the date shapes the API emits: ISO dates, ISO
// timestamps with or without zone, and RFC 1123.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders DD/MM/YYYY, or the input unchanged when unparseable.
func FormatDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("02/01/2006")
}

// FormatDateTime renders DD/MM/YYYY HH:MM:SS.
func FormatDateTime(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("02/01/2006 15:04:05")
}

// Age is whole years between birth and now.
func Age(birth string, now time.Time) (int, bool) {
	b, ok := ParseDate(birth)
	if !ok {
		return 0, false
	}
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age, true
}

func ageLabel(birth string, now time.Time) string {
	age, ok := Age(birth, now)
	if !ok {
		return "-"
	}
	return strconv.Itoa(age) + " anos"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
