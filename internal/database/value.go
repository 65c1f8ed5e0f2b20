package database

import (
	"strconv"
	"strings"
	"time"

	"github.com/starford/vaultport/internal/models"
)

// DateFormat is the normalized calendar-date layout.
const DateFormat = "2006-01-02"

// dateLayouts are tried in order; day/month wins over month/day.
var dateLayouts = []string{
	"2006-1-2",
	"January 2, 2006",
	"2/1/2006",
	"1/2/2006",
	"2006/1/2",
	"2006-1-2T15:04:05",
	"2006-1-2 15:04:05",
}

var truthy = map[string]bool{
	"yes":     true,
	"true":    true,
	"checked": true,
	"☑":       true,
	"✓":       true,
}

// ConvertValue converts a raw cell to a typed value. Blank cells are
// absent. Unparseable numbers and dates fall back to the raw text.
func ConvertValue(raw, typ string) models.Value {
	v := strings.TrimSpace(raw)
	if v == "" {
		return models.Absent()
	}
	h := Header{Type: typ}
	switch h.Kind() {
	case KindBoolean:
		return models.Bool(truthy[strings.ToLower(v)])
	case KindMultiValue:
		var items []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return models.List(items)
	case KindNumber:
		return parseNumber(v)
	}
	if h.IsDateLike() {
		return models.Text(NormalizeDate(v))
	}
	return models.Text(v)
}

func parseNumber(v string) models.Value {
	if !strings.Contains(v, ".") {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return models.Int(n)
		}
		return models.Text(v)
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return models.Float(f)
	}
	return models.Text(v)
}

// NormalizeDate reformats s as YYYY-MM-DD using the first layout that
// parses it, or returns s unchanged.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateFormat)
		}
	}
	return s
}
