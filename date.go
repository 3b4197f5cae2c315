package promowatch

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component. The wiki only
// publishes day granularity, and deadline math is done in whole days.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// DaysUntil returns the number of whole days between today and d.
// Negative means d has already passed.
func (d Date) DaysUntil(today time.Time) int {
	return int(d.Sub(DateOf(today).Time).Hours() / 24)
}

func (d Date) Equals(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(raw []byte) error {
	s := strings.Trim(string(raw), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, ok := ParseDate(s)
	if !ok {
		return fmt.Errorf("unparseable date %q", s)
	}
	*d = parsed
	return nil
}

// dateLayouts are the formats the wiki has been seen using, most common
// first. "January 2, 2006" is what the events table carries today.
var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"2006/01/02",
	"2 January 2006",
	"01/02/2006",
}

var datePlaceholders = []string{"", "tbd", "tba", "?", "unknown", "n/a"}

// ParseDate attempts to read a calendar date from wiki text. Placeholder
// values like "TBD" are a normal case, not an error, so the result is a
// tagged pair instead of (Date, error).
func ParseDate(text string) (Date, bool) {
	text = strings.TrimSpace(text)
	for _, p := range datePlaceholders {
		if strings.EqualFold(text, p) {
			return Date{}, false
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return DateOf(t), true
		}
	}
	return Date{}, false
}
