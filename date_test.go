package promowatch

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		text string
		want Date
		ok   bool
	}{
		{text: "August 20, 2026", want: NewDate(2026, time.August, 20), ok: true},
		{text: "Aug 20, 2026", want: NewDate(2026, time.August, 20), ok: true},
		{text: "2026-08-20", want: NewDate(2026, time.August, 20), ok: true},
		{text: "2026/08/20", want: NewDate(2026, time.August, 20), ok: true},
		{text: "20 August 2026", want: NewDate(2026, time.August, 20), ok: true},
		{text: "  September 1, 2026  ", want: NewDate(2026, time.September, 1), ok: true},
		{text: ""},
		{text: "TBD"},
		{text: "tba"},
		{text: "?"},
		{text: "Unknown"},
		{text: "N/A"},
		{text: "not a date"},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.text)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			continue
		}
		if ok && !got.Equals(tt.want) {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	d := NewDate(2026, time.August, 20)

	tests := []struct {
		name  string
		today time.Time
		want  int
	}{
		{name: "same day", today: time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC), want: 0},
		{name: "same day late evening", today: time.Date(2026, time.August, 20, 23, 59, 0, 0, time.UTC), want: 0},
		{name: "three days before", today: time.Date(2026, time.August, 17, 12, 0, 0, 0, time.UTC), want: 3},
		{name: "day after", today: time.Date(2026, time.August, 21, 1, 0, 0, 0, time.UTC), want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.DaysUntil(tt.today); got != tt.want {
				t.Errorf("DaysUntil(%s) = %d, want %d", tt.today, got, tt.want)
			}
		})
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2026, time.August, 20)

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %s", err)
	}
	if string(raw) != `"2026-08-20"` {
		t.Fatalf("unexpected wire form %s", raw)
	}

	var back Date
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %s", err)
	}
	if !back.Equals(d) {
		t.Fatalf("roundtrip mismatch: %s != %s", back, d)
	}

	if err := json.Unmarshal([]byte(`"never"`), &back); err == nil {
		t.Fatalf("expected error for unparseable date")
	}
}
