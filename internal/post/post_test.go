package post

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/promowatch/promowatch"
)

func datePtr(y int, m time.Month, d int) *promowatch.Date {
	dt := promowatch.NewDate(y, m, d)
	return &dt
}

func TestDeadlineMessage(t *testing.T) {
	ev := promowatch.Event{
		Name:    "Thunder Sojourn",
		Link:    "https://wiki.example.com/wiki/Thunder_Sojourn",
		EndDate: datePtr(2026, time.August, 20),
		Type:    "In-Game",
		Rewards: map[string]int{"Hero's Wit": 12, "Primogem": 420},
	}

	msg, err := DeadlineMessage(ev, 2)
	if err != nil {
		t.Fatalf("DeadlineMessage: %s", err)
	}
	for _, want := range []string{
		"Event ending soon: Thunder Sojourn",
		"Type: In-Game",
		"Ends: 2026-08-20 (in 2 days)",
		"Primogem: 420",
		"Hero's Wit: 12",
		"https://wiki.example.com/wiki/Thunder_Sojourn",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	// priority items lead the listing
	if strings.Index(msg, "Primogem") > strings.Index(msg, "Hero's Wit") {
		t.Errorf("priority item should come first:\n%s", msg)
	}
}

func TestDeadlineMessageEndsToday(t *testing.T) {
	ev := promowatch.Event{
		Name:    "Last Chance",
		Link:    "https://wiki.example.com/wiki/Last_Chance",
		EndDate: datePtr(2026, time.August, 17),
	}

	msg, err := DeadlineMessage(ev, 0)
	if err != nil {
		t.Fatalf("DeadlineMessage: %s", err)
	}
	if !strings.Contains(msg, "(today)") {
		t.Errorf("expected the today wording:\n%s", msg)
	}
	if strings.Contains(msg, "Rewards:") {
		t.Errorf("no rewards section expected:\n%s", msg)
	}
}

func TestFormatRewards(t *testing.T) {
	got := formatRewards(map[string]int{
		"Crown of Insight": 1,
		"Mora":             1200000,
		"Primogem":         420,
		"Adventure EXP":    500,
	})
	want := strings.Join([]string{
		"Primogem: 420",
		"Mora: 1,200,000",
		"Adventure EXP: 500",
		"Crown of Insight: 1",
	}, "\n")
	if got != want {
		t.Errorf("formatRewards = \n%s\nwant\n%s", got, want)
	}

	if formatRewards(nil) != "" {
		t.Errorf("expected empty string for no rewards")
	}
}

func TestGroupDigits(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{420420, "420,420"},
		{1200000, "1,200,000"},
	}
	for _, tt := range tests {
		if got := groupDigits(tt.in); got != tt.want {
			t.Errorf("groupDigits(%d) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDeliver(t *testing.T) {
	calls := make([]string, 0)
	ok := func(name string) SinkFn {
		return func(_ context.Context, channel, message string) error {
			calls = append(calls, name)
			return nil
		}
	}
	bad := func(_ context.Context, _, _ string) error {
		calls = append(calls, "bad")
		return fmt.Errorf("sink down")
	}

	delivered, err := Deliver(context.Background(), []SinkFn{ok("first"), bad, ok("second")}, "chan", "message", time.Second)
	if err == nil {
		t.Fatalf("expected the failing sink's error")
	}
	// a failing sink does not keep the others from delivering
	if len(calls) != 3 {
		t.Fatalf("expected all sinks to be tried, got %v", calls)
	}
	if delivered != 2 {
		t.Fatalf("expected 2 successful deliveries, got %d", delivered)
	}
}

func TestDeliverAllFailing(t *testing.T) {
	bad := func(_ context.Context, _, _ string) error {
		return fmt.Errorf("sink down")
	}
	delivered, err := Deliver(context.Background(), []SinkFn{bad, bad}, "chan", "message", time.Second)
	if err == nil {
		t.Fatalf("expected an error when every sink fails")
	}
	if delivered != 0 {
		t.Fatalf("expected no successful deliveries, got %d", delivered)
	}
}
