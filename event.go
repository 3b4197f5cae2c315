package promowatch

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Event is one time-boxed promotional event as published on the wiki.
// Link doubles as the identity key: the wiki has no other stable ID.
type Event struct {
	Name      string         `json:"name"`
	Link      string         `json:"link"`
	StartDate *Date          `json:"start_date"`
	EndDate   *Date          `json:"end_date"`
	Type      string         `json:"type"`
	Rewards   map[string]int `json:"rewards,omitempty"`
}

type Events []Event

func (e Event) IsValid() bool {
	return len(e.Name) > 0 && len(e.Link) > 0
}

// HasDeadline reports whether the event is eligible for deadline alerts.
// Events with an unknown end date never are.
func (e Event) HasDeadline() bool {
	return e.EndDate != nil
}

// DaysRemaining returns the whole days between today and the end date.
// The second value is false when the end date is unknown.
func (e Event) DaysRemaining(today time.Time) (int, bool) {
	if e.EndDate == nil {
		return 0, false
	}
	return e.EndDate.DaysUntil(today), true
}

// Ended reports whether the event's deadline has passed. Events with an
// unknown end date are treated as still running.
func (e Event) Ended(today time.Time) bool {
	days, ok := e.DaysRemaining(today)
	return ok && days < 0
}

func (e Event) Equals(other Event) bool {
	return e.Link == other.Link &&
		e.Name == other.Name &&
		e.Type == other.Type &&
		datesEqual(e.StartDate, other.StartDate) &&
		datesEqual(e.EndDate, other.EndDate)
}

func datesEqual(a, b *Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equals(*b)
}

func (e Event) String() string {
	return e.GoString()
}

func (e Event) GoString() string {
	start, end := "?", "?"
	if e.StartDate != nil {
		start = e.StartDate.String()
	}
	if e.EndDate != nil {
		end = e.EndDate.String()
	}
	if len(e.Type) == 0 {
		return fmt.Sprintf("<%s @ %s//%s>", e.Name, start, end)
	}
	return fmt.Sprintf("<[%s] %s @ %s//%s>", e.Type, e.Name, start, end)
}

func (e Events) String() string {
	return e.GoString()
}

func (e Events) GoString() string {
	ss := make([]string, len(e))
	for i, ev := range e {
		ss[i] = ev.GoString()
	}
	return fmt.Sprintf("Events[%d]:\n\t%s\n", len(e), strings.Join(ss, "\n\t"))
}

func (e Events) Contains(inc Event) bool {
	for _, ev := range e {
		if ev.Equals(inc) {
			return true
		}
	}
	return false
}

// Links returns the set of identity keys present in the snapshot.
func (e Events) Links() map[string]struct{} {
	links := make(map[string]struct{}, len(e))
	for _, ev := range e {
		links[ev.Link] = struct{}{}
	}
	return links
}

// Active filters out events whose deadline has already passed. Events
// with unknown dates are kept, matching what the wiki itself lists.
func (e Events) Active(today time.Time) Events {
	active := make(Events, 0, len(e))
	for _, ev := range e {
		if !ev.Ended(today) {
			active = append(active, ev)
		}
	}
	return active
}

// SortedByEnd returns a copy ordered by end date, soonest deadline first.
// Events with unknown end dates sort last. The stored snapshot itself is
// never reordered; this is for display only.
func (e Events) SortedByEnd() Events {
	sorted := make(Events, len(e))
	copy(sorted, e)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].EndDate, sorted[j].EndDate
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Before(b.Time)
	})
	return sorted
}
