package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.sr.ht/~mariusor/lw"

	"github.com/promowatch/promowatch"
	"github.com/promowatch/promowatch/internal/post"
	"github.com/promowatch/promowatch/storage"
)

const (
	// DefaultThreshold is how many days before the deadline an alert fires.
	DefaultThreshold = 3
	// DefaultInterval is how often the snapshot is evaluated.
	DefaultInterval = 12 * time.Hour
	// DefaultDeliveryTimeout bounds a single sink call; a slower delivery
	// is treated as failed and retried on the next tick.
	DefaultDeliveryTimeout = 30 * time.Second
)

// State is an event's position in the alerting lifecycle, derived on
// every tick from the snapshot and the alert bookkeeping.
type State int

const (
	// StateFar - the deadline is still outside the alert threshold.
	StateFar State = iota
	// StateDue - within the threshold, alert not yet sent.
	StateDue
	// StateAlerted - within the threshold, alert already sent.
	StateAlerted
	// StateExpired - the deadline has passed.
	StateExpired
	// StateUndated - no known end date; never transitions.
	StateUndated
)

func (s State) String() string {
	switch s {
	case StateFar:
		return "far"
	case StateDue:
		return "due"
	case StateAlerted:
		return "alerted"
	case StateExpired:
		return "expired"
	case StateUndated:
		return "undated"
	}
	return fmt.Sprintf("invalid(%d)", int(s))
}

// StatusOf classifies one event against the reference clock date.
func StatusOf(ev promowatch.Event, today time.Time, threshold int, alerted bool) State {
	days, ok := ev.DaysRemaining(today)
	switch {
	case !ok:
		return StateUndated
	case days < 0:
		return StateExpired
	case days > threshold:
		return StateFar
	case alerted:
		return StateAlerted
	}
	return StateDue
}

// Scheduler runs the deadline evaluation pass. It is the sole writer of
// the alerted-links bookkeeping; ingestion and the administrative path
// own the other stores.
type Scheduler struct {
	Events    storage.Loader
	State     storage.StateStore
	Sinks     []post.SinkFn
	Threshold int
	Timeout   time.Duration
	// Now is the reference clock, swappable in tests.
	Now    func() time.Time
	Logger lw.Logger
}

func NewScheduler(events storage.Loader, state storage.StateStore, sinks ...post.SinkFn) *Scheduler {
	return &Scheduler{
		Events:    events,
		State:     state,
		Sinks:     sinks,
		Threshold: DefaultThreshold,
		Timeout:   DefaultDeliveryTimeout,
		Now:       time.Now,
		Logger:    lw.Dev(),
	}
}

// Tick is one full evaluation pass. Running it again with unchanged
// stores is a no-op: every alert is marked durable before it can fire a
// second time, and nothing is marked unless it was actually delivered.
func (s *Scheduler) Tick(ctx context.Context) error {
	events, err := s.Events.Load()
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			s.Logger.Infof("no event snapshot yet, nothing to evaluate")
			return nil
		}
		return fmt.Errorf("unable to load events: %w", err)
	}

	st, err := s.State.State()
	if err != nil {
		return fmt.Errorf("unable to load alert state: %w", err)
	}

	today := s.Now()
	due, sent, failed := 0, 0, 0
	for _, ev := range events {
		if StatusOf(ev, today, s.Threshold, st.Alerted(ev.Link)) != StateDue {
			continue
		}
		due++

		if st.AlertChannel == "" {
			// nothing is marked either: once a channel is configured, a
			// still-due event alerts on the next tick
			continue
		}

		days, _ := ev.DaysRemaining(today)
		message, err := post.DeadlineMessage(ev, days)
		if err != nil {
			s.Logger.Errorf("unable to render alert for %s: %s", ev.Link, err)
			continue
		}
		delivered, err := post.Deliver(ctx, s.Sinks, st.AlertChannel, message, s.Timeout)
		if delivered == 0 {
			s.Logger.Errorf("delivery failed for %s, will retry next tick: %s", ev.Link, err)
			failed++
			continue
		}
		if err != nil {
			// at least one sink accepted the alert, so it counts as sent;
			// retrying would repeat it on the healthy sinks
			s.Logger.Errorf("partial delivery for %s: %s", ev.Link, err)
		}
		if err := s.State.MarkAlerted(ev.Link); err != nil {
			// a delivered but unrecorded alert would repeat forever;
			// surface the persistence failure instead of carrying on
			return fmt.Errorf("unable to record alert for %s: %w", ev.Link, err)
		}
		sent++
	}

	s.Logger.Infof("tick done: %d events, %d due, %d alerts sent, %d failed", len(events), due, sent, failed)
	return nil
}
