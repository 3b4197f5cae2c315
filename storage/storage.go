package storage

import (
	"errors"

	"github.com/promowatch/promowatch"
)

type LoggerFn func(string, ...interface{})

// ErrNoSnapshot is returned by Load when no snapshot has ever been
// persisted, or the persisted one cannot be read. Ingestion simply has
// not succeeded yet; callers treat it as "no events" and carry on.
var ErrNoSnapshot = errors.New("no event snapshot")

type Saver interface {
	// ReplaceAll swaps the stored snapshot wholesale. The swap is atomic:
	// a reader either sees the previous snapshot or the new one, never a
	// partially written set.
	ReplaceAll(promowatch.Events) error
}

type Loader interface {
	Load() (promowatch.Events, error)
}

type Store interface {
	Saver
	Loader
}

// AlertState is the durable bookkeeping of the notification half: which
// event links have already been alerted for, and where alerts go.
// An empty AlertChannel means no destination has been configured.
type AlertState struct {
	AlertedLinks []string `json:"alerted_links"`
	AlertChannel string   `json:"alert_channel,omitempty"`
}

func (s AlertState) Alerted(link string) bool {
	for _, l := range s.AlertedLinks {
		if l == link {
			return true
		}
	}
	return false
}

// StateStore persists AlertState. The scheduler tick is the sole caller
// of MarkAlerted, ingestion of Prune, the administrative path of
// SetChannel; each mutation is an atomic replace of the whole state.
type StateStore interface {
	State() (AlertState, error)
	MarkAlerted(link string) error
	SetChannel(channel string) error
	// Prune drops alerted links that no longer appear in the event
	// snapshot, freeing the identity for a future occurrence reusing the
	// same URL. Invoked after each successful ingestion pass.
	Prune(active map[string]struct{}) error
}
