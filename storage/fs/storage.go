package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/promowatch/promowatch"
	"github.com/promowatch/promowatch/storage"
)

const (
	DefaultFile      = "events.json"
	DefaultStateFile = "alerts.json"
)

// Config
type Config struct {
	// Path is the event snapshot file; the alert state lives next to it.
	Path  string
	LogFn storage.LoggerFn
	ErrFn storage.LoggerFn
}

type repo struct {
	path      string
	statePath string
	log       storage.LoggerFn
	err       storage.LoggerFn

	rename func(string, string) error
}

// New returns a JSON file backed repository. The snapshot is a plain
// array of event objects so the ingestion and alerting halves can run as
// separate processes sharing nothing but the file.
func New(c Config) *repo {
	r := repo{
		path:      c.Path,
		statePath: filepath.Join(filepath.Dir(c.Path), DefaultStateFile),
		log:       func(string, ...interface{}) {},
		err:       func(string, ...interface{}) {},
		rename:    os.Rename,
	}
	if c.LogFn != nil {
		r.log = c.LogFn
	}
	if c.ErrFn != nil {
		r.err = c.ErrFn
	}
	return &r
}

// writeAtomic writes to a temporary file in the target directory and
// renames it into place, so a concurrent reader never sees a torn file
// and a failed write leaves the previous content untouched.
func (r *repo) writeAtomic(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return r.rename(tmp.Name(), path)
}

func (r *repo) ReplaceAll(events promowatch.Events) error {
	raw, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}
	if err = r.writeAtomic(r.path, raw); err != nil {
		return err
	}
	r.log("saved snapshot of %d events to %s", len(events), r.path)
	return nil
}

func (r *repo) Load() (promowatch.Events, error) {
	events := make(promowatch.Events, 0)

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.err("unable to read snapshot %s: %s", r.path, err)
		}
		return events, fmt.Errorf("%w: %s", storage.ErrNoSnapshot, r.path)
	}
	if err = json.Unmarshal(raw, &events); err != nil {
		r.err("corrupt snapshot %s: %s", r.path, err)
		return promowatch.Events{}, fmt.Errorf("%w: %s", storage.ErrNoSnapshot, r.path)
	}
	return events, nil
}

func (r *repo) State() (storage.AlertState, error) {
	st := storage.AlertState{AlertedLinks: make([]string, 0)}

	raw, err := os.ReadFile(r.statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, fmt.Errorf("unable to read alert state %s: %w", r.statePath, err)
	}
	if err = json.Unmarshal(raw, &st); err != nil {
		return storage.AlertState{}, fmt.Errorf("corrupt alert state %s: %w", r.statePath, err)
	}
	if st.AlertedLinks == nil {
		st.AlertedLinks = make([]string, 0)
	}
	return st, nil
}

func (r *repo) saveState(st storage.AlertState) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal alert state: %w", err)
	}
	return r.writeAtomic(r.statePath, raw)
}

func (r *repo) MarkAlerted(link string) error {
	st, err := r.State()
	if err != nil {
		return err
	}
	if st.Alerted(link) {
		return nil
	}
	st.AlertedLinks = append(st.AlertedLinks, link)
	return r.saveState(st)
}

func (r *repo) SetChannel(channel string) error {
	st, err := r.State()
	if err != nil {
		return err
	}
	st.AlertChannel = channel
	return r.saveState(st)
}

func (r *repo) Prune(active map[string]struct{}) error {
	st, err := r.State()
	if err != nil {
		return err
	}
	kept := st.AlertedLinks[:0]
	for _, link := range st.AlertedLinks {
		if _, ok := active[link]; ok {
			kept = append(kept, link)
		}
	}
	if len(kept) == len(st.AlertedLinks) {
		return nil
	}
	r.log("evicting %d alerted links gone from the snapshot", len(st.AlertedLinks)-len(kept))
	st.AlertedLinks = kept
	return r.saveState(st)
}
