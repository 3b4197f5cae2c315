package boltdb

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/promowatch/promowatch"
	"github.com/promowatch/promowatch/storage"
)

const DefaultFile = "promowatch.bdb"

type repo struct {
	d    *bolt.DB
	root []byte
	path string
	log  storage.LoggerFn
	err  storage.LoggerFn
}

const (
	rootBucket   = "promowatch"
	eventsBucket = "events"
	alertsBucket = "alerts"
	configBucket = "config"

	channelKey = "channel"
)

// Config
type Config struct {
	Path  string
	LogFn storage.LoggerFn
	ErrFn storage.LoggerFn
}

// New returns a new boltdb backed repository.
func New(c Config) *repo {
	b := repo{
		root: []byte(rootBucket),
		path: c.Path,
		log:  func(string, ...interface{}) {},
		err:  func(string, ...interface{}) {},
	}
	if c.ErrFn != nil {
		b.err = c.ErrFn
	}
	if c.LogFn != nil {
		b.log = c.LogFn
	}
	return &b
}

// open acquires the db for one operation; the file lock is released in
// close so ingestion, scheduler and admin processes can interleave.
func (r *repo) open() error {
	var err error
	r.d, err = bolt.Open(r.path, 0600, nil)
	if err != nil {
		return fmt.Errorf("could not open db %s %w", r.path, err)
	}
	err = r.d.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(r.root)
		if err != nil {
			return fmt.Errorf("unable to create root bucket %s: %w", r.root, err)
		}
		if !root.Writable() {
			return fmt.Errorf("non writeable root bucket %s", r.root)
		}
		return nil
	})
	return err
}

func (r *repo) close() error {
	if r.d == nil {
		return nil
	}
	return r.d.Close()
}

// eventKey preserves source table order under bolt's sorted key iteration.
func eventKey(i int) []byte {
	return []byte(fmt.Sprintf("%08d", i))
}

// ReplaceAll drops the previous snapshot and writes the new one in a
// single transaction, so readers see either the old set or the new set.
func (r *repo) ReplaceAll(events promowatch.Events) error {
	if err := r.open(); err != nil {
		return err
	}
	defer r.close()

	err := r.d.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(r.root)
		if root == nil {
			return fmt.Errorf("invalid bucket %s", r.root)
		}
		if err := root.DeleteBucket([]byte(eventsBucket)); err != nil && err != bolt.ErrBucketNotFound {
			return fmt.Errorf("unable to drop previous snapshot: %w", err)
		}
		b, err := root.CreateBucket([]byte(eventsBucket))
		if err != nil {
			return fmt.Errorf("unable to create snapshot bucket: %w", err)
		}
		for i, ev := range events {
			raw, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("could not marshal event %s: %w", ev.Link, err)
			}
			if err = b.Put(eventKey(i), raw); err != nil {
				return fmt.Errorf("could not store event %s: %w", ev.Link, err)
			}
		}
		return nil
	})
	if err == nil {
		r.log("saved snapshot of %d events to %s", len(events), r.path)
	}
	return err
}

func (r *repo) Load() (promowatch.Events, error) {
	events := make(promowatch.Events, 0)

	if err := r.open(); err != nil {
		return events, fmt.Errorf("%w: %s", storage.ErrNoSnapshot, err)
	}
	defer r.close()

	err := r.d.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(r.root)
		if root == nil {
			return storage.ErrNoSnapshot
		}
		b := root.Bucket([]byte(eventsBucket))
		if b == nil {
			return storage.ErrNoSnapshot
		}
		return b.ForEach(func(_, raw []byte) error {
			ev := promowatch.Event{}
			if err := json.Unmarshal(raw, &ev); err != nil {
				return fmt.Errorf("%w: corrupt event entry: %s", storage.ErrNoSnapshot, err)
			}
			events = append(events, ev)
			return nil
		})
	})
	if err != nil {
		return promowatch.Events{}, err
	}
	return events, nil
}

func (r *repo) State() (storage.AlertState, error) {
	st := storage.AlertState{AlertedLinks: make([]string, 0)}

	if err := r.open(); err != nil {
		return st, err
	}
	defer r.close()

	err := r.d.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(r.root)
		if root == nil {
			return nil
		}
		if b := root.Bucket([]byte(alertsBucket)); b != nil {
			if err := b.ForEach(func(link, _ []byte) error {
				st.AlertedLinks = append(st.AlertedLinks, string(link))
				return nil
			}); err != nil {
				return err
			}
		}
		if b := root.Bucket([]byte(configBucket)); b != nil {
			st.AlertChannel = string(b.Get([]byte(channelKey)))
		}
		return nil
	})
	return st, err
}

func (r *repo) MarkAlerted(link string) error {
	if err := r.open(); err != nil {
		return err
	}
	defer r.close()

	return r.d.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(r.root).CreateBucketIfNotExists([]byte(alertsBucket))
		if err != nil {
			return fmt.Errorf("unable to create alerts bucket: %w", err)
		}
		return b.Put([]byte(link), []byte{1})
	})
}

func (r *repo) SetChannel(channel string) error {
	if err := r.open(); err != nil {
		return err
	}
	defer r.close()

	return r.d.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(r.root).CreateBucketIfNotExists([]byte(configBucket))
		if err != nil {
			return fmt.Errorf("unable to create config bucket: %w", err)
		}
		return b.Put([]byte(channelKey), []byte(channel))
	})
}

func (r *repo) Prune(active map[string]struct{}) error {
	if err := r.open(); err != nil {
		return err
	}
	defer r.close()

	pruned := 0
	err := r.d.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.root).Bucket([]byte(alertsBucket))
		if b == nil {
			return nil
		}
		stale := make([][]byte, 0)
		if err := b.ForEach(func(link, _ []byte) error {
			if _, ok := active[string(link)]; !ok {
				stale = append(stale, append([]byte{}, link...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, link := range stale {
			if err := b.Delete(link); err != nil {
				return err
			}
		}
		pruned = len(stale)
		return nil
	})
	if err == nil && pruned > 0 {
		r.log("evicting %d alerted links gone from the snapshot", pruned)
	}
	return err
}
