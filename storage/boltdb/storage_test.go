package boltdb

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/promowatch/promowatch"
	"github.com/promowatch/promowatch/storage"
)

func testRepo(t *testing.T) *repo {
	t.Helper()
	return New(Config{
		Path:  filepath.Join(t.TempDir(), DefaultFile),
		LogFn: t.Logf,
		ErrFn: t.Logf,
	})
}

func datePtr(y int, m time.Month, d int) *promowatch.Date {
	dt := promowatch.NewDate(y, m, d)
	return &dt
}

func TestReplaceAllLoad(t *testing.T) {
	r := testRepo(t)

	events := promowatch.Events{
		{Name: "Zulu First", Link: "https://wiki.example.com/wiki/Zulu", EndDate: datePtr(2026, time.August, 20), Type: "In-Game"},
		{Name: "Alpha Second", Link: "https://wiki.example.com/wiki/Alpha", Type: "Web"},
	}
	if err := r.ReplaceAll(events); err != nil {
		t.Fatalf("ReplaceAll: %s", err)
	}

	loaded, err := r.Load()
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 events, got %d", len(loaded))
	}
	// source order survives bolt's sorted key iteration
	if loaded[0].Name != "Zulu First" || loaded[1].Name != "Alpha Second" {
		t.Fatalf("order not preserved: %s", loaded)
	}

	// the swap is wholesale
	if err := r.ReplaceAll(events[:1]); err != nil {
		t.Fatalf("ReplaceAll: %s", err)
	}
	loaded, err = r.Load()
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "Zulu First" {
		t.Fatalf("previous snapshot leaked through: %s", loaded)
	}
}

func TestLoadNoSnapshot(t *testing.T) {
	r := testRepo(t)

	if _, err := r.Load(); !errors.Is(err, storage.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestAlertState(t *testing.T) {
	r := testRepo(t)

	st, err := r.State()
	if err != nil {
		t.Fatalf("State: %s", err)
	}
	if len(st.AlertedLinks) != 0 || st.AlertChannel != "" {
		t.Fatalf("expected empty initial state, got %+v", st)
	}

	if err := r.SetChannel("https://social.example.com"); err != nil {
		t.Fatalf("SetChannel: %s", err)
	}
	if err := r.MarkAlerted("https://wiki.example.com/wiki/Zulu"); err != nil {
		t.Fatalf("MarkAlerted: %s", err)
	}
	if err := r.MarkAlerted("https://wiki.example.com/wiki/Zulu"); err != nil {
		t.Fatalf("MarkAlerted: %s", err)
	}

	st, err = r.State()
	if err != nil {
		t.Fatalf("State: %s", err)
	}
	if st.AlertChannel != "https://social.example.com" {
		t.Errorf("unexpected channel: %s", st.AlertChannel)
	}
	if len(st.AlertedLinks) != 1 || !st.Alerted("https://wiki.example.com/wiki/Zulu") {
		t.Errorf("unexpected alerted links: %v", st.AlertedLinks)
	}
}

func TestPrune(t *testing.T) {
	r := testRepo(t)

	for _, link := range []string{"a", "b", "c"} {
		if err := r.MarkAlerted(link); err != nil {
			t.Fatalf("MarkAlerted(%s): %s", link, err)
		}
	}

	if err := r.Prune(map[string]struct{}{"b": {}}); err != nil {
		t.Fatalf("Prune: %s", err)
	}

	st, err := r.State()
	if err != nil {
		t.Fatalf("State: %s", err)
	}
	if len(st.AlertedLinks) != 1 || st.AlertedLinks[0] != "b" {
		t.Fatalf("expected only the active link to survive, got %v", st.AlertedLinks)
	}
}
