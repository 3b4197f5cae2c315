package alert

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/promowatch/promowatch/storage/fs"
	"github.com/promowatch/promowatch/wiki"
)

// The whole pipeline: raw wiki table rows through the parser into the
// file store, one scheduler pass over it.
func TestScrapeStoreAlert(t *testing.T) {
	page := `
<table class="wikitable">
  <tr><th>Event</th><th>Start</th><th>End</th><th>Type</th></tr>
  <tr>
    <td><a href="/wiki/Ending_Soon">Ending Soon</a></td>
    <td>August 10, 2026</td>
    <td>August 19, 2026</td>
    <td>In-Game</td>
  </tr>
  <tr>
    <td><a href="/wiki/Long_Runner">Long Runner</a></td>
    <td>August 1, 2026</td>
    <td>TBD</td>
    <td>In-Game</td>
  </tr>
  <tr>
    <td>Linkless Row</td>
    <td>August 1, 2026</td>
    <td>August 2, 2026</td>
    <td>Web</td>
  </tr>
</table>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("new document: %s", err)
	}
	base, _ := url.Parse("https://wiki.example.com/wiki/Event")
	events, err := wiki.NewParser(base).ParseTable(doc)
	if err != nil {
		t.Fatalf("ParseTable: %s", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 stored events, got %d", len(events))
	}
	if events[1].EndDate != nil {
		t.Fatalf("TBD end date should stay unknown: %s", events[1])
	}

	store := fs.New(fs.Config{Path: filepath.Join(t.TempDir(), fs.DefaultFile)})
	if err := store.ReplaceAll(events); err != nil {
		t.Fatalf("ReplaceAll: %s", err)
	}
	if err := store.SetChannel("https://hooks.example.com/T1"); err != nil {
		t.Fatalf("SetChannel: %s", err)
	}

	sink := &recordingSink{}
	s := NewScheduler(store, store, sink.fn())
	s.Now = func() time.Time { return time.Date(2026, time.August, 17, 9, 0, 0, 0, time.UTC) }

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %s", err)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(sink.sent))
	}
	if !strings.Contains(sink.sent[0], "Ending Soon") {
		t.Fatalf("alert for the wrong event:\n%s", sink.sent[0])
	}

	// the bookkeeping survived in the store
	st, err := store.State()
	if err != nil {
		t.Fatalf("State: %s", err)
	}
	if !st.Alerted("https://wiki.example.com/wiki/Ending_Soon") {
		t.Fatalf("alert not recorded: %v", st.AlertedLinks)
	}

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %s", err)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("alert repeated across ticks: %d", len(sink.sent))
	}
}
