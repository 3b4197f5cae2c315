package wiki

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/promowatch/promowatch"
)

// DefaultURL is the public wiki page listing current promotional events.
const DefaultURL = "https://genshin-impact.fandom.com/wiki/Event"

const (
	defaultTimeout = 30 * time.Second
	// detail pages are fetched concurrently, but politely
	maxDetailFetches = 4
)

// Fetcher loads the events page and turns it into a normalized snapshot.
type Fetcher struct {
	URL    string
	Client *http.Client
	// WithRewards visits each event's detail page for its reward listing.
	WithRewards bool
	Log         LoggerFn
	Err         LoggerFn
}

func NewFetcher(pageURL string) *Fetcher {
	if pageURL == "" {
		pageURL = DefaultURL
	}
	return &Fetcher{
		URL:    pageURL,
		Client: &http.Client{Timeout: defaultTimeout},
		Log:    func(string, ...interface{}) {},
		Err:    func(string, ...interface{}) {},
	}
}

func (f *Fetcher) get(ctx context.Context, u string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	res, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %w", u, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}
	return goquery.NewDocumentFromReader(res.Body)
}

// Load fetches and parses the events page. With WithRewards set it also
// walks the event detail pages; a failed detail fetch only costs that
// event its reward listing, never the run.
func (f *Fetcher) Load(ctx context.Context) (promowatch.Events, error) {
	base, err := url.Parse(f.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid events page URL %s: %w", f.URL, err)
	}

	doc, err := f.get(ctx, f.URL)
	if err != nil {
		return nil, err
	}

	p := NewParser(base)
	p.Log = f.Log
	p.Err = f.Err
	events, err := p.ParseTable(doc)
	if err != nil {
		return nil, err
	}

	if f.WithRewards {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxDetailFetches)
		for i := range events {
			g.Go(func() error {
				rewards, err := f.loadRewards(gctx, events[i].Link)
				if err != nil {
					f.Err("unable to load rewards for %s: %s", events[i].Name, err)
					return nil
				}
				events[i].Rewards = rewards
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return events, err
		}
	}

	return events, nil
}
