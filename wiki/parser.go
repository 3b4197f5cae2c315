package wiki

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/promowatch/promowatch"
)

// ErrMissingLink marks a table row without an event page link. The link
// is the identity key, so such rows cannot be stored.
var ErrMissingLink = errors.New("event row has no link")

type LoggerFn func(string, ...interface{})

// Parser turns rows of the wiki events table into normalized events.
type Parser struct {
	// Base resolves relative hrefs; the wiki links events as /wiki/... paths.
	Base *url.URL
	Log  LoggerFn
	Err  LoggerFn
}

func NewParser(base *url.URL) *Parser {
	return &Parser{
		Base: base,
		Log:  func(string, ...interface{}) {},
		Err:  func(string, ...interface{}) {},
	}
}

var (
	spaces = regexp.MustCompile(`\s+`)
	// footnote references and other bracketed wiki artifacts, e.g. [1], [note 2]
	footnotes = regexp.MustCompile(`\[[^\]]{1,16}\]`)
)

// leftovers from broken encodings the wiki occasionally serves:
// mojibake of a zero-width space, the space itself, and a stray BOM
var badStrings = []string{"\u00e2\u20ac\u200b", "\u200b", "\ufeff"}

func cleanText(s string) string {
	for _, bad := range badStrings {
		s = strings.ReplaceAll(s, bad, "")
	}
	s = footnotes.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// parseRow reads one <tr> with cells: name+link, start text, end text, type.
func (p *Parser) parseRow(s *goquery.Selection) (promowatch.Event, error) {
	ev := promowatch.Event{}

	cells := s.Find("td")
	if cells.Length() == 0 {
		return ev, fmt.Errorf("row has no data cells")
	}

	nameCell := cells.Eq(0)
	a := nameCell.Find("a[href]").First()
	href, ok := a.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ev, ErrMissingLink
	}
	link, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ev, fmt.Errorf("%w: %s", ErrMissingLink, err)
	}
	if p.Base != nil {
		link = p.Base.ResolveReference(link)
	}
	ev.Link = link.String()

	ev.Name = cleanText(a.Text())
	if ev.Name == "" {
		ev.Name = cleanText(nameCell.Text())
	}
	if ev.Name == "" {
		return ev, fmt.Errorf("row for %s has no event name", ev.Link)
	}

	if cells.Length() > 1 {
		if d, ok := promowatch.ParseDate(cleanText(cells.Eq(1).Text())); ok {
			ev.StartDate = &d
		}
	}
	if cells.Length() > 2 {
		if d, ok := promowatch.ParseDate(cleanText(cells.Eq(2).Text())); ok {
			ev.EndDate = &d
		}
	}
	if cells.Length() > 3 {
		ev.Type = cleanText(cells.Eq(3).Text())
	}

	return ev, nil
}

// eventsTable picks the wikitable whose headers look like the events
// listing; the page carries several unrelated wikitables.
func eventsTable(doc *goquery.Document) *goquery.Selection {
	var table *goquery.Selection
	doc.Find("table.wikitable").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		headers := make([]string, 0)
		s.Find("th").Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, strings.ToLower(cleanText(th.Text())))
		})
		for _, h := range headers {
			if strings.Contains(h, "event") {
				table = s
				return false
			}
		}
		return true
	})
	return table
}

// ParseTable extracts all events from the page, in source table order.
// Per-row failures are logged and skipped; they never abort the pass.
func (p *Parser) ParseTable(doc *goquery.Document) (promowatch.Events, error) {
	table := eventsTable(doc)
	if table == nil {
		return nil, fmt.Errorf("no events table found in page")
	}

	events := make(promowatch.Events, 0)
	index := make(map[string]int)

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if row.Find("td").Length() == 0 {
			// header row
			return
		}
		ev, err := p.parseRow(row)
		if err != nil {
			p.Err("dropping row %d: %s", i, err)
			return
		}
		if ev.StartDate != nil && ev.EndDate != nil && ev.EndDate.Before(ev.StartDate.Time) {
			p.Err("dropping %s: end date %s precedes start date %s", ev.Link, ev.EndDate, ev.StartDate)
			return
		}
		// same link seen twice in one pass: the later row wins, keeping
		// the position of the first occurrence
		if at, ok := index[ev.Link]; ok {
			events[at] = ev
			return
		}
		index[ev.Link] = len(events)
		events = append(events, ev)
	})

	p.Log("parsed %d events", len(events))
	return events, nil
}
