package wiki

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var quantityRe = regexp.MustCompile(`[\d,]+`)

func parseQuantity(s string) (int, bool) {
	m := quantityRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// loadRewards scrapes the "Total Rewards" section of an event detail
// page. The section lists item cards: name in the caption, quantity in
// the card text. Events without the section yield an empty map.
func (f *Fetcher) loadRewards(ctx context.Context, eventURL string) (map[string]int, error) {
	doc, err := f.get(ctx, eventURL)
	if err != nil {
		return nil, err
	}
	return parseRewards(doc), nil
}

func parseRewards(doc *goquery.Document) map[string]int {
	heading := doc.Find("span#Total_Rewards").First()
	if heading.Length() == 0 {
		return nil
	}

	rewards := make(map[string]int)
	// the reward cards live between this heading and the next one
	section := heading.Closest("h2, h3").NextUntil("h2, h3")
	section.Find(".card-container, .card_container").Each(func(_ int, card *goquery.Selection) {
		name := cleanText(card.Find(".card-caption, .card_caption").First().Text())
		if name == "" {
			if title, ok := card.Find("a[title]").First().Attr("title"); ok {
				name = cleanText(title)
			}
		}
		if name == "" {
			return
		}
		qty, ok := parseQuantity(card.Find(".card-text, .card_text").First().Text())
		if !ok {
			return
		}
		// duplicates show up when individual stage rewards precede the
		// summary cards; the larger total wins
		if prev, ok := rewards[name]; !ok || qty > prev {
			rewards[name] = qty
		}
	})

	if len(rewards) == 0 {
		return nil
	}
	return rewards
}
