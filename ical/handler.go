package ical

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/soh335/ical"

	"github.com/promowatch/promowatch/storage"
)

type cal struct {
	Version string
	Events  storage.Loader
}

func NewHandler(events storage.Loader) http.Handler {
	return cal{Version: "1.0", Events: events}
}

func (c cal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	// /{type}
	typ := strings.ToLower(chi.URLParam(r, "type"))

	events, err := c.Events.Load()
	if err != nil && !errors.Is(err, storage.ErrNoSnapshot) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(fmt.Sprintf("%s", err)))
		return
	}

	cal := ical.NewBasicVCalendar()
	cal.PRODID = fmt.Sprintf("-//promowatch//EVENT-CAL//EN/%s", c.Version)

	cal.VERSION = "2.0"

	name := "PromoWatch"
	description := "Time limited promotional events"
	if typ != "" {
		description = fmt.Sprintf("Time limited promotional events of type %s", typ)
	}

	cal.NAME = name
	cal.X_WR_CALNAME = name
	cal.DESCRIPTION = description
	cal.X_WR_CALDESC = description

	tz := now.Location().String()
	cal.TIMEZONE_ID = tz
	cal.X_WR_TIMEZONE = tz

	cal.REFRESH_INTERVAL = "PT12H"
	cal.X_PUBLISHED_TTL = "PT12H"

	cal.CALSCALE = "GREGORIAN"
	cal.METHOD = "PUBLISH"
	for _, ev := range events {
		if typ != "" && !strings.EqualFold(ev.Type, typ) {
			continue
		}
		if ev.StartDate == nil {
			continue
		}
		start := ev.StartDate.Time
		// iCal DTEND is exclusive, so an event running through its end
		// date finishes at midnight after it.
		end := start.Add(24 * time.Hour)
		if ev.EndDate != nil {
			end = ev.EndDate.Time.Add(24 * time.Hour)
		}

		summary := ev.Name
		if ev.Type != "" {
			summary = fmt.Sprintf("[%s] %s", ev.Type, ev.Name)
		}

		e := &ical.VEvent{
			UID:         ev.Link,
			DTSTAMP:     now,
			DTSTART:     start,
			DTEND:       end,
			SUMMARY:     summary,
			DESCRIPTION: ev.Link,
			TZID:        tz,
			AllDay:      true,
		}
		cal.VComponent = append(cal.VComponent, e)
	}

	b := &bytes.Buffer{}
	if err := cal.Encode(b); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(fmt.Sprintf("%s", err)))
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Write(b.Bytes())
}
