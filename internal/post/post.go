package post

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/promowatch/promowatch"
)

// SinkFn delivers one formatted message to a notification destination.
// The channel is whatever identity the concrete sink understands: a
// webhook URL, a fediverse instance, or nothing at all for stdout.
type SinkFn func(ctx context.Context, channel, message string) error

// ToStdout is the fallback sink when no destination is configured.
func ToStdout(_ context.Context, _, message string) error {
	f := log.Flags()
	log.SetFlags(0)
	log.Printf("%s\n", message)
	log.SetFlags(f)
	return nil
}

const deadlineTpl = `⚠️ Event ending soon: {{ .Event.Name }}
Type: {{ if .Event.Type }}{{ .Event.Type }}{{ else }}-{{ end }}
Ends: {{ .Event.EndDate }} ({{ .DaysText }})
{{- if .Rewards }}
Rewards:
{{ .Rewards }}
{{- end }}
{{ .Event.Link }}
{{ renderTags .Tags "#" }}`

var deadlineTemplate = template.Must(template.New("deadline-alert").
	Funcs(template.FuncMap{
		"renderTags": renderTagsText,
	}).Parse(deadlineTpl))

type deadlineContent struct {
	Event    promowatch.Event
	DaysLeft int
}

func (c deadlineContent) DaysText() string {
	switch c.DaysLeft {
	case 0:
		return "today"
	case 1:
		return "in 1 day"
	}
	return fmt.Sprintf("in %d days", c.DaysLeft)
}

func (c deadlineContent) Rewards() string {
	return formatRewards(c.Event.Rewards)
}

func (c deadlineContent) Tags() tags {
	return eventTags(c.Event)
}

// DeadlineMessage renders the one-time alert sent when an event's
// remaining duration falls at or below the alert threshold.
func DeadlineMessage(ev promowatch.Event, daysLeft int) (string, error) {
	buf := bytes.NewBuffer(nil)
	if err := deadlineTemplate.Execute(buf, deadlineContent{Event: ev, DaysLeft: daysLeft}); err != nil {
		return "", fmt.Errorf("unable to build alert content: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// priorityItems lead the reward listing; everything else is alphabetical.
var priorityItems = []string{"Primogem", "Mora", "Astrite", "Shell Credit"}

func formatRewards(rewards map[string]int) string {
	if len(rewards) == 0 {
		return ""
	}
	lines := make([]string, 0, len(rewards))
	seen := make(map[string]bool, len(rewards))
	for _, item := range priorityItems {
		if qty, ok := rewards[item]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s", item, groupDigits(qty)))
			seen[item] = true
		}
	}
	rest := make([]string, 0, len(rewards))
	for item := range rewards {
		if !seen[item] {
			rest = append(rest, item)
		}
	}
	sort.Strings(rest)
	for _, item := range rest {
		lines = append(lines, fmt.Sprintf("%s: %s", item, groupDigits(rewards[item])))
	}
	return strings.Join(lines, "\n")
}

func groupDigits(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Deliver fans one message out to all configured sinks. A failing sink
// does not keep the others from receiving the alert. It returns how many
// sinks accepted the message alongside the first error, so the caller can
// tell a total failure apart from a partial one.
func Deliver(ctx context.Context, sinks []SinkFn, channel, message string, timeout time.Duration) (int, error) {
	delivered := 0
	var firstErr error
	for _, send := range sinks {
		sctx, cancel := context.WithTimeout(ctx, timeout)
		err := send(sctx, channel, message)
		cancel()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delivered++
	}
	return delivered, firstErr
}
