package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/promowatch/promowatch/alert"
	"github.com/promowatch/promowatch/storage"
)

var ListCmd = cli.Command{
	Name:  "list",
	Usage: "Lists the stored event snapshot",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Include events whose deadline has already passed",
		},
		&cli.IntFlag{
			Name:  "threshold",
			Usage: "Days before the deadline at which events are flagged",
			Value: alert.DefaultThreshold,
		},
	},
	Action: listEvents,
}

func listEvents(c *cli.Context) error {
	st := openStore(storePath(c), nil, errFn)

	events, err := st.Load()
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			info("no events fetched yet")
			return nil
		}
		return fmt.Errorf("unable to load events: %w", err)
	}

	today := time.Now()
	if !c.Bool("all") {
		events = events.Active(today)
	}
	if len(events) == 0 {
		info("nothing found")
		return nil
	}

	threshold := c.Int("threshold")
	for _, ev := range events.SortedByEnd() {
		marker := " "
		left := "date unknown"
		if days, ok := ev.DaysRemaining(today); ok {
			switch {
			case days < 0:
				left = "ended"
			case days == 0:
				left = "ends today"
			default:
				left = fmt.Sprintf("%d days left", days)
			}
			if days >= 0 && days <= threshold {
				marker = "!"
			}
		}
		info("%s %s (%s)", marker, ev, left)
	}
	return nil
}
