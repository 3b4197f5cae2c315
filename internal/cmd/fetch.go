package cmd

import (
	"context"

	"github.com/urfave/cli"

	"github.com/promowatch/promowatch/wiki"
)

var FetchCmd = cli.Command{
	Name:  "fetch",
	Usage: "Scrapes the wiki events page and replaces the stored snapshot",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "url",
			Usage: "The wiki events page to scrape",
			Value: wiki.DefaultURL,
		},
		&cli.BoolFlag{
			Name:  "rewards",
			Usage: "Also scrape the reward listing from each event page",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Output debug messages",
		},
	},
	Action: fetchEvents,
}

func fetchEvents(c *cli.Context) error {
	debug := c.Bool("debug") || c.GlobalBool("debug")
	dryRun := c.GlobalBool("dry-run")

	f := wiki.NewFetcher(c.String("url"))
	f.WithRewards = c.Bool("rewards")
	f.Err = errFn
	if debug {
		f.Log = info
	}

	events, err := f.Load(context.Background())
	if err != nil {
		// the previous snapshot stays authoritative
		return err
	}

	if debug || dryRun {
		for _, ev := range events {
			info("%s", ev)
		}
	}
	if dryRun {
		info("dry-run: not persisting %d events", len(events))
		return nil
	}

	st := openStore(storePath(c), nil, errFn)
	if err := st.ReplaceAll(events); err != nil {
		return err
	}
	// links gone from the snapshot free their alert bookkeeping, so a
	// future event reusing the URL can alert again
	return st.Prune(events.Links())
}
