package cmd

import (
	"context"
	"net/http"
	"syscall"
	"time"

	"git.sr.ht/~mariusor/lw"
	w "git.sr.ht/~mariusor/wrapper"
	"github.com/McKael/madon"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli"
	"golang.org/x/oauth2"

	"github.com/promowatch/promowatch/alert"
	"github.com/promowatch/promowatch/internal/config"
	"github.com/promowatch/promowatch/internal/post"
	"github.com/promowatch/promowatch/wiki"
)

var WatchCmd = cli.Command{
	Name:  "watch",
	Usage: "Periodically refreshes the snapshot and sends deadline alerts",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "How often to evaluate deadlines",
		},
		&cli.IntFlag{
			Name:  "threshold",
			Usage: "Days before the deadline at which to alert",
			Value: -1,
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "The wiki events page to scrape",
		},
		&cli.BoolFlag{
			Name:  "no-fetch",
			Usage: "Only evaluate deadlines, leave ingestion to another process",
		},
	},
	Action: watch,
}

// cronLog adapts the structured logger to cron's Printf-style interface.
type cronLog struct {
	l lw.Logger
}

func (c cronLog) Printf(s string, args ...interface{}) {
	c.l.Infof(s, args...)
}

func buildSinks(cfg config.Config, dryRun bool) []post.SinkFn {
	sinks := make([]post.SinkFn, 0)
	if dryRun {
		return append(sinks, post.ToStdout)
	}

	if creds, err := post.LoadCredentials(DataPath()); err == nil {
		for _, cred := range creds {
			switch cl := cred.(type) {
			case *madon.Client:
				sinks = append(sinks, post.ToMastodon(cl))
			case *post.APClient:
				if !cl.Tok.Expiry.IsZero() && time.Until(cl.Tok.Expiry) <= 0 {
					ctx := context.WithValue(context.Background(), oauth2.HTTPClient, post.GetHTTPClient())
					tok, err := cl.Conf.PasswordCredentialsToken(ctx, cl.ID.String(), cl.Conf.ClientSecret)
					if err != nil {
						errFn("unable to get new token for %s: %s", cl.ID, err)
						continue
					}
					cl.Tok = tok
				}
				sinks = append(sinks, post.ToActivityPub(cl))
			}
		}
	}
	if cfg.Webhook.URL != "" {
		sinks = append(sinks, post.ToWebhookURL(&http.Client{Timeout: 10 * time.Second}, cfg.Webhook.URL))
	}
	if len(sinks) == 0 {
		sinks = append(sinks, post.ToStdout)
	}
	return sinks
}

func watch(c *cli.Context) error {
	logger := lw.Dev()

	cfg, err := config.Load(stringValue(c, "config"))
	if err != nil {
		return err
	}
	if p := storePath(c); p != "" {
		cfg.Store.Path = p
	}
	if u := c.String("url"); u != "" {
		cfg.Wiki.URL = u
	}
	interval := cfg.Scheduler.Interval()
	if c.Duration("interval") > 0 {
		interval = c.Duration("interval")
	}
	threshold := cfg.Scheduler.ThresholdDays
	if c.Int("threshold") >= 0 {
		threshold = c.Int("threshold")
	}

	st := openStore(cfg.Store.Path, nil, errFn)
	sched := alert.NewScheduler(st, st, buildSinks(cfg, c.GlobalBool("dry-run"))...)
	sched.Threshold = threshold
	sched.Logger = logger

	fetcher := wiki.NewFetcher(cfg.Wiki.URL)
	fetcher.WithRewards = cfg.Wiki.Rewards
	fetcher.Log = logger.Infof
	fetcher.Err = logger.Errorf

	// an overdue tick is skipped rather than run concurrently
	cr := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(cronLog{logger}))))
	cr.Schedule(cron.Every(interval), cron.FuncJob(func() {
		if err := sched.Tick(context.Background()); err != nil {
			logger.Errorf("tick failed: %s", err)
		}
	}))
	if !c.Bool("no-fetch") {
		cr.Schedule(cron.Every(interval), cron.FuncJob(func() {
			events, err := fetcher.Load(context.Background())
			if err != nil {
				logger.Errorf("scrape failed, keeping previous snapshot: %s", err)
				return
			}
			if err := st.ReplaceAll(events); err != nil {
				logger.Errorf("unable to persist snapshot: %s", err)
				return
			}
			if err := st.Prune(events.Links()); err != nil {
				logger.Errorf("unable to prune alert state: %s", err)
			}
		}))
	}

	logger.Infof("watching %s every %s, alerting %d days ahead", fetcher.URL, interval, threshold)

	w.RegisterSignalHandlers(w.SignalHandlers{
		syscall.SIGHUP: func(_ chan int) {
			info("SIGHUP received, reloading configuration")
		},
		syscall.SIGINT: func(exit chan int) {
			info("SIGINT received, stopping")
			exit <- 0
		},
		syscall.SIGTERM: func(exit chan int) {
			info("SIGTERM received, force stopping")
			exit <- 0
		},
	}).Exec(func() error {
		if err := sched.Tick(context.Background()); err != nil {
			logger.Errorf("tick failed: %s", err)
		}
		cr.Run()
		return nil
	})

	return nil
}
