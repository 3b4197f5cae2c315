package cmd

import (
	"fmt"

	"github.com/urfave/cli"
)

var ChannelCmd = cli.Command{
	Name:  "channel",
	Usage: "Shows or sets the alert notification destination",
	Subcommands: []cli.Command{
		{
			Name:      "set",
			Usage:     "Sets the notification destination; overwrites any previous one",
			ArgsUsage: "<channel>",
			Action:    setChannel,
		},
		{
			Name:   "show",
			Usage:  "Shows the configured notification destination",
			Action: showChannel,
		},
		{
			Name:   "clear",
			Usage:  "Removes the notification destination; alerts stop being delivered",
			Action: clearChannel,
		},
	},
}

func setChannel(c *cli.Context) error {
	channel := c.Args().First()
	if channel == "" {
		return fmt.Errorf("a channel identity is required")
	}
	st := openStore(storePath(c), nil, errFn)
	if err := st.SetChannel(channel); err != nil {
		return err
	}
	info("alerts will be delivered to %s", channel)
	return nil
}

func showChannel(c *cli.Context) error {
	st := openStore(storePath(c), nil, errFn)
	state, err := st.State()
	if err != nil {
		return err
	}
	if state.AlertChannel == "" {
		info("no alert channel configured")
		return nil
	}
	info("%s", state.AlertChannel)
	return nil
}

func clearChannel(c *cli.Context) error {
	st := openStore(storePath(c), nil, errFn)
	if err := st.SetChannel(""); err != nil {
		return err
	}
	info("alert channel cleared")
	return nil
}
