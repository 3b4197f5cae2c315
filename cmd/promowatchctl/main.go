package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/promowatch/promowatch/internal/cmd"
)

func main() {
	var err error

	ctl := cli.App{
		Name:    fmt.Sprintf("%sctl", cmd.AppName),
		Version: cmd.AppVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "The path for storage",
				Value: cmd.DataPath(),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "The path of the configuration file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Output debug messages",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Do not save events or send alerts",
			},
		},
		Commands: []cli.Command{
			cmd.FetchCmd,
			cmd.ListCmd,
			cmd.ChannelCmd,
			cmd.WatchCmd,
			cmd.AuthorizeCmd,
		},
	}

	err = ctl.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
