package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newCLI(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ferryboard:", err)
		os.Exit(1)
	}
}

func newCLI(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "ferryboard",
		Usage:     "upcoming ferry departures from GTFS and GTFS-realtime feeds",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "ferryboard.yaml",
				EnvVars: []string{"FERRYBOARD_CONFIG"},
				Usage:   "path to the YAML config file",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			departuresCommand(),
		},
	}
}
