package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"ferryboard/internal/gtfs"
	"ferryboard/internal/models"
	"ferryboard/internal/publisher"
	"ferryboard/internal/schedule"
	"ferryboard/internal/utils"
)

func departuresCommand() *cli.Command {
	return &cli.Command{
		Name:      "departures",
		Usage:     "print the departure boards once and exit",
		ArgsUsage: "[board name...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "time",
				Usage: "query time as RFC 3339 or epoch milliseconds (default: now)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print boards as JSON",
			},
		},
		Action: runDepartures,
	}
}

func runDepartures(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	targets := cfg.Targets()
	if c.Args().Present() {
		targets = nil
		for _, name := range c.Args().Slice() {
			target, ok := cfg.Target(name)
			if !ok {
				return fmt.Errorf("unknown departure board %q (configured: %s)", name, targetNames(cfg.Targets()))
			}
			targets = append(targets, target)
		}
	}

	now, fieldErrors := utils.ParseTimeParameter(c.String("time"), time.Now())
	if len(fieldErrors) > 0 {
		return fmt.Errorf("invalid --time %q", c.String("time"))
	}

	logger, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}

	// Service days resolve against the query time, not the wall clock.
	application, err := newApplication(c.Context, cfg, logger, nil,
		gtfs.WithClock(func() time.Time { return now }))
	if err != nil {
		return err
	}
	manager := application.GtfsManager
	defer manager.Shutdown()

	boards := publisher.BuildBoards(manager.Snapshot(), targets, now)
	if c.Bool("json") {
		encoder := json.NewEncoder(c.App.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(boards)
	}
	return printBoards(c.App.Writer, boards, manager.Location())
}

// printBoards writes each board as a header line carrying its state, followed
// by one row per departure.
func printBoards(w io.Writer, boards []models.DepartureBoard, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, board := range boards {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\t%s\n", board.Name, boardState(board))
		for _, departure := range board.Departures {
			scheduled := time.UnixMilli(departure.ScheduledDepartureTime).In(loc)
			expected := ""
			if departure.PredictedDepartureTime != 0 {
				expected = "expected " + time.UnixMilli(departure.PredictedDepartureTime).In(loc).Format("15:04")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
				scheduled.Format("Mon 15:04"), departure.TripID, fmt.Sprintf("in %d min", departure.MinutesUntilDeparture), expected)
		}
	}
	return tw.Flush()
}

func boardState(board models.DepartureBoard) string {
	if board.State == nil {
		return "no departures"
	}
	return fmt.Sprintf("%d min", *board.State)
}

func targetNames(targets []schedule.Target) string {
	names := make([]string, 0, len(targets))
	for _, target := range targets {
		names = append(names, target.Name)
	}
	return strings.Join(names, ", ")
}
