package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"emperror.dev/errors"
	"github.com/leeineian/qotd/card"
	"github.com/leeineian/qotd/proc"
	"github.com/leeineian/qotd/sys"
	"github.com/urfave/cli/v2"
)

var cardCommand = &cli.Command{
	Name:  "card",
	Usage: "Render an announcement card to a file without connecting to Discord",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "Quote text", Required: true},
		&cli.StringFlag{Name: "quote-by", Usage: "Quote author", Value: "Unknown"},
		&cli.StringFlag{Name: "icon-by", Usage: "Icon author", Value: "Unknown"},
		&cli.StringFlag{Name: "icon", Usage: "Path to the icon image", Required: true},
		&cli.StringFlag{Name: "out", Usage: "Output PNG path", Value: "update.png"},
		&cli.StringFlag{Name: "font-dir", Usage: "Directory holding the font files (defaults to FONT_DIR)"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := sys.LoadEnvConfig()
		if err != nil {
			return errors.Wrap(err, "loading config")
		}
		fontDir := cfg.FontDir
		if dir := c.String("font-dir"); dir != "" {
			fontDir = dir
		}

		icon, err := os.ReadFile(c.String("icon"))
		if err != nil {
			return errors.Wrap(err, "reading icon")
		}

		out, err := card.NewRenderer(fontDir).Render(c.String("title"), c.String("quote-by"), c.String("icon-by"), icon)
		if err != nil {
			return errors.Wrap(err, "rendering card")
		}
		if err := os.WriteFile(c.String("out"), out, 0644); err != nil {
			return errors.Wrap(err, "writing card")
		}
		sys.LogCard("Wrote %s (%d bytes)", c.String("out"), len(out))
		return nil
	},
}

var nextCommand = &cli.Command{
	Name:  "next",
	Usage: "Show when the daily jobs run next",
	Action: func(c *cli.Context) error {
		cfg, err := sys.LoadEnvConfig()
		if err != nil {
			return errors.Wrap(err, "loading config")
		}

		now := time.Now()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "JOB\tAT\tNEXT RUN\tIN")
		for _, s := range proc.Schedules(cfg, nil) {
			if !s.Enabled {
				fmt.Fprintf(w, "%s\t%s\tdisabled\t-\n", s.Name, s.At)
				continue
			}
			next := proc.NextOccurrence(now, s.At, cfg.Location)
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2fh\n", s.Name, s.At, next.Format(time.RFC1123), next.Sub(now).Hours())
		}
		return w.Flush()
	},
}

var historyCommand = &cli.Command{
	Name:  "history",
	Usage: "List the most recent quote and song runs",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Usage: "Number of runs to show", Value: 20},
	},
	Action: func(c *cli.Context) error {
		cfg, err := sys.LoadEnvConfig()
		if err != nil {
			return errors.Wrap(err, "loading config")
		}
		if err := sys.InitDatabase(c.Context, cfg.DatabasePath); err != nil {
			return errors.Wrap(err, "initializing database")
		}
		defer sys.CloseDatabase()

		runs, err := sys.GetRecentRuns(c.Context, c.Int("limit"))
		if err != nil {
			return errors.Wrap(err, "reading runs")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tACTION\tTRIGGER\tAUTHOR\tPAYLOAD")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.CreatedAt.In(cfg.Location).Format("2006-01-02 15:04"), r.Action, r.Trigger, r.Author, r.Payload)
		}
		return w.Flush()
	},
}
