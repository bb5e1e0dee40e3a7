package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"
	"github.com/vinceanalytics/dash/internal/cmd/output"
	"github.com/vinceanalytics/dash/internal/dates"
	"github.com/vinceanalytics/dash/internal/klient"
	"github.com/vinceanalytics/dash/internal/timeline"
	"github.com/vinceanalytics/dash/internal/timeutil"
)

func sliceFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "slice",
		Usage: "bucket width, values are (hour,day,week,month,year)",
		Value: string(timeutil.Day),
	}
}

func rangeFlags() []cli.Flag {
	return []cli.Flag{
		sliceFlag(),
		&cli.StringFlag{
			Name:  "from",
			Usage: "start of the range, defaults to the lookback window of the slice",
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "end of the range, defaults to now",
		},
	}
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "limit",
		Usage: "maximum number of rows",
		Value: klient.DefaultLimit,
	}
}

func countsCMD() *cli.Command {
	return &cli.Command{
		Name:  "counts",
		Usage: "prints the aggregate counters of the project",
		Action: run(func(ctx context.Context, c *cli.Command, s *session) error {
			o, err := s.client.Counts(ctx, s.active)
			if err != nil {
				return err
			}
			if s.o.JSON {
				return output.JSON(s.out, o)
			}
			output.Counts(s.out, o)
			return nil
		}),
	}
}

func firstInteractionCMD() *cli.Command {
	return &cli.Command{
		Name:  "first-interaction",
		Usage: "reports whether the project received any event",
		Action: run(func(ctx context.Context, c *cli.Command, s *session) error {
			ok, err := s.client.FirstInteraction(ctx, s.active)
			if err != nil {
				return err
			}
			if s.o.JSON {
				return output.JSON(s.out, ok)
			}
			_, err = fmt.Fprintln(s.out, strconv.FormatBool(ok))
			return err
		}),
	}
}

func timelineCMD() *cli.Command {
	return &cli.Command{
		Name:      "timeline",
		Usage:     "prints the raw points of a timeline endpoint",
		ArgsUsage: "<endpoint>",
		Flags: append(rangeFlags(),
			&cli.StringFlag{
				Name:  "referrer",
				Usage: "restrict the referrers timeline to this referrer",
			},
			&cli.BoolFlag{
				Name:  "fill",
				Usage: "add the buckets missing from the response",
			},
		),
		Action: run(func(ctx context.Context, c *cli.Command, s *session) error {
			slice, err := timeutil.ParseSlice(c.String("slice"))
			if err != nil {
				return err
			}
			from, to := dates.String(c.String("from")), dates.String(c.String("to"))
			var points []timeline.Point
			if ref := c.String("referrer"); ref != "" {
				points, err = s.client.ReferrersTimeline(ctx, s.active, ref, slice, from, to)
			} else {
				endpoint := c.Args().First()
				if endpoint == "" {
					return errors.New("missing timeline endpoint")
				}
				points, err = s.client.TimelineAdvanced(ctx, s.active, endpoint, slice, from, to, nil)
			}
			if err != nil {
				return err
			}
			if c.Bool("fill") {
				r, err := s.dates.PrepareDateRange(from, to, slice)
				if err != nil {
					return err
				}
				points, err = timeline.Fill(points, r, slice)
				if err != nil {
					return err
				}
			}
			if s.o.JSON {
				return output.JSON(s.out, points)
			}
			output.Points(s.out, points)
			return nil
		}),
	}
}

func timelineDataCMD() *cli.Command {
	return &cli.Command{
		Name:      "timeline-data",
		Usage:     "prints a timeline over the backend default range with every bucket present",
		ArgsUsage: "<endpoint>",
		Flags:     []cli.Flag{sliceFlag()},
		Action: run(func(ctx context.Context, c *cli.Command, s *session) error {
			slice, err := timeutil.ParseSlice(c.String("slice"))
			if err != nil {
				return err
			}
			endpoint := c.Args().First()
			if endpoint == "" {
				return errors.New("missing timeline endpoint")
			}
			series, err := s.client.TimelineData(ctx, s.active, endpoint, slice)
			if err != nil {
				return err
			}
			if series == nil {
				_, err = fmt.Fprintln(s.out, "no data")
				return err
			}
			if s.o.JSON {
				return output.JSON(s.out, series)
			}
			output.Points(s.out, series)
			return nil
		}),
	}
}

func pagesCMD() *cli.Command {
	return &cli.Command{
		Name:  "pages",
		Usage: "prints the most visited pages of a website",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "website",
				Usage:    "website name",
				Required: true,
			},
			limitFlag(),
		},
		Action: run(func(ctx context.Context, c *cli.Command, s *session) error {
			ls, err := s.client.PagesData(ctx, s.active, c.String("website"), int(c.Int("limit")))
			if err != nil {
				return err
			}
			if s.o.JSON {
				return output.JSON(s.out, ls)
			}
			output.Aggregated(s.out, "page", ls)
			return nil
		}),
	}
}

func websitesCMD() *cli.Command {
	return &cli.Command{
		Name:  "websites",
		Usage: "prints the most visited websites within the snapshot",
		Flags: []cli.Flag{limitFlag()},
		Action: run(func(ctx context.Context, c *cli.Command, s *session) error {
			ls, err := s.client.WebsitesData(ctx, s.active, int(c.Int("limit")))
			if err != nil {
				return err
			}
			if s.o.JSON {
				return output.JSON(s.out, ls)
			}
			output.Aggregated(s.out, "website", ls)
			return nil
		}),
	}
}

func rangeCMD() *cli.Command {
	return &cli.Command{
		Name:  "range",
		Usage: "prints the normalized date range sent for a slice without calling the api",
		Flags: append(rangeFlags(), &cli.BoolFlag{
			Name:  "buckets",
			Usage: "list the bucket identifiers of the range",
		}),
		Action: func(ctx context.Context, c *cli.Command) error {
			slice, err := timeutil.ParseSlice(c.String("slice"))
			if err != nil {
				return err
			}
			r, err := dates.New(nil).Prepare(c.String("from"), c.String("to"), slice)
			if err != nil {
				return err
			}
			out := c.Root().Writer
			if c.Bool("json") {
				return output.JSON(out, r)
			}
			rows := [][]string{
				{"slice", string(slice)},
				{"from", dates.Format(r.From)},
				{"to", dates.Format(r.To)},
				{"buckets", strconv.Itoa(timeutil.Count(slice, r.From, r.To))},
			}
			if c.Bool("buckets") {
				for ts := range timeutil.Buckets(slice, r.From, r.To) {
					rows = append(rows, []string{"", timeutil.ID(slice, ts)})
				}
			}
			output.Tab(out, []string{"key", "value"}, rows)
			return nil
		},
	}
}
