package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"github.com/vinceanalytics/dash/internal/caches"
	"github.com/vinceanalytics/dash/internal/config"
	"github.com/vinceanalytics/dash/internal/dates"
	"github.com/vinceanalytics/dash/internal/klient"
	"github.com/vinceanalytics/dash/internal/metrics"
	"github.com/vinceanalytics/dash/internal/project"
	"github.com/vinceanalytics/dash/internal/version"
)

func Cli() *cli.Command {
	return &cli.Command{
		Name:        "dash",
		Usage:       "Query the vince metrics api the way the dashboard does",
		Description: `Fetches counters, timelines and breakdowns of a project and prints them as tables or json`,
		Version:     version.Short(),
		Flags:       config.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			slog.SetDefault(config.Logger(c.String("log-level")))
			return ctx, nil
		},
		Commands: []*cli.Command{
			countsCMD(),
			firstInteractionCMD(),
			timelineCMD(),
			timelineDataCMD(),
			pagesCMD(),
			websitesCMD(),
			rangeCMD(),
			configCMD(),
			keygenCMD(),
			version.VersionCmd(),
		},
	}
}

type session struct {
	o       *config.Options
	client  *klient.Client
	active  project.Active
	dates   *dates.Service
	cache   *caches.Cache
	metrics *metrics.Metrics
	out     io.Writer
}

func (s *session) Close() {
	s.cache.Close()
}

func open(c *cli.Command) (*session, error) {
	o, err := config.Load(c)
	if err != nil {
		return nil, err
	}
	active, err := o.Active()
	if err != nil {
		return nil, err
	}
	signer, err := o.Signer()
	if err != nil {
		return nil, err
	}
	m := metrics.New(prometheus.NewRegistry())
	cache, err := caches.New(caches.Options{TTL: o.CacheTTL, Metrics: m})
	if err != nil {
		return nil, err
	}
	svc := dates.New(nil)
	client, err := klient.New(klient.Options{
		Endpoint: o.Endpoint,
		HTTP:     &http.Client{Timeout: o.Timeout},
		Signer:   signer,
		Cache:    cache,
		Dates:    svc,
		Metrics:  m,
		Logger:   slog.Default(),
	})
	if err != nil {
		cache.Close()
		return nil, err
	}
	return &session{
		o:       o,
		client:  client,
		active:  active,
		dates:   svc,
		cache:   cache,
		metrics: m,
		out:     c.Root().Writer,
	}, nil
}

// run opens a session for the command and hands it to f.
func run(f func(ctx context.Context, c *cli.Command, s *session) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		s, err := open(c)
		if err != nil {
			return err
		}
		defer s.Close()
		return f(ctx, c, s)
	}
}
