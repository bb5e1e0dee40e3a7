// Package config resolves the settings of the dash command from flags, environment
// variables and an optional yaml file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/vinceanalytics/dash/internal/dates"
	"github.com/vinceanalytics/dash/internal/project"
	"github.com/vinceanalytics/dash/internal/tokens"
	"gopkg.in/yaml.v2"
)

const FILE = "dash.yml"

type Options struct {
	Endpoint     string        `yaml:"endpoint"`
	Project      string        `yaml:"project"`
	Token        string        `yaml:"token,omitempty"`
	SigningKey   string        `yaml:"signing_key,omitempty"`
	Subject      string        `yaml:"subject,omitempty"`
	LogLevel     string        `yaml:"log_level"`
	Timeout      time.Duration `yaml:"timeout"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	SnapshotFrom string        `yaml:"snapshot_from,omitempty"`
	SnapshotTo   string        `yaml:"snapshot_to,omitempty"`
	JSON         bool          `yaml:"json,omitempty"`
}

func Defaults() *Options {
	return &Options{
		Endpoint: "http://localhost:3000/api",
		LogLevel: "info",
		Timeout:  30 * time.Second,
		CacheTTL: 5 * time.Minute,
	}
}

func Logger(level string) *slog.Logger {
	var lvl slog.Level
	lvl.UnmarshalText([]byte(level))
	return slog.New(slog.NewTextHandler(
		os.Stderr, &slog.HandlerOptions{
			Level: lvl,
		},
	))
}

func Flags() []cli.Flag {
	o := Defaults()
	return []cli.Flag{
		&cli.StringFlag{
			Category: "backend",
			Name:     "endpoint",
			Usage:    "base url of the metrics api",
			Value:    o.Endpoint,
			Sources:  cli.EnvVars("DASH_ENDPOINT"),
		},
		&cli.StringFlag{
			Category: "backend",
			Name:     "project",
			Usage:    "id of the active project",
			Sources:  cli.EnvVars("DASH_PROJECT"),
		},
		&cli.DurationFlag{
			Category: "backend",
			Name:     "timeout",
			Usage:    "timeout of a single request to the metrics api",
			Value:    o.Timeout,
			Sources:  cli.EnvVars("DASH_TIMEOUT"),
		},
		&cli.DurationFlag{
			Category: "backend",
			Name:     "cache-ttl",
			Usage:    "how long cached reads are kept",
			Value:    o.CacheTTL,
			Sources:  cli.EnvVars("DASH_CACHE_TTL"),
		},
		&cli.StringFlag{
			Category: "auth",
			Name:     "token",
			Usage:    "bearer token sent with every request",
			Sources:  cli.EnvVars("DASH_TOKEN"),
		},
		&cli.StringFlag{
			Category: "auth",
			Name:     "signing-key",
			Usage:    "path to a PEM encoded ed25519 key used to sign short lived tokens",
			Sources:  cli.EnvVars("DASH_SIGNING_KEY"),
		},
		&cli.StringFlag{
			Category: "auth",
			Name:     "subject",
			Usage:    "subject of signed tokens",
			Sources:  cli.EnvVars("DASH_SUBJECT"),
		},
		&cli.StringFlag{
			Category: "snapshot",
			Name:     "snapshot-from",
			Usage:    "start of the dashboard snapshot",
			Sources:  cli.EnvVars("DASH_SNAPSHOT_FROM"),
		},
		&cli.StringFlag{
			Category: "snapshot",
			Name:     "snapshot-to",
			Usage:    "end of the dashboard snapshot",
			Sources:  cli.EnvVars("DASH_SNAPSHOT_TO"),
		},
		&cli.StringFlag{
			Category: "core",
			Name:     "log-level",
			Usage:    "log level, values are (debug,info,warn,error)",
			Value:    o.LogLevel,
			Sources:  cli.EnvVars("DASH_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Category: "core",
			Name:     "json",
			Usage:    "print results as json",
			Sources:  cli.EnvVars("DASH_JSON"),
		},
		&cli.StringFlag{
			Category: "core",
			Name:     "config",
			Usage:    "path to configuration file",
			Value:    FILE,
			Sources:  cli.EnvVars("DASH_CONFIG"),
		},
	}
}

// Load builds Options from the parsed command. Values from the configuration file
// apply to every setting whose flag was not given explicitly. A missing file is
// ignored unless its path was set.
func Load(c *cli.Command) (*Options, error) {
	o := &Options{
		Endpoint:     c.String("endpoint"),
		Project:      c.String("project"),
		Token:        c.String("token"),
		SigningKey:   c.String("signing-key"),
		Subject:      c.String("subject"),
		LogLevel:     c.String("log-level"),
		Timeout:      c.Duration("timeout"),
		CacheTTL:     c.Duration("cache-ttl"),
		SnapshotFrom: c.String("snapshot-from"),
		SnapshotTo:   c.String("snapshot-to"),
		JSON:         c.Bool("json"),
	}
	path := c.String("config")
	if path == "" {
		return o, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !c.IsSet("config") {
			return o, nil
		}
		return nil, err
	}
	if err := Merge(o, b, c.IsSet); err != nil {
		return nil, fmt.Errorf("invalid configuration file %s: %w", path, err)
	}
	return o, nil
}

// Merge copies the settings found in the yaml document b into o, except for the
// ones reported as set by isSet.
func Merge(o *Options, b []byte, isSet func(name string) bool) error {
	var f Options
	if err := yaml.UnmarshalStrict(b, &f); err != nil {
		return err
	}
	str := func(name string, dst *string, v string) {
		if v != "" && !isSet(name) {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration, v time.Duration) {
		if v != 0 && !isSet(name) {
			*dst = v
		}
	}
	str("endpoint", &o.Endpoint, f.Endpoint)
	str("project", &o.Project, f.Project)
	str("token", &o.Token, f.Token)
	str("signing-key", &o.SigningKey, f.SigningKey)
	str("subject", &o.Subject, f.Subject)
	str("log-level", &o.LogLevel, f.LogLevel)
	str("snapshot-from", &o.SnapshotFrom, f.SnapshotFrom)
	str("snapshot-to", &o.SnapshotTo, f.SnapshotTo)
	dur("timeout", &o.Timeout, f.Timeout)
	dur("cache-ttl", &o.CacheTTL, f.CacheTTL)
	if f.JSON && !isSet("json") {
		o.JSON = true
	}
	return nil
}

// Marshal encodes o as a configuration file. Secrets are left out.
func Marshal(o *Options) ([]byte, error) {
	x := *o
	x.Token = ""
	return yaml.Marshal(&x)
}

// Signer returns the request signer described by o.
func (o *Options) Signer() (tokens.Signer, error) {
	var chain tokens.Chain
	if o.Token != "" {
		chain = append(chain, tokens.Bearer(o.Token))
	}
	if o.SigningKey != "" {
		key, err := tokens.LoadKey(o.SigningKey)
		if err != nil {
			return nil, fmt.Errorf("loading signing key: %w", err)
		}
		chain = append(chain, &tokens.JWT{
			Key:     key,
			Subject: o.Subject,
			TTL:     time.Minute,
		})
	}
	return chain, nil
}

// Active returns the project context described by o.
func (o *Options) Active() (project.Active, error) {
	a := project.Active{ID: o.Project}
	if err := a.Validate(); err != nil {
		return project.Active{}, err
	}
	if o.SnapshotFrom != "" {
		ts, err := dates.ParseDate(o.SnapshotFrom)
		if err != nil {
			return project.Active{}, fmt.Errorf("snapshot-from: %w", err)
		}
		a.Snapshot.From = ts
	}
	if o.SnapshotTo != "" {
		ts, err := dates.ParseDate(o.SnapshotTo)
		if err != nil {
			return project.Active{}, fmt.Errorf("snapshot-to: %w", err)
		}
		a.Snapshot.To = ts
	}
	if !a.Snapshot.From.IsZero() && !a.Snapshot.To.IsZero() {
		if err := a.Snapshot.Validate(); err != nil {
			return project.Active{}, err
		}
	}
	return a, nil
}
