package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/vinceanalytics/dash/internal/config"
	"github.com/vinceanalytics/dash/internal/tokens"
)

func configCMD() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "prints the effective configuration as yaml, tokens are left out",
		Action: func(ctx context.Context, c *cli.Command) error {
			o, err := config.Load(c)
			if err != nil {
				return err
			}
			b, err := config.Marshal(o)
			if err != nil {
				return err
			}
			_, err = c.Root().Writer.Write(b)
			return err
		},
	}
}

func keygenCMD() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "generates a PEM encoded ed25519 key for --signing-key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "write the key to this file instead of stdout",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			b, err := tokens.GenerateKey()
			if err != nil {
				return err
			}
			if path := c.String("out"); path != "" {
				return os.WriteFile(path, b, 0600)
			}
			_, err = c.Root().Writer.Write(b)
			return err
		},
	}
}
