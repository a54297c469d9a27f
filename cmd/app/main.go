package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "wordmd",
		Usage: "Edit the markdown embedded in Word documents with your favourite editor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (YAML or TOML)",
				DefaultText: "~/.wordmd/config.yaml",
				Sources:     cli.EnvVars("WORDMD_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			editCommand(),
			editorsCommand(),
			extractCommand(),
			embedCommand(),
			historyCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
