package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/wordmd/internal"
	"github.com/starford/wordmd/internal/container"
	"github.com/starford/wordmd/internal/convert"
	"github.com/starford/wordmd/internal/editor"
	"github.com/starford/wordmd/internal/session"
	pkgconfig "github.com/starford/wordmd/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	if path == "" {
		if err := pkgconfig.LoadOptional(internal.DefaultConfigPath(), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		return cfg, nil
	}
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func requireArgs(cmd *cli.Command, n int) error {
	if cmd.Args().Len() < n {
		return fmt.Errorf("%s: expected %s", cmd.Name, cmd.ArgsUsage)
	}
	return nil
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Open a document's markdown in an editor and sync every save back",
		ArgsUsage: "<document.docx> [editor]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			opts := []internal.Option{
				internal.WithConfig(cfg),
				internal.WithDocument(cmd.Args().Get(0)),
				internal.WithEditor(cmd.Args().Get(1)),
				internal.WithReport(func(out session.Outcome) {
					fmt.Fprintf(os.Stdout, "%s: %d commit(s), session %s\n", out.State, out.Commits, out.SessionID)
					if n := len(out.Warnings); n > 0 {
						fmt.Fprintf(os.Stdout, "%d markdown construct(s) could not be rendered in Word\n", n)
					}
				}),
			}
			if err := internal.Run(ctx, opts...); err != nil {
				if session.IsBusy(err) {
					return fmt.Errorf("document is already open in another wordmd session: %w", err)
				}
				return fmt.Errorf("edit session: %w", err)
			}
			return nil
		},
	}
}

func editorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "editors",
		Usage: "List supported editors and where they are installed",
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			registry := editor.NewConfigRegistry(cfg.EditorDefinitions())

			var rows [][]string
			for _, a := range registry.List() {
				name := a.Name
				if strings.EqualFold(a.Name, cfg.DefaultEditor) {
					name += " (default)"
				}
				status, path := "missing", "-"
				if a.Installed {
					status, path = "installed", a.Path
				}
				if a.Template().IsURI() {
					status += ", uri"
				}
				rows = append(rows, []string{name, a.Title(), status, path})
			}
			fmt.Fprint(os.Stdout, renderTable(
				[]string{"Name", "Editor", "Status", "Path"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintln(os.Stdout)
			return nil
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Write a document's markdown and assets to a directory",
		ArgsUsage: "<document.docx> <dir>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 2); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store := container.NewStore(internal.NewLogger(cfg.App, os.Stderr))
			dir := cmd.Args().Get(1)
			content, err := store.Extract(cmd.Args().Get(0), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Extracted %d bytes of markdown and %d asset(s) to %s\n",
				len(content.Markdown), len(content.Assets), dir)
			return nil
		},
	}
}

func embedCommand() *cli.Command {
	return &cli.Command{
		Name:      "embed",
		Usage:     "Embed a directory's markdown and assets into a document and re-render its body",
		ArgsUsage: "<document.docx> <dir>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 2); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := internal.NewLogger(cfg.App, os.Stderr)
			content, err := container.ReadStagingDirectory(cmd.Args().Get(1))
			if err != nil {
				return fmt.Errorf("read %s: %w", cmd.Args().Get(1), err)
			}
			conv := convert.New(convert.WithLogger(logger), convert.WithFrontMatter(cfg.Convert.StripFrontMatter))
			render, warnings := conv.Prepare(content.Markdown)
			doc := cmd.Args().Get(0)
			if err := container.NewStore(logger).Embed(doc, content.Markdown, content.Assets, render); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Embedded %d bytes of markdown and %d asset(s) into %s\n",
				len(content.Markdown), len(content.Assets), doc)
			if len(warnings) > 0 {
				fmt.Fprintf(os.Stdout, "%d markdown construct(s) could not be rendered in Word\n", len(warnings))
			}
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent edit sessions",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of sessions to show",
				Value:   20,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db := internal.OpenJournal(cfg.Journal.Path, internal.NewLogger(cfg.App, os.Stderr))
			if db == nil {
				return internal.ErrNoJournal
			}
			defer db.Close()

			sessions, err := db.Recent(int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(os.Stdout, "No sessions recorded")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				duration := "-"
				if !s.FinishedAt.IsZero() {
					duration = s.FinishedAt.Sub(s.StartedAt).Truncate(time.Second).String()
				}
				rows = append(rows, []string{
					s.StartedAt.Local().Format("2006-01-02 15:04"),
					s.Container,
					s.Editor,
					s.State,
					strconv.Itoa(s.Commits),
					duration,
					s.Error,
				})
			}
			fmt.Fprint(os.Stdout, renderTable(
				[]string{"Started", "Document", "Editor", "State", "Commits", "Duration", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintln(os.Stdout)
			slog.Debug("history listed", slog.Int("sessions", len(sessions)))
			return nil
		},
	}
}
