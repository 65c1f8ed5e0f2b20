package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultport/internal"
	pkgconfig "github.com/starford/vaultport/pkg/config"
)

var version = "dev"

// options loads the config file (optional) and applies the flags shared
// by every command.
func options(cmd *cli.Command) ([]internal.Option, *internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.Bool("catalog") {
		cfg.Convert.Catalog = true
	}
	if cmd.Bool("skip-unchanged") {
		cfg.Convert.Catalog = true
		cfg.Convert.SkipUnchanged = true
	}
	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVerbose(cmd.Bool("verbose")),
		internal.WithVersion(version),
	}
	return opts, cfg, nil
}

// paths overrides convert.source and convert.dest from positional args.
func paths(cmd *cli.Command, cfg *internal.Config, required bool) error {
	switch {
	case cmd.Args().Len() >= 2:
		cfg.Convert.Source = cmd.Args().Get(0)
		cfg.Convert.Dest = cmd.Args().Get(1)
	case required:
		return fmt.Errorf("usage: %s %s", cmd.FullName(), cmd.ArgsUsage)
	}
	return nil
}

func convert(ctx context.Context, cmd *cli.Command) error {
	opts, cfg, err := options(cmd)
	if err != nil {
		return err
	}
	if err := paths(cmd, cfg, true); err != nil {
		return err
	}
	res, err := internal.Run(ctx, opts...)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	fmt.Printf("converted %d documents, %d databases, %d assets; linked %d pages; %d failed\n",
		res.Documents, res.Databases, res.Assets, res.Linked, res.Failed)
	return nil
}

func watchTree(ctx context.Context, cmd *cli.Command) error {
	opts, cfg, err := options(cmd)
	if err != nil {
		return err
	}
	if err := paths(cmd, cfg, false); err != nil {
		return err
	}
	return internal.Watch(ctx, opts...)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, cfg, err := options(cmd)
	if err != nil {
		return err
	}
	if err := paths(cmd, cfg, false); err != nil {
		return err
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.App.HTTP.Port = int(port)
	}
	if err := internal.Serve(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, cfg, err := options(cmd)
	if err != nil {
		return err
	}
	if err := paths(cmd, cfg, false); err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func lint(ctx context.Context, cmd *cli.Command) error {
	opts, _, err := options(cmd)
	if err != nil {
		return err
	}
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: %s %s", cmd.FullName(), cmd.ArgsUsage)
	}
	mode := internal.LintFix
	switch {
	case cmd.Bool("validate"):
		mode = internal.LintValidate
	case cmd.Bool("check"):
		mode = internal.LintCheck
	}
	return internal.LintFile(ctx, cmd.Args().First(), mode, opts...)
}

func table(ctx context.Context, cmd *cli.Command) error {
	opts, _, err := options(cmd)
	if err != nil {
		return err
	}
	inline := cmd.Bool("inline")
	if cmd.Args().Len() < 1 || (!inline && cmd.Args().Len() < 2) {
		return fmt.Errorf("usage: %s %s", cmd.FullName(), cmd.ArgsUsage)
	}
	return internal.ConvertTable(ctx, cmd.Args().Get(0), cmd.Args().Get(1), inline, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:      "vaultport",
		Usage:     "Convert a Notion export into an Obsidian vault with a consistent house style",
		Version:   version,
		ArgsUsage: "SRC DST",
		Action:    convert,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log at debug level",
			},
			&cli.BoolFlag{
				Name:  "catalog",
				Usage: "Record conversions in the SQLite catalog",
			},
			&cli.BoolFlag{
				Name:  "skip-unchanged",
				Usage: "Skip documents whose source is unchanged since the last cataloged run",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "watch",
				Usage:     "Convert, then keep the vault in step with the export tree",
				ArgsUsage: "[SRC DST]",
				Action:    watchTree,
			},
			{
				Name:      "serve",
				Usage:     "Serve the HTTP API over a continuously converted vault",
				ArgsUsage: "[SRC DST]",
				Action:    serve,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP port (overrides app.http.port)",
					},
				},
			},
			{
				Name:      "mcp",
				Usage:     "Serve the MCP tools on stdin/stdout",
				ArgsUsage: "[SRC DST]",
				Action:    serveMCP,
			},
			{
				Name:      "lint",
				Usage:     "Normalize one Markdown file against the house style",
				ArgsUsage: "FILE",
				Action:    lint,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "check", Usage: "Exit 1 if the file would change"},
					&cli.BoolFlag{Name: "validate", Usage: "Print issues and exit 1 if there are any"},
				},
			},
			{
				Name:      "database",
				Usage:     "Project one CSV database into notes",
				ArgsUsage: "CSV OUTDIR",
				Action:    table,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "inline", Usage: "Print a single Markdown table instead"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
