package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/doclife/internal"
	"github.com/starford/doclife/internal/docservice"
	pkgconfig "github.com/starford/doclife/pkg/config"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "doclife",
		Usage:   "Track design documents through draft, approved, in-progress, implemented and staged",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "doclife.yaml",
				Value:       "doclife.yaml",
				Sources:     cli.EnvVars("DOCLIFE_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "root",
				Usage:   "Project root, overrides docs.root",
				Sources: cli.EnvVars("DOCLIFE_ROOT"),
			},
		},
		Commands: []*cli.Command{
			rangeCommand("scan", "Evaluate every managed document", func(ctx context.Context, svc *docservice.Service, rng string) (any, error) {
				return svc.Scan(ctx, rng)
			}),
			rangeCommand("report", "Aggregated lifecycle report", func(ctx context.Context, svc *docservice.Service, rng string) (any, error) {
				return svc.Report(ctx, rng)
			}),
			rangeCommand("transition", "Show pending transitions without changing files", func(ctx context.Context, svc *docservice.Service, rng string) (any, error) {
				return svc.Plan(ctx, rng)
			}),
			{
				Name:      "apply",
				Usage:     "Rewrite status headers and move documents into their lifecycle folders",
				ArgsUsage: "[range]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "Report without changing files"},
				},
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *docservice.Service) (any, error) {
					return svc.Apply(ctx, cmd.Args().First(), cmd.Bool("dry-run"))
				}),
			},
			{
				Name:      "completion",
				Usage:     "Checklist completion of one document",
				ArgsUsage: "<path>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *docservice.Service) (any, error) {
					p, err := requireArg(cmd, "path")
					if err != nil {
						return nil, err
					}
					return svc.Completion(ctx, p), nil
				}),
			},
			{
				Name:      "status",
				Usage:     "Detected lifecycle state of one document",
				ArgsUsage: "<path>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *docservice.Service) (any, error) {
					p, err := requireArg(cmd, "path")
					if err != nil {
						return nil, err
					}
					return svc.Status(ctx, p), nil
				}),
			},
			{
				Name:      "ensure-folders",
				Usage:     "Create the lifecycle folders under a directory",
				ArgsUsage: "<dir>",
				Action: withService(func(ctx context.Context, cmd *cli.Command, svc *docservice.Service) (any, error) {
					dir, err := requireArg(cmd, "dir")
					if err != nil {
						return nil, err
					}
					return svc.EnsureFolders(ctx, dir), nil
				}),
			},
			{
				Name:  "documents",
				Usage: "List managed documents",
				Action: withService(func(ctx context.Context, _ *cli.Command, svc *docservice.Service) (any, error) {
					docs, err := svc.ManagedDocuments(ctx)
					if err != nil {
						return nil, err
					}
					return map[string]any{"documents": docs, "total": len(docs)}, nil
				}),
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live updates",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}
}

type serviceAction func(ctx context.Context, cmd *cli.Command, svc *docservice.Service) (any, error)

// withService loads configuration, builds the service with a stderr logger,
// runs fn and writes its result to stdout as JSON.
func withService(fn serviceAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
		shutdown, err := internal.InitTelemetry(ctx, cfg, version)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
			}
		}()
		svc, err := internal.NewService(cfg, logger)
		if err != nil {
			return err
		}
		out, err := fn(ctx, cmd, svc)
		if err != nil {
			return err
		}
		return writeJSON(writer(cmd), out)
	}
}

func rangeCommand(name, usage string, fn func(ctx context.Context, svc *docservice.Service, rng string) (any, error)) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "[range]",
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *docservice.Service) (any, error) {
			return fn(ctx, svc, cmd.Args().First())
		}),
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// The flag wins over the file.
	if root := cmd.String("root"); root != "" {
		cfg.Docs.Root = root
	}
	return cfg, nil
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.Args().First()
	if v == "" {
		return "", errors.New(name + " is required")
	}
	return v, nil
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
