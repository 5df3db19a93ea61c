package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/wikigraph/internal"
	"github.com/starford/wikigraph/internal/linkservice"
	pkgconfig "github.com/starford/wikigraph/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
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
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

// queryService builds a service for one-shot commands. The config file is
// optional here; without it any absolute vault path is accepted.
func queryService(cmd *cli.Command) (*linkservice.Service, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	logger := internal.NewLogger(os.Stderr, slog.LevelWarn)
	return internal.NewLinkService(cfg, logger), nil
}

// vaultArg returns the --vault flag as an absolute path, or the only
// configured root when the flag is empty.
func vaultArg(cmd *cli.Command, svc *linkservice.Service) (string, error) {
	v := cmd.String("vault")
	if v == "" {
		return svc.VaultOrDefault(""), nil
	}
	abs, err := filepath.Abs(v)
	if err != nil {
		return "", fmt.Errorf("vault path: %w", err)
	}
	return abs, nil
}

// readInput returns the content of the file named by the first argument, or
// stdin when it is empty or "-".
func readInput(cmd *cli.Command) (string, error) {
	name := cmd.Args().First()
	if name == "" || name == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// query wraps a one-shot command that needs a service and a vault.
func query(fn func(ctx context.Context, cmd *cli.Command, svc *linkservice.Service, vaultPath string) (any, error)) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		svc, err := queryService(cmd)
		if err != nil {
			return err
		}
		vaultPath, err := vaultArg(cmd, svc)
		if err != nil {
			return err
		}
		out, err := fn(ctx, cmd, svc, vaultPath)
		if err != nil {
			return err
		}
		return printJSON(out)
	}
}

func vaultFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "vault",
		Usage:   "Vault root directory (defaults to the only configured root)",
		Sources: cli.EnvVars("WIKIGRAPH_VAULT"),
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "wikigraph",
		Usage:   "Wikilink graph over Markdown vaults: links, backlinks and file trees",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, vault watchers and event stream",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the link graph tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:      "parse",
				Usage:     "Print the wikilinks of a Markdown text",
				ArgsUsage: "[FILE|-]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					content, err := readInput(cmd)
					if err != nil {
						return err
					}
					svc, err := queryService(cmd)
					if err != nil {
						return err
					}
					return printJSON(svc.ParseLinks(ctx, content))
				},
			},
			{
				Name:  "resolve",
				Usage: "Resolve a link target to a note path",
				Flags: []cli.Flag{
					vaultFlag(),
					&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "Link target, e.g. Folder/Note", Required: true},
				},
				Action: query(func(ctx context.Context, cmd *cli.Command, svc *linkservice.Service, vaultPath string) (any, error) {
					return svc.Resolve(ctx, vaultPath, cmd.String("target"))
				}),
			},
			{
				Name:  "backlinks",
				Usage: "List the notes that link to a note",
				Flags: []cli.Flag{
					vaultFlag(),
					&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Note name without extension", Required: true},
				},
				Action: query(func(ctx context.Context, cmd *cli.Command, svc *linkservice.Service, vaultPath string) (any, error) {
					return svc.Backlinks(ctx, vaultPath, cmd.String("note"))
				}),
			},
			{
				Name:  "tree",
				Usage: "Print the folder and note tree of a vault",
				Flags: []cli.Flag{vaultFlag()},
				Action: query(func(ctx context.Context, _ *cli.Command, svc *linkservice.Service, vaultPath string) (any, error) {
					return svc.Tree(ctx, vaultPath)
				}),
			},
			{
				Name:      "outgoing",
				Usage:     "Group the links of a text by target and resolve each one",
				ArgsUsage: "[FILE|-]",
				Flags:     []cli.Flag{vaultFlag()},
				Action: query(func(ctx context.Context, cmd *cli.Command, svc *linkservice.Service, vaultPath string) (any, error) {
					content, err := readInput(cmd)
					if err != nil {
						return nil, err
					}
					return svc.Outgoing(ctx, vaultPath, content)
				}),
			},
			{
				Name:  "list",
				Usage: "List the notes of a vault, newest first",
				Flags: []cli.Flag{vaultFlag()},
				Action: query(func(ctx context.Context, _ *cli.Command, svc *linkservice.Service, vaultPath string) (any, error) {
					return svc.List(ctx, vaultPath)
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
