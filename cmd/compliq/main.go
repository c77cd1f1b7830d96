// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/compliq"
	"github.com/poiesic/compliq/config"
	"github.com/poiesic/compliq/knowledge"
)

func main() {
	app := &cli.App{
		Name:  "compliq",
		Usage: "NIST 800-53 and STIG compliance assistant",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "compliq.yaml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "chat",
				Usage:  "Start an interactive compliance question session",
				Action: chatCommand,
				Flags:  sessionFlags(),
			},
			{
				Name:      "search",
				Usage:     "Run one retrieval query and print the raw matches",
				Action:    searchCommand,
				ArgsUsage: "<query>",
				Flags: append(sessionFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of matches to print",
						Value: 10,
					},
				),
			},
			{
				Name:   "build-index",
				Usage:  "Embed the knowledge base and persist the index cache",
				Action: buildIndexCommand,
				Flags:  sessionFlags(),
			},
		},
		DefaultCommand: "chat",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "snapshot",
			Aliases: []string{"s"},
			Usage:   "Path to the knowledge snapshot JSON file",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to the index cache directory",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "checklist-dir",
			Usage: "Directory for generated assessment checklists",
		},
	}
}

// loadConfig resolves configuration with flags taking precedence over
// environment variables and the config file.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if v := c.String("snapshot"); v != "" {
		cfg.Knowledge.Snapshot = v
	}
	if v := c.String("db"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := c.String("embedding-host"); v != "" {
		cfg.Embedding.Host = v
	}
	if v := c.String("embedding-model"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := c.String("checklist-dir"); v != "" {
		cfg.Checklist.Dir = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newAssistant(c *cli.Context) (*compliq.Assistant, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	base, err := knowledge.LoadSnapshot(cfg.Knowledge.Snapshot, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("loading knowledge snapshot: %w", err)
	}

	assistant, err := compliq.NewAssistant(base, cfg.Storage.Dir,
		compliq.WithAIConfig(cfg.AIConfig()),
		compliq.WithChecklistDir(cfg.Checklist.Dir),
		compliq.WithTopK(cfg.Search.TopK),
		compliq.WithBatchSize(cfg.Embedding.BatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("creating assistant: %w", err)
	}
	return assistant, nil
}

func chatCommand(c *cli.Context) error {
	assistant, err := newAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	ctx := context.Background()
	fmt.Fprintf(os.Stderr, "Loaded %d controls and %d STIGs.\n",
		assistant.Base().ControlCount(), len(assistant.Base().Technologies()))
	fmt.Fprintln(os.Stderr, "Building index (cached builds are instant)...")
	if err := assistant.BuildIndex(ctx); err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	console := newConsole(assistant, os.Stdin, os.Stdout)
	return console.Run(ctx)
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query argument is required")
	}

	assistant, err := newAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	ctx := context.Background()
	if err := assistant.BuildIndex(ctx); err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	hits, err := assistant.Search(ctx, query, c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for i, hit := range hits {
		fmt.Printf("%2d. [%s] dist=%.4f %s\n", i+1, hit.Snippet.ControlID, hit.Distance, hit.Snippet.Text)
	}
	return nil
}

func buildIndexCommand(c *cli.Context) error {
	assistant, err := newAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	if err := assistant.BuildIndex(context.Background()); err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Index built and cached.")
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
