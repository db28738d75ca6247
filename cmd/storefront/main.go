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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/storefront"
	"github.com/poiesic/storefront/config"
	"github.com/poiesic/storefront/ingestion"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "storefront",
		Usage: "Product catalog backend with hybrid keyword and semantic search",
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
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"STOREFRONT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding the catalog, order, FAQ and policy files",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Index snapshot cache (badger, redis, none)",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides http.addr)",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Run a hybrid product search",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Search text",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category filter",
					},
				},
			},
			{
				Name:      "related",
				Usage:     "List products related to a product",
				ArgsUsage: "<product-id>",
				Action:    relatedCommand,
			},
			{
				Name:   "recommend",
				Usage:  "List top rated in-stock products",
				Action: recommendCommand,
			},
			{
				Name:   "index",
				Usage:  "Build the vector index and store its snapshot in the cache",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N products",
						Value: 100,
					},
				},
			},
		},
	}
}

// setup loads the configuration and configures the default logger. The
// --log-level flag wins over logging.level from the file.
func setup(c *cli.Context) error {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if c.IsSet("data-dir") {
		cfg.Apply(config.WithDataDir(c.String("data-dir")))
	}
	if c.IsSet("cache") {
		cfg.Apply(config.WithCacheDriver(c.String("cache")))
	}
	if c.IsSet("log-level") || c.String("config") == "" {
		cfg.Apply(config.WithLogLevel(c.String("log-level")))
	}
	cfg.Normalize()

	if err := setupLogger(cfg.Logging.Level); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func setupLogger(levelStr string) error {
	// Map string to slog.Level
	var level slog.Level
	switch strings.ToLower(levelStr) {
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func configFrom(c *cli.Context) config.Config {
	cfg, ok := c.App.Metadata[configKey].(config.Config)
	if !ok {
		return config.DefaultConfig()
	}
	return cfg
}

func openService(c *cli.Context, cfg config.Config, opts ...storefront.Option) (*storefront.Service, error) {
	opts = append([]storefront.Option{storefront.WithLogger(slog.Default())}, opts...)
	return storefront.Open(c.Context, cfg, opts...)
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serveCommand(c *cli.Context) error {
	cfg := configFrom(c)
	if addr := c.String("addr"); addr != "" {
		cfg.Apply(config.WithAddr(addr))
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := openService(c, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.ListenAndServe(ctx)
}

func searchCommand(c *cli.Context) error {
	cfg := configFrom(c)
	// Reindexing is pointless for a one-shot query
	cfg.Index.ReindexOnChange = false

	svc, err := openService(c, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	return writeJSON(c, svc.Engine().Search(c.Context, c.String("query"), c.String("category")))
}

func relatedCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one product id")
	}
	cfg := configFrom(c)
	cfg.Index.ReindexOnChange = false

	svc, err := openService(c, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	return writeJSON(c, svc.Engine().Related(c.Context, c.Args().First()))
}

func recommendCommand(c *cli.Context) error {
	cfg := configFrom(c)
	cfg.Index.ReindexOnChange = false

	svc, err := openService(c, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	return writeJSON(c, svc.Engine().Recommendations())
}

type indexSummary struct {
	Products int    `json:"products"`
	Terms    int    `json:"terms"`
	Digest   string `json:"digest"`
	Cache    string `json:"cache"`
	Elapsed  string `json:"elapsed"`
}

func indexCommand(c *cli.Context) error {
	cfg := configFrom(c)
	cfg.Index.ReindexOnChange = false

	tracker := ingestion.NewProgressTracker(c.App.ErrWriter, c.Int("report-interval"))
	tracker.Start()

	svc, err := openService(c, cfg, storefront.WithIndexProgress(tracker.Report))
	if err != nil {
		return err
	}
	defer svc.Close()
	tracker.Finish()

	snap := svc.Index().Snapshot()
	if snap == nil {
		return fmt.Errorf("index was not built, check the catalog in %s", cfg.DataDir)
	}
	return writeJSON(c, indexSummary{
		Products: snap.Size(),
		Terms:    len(snap.Vocabulary),
		Digest:   snap.Digest,
		Cache:    cfg.Cache.Driver,
		Elapsed:  tracker.Elapsed().String(),
	})
}
