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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/poiesic/docstore"
	"github.com/poiesic/docstore/adapter"
	"github.com/poiesic/docstore/core"
	"github.com/poiesic/docstore/query"
	"github.com/poiesic/docstore/schema"
	"github.com/poiesic/docstore/storage"
	"github.com/poiesic/docstore/storage/badger"
	"github.com/poiesic/docstore/storage/memcache"
	"github.com/poiesic/docstore/storage/memory"
	"github.com/poiesic/docstore/storage/redis"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docstore",
		Usage: "Document store over a key-value backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a YAML adapter configuration file",
			},
			&cli.StringFlag{
				Name:  "schema",
				Usage: "Path to a YAML model schema",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Storage backend (badger, redis, memcache, memory)",
				Value: "badger",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
			},
			&cli.StringFlag{
				Name:  "redis-addr",
				Usage: "Redis server address",
				Value: "localhost:6379",
			},
			&cli.StringSliceFlag{
				Name:  "memcache-addr",
				Usage: "Memcached server address (repeatable)",
				Value: cli.NewStringSlice("localhost:11211"),
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "seed",
				Usage:     "Replace the stored dataset with a JSON fixture",
				ArgsUsage: "<file.json>",
				Action:    seedCommand,
			},
			{
				Name:   "dump",
				Usage:  "Print the whole stored dataset",
				Action: dumpCommand,
			},
			{
				Name:      "get",
				Usage:     "Print one record",
				ArgsUsage: "<model> <id>",
				Action:    getCommand,
			},
			{
				Name:      "all",
				Usage:     "Print every record of a model",
				ArgsUsage: "<model>",
				Action:    allCommand,
			},
			{
				Name:      "query",
				Usage:     "Print the records matching field=value and field~regex terms",
				ArgsUsage: "<model> [term...]",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "projection",
						Aliases: []string{"p"},
						Usage:   "Name of the projection used to load relationships",
					},
					&cli.BoolFlag{
						Name:  "first",
						Usage: "Print only the first matching record",
					},
				},
			},
			{
				Name:      "put",
				Usage:     "Create or update a record from a JSON object",
				ArgsUsage: "<model> <json>",
				Action:    putCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete a record",
				ArgsUsage: "<model> <id>",
				Action:    deleteCommand,
			},
		},
	}
}

func seedCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected a fixture file")
	}
	blob, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}
	fixture, err := storage.UnmarshalStorage(blob)
	if err != nil {
		return fmt.Errorf("invalid fixture: %w", err)
	}

	return withDB(c, func(ctx context.Context, a *adapter.Adapter) error {
		if err := a.Import(ctx, fixture); err != nil {
			return err
		}
		slog.Info("dataset seeded", "namespaces", fixture.Len())
		return nil
	})
}

func dumpCommand(c *cli.Context) error {
	return withDB(c, func(ctx context.Context, a *adapter.Adapter) error {
		stored, err := a.Export(ctx)
		if err != nil {
			return err
		}
		return printJSON(c, stored)
	})
}

func getCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected <model> <id>")
	}
	return withDB(c, func(ctx context.Context, a *adapter.Adapter) error {
		record, err := a.FindRecord(ctx, c.Args().Get(0), c.Args().Get(1))
		if err != nil {
			return err
		}
		return printJSON(c, record)
	})
}

func allCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected <model>")
	}
	return withDB(c, func(ctx context.Context, a *adapter.Adapter) error {
		records, err := a.FindAll(ctx, c.Args().First())
		if err != nil {
			return err
		}
		return printJSON(c, records)
	})
}

func queryCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected <model> [term...]")
	}
	model := c.Args().First()
	q, err := query.Parse(c.Args().Tail())
	if err != nil {
		return err
	}
	if name := c.String("projection"); name != "" {
		q.WithProjectionName(name)
	}

	return withDB(c, func(ctx context.Context, a *adapter.Adapter) error {
		if c.Bool("first") {
			record, err := a.QueryRecord(ctx, model, q)
			if err != nil {
				return err
			}
			return printJSON(c, record)
		}
		records, err := a.Query(ctx, model, q)
		if err != nil {
			return err
		}
		return printJSON(c, records)
	})
}

func putCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected <model> <json>")
	}
	model := c.Args().Get(0)
	record, err := storage.UnmarshalRecord([]byte(c.Args().Get(1)))
	if err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	snapshot := core.Snapshot{ID: record.ID(), Attributes: record}

	return withDB(c, func(ctx context.Context, a *adapter.Adapter) error {
		var stored core.Record
		var err error
		if snapshot.ID == "" {
			stored, err = a.CreateRecord(ctx, model, snapshot)
		} else {
			stored, err = a.UpdateRecord(ctx, model, snapshot)
		}
		if err != nil {
			return err
		}
		return printJSON(c, stored)
	})
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected <model> <id>")
	}
	return withDB(c, func(ctx context.Context, a *adapter.Adapter) error {
		return a.DeleteRecord(ctx, c.Args().Get(0), c.Args().Get(1))
	})
}

// withDB opens the configured backend and adapter, runs fn and closes both.
func withDB(c *cli.Context, fn func(ctx context.Context, a *adapter.Adapter) error) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	models, err := loadModels(c)
	if err != nil {
		return err
	}
	opts := []adapter.Option{adapter.WithLogger(slog.Default())}
	if path := c.String("config"); path != "" {
		cfg, err := adapter.LoadConfig(path)
		if err != nil {
			return err
		}
		opts = append(opts, adapter.WithConfig(cfg))
	}

	backend, err := openBackend(c)
	if err != nil {
		return err
	}
	db, err := docstore.OpenBackend(backend, models, opts...)
	if err != nil {
		return err
	}

	fnErr := fn(ctx, db.Adapter())
	if err := db.Close(); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}

func loadModels(c *cli.Context) (*schema.Registry, error) {
	path := c.String("schema")
	if path == "" {
		return schema.NewRegistry()
	}
	return schema.LoadFile(path)
}

func openBackend(c *cli.Context) (storage.Backend, error) {
	switch name := strings.ToLower(c.String("backend")); name {
	case "badger":
		dbPath := c.String("db")
		if dbPath == "" {
			return nil, fmt.Errorf("database path is required for the badger backend")
		}
		return badger.OpenBackend(dbPath, false)
	case "redis":
		return redis.Dial(c.String("redis-addr"), redis.WithLogger(slog.Default())), nil
	case "memcache":
		return memcache.Dial(c.StringSlice("memcache-addr"), memcache.WithLogger(slog.Default())), nil
	case "memory":
		return memory.NewBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q: must be one of badger, redis, memcache, memory", name)
	}
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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

	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	return nil
}
