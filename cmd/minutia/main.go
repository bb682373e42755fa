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
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/minutia"
	"github.com/poiesic/minutia/ai"
	"github.com/poiesic/minutia/ingest"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "minutia",
		Usage: "Transcript ingestion and semantic retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Discover new transcripts and enqueue them for processing",
				Action: syncCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:     "source-dir",
						Usage:    "Directory of transcript files to sync from",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "sync-limit",
						Usage: "Maximum transcripts to ingest in one pass",
						Value: ingest.DefaultSyncLimit,
					},
				),
			},
			{
				Name:   "process",
				Usage:  "Run workers until the task queue is drained",
				Action: processCommand,
				Flags: append(databaseFlags(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Worker pool size",
						Value: 2,
					},
					&cli.DurationFlag{
						Name:  "lease",
						Usage: "Task claim lease duration",
						Value: ingest.DefaultLease,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Attempt ceiling before a task fails permanently",
						Value: ingest.DefaultBackoff.MaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: ingest.DefaultBackoff.BaseDelay,
					},
				),
			},
			{
				Name:   "housekeep",
				Usage:  "Purge completed and failed tasks past the retention window",
				Action: housekeepCommand,
				Flags: append(databaseFlags(),
					&cli.DurationFlag{
						Name:  "retention",
						Usage: "How long terminal tasks are kept",
						Value: ingest.DefaultRetention,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "embedding-dimension",
			Usage: "Expected embedding vector width",
			Value: 768,
		},
	}
}

func openDatabase(c *cli.Context) (*minutia.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingDimension(c.Int("embedding-dimension")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}

	db, err := minutia.NewDatabase(c.String("db"), minutia.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func syncCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := newDirSource(c.String("source-dir"))
	if err != nil {
		return err
	}

	orch, err := db.NewOrchestrator(
		ingest.WithSource(source),
		ingest.WithSyncLimit(c.Int("sync-limit")),
	)
	if err != nil {
		return err
	}
	defer orch.Release()

	report, err := orch.SyncRecent(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Listed:  %d\n", report.Listed)
	fmt.Fprintf(os.Stderr, "Created: %d\n", report.Created)
	fmt.Fprintf(os.Stderr, "Skipped: %d\n", report.Skipped)
	fmt.Fprintf(os.Stderr, "Failed:  %d\n", report.Failed)
	return nil
}

func processCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	orch, err := db.NewOrchestrator(
		ingest.WithWorkers(c.Int("workers")),
		ingest.WithLease(c.Duration("lease")),
		ingest.WithBackoff(ingest.BackoffPolicy{
			MaxAttempts: c.Int("max-retries"),
			BaseDelay:   c.Duration("retry-delay"),
			Multiplier:  ingest.DefaultBackoff.Multiplier,
			MaxDelay:    ingest.DefaultBackoff.MaxDelay,
		}),
	)
	if err != nil {
		return err
	}
	defer orch.Release()

	processed, err := orch.Drain(ctx)
	if err != nil {
		return fmt.Errorf("processing failed after %d tasks: %w", processed, err)
	}
	fmt.Fprintf(os.Stderr, "Processed %d tasks\n", processed)
	return nil
}

func housekeepCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	orch, err := db.NewOrchestrator(ingest.WithRetention(c.Duration("retention")))
	if err != nil {
		return err
	}
	defer orch.Release()

	purged, err := orch.Housekeep(ctx)
	if err != nil {
		return fmt.Errorf("housekeeping failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Purged %d tasks\n", purged)
	return nil
}

// dirSource serves transcripts from a directory of text files. The file name
// is the external reference and the modification time the source date.
type dirSource struct {
	dir string
}

func newDirSource(dir string) (*dirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source directory %q is not a directory", dir)
	}
	return &dirSource{dir: dir}, nil
}

func (s *dirSource) ListRecent(ctx context.Context, since time.Time, limit int) ([]*ingest.SourceTranscript, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var transcripts []*ingest.SourceTranscript
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		if !info.ModTime().After(since) {
			continue
		}

		transcript, err := s.GetById(ctx, entry.Name())
		if err != nil {
			return nil, err
		}
		transcripts = append(transcripts, transcript)
	}

	sort.Slice(transcripts, func(i, j int) bool {
		return transcripts[i].SourceDate.Before(transcripts[j].SourceDate)
	})
	if len(transcripts) > limit {
		transcripts = transcripts[:limit]
	}
	return transcripts, nil
}

func (s *dirSource) GetById(ctx context.Context, ref string) (*ingest.SourceTranscript, error) {
	path := filepath.Join(s.dir, ref)
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &ingest.SourceTranscript{
		Ref:        ref,
		Title:      strings.TrimSuffix(ref, ".txt"),
		SourceDate: info.ModTime().UTC(),
		Content:    string(content),
	}, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
