package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/minutia"
	"github.com/poiesic/minutia/ingest"
)

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// seeder ingests a single transcript file the way a webhook delivery would,
// then processes it so the database is immediately searchable.
func main() {
	dbPath := flag.String("db", "./minutia_db", "Path to BadgerDB database directory")
	file := flag.String("file", "", "Transcript file to ingest")
	title := flag.String("title", "", "Document title (defaults to the file name)")
	date := flag.String("date", "", "Source date (YYYY-MM-DD, defaults to today)")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "a --file is required")
		flag.Usage()
		os.Exit(2)
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		panic(err)
	}

	sourceDate := time.Now().UTC()
	if *date != "" {
		sourceDate, err = time.Parse("2006-01-02", *date)
		if err != nil {
			panic(err)
		}
	}

	name := filepath.Base(*file)
	if *title == "" {
		*title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	db, err := minutia.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	orch, err := db.NewOrchestrator()
	if err != nil {
		panic(err)
	}
	defer orch.Release()

	payload, err := json.Marshal(ingest.WebhookEvent{
		Ref:        name,
		Title:      *title,
		SourceDate: sourceDate,
		Content:    string(content),
	})
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	task, err := orch.HandleWebhookEvent(ctx, payload, "")
	if err != nil {
		panic(err)
	}
	slog.Info("transcript enqueued", "task", task.Id, "document", task.DocumentId)

	processed, err := orch.Drain(ctx)
	if err != nil {
		panic(err)
	}
	slog.Info("processing complete", "tasks", processed)
}
