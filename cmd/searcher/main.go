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
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/minutia"
	"github.com/poiesic/minutia/core"
	"github.com/poiesic/minutia/storage"
)

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	dbPath := flag.String("db", "./minutia_db", "Path to BadgerDB database directory")
	query := flag.String("query", "", "Search query")
	limit := flag.Int("limit", 5, "Maximum number of results")
	since := flag.String("since", "", "Only search documents on or after this date (YYYY-MM-DD)")
	speaker := flag.String("speaker", "", "Only search chunks by this speaker")
	textOnly := flag.Bool("text-only", false, "Verbatim text search, skipping the embedder")
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "a --query is required")
		flag.Usage()
		os.Exit(2)
	}

	filter := storage.Filter{Speaker: *speaker}
	if *since != "" {
		from, err := time.Parse("2006-01-02", *since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --since date: %v\n", err)
			os.Exit(2)
		}
		filter.From = from
	}

	db, err := minutia.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	var results []*core.SearchResult
	if *textOnly {
		results, err = searcher.SearchText(ctx, *query, filter, *limit)
	} else {
		results, err = searcher.Search(ctx, *query, filter, *limit)
	}
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		title := "?"
		if hit.Document != nil {
			title = fmt.Sprintf("%s, %s", hit.Document.Title, hit.Document.SourceDate.Format("2006-01-02"))
		}
		fmt.Printf("%d: [%0.3f] (%s) %s\n", i, hit.Score, title, hit.Chunk.Content)
		if hit.Before != "" {
			fmt.Printf("   before: %s\n", hit.Before)
		}
		if hit.After != "" {
			fmt.Printf("   after:  %s\n", hit.After)
		}
	}
}
