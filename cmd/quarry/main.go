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
	"io"
	"log"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/quarry"
	"github.com/poiesic/quarry/bulk"
	"github.com/poiesic/quarry/config"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "quarry",
		Usage: "Search and analyze a document corpus with concurrent scouts",
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
				Usage:   "Path to a TOML configuration file",
				EnvVars: []string{"QUARRY_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Data directory (overrides storage.path)",
			},
			&cli.StringFlag{
				Name:  "engine",
				Usage: "Storage engine, badger or sqlite (overrides storage.engine)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Run a query against the corpus",
				ArgsUsage: "<query...>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "context",
						Usage: "Free-text context appended to the query",
					},
					&cli.StringFlag{
						Name:  "intent",
						Usage: "Intent hint, e.g. relationship or timeline",
					},
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Scope hint: focused, broad, exhaustive or contextual",
					},
					&cli.StringFlag{
						Name:  "priority",
						Usage: "Priority hint: urgent, high, normal or background",
					},
					&cli.IntFlag{
						Name:  "depth",
						Usage: "Relationship depth to explore",
					},
					&cli.DurationFlag{
						Name:  "time-limit",
						Usage: "Time budget for the query (overrides the priority budget)",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "User ID recorded in the query history",
					},
					&cli.BoolFlag{
						Name:  "suggest",
						Usage: "Ask the AI service for related queries",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full response as JSON",
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Load a directory of documents",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Usage:    "Directory to load recursively",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of files to ingest in each batch",
						Value: bulk.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N files",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batches",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "history",
				Usage:  "Show recent queries",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "Only show queries by this user",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show corpus statistics",
				Action: statsCommand,
			},
		},
	}
}

// openEngine loads the configuration, applies the global overrides and
// opens the engine.
func openEngine(c *cli.Context) (*quarry.Engine, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dir := c.String("data"); dir != "" {
		cfg.Storage.Path = dir
	}
	if engine := c.String("engine"); engine != "" {
		cfg.Storage.Engine = engine
	}

	engine, err := quarry.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	defer searcher.Close()

	resp, err := searcher.Search(c.Context, search.SearchQuery{
		Query:              query,
		Context:            c.String("context"),
		IntentHint:         c.String("intent"),
		ScopeHint:          c.String("scope"),
		PriorityHint:       c.String("priority"),
		RelationshipDepth:  c.Int("depth"),
		TimeLimitMs:        int(c.Duration("time-limit").Milliseconds()),
		IncludeSuggestions: c.Bool("suggest"),
		UserID:             c.String("user"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(c.App.Writer, resp)
	return nil
}

func printResponse(w io.Writer, resp *search.IntelligentSearchResponse) {
	fmt.Fprintf(w, "Query: %s\n", resp.Query)
	fmt.Fprintf(w, "Scouts: %d deployed, %d documents analyzed, %d dead ends\n",
		resp.ScoutsDeployed, resp.DocumentsAnalyzed, resp.DeadEndsEncountered)
	status := ""
	if resp.CacheHit {
		status += " (cached)"
	}
	if resp.Partial {
		status += " (partial)"
	}
	fmt.Fprintf(w, "Confidence: %.2f in %v%s\n", resp.Confidence, resp.ProcessingTime.Round(time.Millisecond), status)

	if len(resp.DirectMatches) > 0 {
		fmt.Fprintln(w, "\nMatches:")
		for i, m := range resp.DirectMatches {
			fmt.Fprintf(w, "%3d. %s [%s %.2f]\n", i+1, m.Title, m.MatchType, m.RelevanceScore)
			if m.HighlightedText != "" {
				fmt.Fprintf(w, "     %s\n", m.HighlightedText)
			}
		}
	}
	if len(resp.Entities) > 0 {
		fmt.Fprintln(w, "\nEntities:")
		for _, e := range resp.Entities {
			fmt.Fprintf(w, "  %s (%s, %d documents)\n", e.Name, e.Type, len(e.Documents))
		}
	}
	if len(resp.Insights) > 0 {
		fmt.Fprintln(w, "\nInsights:")
		for _, in := range resp.Insights {
			fmt.Fprintf(w, "  [%s] %s\n", in.Priority, in.Description)
		}
	}
	if len(resp.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, r := range resp.Recommendations {
			fmt.Fprintf(w, "  [%s] %s\n", r.Priority, r.Description)
		}
	}
	if len(resp.RelatedQueries) > 0 {
		fmt.Fprintln(w, "\nRelated queries:")
		for _, q := range resp.RelatedQueries {
			fmt.Fprintf(w, "  %s\n", q)
		}
	}
}

func ingestCommand(c *cli.Context) error {
	loadConfig := &bulk.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if loadConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if loadConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if loadConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	loader, err := bulk.NewLoader(pipeline, loadConfig, c.App.ErrWriter, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create loader: %w", err)
	}

	dir := c.String("dir")
	fmt.Fprintf(c.App.ErrWriter, "Directory: %s\n\n", dir)
	summary, err := loader.Run(c.Context, dir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	pipeline.Wait()
	engine.PurgeCache()

	fmt.Fprintf(c.App.Writer, "Ingested %d of %d files (%d failed, %d skipped) in %v\n",
		summary.Ingested, summary.Files, summary.Failed, summary.Skipped, summary.Elapsed.Round(time.Millisecond))
	return nil
}

func historyCommand(c *cli.Context) error {
	limit := c.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	var entries []*core.HistoricalQuery
	repo := engine.HistoryRepository()
	if user := c.String("user"); user != "" {
		entries, err = repo.QueriesByUser(c.Context, user, limit)
	} else {
		entries, err = repo.RecentQueries(c.Context, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	for _, e := range entries {
		flags := ""
		if e.CacheHit {
			flags += " cached"
		}
		if e.Partial {
			flags += " partial"
		}
		fmt.Fprintf(c.App.Writer, "%s  %-12s %4d results %8v%s  %s\n",
			e.Timestamp.Local().Format(time.DateTime), e.UserID, e.ResultsCount,
			e.ProcessingTime.Round(time.Millisecond), flags, e.Query)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Stats(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read statistics: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Documents: %d\n", stats.Documents)
	for _, t := range slices.Sorted(maps.Keys(stats.Types)) {
		fmt.Fprintf(c.App.Writer, "  %-12s %d\n", t, stats.Types[t])
	}
	fmt.Fprintf(c.App.Writer, "Store circuit: %s\n", stats.Breaker)
	return nil
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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
