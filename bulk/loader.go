package bulk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/quarry/core"
)

// Ingester stores parsed documents. *ingestion.Pipeline satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)
}

// Config holds configuration for a directory load.
type Config struct {
	// BatchSize is the number of files ingested together
	BatchSize int

	// ReportInterval is how often to report progress (number of files)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a failed batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Summary describes a finished load.
type Summary struct {
	Files    int // supported files found
	Ingested int
	Failed   int // unreadable, unparseable, invalid, or in a batch that kept failing
	Skipped  int // files without a parser
	Elapsed  time.Duration
}

// Loader loads directories of documents through an Ingester.
type Loader struct {
	ingester Ingester
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewLoader creates a loader. progress receives human-readable progress
// lines and may be nil.
func NewLoader(ingester Ingester, config *Config, progress io.Writer, logger *slog.Logger) (*Loader, error) {
	if ingester == nil {
		return nil, ErrIngesterRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		ingester: ingester,
		config:   config,
		progress: progress,
		logger:   logger.With("component", "bulk-loader"),
	}, nil
}

// Run loads every supported file under dir. A file that cannot be read or
// parsed, or a batch that fails every attempt, is counted and logged; only
// a bad root directory or a cancelled context stop the load.
func (l *Loader) Run(ctx context.Context, dir string) (*Summary, error) {
	it := NewFileIterator(dir, l.config.BatchSize)
	files, skipped, err := it.Files(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Files: len(files), Skipped: skipped}
	if len(files) == 0 {
		fmt.Fprintf(l.progress, "No supported files found in %s (%d skipped)\n", dir, skipped)
		return summary, nil
	}

	fmt.Fprintf(l.progress, "Loading %d files from %s (batch size: %d)\n", len(files), dir, l.config.BatchSize)
	tracker := NewProgressTracker(l.progress, len(files), l.config.ReportInterval)
	tracker.Start()

	err = it.ForEach(ctx, files, func(batch []string) error {
		docs := make([]*core.Document, 0, len(batch))
		failed := 0
		for _, rel := range batch {
			doc, err := l.parse(it, rel)
			if err != nil {
				l.logger.Warn("skipping file", "path", rel, "err", err)
				failed++
				continue
			}
			docs = append(docs, doc)
		}

		if len(docs) > 0 {
			err := RetryWithBackoff(ctx, l.logger, func() error {
				_, err := l.ingester.Ingest(ctx, docs...)
				return err
			}, l.config.MaxRetries, l.config.RetryDelay)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logger.Error("batch failed", "files", len(docs), "first", docs[0].Path, "err", err)
				failed += len(docs)
			} else {
				summary.Ingested += len(docs)
			}
		}

		summary.Failed += failed
		tracker.Increment(len(batch), failed)
		return nil
	})
	summary.Elapsed = tracker.Elapsed()
	if err != nil {
		return summary, err
	}

	tracker.Finish()
	fmt.Fprintf(l.progress, "Load complete. Ingested %d of %d files in %v (%d failed, %d skipped)\n",
		summary.Ingested, summary.Files, summary.Elapsed.Round(time.Millisecond), summary.Failed, summary.Skipped)
	return summary, nil
}

// parse reads and parses one file, rejecting documents the store would.
func (l *Loader) parse(it *FileIterator, rel string) (*core.Document, error) {
	content, err := it.Read(rel)
	if err != nil {
		return nil, err
	}
	doc, err := ParseFile(rel, content)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
