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


package quarry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/ai/openai"
	"github.com/poiesic/quarry/cache"
	"github.com/poiesic/quarry/classify"
	"github.com/poiesic/quarry/config"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/ingestion"
	"github.com/poiesic/quarry/planner"
	"github.com/poiesic/quarry/scout"
	"github.com/poiesic/quarry/search"
	"github.com/poiesic/quarry/storage"
	"github.com/poiesic/quarry/storage/badger"
	"github.com/poiesic/quarry/storage/sqlite"
)

// SQLiteFile is the database file created under the storage path when the
// sqlite engine is selected.
const SQLiteFile = "quarry.db"

// Engine owns the storage, the scout pool and the shared result cache, and
// hands out searchers and ingestion pipelines over them.
type Engine struct {
	documents    storage.DocumentRepository
	history      storage.HistoryRepository
	closeStore   func() error
	guard        *scout.GuardStore
	pool         *scout.Pool
	cache        *cache.ResultCache
	orchestrator *search.Orchestrator
	provider     ai.AIProvider
	cfg          *config.Config
	base         *slog.Logger
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	logger   *slog.Logger
}

// WithAIProvider supplies the language-model services instead of building
// an OpenAI-compatible provider from the configuration. The engine closes
// the provider.
func WithAIProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewEngine opens the store named by cfg and builds the search stack over
// it. A nil cfg means config.Default().
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	e := &Engine{
		cfg:    cfg,
		base:   options.logger,
		logger: options.logger.With("component", "engine"),
	}
	if err := e.openStore(); err != nil {
		return nil, err
	}
	if err := e.build(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) openStore() error {
	path := e.cfg.Storage.Path
	switch strings.ToLower(e.cfg.Storage.Engine) {
	case config.EngineSQLite:
		if err := os.MkdirAll(path, 0o750); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
		db, err := sqlite.OpenDB(filepath.Join(path, SQLiteFile))
		if err != nil {
			return err
		}
		e.documents = sqlite.NewDocumentRepository(db, sqlite.WithFuzzyFallback(true))
		e.history = sqlite.NewHistoryRepository(db)
		e.closeStore = db.Close
	default:
		backend, err := badger.OpenBackend(path, false)
		if err != nil {
			return err
		}
		documents, history, err := badger.NewRepositories(backend)
		if err != nil {
			backend.Close()
			return err
		}
		e.documents = documents
		e.history = history
		e.closeStore = backend.Close
	}
	e.logger.Debug("storage opened", "engine", e.cfg.Storage.Engine, "path", path)
	return nil
}

func (e *Engine) build(options *engineOptions) error {
	logger := options.logger
	var err error

	e.guard, err = scout.NewGuardStore(e.documents,
		scout.WithRateLimit(e.cfg.Guard.Rate, e.cfg.Guard.Burst),
		scout.WithBreaker(uint32(e.cfg.Guard.MaxFailures), e.cfg.Guard.OpenTimeout.Duration),
		scout.WithGuardLogger(logger),
	)
	if err != nil {
		return err
	}

	p, err := planner.New(e.guard, planner.WithLogger(logger))
	if err != nil {
		return err
	}

	e.pool, err = scout.NewPool(e.guard,
		scout.WithPoolSize(e.cfg.Pool.Size),
		scout.WithPatternLimit(e.cfg.Pool.PatternLimit),
		scout.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if e.cfg.Cache.Size > 0 {
		e.cache, err = cache.New(
			cache.WithSize(e.cfg.Cache.Size),
			cache.WithTTL(e.cfg.Cache.TTL.Duration),
			cache.WithLogger(logger),
		)
		if err != nil {
			return err
		}
	}

	e.orchestrator, err = search.NewOrchestrator(p, e.pool,
		search.WithResultCache(e.cache),
		search.WithOrchestratorLogger(logger),
	)
	if err != nil {
		return err
	}

	e.provider = options.provider
	if e.provider == nil && e.cfg.AI.Enabled {
		aiConfig := ai.NewConfig(ai.WithHost(e.cfg.AI.Host), ai.WithModel(e.cfg.AI.Model))
		if err := aiConfig.Validate(); err != nil {
			return fmt.Errorf("invalid AI configuration: %w", err)
		}
		e.provider, err = openai.NewProvider(aiConfig)
		if err != nil {
			return fmt.Errorf("failed to create AI provider: %w", err)
		}
	}
	return nil
}

// Close releases everything the engine opened. Searchers and pipelines
// handed out by the engine must be closed first.
func (e *Engine) Close() error {
	var errs []error
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}
	if e.pool != nil {
		if err := e.pool.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.history.Close(); err != nil {
		e.logger.Error("error closing history repository", "err", err)
		errs = append(errs, err)
	}
	if err := e.documents.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		errs = append(errs, err)
	}
	if err := e.closeStore(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.documents
}

func (e *Engine) HistoryRepository() storage.HistoryRepository {
	return e.history
}

// NewSearcher returns a searcher over the shared orchestrator. It records
// history, uses the configured priority budgets, and when an AI provider
// is present classifies with it and asks it for related queries.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithLogger(e.base),
		search.WithHistory(e.history),
		search.WithBudgets(e.cfg.PriorityBudgets()),
	}
	if e.provider != nil {
		classifier, err := classify.NewAssisted(e.provider.IntentClassifier(), classify.WithLogger(e.base))
		if err != nil {
			return nil, err
		}
		base = append(base, search.WithClassifier(classifier), search.WithSuggester(e.provider.QuerySuggester()))
	}
	return search.NewSearcher(e.orchestrator, append(base, opts...)...)
}

// NewIngestionPipeline returns a pipeline writing to the document repository.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.documents, append([]ingestion.Option{ingestion.WithLogger(e.base)}, opts...)...)
}

// PurgeCache drops every cached result. Call it after ingesting documents
// so later searches see them.
func (e *Engine) PurgeCache() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

// Stats describes the engine's store and caches.
type Stats struct {
	Documents int
	Types     map[core.DocumentType]int
	Cache     cache.Stats
	Breaker   string
}

// Stats reports document counts, cache activity and the store circuit state.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	count, err := e.documents.DocumentCount(ctx)
	if err != nil {
		return nil, err
	}
	types, err := e.documents.DocumentTypeDistribution(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		Documents: count,
		Types:     types,
		Breaker:   e.guard.State(),
	}
	if e.cache != nil {
		stats.Cache = e.cache.Stats()
	}
	return stats, nil
}
