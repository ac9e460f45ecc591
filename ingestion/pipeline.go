package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// Pipeline stores documents and enriches them in the background.
type Pipeline struct {
	documents    storage.DocumentRepository
	enrichPool   *ants.Pool
	enricher     processor
	keywordCount int
	pending      sync.WaitGroup
	released     atomic.Bool
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for enrichment.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.enrichPool != nil {
			p.enrichPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.enrichPool = pool
		return nil
	}
}

// WithKeywordCount sets how many keywords enrichment keeps per document.
// Default is DefaultKeywordCount.
func WithKeywordCount(n int) Option {
	return func(p *Pipeline) error {
		if n > 0 {
			p.keywordCount = n
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(documents storage.DocumentRepository, opts ...Option) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	enrichPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		documents:    documents,
		enrichPool:   enrichPool,
		keywordCount: DefaultKeywordCount,
		logger:       slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	// Create processor after options are applied (so it gets final config)
	enricher, err := newKeywordProcessor(documents, p.keywordCount, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.enricher = enricher

	return p, nil
}

// Ingest validates and stores docs, then enriches them asynchronously.
// Documents without a CreatedAt are stamped with the current time. Nothing
// is stored when any document is invalid.
func (p *Pipeline) Ingest(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	if p.released.Load() {
		return nil, ErrPipelineReleased
	}
	if len(docs) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
	}

	// Add to storage
	added, err := p.documents.AddDocuments(ctx, docs...)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return added, nil
	}

	// Extract IDs
	ids := make([]core.ID, len(added))
	for i, doc := range added {
		ids[i] = doc.ID
	}

	// Submit for async processing
	p.pending.Add(1)
	err = p.enrichPool.Submit(func() {
		defer p.pending.Done()
		if err := p.enricher.process(context.Background(), ids...); err != nil {
			p.logger.Error("error enriching documents", "documents", len(ids), "err", err)
		}
	})
	if err != nil {
		p.pending.Done()
		p.logger.Warn("enrichment not scheduled", "documents", len(ids), "err", err)
	}

	p.logger.Debug("ingested documents", "documents", len(added))
	return added, nil
}

// Wait blocks until every scheduled enrichment has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release waits for pending enrichment and releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	p.pending.Wait()
	if p.enrichPool != nil {
		p.enrichPool.Release()
	}
}
