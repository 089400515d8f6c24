package indexer

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/techcorp/helpdesk/internal/models"
	"github.com/techcorp/helpdesk/internal/types"
	"github.com/techcorp/helpdesk/pkg/processor"
)

type IndexerConfig struct {
	BatchSize int
	// EmbedRate throttles embedding batches per second so a local model
	// server is not flooded during a bulk re-index.
	EmbedRate  float64
	OnProgress func(done, total int)
}

// Indexer runs the offline ingestion pipeline: chunk documents, embed the
// chunk text in batches, and upsert into the vector store. The run is
// idempotent; any embedding or store failure aborts it, and already-committed
// batches stay valid.
type Indexer struct {
	config    IndexerConfig
	processor *processor.Processor
	embedder  types.Embedder
	store     types.VectorStore
	limiter   *rate.Limiter
}

func NewWithConfig(config IndexerConfig, proc *processor.Processor, embedder types.Embedder, store types.VectorStore) *Indexer {
	if config.BatchSize == 0 {
		config.BatchSize = 64
	}
	if config.EmbedRate == 0 {
		config.EmbedRate = 2.0
	}

	return &Indexer{
		config:    config,
		processor: proc,
		embedder:  embedder,
		store:     store,
		limiter:   rate.NewLimiter(rate.Limit(config.EmbedRate), 1),
	}
}

// Index ingests the full document set and returns the number of chunks
// upserted.
func (ix *Indexer) Index(ctx context.Context, docs []models.Document) (int, error) {
	chunks := ix.processor.Process(docs)

	for start := 0; start < len(chunks); start += ix.config.BatchSize {
		end := start + ix.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := ix.limiter.Wait(ctx); err != nil {
			return start, err
		}

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		embeddings, err := ix.embedder.CreateEmbedding(ctx, texts)
		if err != nil {
			return start, fmt.Errorf("failed to embed batch at %d: %w", start, err)
		}
		if len(embeddings) != len(batch) {
			return start, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(batch))
		}
		for i := range batch {
			batch[i].Embedding = embeddings[i]
		}

		if err := ix.store.Upsert(ctx, batch); err != nil {
			return start, fmt.Errorf("failed to store batch at %d: %w", start, err)
		}

		if ix.config.OnProgress != nil {
			ix.config.OnProgress(end, len(chunks))
		}
	}

	return len(chunks), nil
}
