package retriever

import (
	"context"
	"log"

	"github.com/techcorp/helpdesk/internal/models"
	"github.com/techcorp/helpdesk/internal/types"
)

type RetrieverConfig struct {
	TopK int
}

// Retriever embeds a question with the same embedder used at index time and
// runs a nearest-neighbor search. Store failures degrade to an empty result
// set: callers treat that as "no grounding available", not as an error.
type Retriever struct {
	config   RetrieverConfig
	embedder types.Embedder
	store    types.VectorStore
}

func NewWithConfig(config RetrieverConfig, embedder types.Embedder, store types.VectorStore) *Retriever {
	if config.TopK == 0 {
		config.TopK = 5
	}

	return &Retriever{
		config:   config,
		embedder: embedder,
		store:    store,
	}
}

// Retrieve returns at most topK chunks nearest to the query, nearest first,
// restricted to category when non-empty.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, category string) []models.RetrievedChunk {
	if topK <= 0 {
		topK = r.config.TopK
	}

	embeddings, err := r.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil || len(embeddings) == 0 {
		log.Printf("retriever: failed to embed query: %v", err)
		return nil
	}

	results, err := r.store.Search(ctx, embeddings[0], topK, category)
	if err != nil {
		log.Printf("retriever: search failed: %v", err)
		return nil
	}

	return results
}
