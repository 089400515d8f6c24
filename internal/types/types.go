package types

import (
	"context"

	"github.com/techcorp/helpdesk/internal/models"
)

// Embedder turns text into fixed-length vectors. The same implementation must
// serve both indexing and query embedding; mixing encoders silently degrades
// relevance with no error signal.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore is a persistent nearest-neighbor store keyed by chunk id.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []models.Chunk) error
	Search(ctx context.Context, embedding []float32, limit int, category string) ([]models.RetrievedChunk, error)
	Count(ctx context.Context) (int, error)
	Close()
}
