package store_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techcorp/helpdesk/internal/models"
	"github.com/techcorp/helpdesk/pkg/store"
)

// Integration test against a real Postgres with the pgvector extension.
// Set TEST_DATABASE_URL to run it.
func TestVectorStore(t *testing.T) {
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping vector store integration test")
	}

	ctx := context.Background()

	s, err := store.NewWithConfig(store.VectorStoreConfig{
		ConnString: connString,
		TableName:  fmt.Sprintf("test_chunks_%d", os.Getpid()),
		VectorDim:  3,
	})
	require.NoError(t, err)
	defer s.Close()

	chunks := []models.Chunk{
		{
			ID:   "wifi_v1#0",
			Text: "Restart the wireless router first.",
			Meta: map[string]interface{}{
				"parent_id": "wifi_v1",
				"category":  "wifi_connection",
			},
			Embedding: []float32{1, 0, 0},
		},
		{
			ID:   "wifi_v1#1",
			Text: "Check the network adapter drivers.",
			Meta: map[string]interface{}{
				"parent_id": "wifi_v1",
				"category":  "wifi_connection",
			},
			Embedding: []float32{0, 1, 0},
		},
		{
			ID:   "pw_v1#0",
			Text: "Visit the password reset portal.",
			Meta: map[string]interface{}{
				"parent_id": "pw_v1",
				"category":  "password_reset",
			},
			Embedding: []float32{0, 0, 1},
		},
	}

	require.NoError(t, s.Upsert(ctx, chunks))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Upsert is idempotent: same ids, same count
	require.NoError(t, s.Upsert(ctx, chunks))
	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Nearest neighbor ordering
	results, err := s.Search(ctx, []float32{0.9, 0.1, 0}, 1, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Restart the wireless router first.", results[0].Text)
	assert.Equal(t, "wifi_v1", results[0].Meta["parent_id"])

	// Category filter restricts matches
	results, err = s.Search(ctx, []float32{0.9, 0.1, 0}, 5, "password_reset")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Visit the password reset portal.", results[0].Text)

	// Unknown category yields no results
	results, err = s.Search(ctx, []float32{0.9, 0.1, 0}, 5, "printer_issues")
	require.NoError(t, err)
	assert.Empty(t, results)
}
