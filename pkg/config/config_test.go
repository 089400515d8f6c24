package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://localhost:11434"
  model: "mistral"
  max_tokens: 1000
  temperature: 0.2

embedder:
  model: "nomic-embed-text:latest"

database:
  url: "postgres://localhost:5432/helpdesk"
  table_name: "test_chunks"
  vector_dim: 768
  batch_size: 32
  search_limit: 3

knowledge:
  markdown_dir: "knowledge"
  guides_path: "knowledge/installation_guides.json"
  categories_path: "knowledge/categories.json"
  troubleshooting_path: "knowledge/troubleshooting_database.json"

processor:
  chunk_tokens: 200
  embed_rate: 4.0

server:
  port: "9090"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "mistral", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.2, config.LLM.Temperature)
	assert.Equal(t, "postgres://localhost:5432/helpdesk", config.Database.URL)
	assert.Equal(t, "test_chunks", config.Database.TableName)
	assert.Equal(t, 3, config.Database.SearchLimit)
	assert.Equal(t, "knowledge", config.Knowledge.MarkdownDir)
	assert.Equal(t, 200, config.Processor.ChunkTokens)
	assert.Equal(t, "9090", config.Server.Port)
}

func TestDefaults(t *testing.T) {
	config := &Config{}
	applyDefaults(config)

	assert.Equal(t, "mistral", config.LLM.Model)
	assert.Equal(t, 0.2, config.LLM.Temperature)
	assert.Equal(t, "nomic-embed-text:latest", config.Embedder.Model)
	assert.Equal(t, "helpdesk_knowledge", config.Database.TableName)
	assert.Equal(t, 768, config.Database.VectorDim)
	assert.Equal(t, 5, config.Database.SearchLimit)
	assert.Equal(t, 350, config.Processor.ChunkTokens)
	assert.Equal(t, "8080", config.Server.Port)
}

func TestConfigValidation(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		config := &Config{}
		applyDefaults(config)

		assert.Empty(t, config.Validate())
	})

	t.Run("invalid config", func(t *testing.T) {
		config := &Config{}
		applyDefaults(config)
		config.LLM.MaxTokens = 5000
		config.LLM.Temperature = 3.0
		config.Database.VectorDim = -1
		config.Processor.ChunkTokens = 0

		errors := config.Validate()
		require.Len(t, errors, 4)

		messages := make([]string, len(errors))
		for i, e := range errors {
			messages[i] = e.Error()
		}
		assert.Contains(t, messages, "llm.max_tokens: max_tokens must be between 1 and 4096")
		assert.Contains(t, messages, "llm.temperature: temperature must be between 0 and 2")
		assert.Contains(t, messages, "database.vector_dim: vector_dim must be positive")
		assert.Contains(t, messages, "processor.chunk_tokens: chunk_tokens must be positive")
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	os.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	os.Setenv("DATABASE_URL", "postgres://env-db:5432/helpdesk")
	defer func() {
		os.Unsetenv("OLLAMA_BASE_URL")
		os.Unsetenv("DATABASE_URL")
	}()

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/helpdesk", config.Database.URL)
}
