package processor

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/techcorp/helpdesk/internal/models"
)

const defaultChunkTokens = 350

type ProcessorConfig struct {
	ChunkTokens int
	// TokenCounter overrides the default cl100k_base counter. Whatever
	// counter indexes a corpus must be the one used for budget decisions
	// afterwards.
	TokenCounter func(string) int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkTokens == 0 {
		config.ChunkTokens = defaultChunkTokens
	}
	if config.TokenCounter == nil {
		config.TokenCounter = defaultTokenCounter()
	}

	return Processor{
		config: config,
	}
}

// defaultTokenCounter counts cl100k_base tokens, falling back to whitespace
// words when the encoding cannot be loaded.
func defaultTokenCounter() func(string) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return func(s string) int { return len(strings.Fields(s)) }
	}
	return func(s string) int { return len(enc.Encode(s, nil, nil)) }
}

// Process turns documents into store-ready chunks: split bodies, sanitize the
// metadata, and inject parent_id and source.
func (p *Processor) Process(docs []models.Document) []models.Chunk {
	var chunks []models.Chunk

	for _, doc := range docs {
		for i, text := range p.Chunk(doc.Body) {
			meta := doc.Meta.ToMap()
			meta["parent_id"] = doc.ID
			meta["source"] = doc.Source

			chunks = append(chunks, models.Chunk{
				ID:   fmt.Sprintf("%s#%d", doc.ID, i),
				Text: text,
				Meta: SanitizeMeta(meta),
			})
		}
	}

	return chunks
}

// Chunk splits a body into sentence-aligned pieces of at most ChunkTokens
// tokens. A single oversized sentence forms its own chunk rather than being
// split mid-sentence. The result is never empty: an empty body yields one
// empty chunk, so a document is never silently dropped from the index.
func (p *Processor) Chunk(body string) []string {
	sentences := splitIntoSentences(body)

	var chunks []string
	var current []string
	currentTokens := 0

	for _, sentence := range sentences {
		t := p.config.TokenCounter(sentence)
		if currentTokens+t > p.config.ChunkTokens && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current, currentTokens = nil, 0
		}
		current = append(current, sentence)
		currentTokens += t
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	if len(chunks) == 0 {
		return []string{""}
	}
	return chunks
}

// splitIntoSentences breaks text at sentence-terminal punctuation followed by
// whitespace.
func splitIntoSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])

		if isSentenceEnd(runes[i]) && i+1 < len(runes) && isWhitespace(runes[i+1]) {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
			// Consume the whitespace run
			for i+1 < len(runes) && isWhitespace(runes[i+1]) {
				i++
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// SanitizeMeta keeps only primitive-valued fields. Composite values are
// dropped, never coerced; nil is kept.
func SanitizeMeta(meta map[string]interface{}) map[string]interface{} {
	clean := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		switch v.(type) {
		case string, bool, nil,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			clean[k] = v
		}
	}
	return clean
}
