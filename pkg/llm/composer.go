package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"github.com/techcorp/helpdesk/internal/models"
)

// ContextChunkLimit caps how many retrieved chunks make it into the prompt.
// Chunks beyond the cap are dropped to bound prompt size.
const ContextChunkLimit = 10

// ComposerConfig represents the configuration for the answer composer.
type ComposerConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string // Ollama server URL
}

// Composer builds the grounding prompt from retrieved context and asks the
// language model for an answer in the fixed help-desk output format. The
// model's text is returned verbatim; adherence to the format is instructed,
// not validated.
type Composer struct {
	config ComposerConfig
	llm    llms.Model
}

// NewComposerWithConfig creates a Composer backed by an Ollama model.
func NewComposerWithConfig(config ComposerConfig) (*Composer, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return NewComposerWithModel(config, model)
}

// NewComposerWithModel creates a Composer around an existing model. Tests use
// this to substitute a fake.
func NewComposerWithModel(config ComposerConfig, model llms.Model) (*Composer, error) {
	if config.Model == "" {
		config.Model = "mistral" // Default Ollama model
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.Temperature == 0 {
		// Low temperature: faithfulness over creativity
		config.Temperature = 0.2
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}

	return &Composer{
		config: config,
		llm:    model,
	}, nil
}

// Compose answers the question grounded in the given context chunks. When
// categories are supplied the model is constrained to classify into that
// controlled vocabulary.
func (c *Composer) Compose(ctx context.Context, question string, contextChunks []string, categories []models.Category) (string, error) {
	systemPrompt := RenderSystemPrompt(contextChunks, categories)

	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, question),
	}

	response, err := c.llm.GenerateContent(ctx, content,
		llms.WithTemperature(c.config.Temperature),
		llms.WithMaxTokens(c.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return response.Choices[0].Content, nil
}

// RenderSystemPrompt builds the grounding prompt. It is a pure function so
// the prompt structure can be tested without a model call.
func RenderSystemPrompt(contextChunks []string, categories []models.Category) string {
	if len(contextChunks) > ContextChunkLimit {
		contextChunks = contextChunks[:ContextChunkLimit]
	}
	contextText := strings.Join(contextChunks, "\n\n")

	var b strings.Builder
	b.WriteString("You are TechCorp's IT Help-Desk Assistant.\n\n")
	b.WriteString("<CONTEXT>\n")
	b.WriteString(contextText)
	b.WriteString("\n</CONTEXT>\n\n")

	b.WriteString("Rules\n")
	b.WriteString("1. Use ONLY the information inside <CONTEXT>. Never invent URLs, contacts, or procedures. If the answer is not there, apologise and suggest escalation.\n")
	if len(categories) > 0 {
		b.WriteString("2. Classify the issue into exactly one of the categories listed under Categories.\n")
		b.WriteString("3. Address every key element listed for the chosen category.\n")
		b.WriteString("4. Quote or paraphrase the context faithfully.\n")
		b.WriteString("5. Answer \"Escalation Required: Yes\" if and only if the user's issue matches one of the chosen category's escalation triggers.\n")
		b.WriteString("6. Format exactly like:\n")
	} else {
		b.WriteString("2. Identify the best-fit issue category (password_reset, wifi_connection, etc.).\n")
		b.WriteString("3. Provide a concise, friendly answer with numbered or bulleted steps when possible, mentioning the escalation trigger and contact if escalation is needed.\n")
		b.WriteString("4. Format exactly like:\n")
	}
	b.WriteString("Category: <category>\n\nResponse:\n<answer>\n\nEscalation Required: <Yes/No>\n")

	if len(categories) > 0 {
		b.WriteString("\nCategories\n")
		for _, cat := range categories {
			fmt.Fprintf(&b, "- %s: %s\n", cat.Key, cat.Description)
			if len(cat.KeyElements) > 0 {
				fmt.Fprintf(&b, "  Key elements: %s\n", strings.Join(cat.KeyElements, "; "))
			}
			if len(cat.EscalationTriggers) > 0 {
				fmt.Fprintf(&b, "  Escalation triggers: %s\n", strings.Join(cat.EscalationTriggers, "; "))
			}
		}
	}

	return b.String()
}
