package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/techcorp/helpdesk/internal/models"
	cfgPkg "github.com/techcorp/helpdesk/pkg/config"
	"github.com/techcorp/helpdesk/pkg/indexer"
	"github.com/techcorp/helpdesk/pkg/llm"
	"github.com/techcorp/helpdesk/pkg/loader"
	"github.com/techcorp/helpdesk/pkg/processor"
	"github.com/techcorp/helpdesk/pkg/retriever"
	"github.com/techcorp/helpdesk/pkg/store"
	"github.com/techcorp/helpdesk/server"
)

type flags struct {
	configPath      string
	markdownDir     string
	htmlDir         string
	guides          string
	categories      string
	troubleshooting string
	dbURL           string
	ollamaURL       string
	model           string
	reindex         bool
	serve           bool
	port            string
}

func main() {
	f := parseFlags()

	if err := run(f); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() flags {
	var f flags

	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.StringVar(&f.markdownDir, "markdown-dir", "", "Directory of frontmatter markdown knowledge files")
	flag.StringVar(&f.htmlDir, "html-dir", "", "Directory of saved HTML knowledge pages")
	flag.StringVar(&f.guides, "guides", "", "Path to installation guides JSON")
	flag.StringVar(&f.categories, "categories", "", "Path to category definitions JSON")
	flag.StringVar(&f.troubleshooting, "troubleshooting", "", "Path to troubleshooting database JSON")
	flag.StringVar(&f.dbURL, "db-url", "", "PostgreSQL connection string")
	flag.StringVar(&f.ollamaURL, "ollama-url", "", "Ollama server URL")
	flag.StringVar(&f.model, "model", "", "LLM model to use")
	flag.BoolVar(&f.reindex, "index", false, "Rebuild the vector index from the knowledge sources")
	flag.BoolVar(&f.serve, "serve", false, "Run the HTTP help-desk server instead of the chat loop")
	flag.StringVar(&f.port, "port", "", "HTTP server port")
	flag.Parse()

	return f
}

func loadConfig(f flags) (*cfgPkg.Config, error) {
	cfg, err := cfgPkg.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	// Command-line flags override the config file
	if f.markdownDir != "" {
		cfg.Knowledge.MarkdownDir = f.markdownDir
	}
	if f.htmlDir != "" {
		cfg.Knowledge.HTMLDir = f.htmlDir
	}
	if f.guides != "" {
		cfg.Knowledge.GuidesPath = f.guides
	}
	if f.categories != "" {
		cfg.Knowledge.CategoriesPath = f.categories
	}
	if f.troubleshooting != "" {
		cfg.Knowledge.TroubleshootingPath = f.troubleshooting
	}
	if f.dbURL != "" {
		cfg.Database.URL = f.dbURL
	}
	if f.ollamaURL != "" {
		cfg.LLM.BaseURL = f.ollamaURL
	}
	if f.model != "" {
		cfg.LLM.Model = f.model
	}
	if f.port != "" {
		cfg.Server.Port = f.port
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return nil, fmt.Errorf("invalid configuration")
	}

	return cfg, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.Embedder.Model,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	composer, err := llm.NewComposerWithConfig(llm.ComposerConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize composer: %v", err)
	}

	vectorStore, err := store.NewWithConfig(store.VectorStoreConfig{
		ConnString:  cfg.Database.URL,
		TableName:   cfg.Database.TableName,
		VectorDim:   cfg.Database.VectorDim,
		SearchLimit: cfg.Database.SearchLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %v", err)
	}
	defer vectorStore.Close()

	var categories []models.Category
	if cfg.Knowledge.CategoriesPath != "" {
		categories, err = loader.ParseCategories(cfg.Knowledge.CategoriesPath)
		if err != nil {
			color.Yellow("warning: could not load category definitions: %v", err)
		}
	}

	if f.reindex {
		if err := runIndex(cfg, embedder, vectorStore); err != nil {
			return err
		}
	}

	ret := retriever.NewWithConfig(retriever.RetrieverConfig{
		TopK: cfg.Database.SearchLimit,
	}, embedder, vectorStore)

	if f.serve {
		srv := server.New(server.Config{Port: cfg.Server.Port}, ret, composer, categories)
		return srv.ListenAndServe()
	}

	return chatLoop(ret, composer, categories)
}

func runIndex(cfg *cfgPkg.Config, embedder *llm.Embedder, vectorStore *store.VectorStore) error {
	color.Blue("\nLoading knowledge sources\n")

	docs, loadErrs := loader.LoadAll(loader.Sources{
		MarkdownDir:         cfg.Knowledge.MarkdownDir,
		HTMLDir:             cfg.Knowledge.HTMLDir,
		GuidesPath:          cfg.Knowledge.GuidesPath,
		CategoriesPath:      cfg.Knowledge.CategoriesPath,
		TroubleshootingPath: cfg.Knowledge.TroubleshootingPath,
	})
	if len(loadErrs) > 0 {
		color.Yellow("Skipped %d bad records", len(loadErrs))
	}
	if len(docs) == 0 {
		return fmt.Errorf("no knowledge documents loaded")
	}
	color.Green("✓ Loaded %d documents\n", len(docs))

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkTokens: cfg.Processor.ChunkTokens,
	})

	var bar *progressbar.ProgressBar
	ix := indexer.NewWithConfig(indexer.IndexerConfig{
		BatchSize: cfg.Database.BatchSize,
		EmbedRate: cfg.Processor.EmbedRate,
		OnProgress: func(done, total int) {
			if bar == nil {
				bar = getProgressBar(total, "💾 Indexing knowledge base...")
			}
			bar.Set(done)
		},
	}, &proc, embedder, vectorStore)

	count, err := ix.Index(context.Background(), docs)
	if err != nil {
		return fmt.Errorf("indexing failed: %v", err)
	}
	if bar != nil {
		bar.Finish()
	}
	color.Green("\n✓ Indexed %d chunks\n", count)

	return nil
}

func chatLoop(ret *retriever.Retriever, composer *llm.Composer, categories []models.Category) error {
	color.Cyan("\nAsk the IT help desk (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if strings.ToLower(question) == "exit" {
			break
		}
		if question == "" {
			continue
		}

		querySpinner := getSpinner("🔍 Searching knowledge base...")
		results := ret.Retrieve(context.Background(), question, 0, "")
		querySpinner.Finish()
		fmt.Print("\r")

		chunks := make([]string, 0, len(results))
		for _, res := range results {
			chunks = append(chunks, res.Text)
		}

		responseSpinner := getSpinner("🤖 Generating response...")
		answer, err := composer.Compose(context.Background(), question, chunks, categories)
		responseSpinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		assistantPrompt("Assistant:\n%s\n", answer)
	}

	return scanner.Err()
}
