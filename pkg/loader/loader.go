package loader

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/techcorp/helpdesk/internal/models"
)

// LoadError records one ingestion failure. Loading is best-effort over a
// batch: a bad record is skipped and reported here, never propagated to the
// caller as a hard error.
type LoadError struct {
	Source string
	Record string
	Err    error
}

func (e LoadError) Error() string {
	if e.Record != "" {
		return fmt.Sprintf("%s (%s): %v", e.Source, e.Record, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Sources names the knowledge inputs to ingest. Empty fields are skipped.
type Sources struct {
	MarkdownDir         string
	HTMLDir             string
	GuidesPath          string
	CategoriesPath      string
	TroubleshootingPath string
}

// LoadAll ingests every configured source and returns the documents that
// parsed cleanly plus the per-record failures.
func LoadAll(src Sources) ([]models.Document, []LoadError) {
	var docs []models.Document
	var errs []LoadError

	collect := func(d []models.Document, e []LoadError) {
		docs = append(docs, d...)
		errs = append(errs, e...)
	}

	if src.MarkdownDir != "" {
		collect(LoadMarkdownDir(src.MarkdownDir))
	}
	if src.HTMLDir != "" {
		collect(LoadHTMLDir(src.HTMLDir))
	}
	if src.GuidesPath != "" {
		collect(LoadInstallationGuides(src.GuidesPath))
	}
	if src.CategoriesPath != "" {
		collect(LoadCategoryDefinitions(src.CategoriesPath))
	}
	if src.TroubleshootingPath != "" {
		collect(LoadTroubleshooting(src.TroubleshootingPath))
	}

	for _, e := range errs {
		log.Printf("loader: skipped record: %v", e)
	}

	return docs, errs
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// titleCase turns "password_reset" into "Password Reset".
func titleCase(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
