package loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/techcorp/helpdesk/internal/models"
)

// Selector cascade tried in order when extracting the main content region of
// a saved knowledge page.
var contentSelectors = []string{
	"main",
	"article",
	".content",
	"#content",
	".documentation",
	"#documentation",
}

// LoadHTMLDir ingests saved intranet/help pages (*.html, *.htm) found in dir.
// Each page becomes one document whose body is the page's main content text.
func LoadHTMLDir(dir string) ([]models.Document, []LoadError) {
	var paths []string
	for _, pattern := range []string{"*.html", "*.htm"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, []LoadError{{Source: dir, Err: err}}
		}
		paths = append(paths, matches...)
	}

	var docs []models.Document
	var errs []LoadError
	for _, p := range paths {
		doc, err := loadHTMLFile(p)
		if err != nil {
			errs = append(errs, LoadError{Source: p, Err: err})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs
}

func loadHTMLFile(path string) (models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, err
	}
	defer f.Close()

	page, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return models.Document{}, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	title := strings.TrimSpace(page.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(page.Find("h1").First().Text())
	}
	if title == "" {
		title = stem
	}

	id := stem + "_html_v1"
	meta := models.Meta{
		ID:       id,
		Title:    title,
		Category: "unspecified",
		Tags:     []string{"html"},
		Updated:  today(),
	}

	return models.Document{
		ID:     id,
		Meta:   meta,
		Body:   extractMainContent(page),
		Source: path,
	}, nil
}

func extractMainContent(page *goquery.Document) string {
	var content string
	for _, selector := range contentSelectors {
		if selected := page.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	// Fallback to body if no main content found
	if content == "" {
		content = page.Find("body").Text()
	}

	return cleanContent(content)
}

func cleanContent(content string) string {
	// Collapse whitespace
	content = strings.Join(strings.Fields(content), " ")

	// Remove common page noise
	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
	}
	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return strings.TrimSpace(content)
}
