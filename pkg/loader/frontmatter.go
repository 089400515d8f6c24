package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/techcorp/helpdesk/internal/models"
)

var (
	frontmatterRe = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n?(.*)$`)
	headingRe     = regexp.MustCompile(`(?m)^#\s+(.*)`)
)

// LoadMarkdownDir ingests every *.md file in dir as a frontmatter document.
// Files without a frontmatter block get synthesized default metadata; files
// with a malformed block are skipped.
func LoadMarkdownDir(dir string) ([]models.Document, []LoadError) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, []LoadError{{Source: dir, Err: err}}
	}

	var docs []models.Document
	var errs []LoadError
	for _, p := range paths {
		doc, err := LoadMarkdownFile(p)
		if err != nil {
			errs = append(errs, LoadError{Source: p, Err: err})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs
}

// LoadMarkdownFile parses a single markdown file. A leading "---" delimited
// YAML block supplies the metadata and must carry an id; otherwise defaults
// are synthesized from the filename and first heading.
func LoadMarkdownFile(path string) (models.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	text := string(raw)
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "---") {
		m := frontmatterRe.FindStringSubmatch(strings.TrimLeft(text, " \t\r\n"))
		if m == nil {
			return models.Document{}, fmt.Errorf("malformed frontmatter block in %s", path)
		}

		var meta models.Meta
		if err := yaml.Unmarshal([]byte(m[1]), &meta); err != nil {
			return models.Document{}, fmt.Errorf("parsing frontmatter in %s: %w", path, err)
		}
		if meta.ID == "" {
			return models.Document{}, fmt.Errorf("frontmatter in %s has no id", path)
		}

		return models.Document{
			ID:     meta.ID,
			Meta:   meta,
			Body:   strings.TrimSpace(m[2]),
			Source: path,
		}, nil
	}

	// No frontmatter: synthesize defaults from the file itself
	title := stem
	if h := headingRe.FindStringSubmatch(text); h != nil {
		title = strings.TrimSpace(h[1])
	}

	meta := models.Meta{
		ID:       stem + "_v1",
		Title:    title,
		Category: "unspecified",
		Tags:     []string{},
		Updated:  today(),
	}

	return models.Document{
		ID:     meta.ID,
		Meta:   meta,
		Body:   strings.TrimSpace(text),
		Source: path,
	}, nil
}
