package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/techcorp/helpdesk/internal/models"
)

type categoriesFile struct {
	Categories map[string]models.Category `json:"categories"`
}

// LoadCategoryDefinitions ingests the category taxonomy as documents, one per
// category key, so the definitions themselves become retrievable knowledge.
func LoadCategoryDefinitions(path string) ([]models.Document, []LoadError) {
	cats, err := ParseCategories(path)
	if err != nil {
		return nil, []LoadError{{Source: path, Err: err}}
	}

	var docs []models.Document
	var errs []LoadError
	for _, cat := range cats {
		if cat.Description == "" {
			errs = append(errs, LoadError{
				Source: path,
				Record: cat.Key,
				Err:    fmt.Errorf("category missing description"),
			})
			continue
		}

		id := cat.Key + "_category_v1"
		meta := models.Meta{
			ID:                    id,
			Title:                 cat.Key,
			Category:              "category_definition",
			Tags:                  []string{"taxonomy"},
			Updated:               today(),
			Description:           cat.Description,
			TypicalResolutionTime: cat.TypicalResolutionTime,
			KeyElements:           cat.KeyElements,
			EscalationTriggers:    cat.EscalationTriggers,
		}

		docs = append(docs, models.Document{
			ID:     id,
			Meta:   meta,
			Body:   cat.Description,
			Source: path,
		})
	}
	return docs, errs
}

// ParseCategories reads the taxonomy file into the controlled vocabulary the
// answer composer classifies into, sorted by key.
func ParseCategories(path string) ([]models.Category, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file categoriesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if file.Categories == nil {
		return nil, fmt.Errorf("%s: missing categories key", path)
	}

	keys := make([]string, 0, len(file.Categories))
	for key := range file.Categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	cats := make([]models.Category, 0, len(keys))
	for _, key := range keys {
		cat := file.Categories[key]
		cat.Key = key
		cats = append(cats, cat)
	}
	return cats, nil
}
