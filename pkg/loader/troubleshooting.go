package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/techcorp/helpdesk/internal/models"
)

type troubleshootRecord struct {
	Category          string   `json:"category"`
	Steps             []string `json:"steps"`
	EscalationTrigger string   `json:"escalation_trigger"`
	EscalationContact string   `json:"escalation_contact"`
}

// LoadTroubleshooting ingests the troubleshooting database. The file is either
// a raw mapping of issue-key to record or the same mapping wrapped under a
// top-level "troubleshooting_steps" key.
func LoadTroubleshooting(path string) ([]models.Document, []LoadError) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, []LoadError{{Source: path, Err: err}}
	}

	var wrapper struct {
		TroubleshootingSteps map[string]json.RawMessage `json:"troubleshooting_steps"`
	}
	records := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.TroubleshootingSteps != nil {
		records = wrapper.TroubleshootingSteps
	} else if err := json.Unmarshal(raw, &records); err != nil {
		return nil, []LoadError{{Source: path, Err: err}}
	}

	keys := make([]string, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var docs []models.Document
	var errs []LoadError
	for _, key := range keys {
		var rec troubleshootRecord
		if err := json.Unmarshal(records[key], &rec); err != nil {
			errs = append(errs, LoadError{Source: path, Record: key, Err: err})
			continue
		}
		if len(rec.Steps) == 0 {
			errs = append(errs, LoadError{
				Source: path,
				Record: key,
				Err:    fmt.Errorf("record has no steps"),
			})
			continue
		}

		if rec.Category == "" {
			rec.Category = "General"
		}
		if rec.EscalationContact == "" {
			rec.EscalationContact = "N/A"
		}

		id := key + "_troubleshoot_v1"
		meta := models.Meta{
			ID:       id,
			Title:    titleCase(key),
			Category: "troubleshooting",
			Tags:     []string{rec.Category},
			Updated:  today(),
		}

		docs = append(docs, models.Document{
			ID:     id,
			Meta:   meta,
			Body:   troubleshootBody(key, rec),
			Source: path,
		})
	}
	return docs, errs
}

func troubleshootBody(key string, rec troubleshootRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Issue Key: %s\n", key)
	fmt.Fprintf(&b, "Category: %s\n", rec.Category)
	fmt.Fprintf(&b, "Escalation Trigger: %s\n\n", rec.EscalationTrigger)
	b.WriteString("Resolution Steps:\n")
	for _, s := range rec.Steps {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	fmt.Fprintf(&b, "\nEscalation Contact: %s", rec.EscalationContact)
	return b.String()
}
