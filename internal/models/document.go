package models

// Meta is the closed set of metadata fields a knowledge document can carry.
// List-valued fields survive loading but are dropped by sanitization before
// anything reaches the vector store.
type Meta struct {
	ID                    string   `yaml:"id" json:"id"`
	Title                 string   `yaml:"title" json:"title"`
	Category              string   `yaml:"category" json:"category"`
	Tags                  []string `yaml:"tags" json:"tags"`
	Updated               string   `yaml:"updated" json:"updated"`
	Description           string   `yaml:"description,omitempty" json:"description,omitempty"`
	TypicalResolutionTime string   `yaml:"typical_resolution_time,omitempty" json:"typical_resolution_time,omitempty"`
	KeyElements           []string `yaml:"key_elements,omitempty" json:"key_elements,omitempty"`
	EscalationTriggers    []string `yaml:"escalation_triggers,omitempty" json:"escalation_triggers,omitempty"`
}

// ToMap flattens the metadata into the open mapping shape the store persists.
// Zero-valued optional fields are omitted; list fields are carried as-is and
// left for sanitization to filter.
func (m Meta) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"title":    m.Title,
		"category": m.Category,
		"updated":  m.Updated,
	}
	if m.Tags != nil {
		out["tags"] = m.Tags
	}
	if m.Description != "" {
		out["description"] = m.Description
	}
	if m.TypicalResolutionTime != "" {
		out["typical_resolution_time"] = m.TypicalResolutionTime
	}
	if m.KeyElements != nil {
		out["key_elements"] = m.KeyElements
	}
	if m.EscalationTriggers != nil {
		out["escalation_triggers"] = m.EscalationTriggers
	}
	return out
}

// Document is one uniformly-shaped knowledge record produced by ingestion.
type Document struct {
	ID     string
	Meta   Meta
	Body   string
	Source string
}

// Chunk is the unit of embedding and retrieval. ID is "<document_id>#<index>"
// so re-ingesting an unchanged source upserts in place.
type Chunk struct {
	ID        string
	Text      string
	Meta      map[string]interface{}
	Embedding []float32
}

// RetrievedChunk is one nearest-neighbor hit; slices of these are ordered
// nearest first.
type RetrievedChunk struct {
	Text string
	Meta map[string]interface{}
}

// Category defines one entry of the controlled vocabulary the answer
// composer classifies into.
type Category struct {
	Key                   string   `json:"-"`
	Description           string   `json:"description"`
	TypicalResolutionTime string   `json:"typical_resolution_time"`
	KeyElements           []string `json:"key_elements"`
	EscalationTriggers    []string `json:"escalation_triggers"`
}
