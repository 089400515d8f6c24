package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/techcorp/helpdesk/internal/models"
)

type commonIssue struct {
	Issue    string `json:"issue"`
	Solution string `json:"solution"`
}

type installGuide struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Steps          []string      `json:"steps"`
	CommonIssues   []commonIssue `json:"common_issues"`
	SupportContact string        `json:"support_contact"`
}

type guidesFile struct {
	SoftwareGuides map[string]installGuide `json:"software_guides"`
}

// LoadInstallationGuides ingests the software_guides JSON file, producing one
// document per application with a synthesized body.
func LoadInstallationGuides(path string) ([]models.Document, []LoadError) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, []LoadError{{Source: path, Err: err}}
	}

	var file guidesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, []LoadError{{Source: path, Err: err}}
	}
	if file.SoftwareGuides == nil {
		return nil, []LoadError{{Source: path, Err: fmt.Errorf("missing software_guides key")}}
	}

	apps := make([]string, 0, len(file.SoftwareGuides))
	for app := range file.SoftwareGuides {
		apps = append(apps, app)
	}
	sort.Strings(apps)

	var docs []models.Document
	var errs []LoadError
	for _, app := range apps {
		info := file.SoftwareGuides[app]
		if info.Title == "" || len(info.Steps) == 0 {
			errs = append(errs, LoadError{
				Source: path,
				Record: app,
				Err:    fmt.Errorf("guide missing title or steps"),
			})
			continue
		}

		id := info.ID
		if id == "" {
			id = strings.ToLower(app) + "_install_v1"
		}

		meta := models.Meta{
			ID:       id,
			Title:    info.Title,
			Category: "installation_guide",
			Tags:     []string{app, "installation"},
			Updated:  today(),
		}

		docs = append(docs, models.Document{
			ID:     id,
			Meta:   meta,
			Body:   guideBody(info),
			Source: path,
		})
	}
	return docs, errs
}

func guideBody(info installGuide) string {
	var b strings.Builder
	b.WriteString(info.Title)
	b.WriteString("\n\nSteps:\n")
	for _, s := range info.Steps {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	b.WriteString("\nCommon issues:\n")
	for _, ci := range info.CommonIssues {
		fmt.Fprintf(&b, "- %s: %s\n", ci.Issue, ci.Solution)
	}
	fmt.Fprintf(&b, "\nSupport Contact: %s", info.SupportContact)
	return b.String()
}
