package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// TemplateCatalog is the on-disk format for importing warehouse templates.
type TemplateCatalog struct {
	Templates []model.WarehouseTemplate `yaml:"templates"`
}

// LoadTemplateCatalog reads and validates a YAML template catalog. Every
// template must pass structural validation; one bad entry fails the whole
// load so a partial catalog is never imported.
func LoadTemplateCatalog(path string) ([]model.WarehouseTemplate, error) {
	data, err := os.ReadFile(ExpandPath(path)) // #nosec G304 -- user-supplied catalog path
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog: %w", err)
	}

	var catalog TemplateCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog %s: %w", path, err)
	}

	if len(catalog.Templates) == 0 {
		return nil, fmt.Errorf("template catalog %s contains no templates", path)
	}

	seen := make(map[string]bool, len(catalog.Templates))
	for i := range catalog.Templates {
		tmpl := &catalog.Templates[i]
		if err := tmpl.Validate(); err != nil {
			return nil, fmt.Errorf("template catalog %s: %w", path, err)
		}
		if seen[tmpl.ID] {
			return nil, fmt.Errorf("template catalog %s: duplicate template ID %s", path, tmpl.ID)
		}
		seen[tmpl.ID] = true
	}

	return catalog.Templates, nil
}
