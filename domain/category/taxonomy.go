package category

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Taxonomy is the on-disk category file format.
//
//	categories:
//	  - name: technology
//	    description: Software, computers, programming
type Taxonomy struct {
	Categories []Definition `yaml:"categories"`
}

// LoadTaxonomy reads and validates a YAML taxonomy file.
func LoadTaxonomy(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes a YAML taxonomy. Every entry needs a name and a
// description, names must be unique after normalization, and at least one
// category is required.
func ParseTaxonomy(data []byte) ([]Definition, error) {
	var taxonomy Taxonomy
	if err := yaml.Unmarshal(data, &taxonomy); err != nil {
		return nil, fmt.Errorf("%w: parse taxonomy yaml: %w", ErrInvalidInput, err)
	}
	if len(taxonomy.Categories) == 0 {
		return nil, fmt.Errorf("%w: taxonomy defines no categories", ErrInvalidInput)
	}

	var errs []error
	seen := make(map[string]struct{}, len(taxonomy.Categories))
	defs := make([]Definition, 0, len(taxonomy.Categories))
	for i, def := range taxonomy.Categories {
		name := NormalizeName(def.Name)
		description := strings.TrimSpace(def.Description)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("%w: entry %d has no name", ErrInvalidInput, i))
			continue
		case description == "":
			errs = append(errs, fmt.Errorf("%w: entry %d (%s) has no description", ErrInvalidInput, i, name))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate category %q", ErrInvalidInput, name))
			continue
		}
		seen[name] = struct{}{}
		defs = append(defs, Definition{Name: name, Description: description})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return defs, nil
}
