package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceOverride adjusts one source from the SOURCES_FILE catalog.
type SourceOverride struct {
	ID      string `yaml:"id"`
	Enabled *bool  `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	// AuxBaseURL is the host serving the market/allow-list endpoint when it
	// differs from BaseURL (bithumb).
	AuxBaseURL string `yaml:"aux_base_url"`
}

type sourcesFile struct {
	Sources []SourceOverride `yaml:"sources"`
}

// LoadSourcesFile parses the optional YAML catalog. An empty path yields no
// overrides.
func LoadSourcesFile(path string) ([]SourceOverride, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParseSources(data)
}

func ParseSources(data []byte) ([]SourceOverride, error) {
	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	seen := make(map[string]bool, len(f.Sources))
	for i := range f.Sources {
		id := strings.ToLower(strings.TrimSpace(f.Sources[i].ID))
		if id == "" {
			return nil, fmt.Errorf("parse sources file: entry %d has no id", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("parse sources file: duplicate id %q", id)
		}
		seen[id] = true
		f.Sources[i].ID = id
	}
	return f.Sources, nil
}

// ApplySources merges overrides into cfg. When the file lists sources, its
// order and enabled flags replace SOURCES.
func ApplySources(cfg Config, overrides []SourceOverride) (Config, map[string]SourceOverride) {
	byID := make(map[string]SourceOverride, len(overrides))
	if len(overrides) == 0 {
		return cfg, byID
	}
	order := make([]string, 0, len(overrides))
	for _, o := range overrides {
		byID[o.ID] = o
		if o.Enabled == nil || *o.Enabled {
			order = append(order, o.ID)
		}
	}
	cfg.Sources = order
	return cfg, byID
}
