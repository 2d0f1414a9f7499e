package score

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Load reads a score document from a YAML or JSON file. The format follows
// the extension; without one, YAML is tried first, then JSON.
func Load(path string) (*Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read score %s: %w", path, err)
	}

	var sc Score
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON score: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML score: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &sc); err != nil {
			if err := json.Unmarshal(data, &sc); err != nil {
				return nil, fmt.Errorf("failed to parse score (tried YAML and JSON): %w", err)
			}
		}
	}

	applyDefaults(&sc)
	return &sc, nil
}

// Parse decodes a score from in-memory YAML (or JSON, which YAML accepts).
func Parse(data []byte) (*Score, error) {
	var sc Score
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse score: %w", err)
	}
	applyDefaults(&sc)
	return &sc, nil
}

func applyDefaults(sc *Score) {
	if sc.Settings.Tempo <= 0 {
		sc.Settings.Tempo = 120
	}
	if sc.Settings.Key == "" {
		sc.Settings.Key = "C"
	}
	if sc.Settings.TimeSignature == "" {
		sc.Settings.TimeSignature = "4/4"
	}
	for _, sec := range sc.Sections {
		if sec.Bars <= 0 {
			sec.Bars = 1
		}
	}
}
