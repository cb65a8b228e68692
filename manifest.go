package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// manifestPath is where the record of a (mode, extension) copy run is kept.
func manifestPath(output OutputRoot, mode LayoutMode, extension string) string {
	return filepath.Join(output.LogsDir(), fmt.Sprintf("%s-%s.manifest.yaml", mode, extension))
}

type copyManifest struct {
	Mode       string      `yaml:"mode"`
	Root       string      `yaml:"root"`
	SearchTime string      `yaml:"search_time"`
	Outcome    CopyOutcome `yaml:",inline"`
}

// writeManifest records which source went where, replacing the previous
// manifest for the same (mode, extension).
func writeManifest(output OutputRoot, root, searchTime string, outcome *CopyOutcome) (string, error) {
	path := manifestPath(output, outcome.Mode, outcome.Extension)
	data, err := yaml.Marshal(copyManifest{
		Mode:       outcome.Mode.String(),
		Root:       root,
		SearchTime: searchTime,
		Outcome:    *outcome,
	})
	if err != nil {
		return "", fmt.Errorf("error encoding manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("error creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("error writing manifest %s: %w", path, err)
	}
	return path, nil
}
