package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteManifest(t *testing.T) {
	src, files := scenarioTree(t)
	output := OutputRoot{Path: t.TempDir()}

	m := NewMaterializer(MaterializerConfig{Output: output, BaseDir: src, Uniquifier: sequenceTokens()})
	outcome, err := m.Materialize(append(files, filepath.Join(src, "missing.txt")), "txt", LayoutFlat)
	require.NoError(t, err)

	path, err := writeManifest(output, src, "12ms", outcome)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(output.LogsDir(), "searches-txt.manifest.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "searches", doc["mode"])
	assert.Equal(t, "txt", doc["extension"])
	assert.Equal(t, 4, doc["total"])
	assert.Equal(t, 3, doc["copied"])
	assert.Equal(t, 1, doc["failures"])

	records, ok := doc["records"].([]any)
	require.True(t, ok)
	require.Len(t, records, 4)
	renamed := records[1].(map[string]any)
	assert.Equal(t, true, renamed["renamed"])
	failed := records[3].(map[string]any)
	assert.Contains(t, failed["error"], "missing.txt")
}
