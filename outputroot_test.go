package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputRootClear(t *testing.T) {
	output := OutputRoot{Path: t.TempDir()}
	require.NoError(t, output.Ensure())

	for _, p := range []string{
		filepath.Join(output.TargetDir(LayoutFlat, "txt"), "x.txt"),
		filepath.Join(output.TargetDir(LayoutReconstructed, "txt"), "a", "x.txt"),
		filepath.Join(output.LogsDir(), copyLogName),
	} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("data"), 0644))
	}

	result, err := output.Clear()
	require.NoError(t, err)
	assert.True(t, result.Searches)
	assert.True(t, result.Reconstructions)
	assert.NoDirExists(t, filepath.Join(output.Path, "searches"))
	assert.NoDirExists(t, filepath.Join(output.Path, "reconstructions"))
	assert.FileExists(t, filepath.Join(output.LogsDir(), copyLogName))

	again, err := output.Clear()
	require.NoError(t, err)
	assert.Equal(t, ClearResult{}, again)
}

func TestOutputRootClearOnlySearches(t *testing.T) {
	output := OutputRoot{Path: t.TempDir()}
	_, err := output.PrepareTarget(LayoutFlat, "pdf")
	require.NoError(t, err)

	result, err := output.Clear()
	require.NoError(t, err)
	assert.Equal(t, ClearResult{Searches: true}, result)
}

func TestOutputRootPrepareTargetResetsContents(t *testing.T) {
	output := OutputRoot{Path: t.TempDir()}
	target, err := output.PrepareTarget(LayoutReconstructed, "go")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(target, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "nested", "old.go"), nil, 0644))

	again, err := output.PrepareTarget(LayoutReconstructed, "go")
	require.NoError(t, err)
	assert.Equal(t, target, again)

	entries, err := os.ReadDir(again)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOutputRootLock(t *testing.T) {
	output := OutputRoot{Path: filepath.Join(t.TempDir(), "out")}

	unlock, err := output.Lock()
	require.NoError(t, err)

	_, err = output.Lock()
	assert.ErrorIs(t, err, ErrOutputRootLocked)

	require.NoError(t, unlock())

	unlockAgain, err := output.Lock()
	require.NoError(t, err)
	require.NoError(t, unlockAgain())
}

func TestDefaultOutputRoot(t *testing.T) {
	if _, err := os.UserCacheDir(); err != nil {
		t.Skip("no user cache directory in this environment")
	}
	path, err := defaultOutputRoot()
	require.NoError(t, err)
	assert.Equal(t, outputDirName, filepath.Base(path))
}
