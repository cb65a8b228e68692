package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it wrote to stdout.
// Flag variables are package state, so they are reset before every run.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	rootDir, repoURL = "", ""
	listExtension, listLimit, listTree, listClipboard, listPDF = "", 0, false, false, ""
	copyExtension, copyReconstruct, copyInteractive = "", false, false

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestCLICopyAndClear(t *testing.T) {
	src, _ := scenarioTree(t)
	out := t.TempDir()
	t.Chdir(src)

	stdout, err := execute(t, "copy", "-e", "txt", "--output-root", out, "--reconstruct=false")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^3 files found in \d+(ms|\.\d\ds)\n3 out of 3 files copied\n$`), stdout)

	flat := filesUnder(t, filepath.Join(out, "searches", "txt"))
	require.Len(t, flat, 3)
	assert.Contains(t, flat, "x.txt")
	assert.Contains(t, flat, "y.txt")
	assert.FileExists(t, filepath.Join(out, "logs", copyLogName))
	assert.FileExists(t, filepath.Join(out, "logs", "searches-txt.manifest.yaml"))

	stdout, err = execute(t, "copy", "-e", ".txt", "--output-root", out, "--reconstruct")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 out of 3 files copied")
	assert.Equal(t, []string{"a/x.txt", "b/x.txt", "c/y.txt"}, filesUnder(t, filepath.Join(out, "reconstructions", "txt")))

	stdout, err = execute(t, "clear", "--output-root", out)
	require.NoError(t, err)
	assert.Equal(t, "Searches cleared\nReconstructions cleared\n", stdout)

	stdout, err = execute(t, "clear", "--output-root", out)
	require.NoError(t, err)
	assert.Equal(t, "No searches to clear\n", stdout)
}

func TestCLICopyIgnoresOutputRootInsideSearchedTree(t *testing.T) {
	src, _ := scenarioTree(t)
	out := filepath.Join(src, ".cache", "dscraped")
	t.Chdir(src)

	for range 2 {
		stdout, err := execute(t, "copy", "-e", "txt", "--output-root", out)
		require.NoError(t, err)
		assert.Regexp(t, `^3 files found in .*\n3 out of 3 files copied\n$`, stdout)
	}

	stdout, err := execute(t, "copy", "-e", "txt", "--output-root", out, "--reconstruct")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 out of 3 files copied")

	stdout, err = execute(t, "copy", "-e", "txt", "--output-root", out)
	require.NoError(t, err)
	assert.Regexp(t, `^3 files found in .*\n3 out of 3 files copied\n$`, stdout)

	assert.Len(t, filesUnder(t, filepath.Join(out, "searches", "txt")), 3)
	assert.Equal(t, []string{"a/x.txt", "b/x.txt", "c/y.txt"}, filesUnder(t, filepath.Join(out, "reconstructions", "txt")))
}

func TestClearReleasesOutputRootLock(t *testing.T) {
	out := t.TempDir()

	_, err := execute(t, "clear", "--output-root", out)
	require.NoError(t, err)

	unlock, err := OutputRoot{Path: out}.Lock()
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func TestSessionReleaseWarnsOnUnlockError(t *testing.T) {
	var buf bytes.Buffer
	s := &session{console: log.New(&buf)}

	s.release(func() error { return errors.New("unlock failed") })
	assert.Contains(t, buf.String(), "releasing output root lock")
	assert.Contains(t, buf.String(), "unlock failed")
}

func TestCLIListWithLimit(t *testing.T) {
	src, files := scenarioTree(t)

	stdout, err := execute(t, "list", "-e", "txt", "--root", src, "--output-root", t.TempDir(), "--limit", "2")
	require.NoError(t, err)

	lines := regexp.MustCompile(`\n`).Split(stdout, -1)
	require.Len(t, lines, 5)
	assert.Regexp(t, `^3 files found in `, lines[0])
	assert.Contains(t, files, lines[1])
	assert.Contains(t, files, lines[2])
	assert.Equal(t, "+ 1 more", lines[3])
	assert.Empty(t, lines[4])
}

func TestCLIListTree(t *testing.T) {
	src, _ := scenarioTree(t)

	stdout, err := execute(t, "list", "-e", "txt", "--root", src, "--output-root", t.TempDir(), "--tree")
	require.NoError(t, err)
	assert.Contains(t, stdout, "├── a\n│   └── x.txt\n")
	assert.Contains(t, stdout, "└── c\n    └── y.txt\n")
}

func TestCLIRejectsBadInput(t *testing.T) {
	_, err := execute(t, "list", "-e", "a/b", "--output-root", t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidExtension)

	_, err = execute(t, "list", "-e", "txt", "--root", filepath.Join(t.TempDir(), "missing"), "--output-root", t.TempDir())
	assert.ErrorIs(t, err, ErrFilesystemAccess)

	_, err = execute(t, "copy", "-e", "txt", "--repo", "not-a-repo", "--output-root", t.TempDir())
	assert.ErrorContains(t, err, "does not look like a git URL")
}
