package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
)

// errSelectionAborted is returned when the user leaves the picker without choosing.
var errSelectionAborted = errors.New("interactive selection aborted")

// pickFiles lets the user narrow the discovered files with a fuzzy finder.
// Candidates are shown relative to root; the selection keeps discovery order.
func pickFiles(files []string, root string) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	labels := make([]string, len(files))
	for i, file := range files {
		labels[i] = displayPath(root, file)
	}

	idx, err := fuzzyfinder.FindMulti(
		files,
		func(i int) string {
			return labels[i]
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return "Select files to copy. Press Tab to multi-select, Enter to confirm."
			}
			info, statErr := os.Stat(files[i])
			if statErr != nil {
				return fmt.Sprintf("Path: %s\nError getting info: %v", files[i], statErr)
			}
			return fmt.Sprintf("Path: %s\nSize: %d bytes\nModified: %s", files[i], info.Size(), info.ModTime().Format("2006-01-02 15:04"))
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, errSelectionAborted
		}
		return nil, fmt.Errorf("fuzzy finder error: %w", err)
	}

	chosen := make(map[int]bool, len(idx))
	for _, i := range idx {
		chosen[i] = true
	}
	selected := make([]string, 0, len(idx))
	for i, file := range files {
		if chosen[i] {
			selected = append(selected, file)
		}
	}
	return selected, nil
}

// displayPath shows path relative to root when it lies beneath it.
func displayPath(root, path string) string {
	if root != "" && isWithin(root, path) {
		if rel, err := filepath.Rel(root, path); err == nil {
			return rel
		}
	}
	return path
}
