package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	outputDirName = "dscraped"
	logsDirName   = "logs"
	lockFileName  = ".dscraped.lock"
	copyLogName   = "copy.log"
)

// OutputRoot is the directory holding every generated artifact: the searches/
// and reconstructions/ subtrees, each namespaced by extension, plus logs/.
type OutputRoot struct {
	Path string
}

// defaultOutputRoot places the output root in the per-user cache directory,
// which is %LOCALAPPDATA% on Windows.
func defaultOutputRoot() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locating user data directory: %w", err)
	}
	return filepath.Join(base, outputDirName), nil
}

// Ensure creates the root and its logs directory.
func (o OutputRoot) Ensure() error {
	if err := os.MkdirAll(o.LogsDir(), 0755); err != nil {
		return fmt.Errorf("creating output root %s: %w", o.Path, err)
	}
	return nil
}

func (o OutputRoot) LogsDir() string {
	return filepath.Join(o.Path, logsDirName)
}

// TargetDir is the namespaced directory a (mode, extension) run writes into.
func (o OutputRoot) TargetDir(mode LayoutMode, extension string) string {
	return filepath.Join(o.Path, mode.String(), extension)
}

// PrepareTarget wipes and recreates the target directory for (mode, extension).
// Other extensions and the other mode are left alone.
func (o OutputRoot) PrepareTarget(mode LayoutMode, extension string) (string, error) {
	target := o.TargetDir(mode, extension)
	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("%w: removing %s: %w", ErrTargetPreparation, target, err)
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", ErrTargetPreparation, target, err)
	}
	return target, nil
}

// ClearResult reports which subtrees a Clear call removed.
type ClearResult struct {
	Searches        bool
	Reconstructions bool
}

// Clear removes the searches/ and reconstructions/ subtrees. logs/ is kept.
func (o OutputRoot) Clear() (ClearResult, error) {
	var result ClearResult
	for _, mode := range []LayoutMode{LayoutFlat, LayoutReconstructed} {
		dir := filepath.Join(o.Path, mode.String())
		if _, err := os.Stat(dir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return result, fmt.Errorf("checking %s: %w", dir, err)
		}
		if err := os.RemoveAll(dir); err != nil {
			return result, fmt.Errorf("clearing %s: %w", dir, err)
		}
		switch mode {
		case LayoutFlat:
			result.Searches = true
		case LayoutReconstructed:
			result.Reconstructions = true
		}
	}
	return result, nil
}

// Lock takes the advisory lock guarding the output root for the duration of a
// copy or clear. It does not wait: a held lock returns ErrOutputRootLocked.
func (o OutputRoot) Lock() (unlock func() error, err error) {
	if err := os.MkdirAll(o.Path, 0755); err != nil {
		return nil, fmt.Errorf("creating output root %s: %w", o.Path, err)
	}
	lockPath := filepath.Join(o.Path, lockFileName)
	fl := flock.New(lockPath)
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock on %s: %w", lockPath, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrOutputRootLocked, lockPath)
	}
	return func() error {
		if err := fl.Unlock(); err != nil {
			return fmt.Errorf("failed to release lock on %s: %w", lockPath, err)
		}
		return nil
	}, nil
}
