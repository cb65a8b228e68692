package main

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gitignore "github.com/monochromegane/go-gitignore"
)

// DiscoverOptions tunes a discovery walk. The zero value matches every regular
// file carrying the extension, case-sensitively.
type DiscoverOptions struct {
	IgnoreCase       bool
	SkipHidden       bool
	RespectGitignore bool

	// Exclude lists directories the walk never enters, such as the output root
	// when it lies inside the searched tree. Entries that do not exist are ignored.
	Exclude []string
	Logger  *log.Logger // optional, receives one warning per skipped subtree
}

// SkipError reports a path the walk could not read and stepped over.
type SkipError struct {
	Path string
	Err  error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipped %s: %v", e.Path, e.Err)
}

func (e *SkipError) Unwrap() error { return e.Err }

// Discovery is the collected result of a walk.
type Discovery struct {
	Root    string
	Files   []string
	Skipped []*SkipError
}

// Discover walks root and returns the absolute path of every regular file whose
// name ends with "."+extension. Unreadable subdirectories are skipped and listed
// in Skipped; only a missing or unreadable root is an error.
func Discover(root, extension string, opts DiscoverOptions) (*Discovery, error) {
	absRoot, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	result := &Discovery{Root: absRoot}
	for path, err := range Walk(absRoot, extension, opts) {
		if err != nil {
			var skip *SkipError
			if !errors.As(err, &skip) {
				return nil, err
			}
			if opts.Logger != nil {
				opts.Logger.Warn("skipping unreadable path", "path", skip.Path, "err", skip.Err)
			}
			result.Skipped = append(result.Skipped, skip)
			continue
		}
		result.Files = append(result.Files, path)
	}
	return result, nil
}

// Walk lazily yields matching files under root. Non-fatal problems are yielded as
// *SkipError and the walk continues; a root that cannot be read is yielded once,
// wrapped in ErrFilesystemAccess, and ends the sequence. Each range over the
// returned sequence performs a fresh walk.
func Walk(root, extension string, opts DiscoverOptions) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		absRoot, err := resolveRoot(root)
		if err != nil {
			yield("", err)
			return
		}

		suffix := "." + extension
		if opts.IgnoreCase {
			suffix = strings.ToLower(suffix)
		}

		var ignoreMatcher gitignore.IgnoreMatcher
		if opts.RespectGitignore {
			ignoreMatcher = loadGitignore(absRoot, opts.Logger)
		}
		excluded := statExcluded(opts.Exclude)

		_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == absRoot {
					yield("", fmt.Errorf("%w: reading %s: %w", ErrFilesystemAccess, path, err))
					return fs.SkipAll
				}
				if !yield("", &SkipError{Path: path, Err: err}) {
					return fs.SkipAll
				}
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if path == absRoot {
				return nil
			}

			name := d.Name()
			isDir := d.IsDir()

			if isDir && len(excluded) > 0 && isExcluded(d, excluded) {
				if opts.Logger != nil {
					opts.Logger.Debug("skipping excluded directory", "path", path)
				}
				return fs.SkipDir
			}

			if opts.SkipHidden && isHidden(name) {
				if isDir {
					return fs.SkipDir
				}
				return nil
			}

			if ignoreMatcher != nil && ignoreMatcher.Match(path, isDir) {
				if isDir {
					return fs.SkipDir
				}
				return nil
			}

			if isDir || !d.Type().IsRegular() {
				return nil
			}

			if opts.IgnoreCase {
				name = strings.ToLower(name)
			}
			if !strings.HasSuffix(name, suffix) {
				return nil
			}
			if !yield(path, nil) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

// resolveRoot returns root as an absolute directory path. A root that is itself
// a symlink is resolved so the walk descends into its target.
func resolveRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %s: %w", ErrFilesystemAccess, root, err)
	}

	info, err := os.Lstat(absRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFilesystemAccess, err)
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		absRoot, err = filepath.EvalSymlinks(absRoot)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrFilesystemAccess, err)
		}
		info, err = os.Stat(absRoot)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrFilesystemAccess, err)
		}
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrFilesystemAccess, absRoot)
	}
	return absRoot, nil
}

// statExcluded stats each excluded directory so it can be recognised by
// identity during the walk, whatever path spelling leads there.
func statExcluded(paths []string) []fs.FileInfo {
	var infos []fs.FileInfo
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

func isExcluded(d fs.DirEntry, excluded []fs.FileInfo) bool {
	info, err := d.Info()
	if err != nil {
		return false
	}
	for _, ex := range excluded {
		if os.SameFile(info, ex) {
			return true
		}
	}
	return false
}

// loadGitignore parses <root>/.gitignore if present. A broken file is reported
// and ignored rather than failing the walk.
func loadGitignore(root string, logger *log.Logger) gitignore.IgnoreMatcher {
	gitIgnorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitIgnorePath); err != nil {
		return nil
	}
	matcher, err := gitignore.NewGitIgnore(gitIgnorePath, root)
	if err != nil {
		if logger != nil {
			logger.Warn("could not parse .gitignore", "path", gitIgnorePath, "err", err)
		}
		return nil
	}
	return matcher
}

// isHidden reports whether a base name is a dot-file or dot-directory.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return len(name) > 0 && name[0] == '.'
}
