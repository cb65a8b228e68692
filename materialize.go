package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// MaterializerConfig holds everything a Materializer needs. Nothing is read from
// process-wide state after construction.
type MaterializerConfig struct {
	Output OutputRoot
	// BaseDir anchors reconstructed paths. Empty means the working directory at
	// the time Materialize is called.
	BaseDir    string
	Uniquifier NameUniquifier
	// Logger receives one entry per failed file.
	Logger *log.Logger
}

// Materializer copies discovered files into the output root.
type Materializer struct {
	output     OutputRoot
	baseDir    string
	uniquifier NameUniquifier
	logger     *log.Logger
}

func NewMaterializer(cfg MaterializerConfig) *Materializer {
	m := &Materializer{
		output:     cfg.Output,
		baseDir:    cfg.BaseDir,
		uniquifier: cfg.Uniquifier,
		logger:     cfg.Logger,
	}
	if m.uniquifier == nil {
		m.uniquifier = RandomSuffix{}
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	return m
}

// Materialize wipes the (mode, extension) target directory and copies files into
// it one at a time. Failing to prepare the target is the only fatal error;
// individual copy failures are logged, counted and reported in the outcome.
func (m *Materializer) Materialize(files []string, extension string, mode LayoutMode) (*CopyOutcome, error) {
	ext, err := normalizeExtension(extension)
	if err != nil {
		return nil, err
	}

	baseDir := m.baseDir
	if mode == LayoutReconstructed {
		baseDir, err = m.resolveBaseDir()
		if err != nil {
			return nil, err
		}
	}

	target, err := m.output.PrepareTarget(mode, ext)
	if err != nil {
		return nil, err
	}

	outcome := &CopyOutcome{
		Mode:      mode,
		Extension: ext,
		TargetDir: target,
		Total:     len(files),
		Records:   make([]CopyRecord, 0, len(files)),
	}

	for _, file := range files {
		record := CopyRecord{Source: file}

		dest, renamed, err := m.destination(target, baseDir, file, mode)
		if err == nil {
			err = copyFile(file, dest)
		}
		if err != nil {
			m.logger.Error("Error copying file", "path", file, "err", err)
			record.Error = err.Error()
			outcome.Failures++
		} else {
			record.Destination = dest
			record.Renamed = renamed
		}
		outcome.Records = append(outcome.Records, record)
	}

	outcome.Copied = outcome.Total - outcome.Failures
	return outcome, nil
}

func (m *Materializer) resolveBaseDir() (string, error) {
	base := m.baseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w: resolving working directory: %w", ErrTargetPreparation, err)
		}
		base = wd
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("%w: resolving base directory %s: %w", ErrTargetPreparation, base, err)
	}
	return abs, nil
}

// destination computes where src lands under target. renamed is true when a
// flat-mode collision forced a suffixed name.
func (m *Materializer) destination(target, baseDir, src string, mode LayoutMode) (string, bool, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return "", false, fmt.Errorf("%w: %s: %w", ErrSourceResolution, src, err)
	}
	name := filepath.Base(absSrc)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", false, fmt.Errorf("%w: %s has no file name", ErrSourceResolution, src)
	}

	if mode == LayoutReconstructed {
		rel, err := filepath.Rel(baseDir, filepath.Dir(absSrc))
		if err != nil {
			return "", false, fmt.Errorf("%w: %s: %w", ErrSourceResolution, src, err)
		}
		if !isWithin(baseDir, filepath.Dir(absSrc)) {
			return "", false, fmt.Errorf("%w: %s is outside %s", ErrSourceResolution, src, baseDir)
		}
		dir := filepath.Join(target, rel)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", false, fmt.Errorf("%w: creating %s: %w", ErrPerFileCopy, dir, err)
		}
		return filepath.Join(dir, name), false, nil
	}

	dest := filepath.Join(target, name)
	_, err = os.Lstat(dest)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return dest, false, nil
	case err != nil:
		return "", false, fmt.Errorf("%w: checking %s: %w", ErrPerFileCopy, dest, err)
	}

	unique, err := m.uniquifier.Uniquify(dest)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrPerFileCopy, err)
	}
	return unique, true, nil
}

// isWithin reports whether path is base itself or lies beneath it.
func isWithin(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// copyFile copies the bytes of src to dst, keeping the source permission bits.
// A partially written dst is removed on failure.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPerFileCopy, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPerFileCopy, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrPerFileCopy, src)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPerFileCopy, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrPerFileCopy, cerr)
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrPerFileCopy, dst, err)
	}
	return nil
}
