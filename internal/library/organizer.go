package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"curator/internal/fileutil"
	"curator/internal/services"
	"curator/internal/textutil"
)

// Organizer files media into category directories under the library root.
type Organizer struct {
	root   string
	logger *zap.Logger
}

// NewOrganizer creates an organizer rooted at the library directory.
func NewOrganizer(root string, logger *zap.Logger) *Organizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Organizer{root: filepath.Clean(root), logger: logger}
}

// EnsureCategoryDir creates the directory for a category and returns its
// path. The category name is sanitized for filesystem use.
func (o *Organizer) EnsureCategoryDir(category string) (string, error) {
	sanitized := strings.TrimSpace(textutil.SanitizeFileName(category))
	if sanitized == "" {
		return "", services.Wrap(services.ErrValidation, "organizer", "category dir",
			fmt.Sprintf("category %q sanitizes to an empty name", category), nil)
	}
	dir := filepath.Join(o.root, sanitized)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create category directory %q: %w", dir, err)
	}
	return dir, nil
}

// MoveToCategory moves a file or directory into the category directory,
// allocating a numbered suffix when the target name is taken. It returns
// the final destination path.
func (o *Organizer) MoveToCategory(sourcePath, category string) (string, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "organizer", "move",
			fmt.Sprintf("source %q", sourcePath), err)
	}
	categoryDir, err := o.EnsureCategoryDir(category)
	if err != nil {
		return "", err
	}
	target, err := allocateTarget(categoryDir, filepath.Base(sourcePath), info.IsDir())
	if err != nil {
		return "", err
	}
	if err := o.move(sourcePath, target, info.IsDir()); err != nil {
		return "", err
	}
	o.logger.Info("moved into category",
		zap.String("source", sourcePath),
		zap.String("target", target),
		zap.String("category", category))
	return target, nil
}

// move renames, falling back to copy+delete for cross-device file moves.
// Directories on another device are left to the caller; a recursive copy
// of partially watched media is worse than a clear error.
func (o *Organizer) move(source, target string, isDir bool) error {
	renameErr := os.Rename(source, target)
	if renameErr == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !isDir && errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if copyErr := fileutil.CopyFile(source, target); copyErr != nil {
			return fmt.Errorf("copy across devices: %w", copyErr)
		}
		if same, err := fileutil.SameSize(source, target); err != nil || !same {
			return fmt.Errorf("verify cross-device copy of %q: size mismatch (%v)", source, err)
		}
		if err := os.Remove(source); err != nil {
			o.logger.Warn("source left behind after cross-device copy",
				zap.String("source", source), zap.Error(err))
		}
		return nil
	}
	return fmt.Errorf("move %q to %q: %w", source, target, renameErr)
}

// allocateTarget finds a free name in dir, appending _1, _2, ... before the
// extension when the plain name is taken.
func allocateTarget(dir, name string, isDir bool) (string, error) {
	const maxAttempts = 1000
	ext := ""
	base := name
	if !isDir {
		ext = filepath.Ext(name)
		base = strings.TrimSuffix(name, ext)
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = fmt.Sprintf("%s_%d%s", base, attempt, ext)
		}
		target := filepath.Join(dir, candidate)
		if _, err := os.Stat(target); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return target, nil
			}
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted name slots for %q in %s", name, dir)
}
