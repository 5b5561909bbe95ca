package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes  = errors.New("path escapes workspace")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
)

// tmpSuffix marks the scratch file ReplaceFileInRoot writes before renaming.
const tmpSuffix = ".cryptopad-tmp"

// PathValidator confines path validation and file operations to the
// workspace root using the os.Root API.
type PathValidator struct {
	root *os.Root
	dir  string
}

// New opens a PathValidator for the workspace at dir.
func New(dir string) (*PathValidator, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace root: %w", err)
	}

	return &PathValidator{
		root: root,
		dir:  absPath,
	}, nil
}

// Close releases the root handle.
func (pv *PathValidator) Close() error {
	if pv.root != nil {
		return pv.root.Close()
	}
	return nil
}

// Dir returns the absolute workspace directory.
func (pv *PathValidator) Dir() string {
	return pv.dir
}

// ValidateAndNormalize validates a workspace-relative path and returns it
// cleaned, with forward slashes, for storage in the catalog. It rejects
// empty, absolute and escaping paths as well as reserved names.
func (pv *PathValidator) ValidateAndNormalize(userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}

	// IsLocal also rejects reserved names such as NUL on Windows
	if !filepath.IsLocal(userPath) {
		if filepath.IsAbs(userPath) {
			return "", fmt.Errorf("%w: %s", ErrAbsolutePath, userPath)
		}
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	cleanPath := filepath.Clean(userPath)
	if cleanPath == "." {
		return "", ErrEmptyPath
	}
	relPath, err := filepath.Rel(pv.dir, filepath.Join(pv.dir, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	return filepath.ToSlash(relPath), nil
}

// ValidateExistingPath validates a path read back from the catalog, which
// stores forward slashes, so a tampered catalog cannot point outside.
func (pv *PathValidator) ValidateExistingPath(storedPath string) (string, error) {
	return pv.ValidateAndNormalize(filepath.FromSlash(storedPath))
}

// Relative turns a command-line path, absolute or relative to the current
// directory, into a validated workspace-relative path.
func (pv *PathValidator) Relative(arg string) (string, error) {
	if arg == "" {
		return "", ErrEmptyPath
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	rel, err := filepath.Rel(pv.dir, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, arg)
	}
	return pv.ValidateAndNormalize(rel)
}

// checked validates path and converts it to the platform form os.Root wants.
func (pv *PathValidator) checked(path string) (string, error) {
	platformPath := filepath.FromSlash(path)
	if _, err := pv.ValidateAndNormalize(platformPath); err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	return platformPath, nil
}

// ReplaceFileInRoot writes data next to path and renames it into place, so
// a crash leaves either the old or the new contents, never a mix.
func (pv *PathValidator) ReplaceFileInRoot(path string, data []byte, perm os.FileMode) error {
	platformPath, err := pv.checked(path)
	if err != nil {
		return err
	}
	tmp := platformPath + tmpSuffix

	f, err := pv.root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		pv.root.Remove(tmp)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		pv.root.Remove(tmp)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		pv.root.Remove(tmp)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := pv.root.Rename(tmp, platformPath); err != nil {
		pv.root.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// MkdirAllInRoot creates directories inside the workspace.
func (pv *PathValidator) MkdirAllInRoot(path string, perm os.FileMode) error {
	platformPath, err := pv.checked(path)
	if err != nil {
		return err
	}
	return pv.root.MkdirAll(platformPath, perm)
}

// ReadFileInRoot reads a file inside the workspace.
func (pv *PathValidator) ReadFileInRoot(path string) ([]byte, error) {
	platformPath, err := pv.checked(path)
	if err != nil {
		return nil, err
	}
	return pv.root.ReadFile(platformPath)
}

// StatInRoot stats a file inside the workspace.
func (pv *PathValidator) StatInRoot(path string) (os.FileInfo, error) {
	platformPath, err := pv.checked(path)
	if err != nil {
		return nil, err
	}
	return pv.root.Stat(platformPath)
}
