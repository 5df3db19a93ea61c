package storage

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/wikigraph/internal/models"
	"github.com/starford/wikigraph/internal/vault"
)

// ErrInvalidPath is returned for paths that are empty, absolute or escape the vault.
var ErrInvalidPath = errors.New("invalid path")

// FS implements Provider backed by the local file system.
type FS struct {
	root   string // absolute path to vault directory
	policy *vault.Policy
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string, policy *vault.Policy) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, policy: policy}, nil
}

// Root returns the absolute vault root.
func (f *FS) Root() string { return f.root }

// safePath resolves a relative note path against the vault root and rejects
// any result that escapes it (directory traversal). Hidden and ignored paths
// are reported as missing.
func (f *FS) safePath(rel string) (string, string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if rel == "" || cleaned == "." {
		return "", "", fmt.Errorf("storage: empty path: %w", ErrInvalidPath)
	}
	if filepath.IsAbs(cleaned) {
		return "", "", fmt.Errorf("storage: absolute paths not allowed: %s: %w", rel, ErrInvalidPath)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", "", fmt.Errorf("storage: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", "", fmt.Errorf("storage: path escapes vault root: %s: %w", rel, ErrInvalidPath)
	}
	slashRel := filepath.ToSlash(cleaned)
	if !vault.IsNote(filepath.Base(abs)) || f.policy.ExcludedPath(slashRel) {
		return "", "", fmt.Errorf("storage: %s: %w", rel, fs.ErrNotExist)
	}
	return abs, slashRel, nil
}

// List walks the vault and returns metadata for every visible note, newest
// first. Notes with equal modification times are ordered by relative path.
func (f *FS) List() ([]models.NoteMeta, error) {
	out := []models.NoteMeta{}
	err := vault.Walk(f.root, f.policy, func(e vault.Entry) error {
		if e.Dir {
			return nil
		}
		out = append(out, meta(e.Path, e.Rel, e.Info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	slices.SortFunc(out, func(a, b models.NoteMeta) int {
		if c := cmp.Compare(b.ModifiedTime, a.ModifiedTime); c != 0 {
			return c
		}
		return strings.Compare(a.RelativePath, b.RelativePath)
	})
	return out, nil
}

// Stat returns metadata for a single note.
func (f *FS) Stat(path string) (models.NoteMeta, error) {
	abs, rel, err := f.safePath(path)
	if err != nil {
		return models.NoteMeta{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.NoteMeta{}, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return models.NoteMeta{}, fmt.Errorf("storage: stat %s: %w", path, fs.ErrNotExist)
	}
	return meta(abs, rel, info), nil
}

// Read returns the raw bytes of a vault note.
func (f *FS) Read(path string) ([]byte, error) {
	abs, _, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

func meta(abs, rel string, info fs.FileInfo) models.NoteMeta {
	return models.NoteMeta{
		Name:         vault.NoteName(abs),
		AbsolutePath: abs,
		RelativePath: rel,
		ModifiedTime: info.ModTime().Unix(),
	}
}
