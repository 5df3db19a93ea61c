// Package linkservice exposes the link graph operations to the HTTP, MCP and
// CLI surfaces. It validates vault arguments against the configured allowlist
// and loads the traversal policy of each vault per call.
package linkservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/wikigraph/internal/apperr"
	"github.com/starford/wikigraph/internal/checksum"
	"github.com/starford/wikigraph/internal/graph"
	"github.com/starford/wikigraph/internal/models"
	"github.com/starford/wikigraph/internal/parser"
	"github.com/starford/wikigraph/internal/storage"
	"github.com/starford/wikigraph/internal/vault"
)

// NoteDetail is the full representation of one note with its link context.
type NoteDetail struct {
	models.NoteMeta
	Title       string                 `json:"title"`
	Content     string                 `json:"content"`
	Checksum    string                 `json:"checksum"`
	Tags        []string               `json:"tags"`
	Frontmatter map[string]any         `json:"frontmatter,omitempty"`
	Links       models.ReferenceSet    `json:"links"`
	Outgoing    []models.OutgoingLink  `json:"outgoing"`
	Backlinks   []models.BacklinkGroup `json:"backlinks"`
}

// Options configures a Service.
type Options struct {
	// AllowedRoots restricts vault arguments to these directories and their
	// subdirectories. Empty allows any absolute path.
	AllowedRoots []string
	// IgnoreFile is the gitignore-style file looked up at each vault root.
	IgnoreFile string
}

// Service runs link graph queries against vaults on the local file system.
type Service struct {
	roots      []string
	ignoreFile string
	log        *slog.Logger
}

// NewService creates a new link service.
func NewService(opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	roots := make([]string, 0, len(opts.AllowedRoots))
	for _, r := range opts.AllowedRoots {
		roots = append(roots, filepath.Clean(r))
	}
	return &Service{roots: roots, ignoreFile: opts.IgnoreFile, log: logger}
}

// Roots returns the configured vault allowlist.
func (s *Service) Roots() []string { return s.roots }

// VaultOrDefault returns vaultPath, or the only allowed root when vaultPath
// is empty and exactly one root is configured.
func (s *Service) VaultOrDefault(vaultPath string) string {
	if vaultPath == "" && len(s.roots) == 1 {
		return s.roots[0]
	}
	return vaultPath
}

// ParseLinks extracts the wikilinks of content.
func (s *Service) ParseLinks(_ context.Context, content string) models.ReferenceSet {
	return nonNilSet(parser.ParseReferences(content))
}

// Resolve maps target to a note file of vaultPath. Absence is not an error.
func (s *Service) Resolve(ctx context.Context, vaultPath, target string) (models.Resolution, error) {
	root, policy, err := s.open(ctx, vaultPath)
	if err != nil {
		return models.Resolution{}, err
	}
	res := models.Resolution{Target: target}
	if p, ok := graph.Resolve(root, target, policy); ok {
		res.Path = &p
		res.Found = true
	}
	return res, nil
}

// Backlinks returns the notes of vaultPath that reference note.
func (s *Service) Backlinks(ctx context.Context, vaultPath, note string) ([]models.BacklinkGroup, error) {
	root, policy, err := s.open(ctx, vaultPath)
	if err != nil {
		return nil, err
	}
	return graph.FindBacklinks(root, note, policy), nil
}

// Tree returns the folder/note hierarchy of vaultPath.
func (s *Service) Tree(ctx context.Context, vaultPath string) (models.FileTree, error) {
	root, policy, err := s.open(ctx, vaultPath)
	if err != nil {
		return models.FileTree{}, err
	}
	return vault.BuildTree(root, policy), nil
}

// Outgoing groups the links of content by target and resolves each against vaultPath.
func (s *Service) Outgoing(ctx context.Context, vaultPath, content string) ([]models.OutgoingLink, error) {
	root, policy, err := s.open(ctx, vaultPath)
	if err != nil {
		return nil, err
	}
	return graph.Outgoing(root, content, policy), nil
}

// List returns every note of vaultPath, newest first. A missing vault has no notes.
func (s *Service) List(ctx context.Context, vaultPath string) ([]models.NoteMeta, error) {
	root, policy, err := s.open(ctx, vaultPath)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewFS(root, policy)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.NoteMeta{}, nil
		}
		return nil, err
	}
	return store.List()
}

// Inspect reads the note at relPath and gathers its metadata, links and backlinks.
func (s *Service) Inspect(ctx context.Context, vaultPath, relPath string) (*NoteDetail, error) {
	root, policy, err := s.open(ctx, vaultPath)
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(relPath, validation.Required); err != nil {
		return nil, fmt.Errorf("%w: path: %v", apperr.ErrInvalidArgument, err)
	}
	store, err := storage.NewFS(root, policy)
	if err != nil {
		return nil, notFound(err)
	}
	meta, err := store.Stat(relPath)
	if err != nil {
		return nil, notFound(err)
	}
	data, err := store.Read(relPath)
	if err != nil {
		return nil, notFound(err)
	}

	res := parser.Parse(data)
	return &NoteDetail{
		NoteMeta:    meta,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Links:       nonNilSet(res.References),
		Outgoing:    graph.Outgoing(root, string(data), policy),
		Backlinks:   graph.FindBacklinks(root, meta.Name, policy),
	}, nil
}

// open validates vaultPath and loads its traversal policy.
func (s *Service) open(ctx context.Context, vaultPath string) (string, *vault.Policy, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if err := validation.Validate(vaultPath, validation.Required, validation.By(absolutePath)); err != nil {
		return "", nil, fmt.Errorf("%w: vault: %v", apperr.ErrInvalidArgument, err)
	}
	root := filepath.Clean(vaultPath)
	if !s.allowed(root) {
		s.log.Warn("vault outside allowed roots", slog.String("vault", root))
		return "", nil, fmt.Errorf("%w: vault %s is not an allowed root", apperr.ErrForbidden, root)
	}

	policy, err := vault.LoadPolicy(root, s.ignoreFile)
	if err != nil {
		s.log.Warn("ignore file skipped", slog.String("vault", root), slog.String("error", err.Error()))
		policy = vault.DefaultPolicy()
	}
	return root, policy, nil
}

func (s *Service) allowed(root string) bool {
	if len(s.roots) == 0 {
		return true
	}
	for _, r := range s.roots {
		if root == r || strings.HasPrefix(root, r+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func absolutePath(value any) error {
	p, _ := value.(string)
	if !filepath.IsAbs(p) {
		return errors.New("must be an absolute path")
	}
	return nil
}

func notFound(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", apperr.ErrNotFound, err)
	case errors.Is(err, storage.ErrInvalidPath):
		return fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	}
	return err
}

func nonNilSet(set models.ReferenceSet) models.ReferenceSet {
	set.References = nonNilSlice(set.References)
	set.ReferencedNotes = nonNilSlice(set.ReferencedNotes)
	return set
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
