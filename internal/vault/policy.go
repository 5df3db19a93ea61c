package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
)

// Policy decides which entries a traversal may visit. Hidden entries are
// always excluded; an optional gitignore-style file adds further exclusions.
// A nil *Policy applies only the hidden-entry rule.
type Policy struct {
	ignore *ignore.GitIgnore
}

// DefaultPolicy returns a policy that only excludes hidden entries.
func DefaultPolicy() *Policy { return &Policy{} }

// LoadPolicy builds the policy for root. When ignoreFile is non-empty and
// exists at the vault root its patterns are compiled; a missing file is not an error.
func LoadPolicy(root, ignoreFile string) (*Policy, error) {
	if ignoreFile == "" {
		return DefaultPolicy(), nil
	}
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ignoreFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultPolicy(), nil
		}
		return nil, fmt.Errorf("vault: load ignore file: %w", err)
	}
	return &Policy{ignore: gi}, nil
}

// NewPolicy compiles gitignore-style lines into a policy.
func NewPolicy(lines ...string) *Policy {
	if len(lines) == 0 {
		return DefaultPolicy()
	}
	return &Policy{ignore: ignore.CompileIgnoreLines(lines...)}
}

// Excluded reports whether the entry with base name name and slash-separated
// vault-relative path rel must be skipped.
func (p *Policy) Excluded(rel, name string, dir bool) bool {
	if IsHidden(name) {
		return true
	}
	if p == nil || p.ignore == nil {
		return false
	}
	if p.ignore.MatchesPath(rel) {
		return true
	}
	return dir && p.ignore.MatchesPath(rel+"/")
}

// ExcludedPath applies Excluded to every segment of rel.
func (p *Policy) ExcludedPath(rel string) bool {
	segs := splitSlash(rel)
	for i, seg := range segs {
		prefix := joinSlash(segs[:i+1])
		if p.Excluded(prefix, seg, i < len(segs)-1) {
			return true
		}
	}
	return false
}
