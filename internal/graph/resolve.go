// Package graph resolves wikilink targets to note files and computes the
// backlink and outgoing-link relations of a vault. Every operation is
// read-only and total: absence is reported as an empty result.
package graph

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/wikigraph/internal/vault"
)

// Resolve maps a link target to the absolute path of a note under root.
// A folder-qualified target is first looked up at folder/name.md, then any
// target at name.md in the vault root, and finally the vault is searched
// depth-first for the first note whose name matches case-insensitively.
func Resolve(root, target string, policy *vault.Policy) (string, bool) {
	folder, name := vault.SplitTarget(target)
	if name == "" {
		return "", false
	}
	if folder != "" {
		if p, ok := lookup(root, folder+"/"+name+vault.NoteExt, policy); ok {
			return p, true
		}
	}
	if p, ok := lookup(root, name+vault.NoteExt, policy); ok {
		return p, true
	}
	return search(root, name, policy)
}

// lookup checks one fixed vault-relative location.
func lookup(root, rel string, policy *vault.Policy) (string, bool) {
	rel = path.Clean(rel)
	if path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	if policy.ExcludedPath(rel) {
		return "", false
	}
	abs := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return abs, true
}

func search(root, name string, policy *vault.Policy) (string, bool) {
	key := vault.NameKey(name)
	var found string
	_ = vault.Walk(root, policy, func(e vault.Entry) error {
		if e.Dir {
			return nil
		}
		if vault.NameKey(vault.NoteName(e.Name)) == key {
			found = e.Path
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}
