package graph

import (
	"os"
	"unicode/utf8"

	"github.com/starford/wikigraph/internal/models"
	"github.com/starford/wikigraph/internal/parser"
	"github.com/starford/wikigraph/internal/vault"
)

// FindBacklinks returns, per source note, the references under root that
// point at note. A reference matches when the last segment of its target
// equals note case-insensitively. The query itself is compared as given,
// so a folder-qualified query matches nothing. Notes named like the query
// are never scanned. Unreadable or non-UTF-8 files are skipped.
func FindBacklinks(root, note string, policy *vault.Policy) []models.BacklinkGroup {
	out := []models.BacklinkGroup{}
	if note == "" {
		return out
	}
	key := vault.NameKey(note)

	for _, e := range vault.Notes(root, policy) {
		stem := vault.NoteName(e.Name)
		if vault.NameKey(stem) == key {
			continue
		}
		data, err := os.ReadFile(e.Path)
		if err != nil || !utf8.Valid(data) {
			continue
		}

		var refs []models.Reference
		for _, ref := range parser.ParseReferences(string(data)).References {
			if vault.NameKey(vault.LastSegment(ref.Target)) == key {
				refs = append(refs, ref)
			}
		}
		if len(refs) == 0 {
			continue
		}
		out = append(out, models.BacklinkGroup{
			SourcePath: e.Path,
			SourceName: stem,
			References: refs,
		})
	}
	return out
}
