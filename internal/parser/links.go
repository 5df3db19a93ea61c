package parser

import (
	"regexp"
	"strings"

	"github.com/starford/wikigraph/internal/models"
)

// wikilinkRe matches [[TARGET]], [[TARGET#HEADING]], [[TARGET|DISPLAY]] and
// [[TARGET#HEADING|DISPLAY]].
var wikilinkRe = regexp.MustCompile(`\[\[([^\]|#]+)(?:#([^|\]]+))?(?:\|([^\]]+))?\]\]`)

// ParseReferences extracts every wikilink from text, left to right and
// non-overlapping. Spans are byte offsets into text. Matches whose target is
// blank after trimming are dropped. ReferencedNotes lists each distinct target
// once, in first-seen order.
func ParseReferences(text string) models.ReferenceSet {
	matches := wikilinkRe.FindAllStringSubmatchIndex(text, -1)

	refs := make([]models.Reference, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	notes := make([]string, 0, len(matches))

	for _, m := range matches {
		target := strings.TrimSpace(text[m[2]:m[3]])
		if target == "" {
			continue
		}
		ref := models.Reference{
			Target:      target,
			Heading:     group(text, m, 2),
			DisplayText: group(text, m, 3),
			Span:        models.Span{Start: m[0], End: m[1]},
			Raw:         text[m[0]:m[1]],
		}
		refs = append(refs, ref)

		if _, ok := seen[target]; !ok {
			seen[target] = struct{}{}
			notes = append(notes, target)
		}
	}

	return models.ReferenceSet{
		References:      refs,
		ReferencedNotes: notes,
	}
}

// group returns the trimmed text of submatch n, or nil when it did not participate.
func group(text string, m []int, n int) *string {
	start, end := m[2*n], m[2*n+1]
	if start < 0 {
		return nil
	}
	s := strings.TrimSpace(text[start:end])
	return &s
}
