package graph

import (
	"github.com/starford/wikigraph/internal/models"
	"github.com/starford/wikigraph/internal/parser"
	"github.com/starford/wikigraph/internal/vault"
)

// Outgoing groups the references in text by target, in first-seen order,
// and resolves each distinct target against root. Dangling targets carry a
// nil ResolvedPath.
func Outgoing(root, text string, policy *vault.Policy) []models.OutgoingLink {
	set := parser.ParseReferences(text)
	out := make([]models.OutgoingLink, 0, len(set.ReferencedNotes))
	index := make(map[string]int, len(set.ReferencedNotes))

	for _, ref := range set.References {
		i, ok := index[ref.Target]
		if !ok {
			link := models.OutgoingLink{Target: ref.Target}
			if p, found := Resolve(root, ref.Target, policy); found {
				link.ResolvedPath = &p
			}
			i = len(out)
			index[ref.Target] = i
			out = append(out, link)
		}
		out[i].Count++
		out[i].References = append(out[i].References, ref)
	}
	return out
}
