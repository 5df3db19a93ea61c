// Package models defines the result types shared by the link graph core and its surfaces.
package models

// Span is a half-open byte range [Start, End) into the parsed text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Reference is one parsed [[wikilink]].
type Reference struct {
	Target      string  `json:"target"`
	Heading     *string `json:"heading"`
	DisplayText *string `json:"display_text"`
	Span        Span    `json:"span"`
	Raw         string  `json:"raw"`
}

// ReferenceSet is the result of parsing a note's text.
type ReferenceSet struct {
	References      []Reference `json:"references"`
	ReferencedNotes []string    `json:"referenced_notes"`
}

// BacklinkGroup holds the references of one source note that point at the queried note.
type BacklinkGroup struct {
	SourcePath string      `json:"source_path"`
	SourceName string      `json:"source_name"`
	References []Reference `json:"references"`
}

// Resolution is the outcome of resolving a link target. Path is nil when
// nothing matched.
type Resolution struct {
	Target string  `json:"target"`
	Path   *string `json:"path"`
	Found  bool    `json:"found"`
}

// OutgoingLink groups every reference to one distinct target.
type OutgoingLink struct {
	Target       string      `json:"target"`
	Count        int         `json:"count"`
	References   []Reference `json:"references"`
	ResolvedPath *string     `json:"resolved_path"`
}
