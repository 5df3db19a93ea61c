package vault

import (
	"path/filepath"
	"strings"
)

// NoteExt is the extension of note files.
const NoteExt = ".md"

// NameKey normalizes a note name for identity comparison. Matching never
// depends on the case sensitivity of the host file system.
func NameKey(name string) string {
	return strings.ToLower(name)
}

// SameNote reports whether two note names identify the same note.
func SameNote(a, b string) bool {
	return NameKey(a) == NameKey(b)
}

// SplitTarget splits a link target on its last "/" into a folder prefix and
// a note name. folder is empty when target has no "/".
func SplitTarget(target string) (folder, name string) {
	i := strings.LastIndex(target, "/")
	if i < 0 {
		return "", target
	}
	return target[:i], target[i+1:]
}

// LastSegment returns the part of target after its last "/".
func LastSegment(target string) string {
	_, name := SplitTarget(target)
	return name
}

// IsHidden reports whether a base name denotes a hidden entry.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// IsNote reports whether a base name has the note extension.
func IsNote(name string) bool {
	return filepath.Ext(name) == NoteExt
}

// NoteName returns a file's name without directory and extension.
func NoteName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func splitSlash(rel string) []string {
	var out []string
	for _, s := range strings.Split(rel, "/") {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return out
}

func joinSlash(segs []string) string {
	return strings.Join(segs, "/")
}
