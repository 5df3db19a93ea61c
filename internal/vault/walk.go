// Package vault holds the traversal policy shared by every vault walk, note
// name normalization and the file-tree builder.
package vault

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Entry is one visible folder or note found by Walk.
type Entry struct {
	Path  string // absolute
	Rel   string // slash-separated, relative to the vault root
	Name  string // base name
	Dir   bool
	Depth int // 0 for direct children of the root
	Info  fs.FileInfo
}

// Visitor is called for every entry Walk visits. Returning fs.SkipDir on a
// folder skips its contents, on a note it skips the rest of the containing
// folder. fs.SkipAll stops the walk. Any other error
// aborts the walk and is returned by Walk.
type Visitor func(e Entry) error

// Walk visits the folders and notes under root depth-first. Entries of one
// directory are visited in file name order and a folder is visited before
// its contents. Hidden entries, entries excluded by policy and non-note files
// are never visited. Symlinks are followed. Directories that cannot be read
// and entries that vanish before they can be inspected are skipped silently.
// A missing root visits nothing.
func Walk(root string, policy *Policy, visit Visitor) error {
	err := walkDir(root, "", 0, policy, visit)
	if errors.Is(err, fs.SkipAll) || errors.Is(err, fs.SkipDir) {
		return nil
	}
	return err
}

func walkDir(dir, rel string, depth int, policy *Policy, visit Visitor) error {
	children, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, d := range children {
		e, ok := inspect(dir, rel, depth, d, policy)
		if !ok {
			continue
		}
		err := visit(e)
		if e.Dir {
			if errors.Is(err, fs.SkipDir) {
				continue
			}
			if err != nil {
				return err
			}
			if err := walkDir(e.Path, e.Rel, depth+1, policy, visit); err != nil {
				return err
			}
			continue
		}
		if errors.Is(err, fs.SkipDir) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// inspect resolves one directory entry, following symlinks.
func inspect(dir, rel string, depth int, d fs.DirEntry, policy *Policy) (Entry, bool) {
	name := d.Name()
	if IsHidden(name) {
		return Entry{}, false
	}
	// Plain files that are not notes never need a stat.
	if d.Type()&(fs.ModeSymlink|fs.ModeDir) == 0 && !IsNote(name) {
		return Entry{}, false
	}

	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, false
	}
	isDir := info.IsDir()
	if !isDir && (!info.Mode().IsRegular() || !IsNote(name)) {
		return Entry{}, false
	}

	childRel := name
	if rel != "" {
		childRel = rel + "/" + name
	}
	if policy.Excluded(childRel, name, isDir) {
		return Entry{}, false
	}
	return Entry{
		Path:  path,
		Rel:   childRel,
		Name:  name,
		Dir:   isDir,
		Depth: depth,
		Info:  info,
	}, true
}

// Notes returns every note under root in walk order.
func Notes(root string, policy *Policy) []Entry {
	var out []Entry
	_ = Walk(root, policy, func(e Entry) error {
		if !e.Dir {
			out = append(out, e)
		}
		return nil
	})
	return out
}
