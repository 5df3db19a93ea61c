package vault

import (
	"path"
	"slices"
	"strings"

	"github.com/starford/wikigraph/internal/models"
)

type treeNode struct {
	entry   models.TreeEntry
	file    string // base name, used for ordering
	folders []*treeNode
	notes   []*treeNode
}

// BuildTree returns the ordered folder/note hierarchy under root. Within each
// folder all subfolders precede all notes and each group is sorted by file
// name, byte-wise. A missing root yields an empty tree.
func BuildTree(root string, policy *Policy) models.FileTree {
	top := &treeNode{}
	nodes := map[string]*treeNode{"": top}

	_ = Walk(root, policy, func(e Entry) error {
		parent := nodes[parentRel(e.Rel)]
		if parent == nil {
			return nil
		}
		n := &treeNode{file: e.Name}
		if e.Dir {
			n.entry = models.TreeEntry{
				Type:         models.EntryFolder,
				Name:         e.Name,
				RelativePath: e.Rel,
				ModifiedTime: e.Info.ModTime().Unix(),
			}
			nodes[e.Rel] = n
			parent.folders = append(parent.folders, n)
			return nil
		}
		n.entry = models.TreeEntry{
			Type:         models.EntryNote,
			Name:         NoteName(e.Name),
			AbsolutePath: e.Path,
			RelativePath: e.Rel,
			ModifiedTime: e.Info.ModTime().Unix(),
		}
		parent.notes = append(parent.notes, n)
		return nil
	})

	entries := top.children()
	notes, folders := CountTree(entries)
	return models.FileTree{
		VaultPath:    root,
		Root:         entries,
		TotalNotes:   notes,
		TotalFolders: folders,
	}
}

func (n *treeNode) children() []models.TreeEntry {
	byFile := func(a, b *treeNode) int { return strings.Compare(a.file, b.file) }
	slices.SortStableFunc(n.folders, byFile)
	slices.SortStableFunc(n.notes, byFile)

	out := make([]models.TreeEntry, 0, len(n.folders)+len(n.notes))
	for _, f := range n.folders {
		e := f.entry
		e.Children = f.children()
		out = append(out, e)
	}
	for _, f := range n.notes {
		out = append(out, f.entry)
	}
	return out
}

// CountTree returns the number of notes and folders in entries, recursively.
func CountTree(entries []models.TreeEntry) (notes, folders int) {
	for _, e := range entries {
		if e.IsFolder() {
			n, f := CountTree(e.Children)
			notes += n
			folders += 1 + f
			continue
		}
		notes++
	}
	return notes, folders
}

func parentRel(rel string) string {
	dir := path.Dir(rel)
	if dir == "." {
		return ""
	}
	return dir
}
