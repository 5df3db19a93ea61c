package models

import "encoding/json"

// EntryType tags a TreeEntry as a folder or a note.
type EntryType string

const (
	EntryFolder EntryType = "folder"
	EntryNote   EntryType = "note"
)

// TreeEntry is a node of the vault file tree. Folders carry Children;
// notes carry AbsolutePath. RelativePath is slash-separated and relative
// to the vault root.
type TreeEntry struct {
	Type         EntryType
	Name         string
	AbsolutePath string
	RelativePath string
	ModifiedTime int64 // unix seconds
	Children     []TreeEntry
}

// IsFolder reports whether the entry is a folder.
func (e TreeEntry) IsFolder() bool { return e.Type == EntryFolder }

type folderJSON struct {
	Type         EntryType   `json:"type"`
	Name         string      `json:"name"`
	RelativePath string      `json:"relative_path"`
	ModifiedTime int64       `json:"modified_time"`
	Children     []TreeEntry `json:"children"`
}

type noteJSON struct {
	Type         EntryType `json:"type"`
	Name         string    `json:"name"`
	AbsolutePath string    `json:"absolute_path"`
	RelativePath string    `json:"relative_path"`
	ModifiedTime int64     `json:"modified_time"`
}

// MarshalJSON renders the entry as a tagged union keyed by "type".
func (e TreeEntry) MarshalJSON() ([]byte, error) {
	if e.IsFolder() {
		children := e.Children
		if children == nil {
			children = []TreeEntry{}
		}
		return json.Marshal(folderJSON{
			Type:         EntryFolder,
			Name:         e.Name,
			RelativePath: e.RelativePath,
			ModifiedTime: e.ModifiedTime,
			Children:     children,
		})
	}
	return json.Marshal(noteJSON{
		Type:         EntryNote,
		Name:         e.Name,
		AbsolutePath: e.AbsolutePath,
		RelativePath: e.RelativePath,
		ModifiedTime: e.ModifiedTime,
	})
}

// UnmarshalJSON accepts both variants of the tagged union.
func (e *TreeEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type         EntryType   `json:"type"`
		Name         string      `json:"name"`
		AbsolutePath string      `json:"absolute_path"`
		RelativePath string      `json:"relative_path"`
		ModifiedTime int64       `json:"modified_time"`
		Children     []TreeEntry `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = TreeEntry{
		Type:         raw.Type,
		Name:         raw.Name,
		AbsolutePath: raw.AbsolutePath,
		RelativePath: raw.RelativePath,
		ModifiedTime: raw.ModifiedTime,
		Children:     raw.Children,
	}
	return nil
}

// FileTree is the ordered folder/note hierarchy of a vault.
type FileTree struct {
	VaultPath    string      `json:"vault_path"`
	Root         []TreeEntry `json:"root"`
	TotalNotes   int         `json:"total_notes"`
	TotalFolders int         `json:"total_folders"`
}

// NoteMeta is a lightweight listing entry for one note.
type NoteMeta struct {
	Name         string `json:"name"`
	AbsolutePath string `json:"absolute_path"`
	RelativePath string `json:"relative_path"`
	ModifiedTime int64  `json:"modified_time"`
}
