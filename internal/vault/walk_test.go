package vault

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/starford/wikigraph/internal/testutil"
)

func walkRels(t *testing.T, root string, policy *Policy) []string {
	t.Helper()
	var rels []string
	if err := Walk(root, policy, func(e Entry) error {
		rels = append(rels, e.Rel)
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	return rels
}

func TestWalk_SkipsHiddenAndNonNotes(t *testing.T) {
	root := testutil.WriteVault(t, map[string]string{
		"a.md":             "a",
		"b.txt":            "not a note",
		".hidden.md":       "hidden",
		".obsidian/x.md":   "hidden dir",
		"sub/c.md":         "c",
		"sub/.secret/d.md": "hidden nested",
		"sub/image.png":    "png",
	})
	got := walkRels(t, root, nil)
	want := []string{"a.md", "sub", "sub/c.md"}
	if !slices.Equal(got, want) {
		t.Errorf("rels = %v, want %v", got, want)
	}
}

func TestWalk_OrderAndDepth(t *testing.T) {
	root := testutil.WriteVault(t, map[string]string{
		"b.md":        "",
		"B.md":        "",
		"a/x.md":      "",
		"a/deep/y.md": "",
	})
	var got []string
	depths := map[string]int{}
	_ = Walk(root, nil, func(e Entry) error {
		got = append(got, e.Rel)
		depths[e.Rel] = e.Depth
		if e.Path != filepath.Join(root, filepath.FromSlash(e.Rel)) {
			t.Errorf("path %q does not match rel %q", e.Path, e.Rel)
		}
		return nil
	})
	want := []string{"B.md", "a", "a/deep", "a/deep/y.md", "a/x.md", "b.md"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if depths["a"] != 0 || depths["a/deep"] != 1 || depths["a/deep/y.md"] != 2 {
		t.Errorf("depths = %v", depths)
	}
}

func TestWalk_SkipDir(t *testing.T) {
	root := testutil.WriteVault(t, map[string]string{
		"archive/old.md": "",
		"keep/new.md":    "",
	})
	var got []string
	_ = Walk(root, nil, func(e Entry) error {
		got = append(got, e.Rel)
		if e.Dir && e.Name == "archive" {
			return fs.SkipDir
		}
		return nil
	})
	want := []string{"archive", "keep", "keep/new.md"}
	if !slices.Equal(got, want) {
		t.Errorf("rels = %v, want %v", got, want)
	}
}

func TestWalk_SkipAll(t *testing.T) {
	root := testutil.WriteVault(t, map[string]string{
		"a.md":   "",
		"b/c.md": "",
		"d.md":   "",
	})
	var got []string
	err := Walk(root, nil, func(e Entry) error {
		got = append(got, e.Rel)
		if e.Rel == "b/c.md" {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{"a.md", "b", "b/c.md"}
	if !slices.Equal(got, want) {
		t.Errorf("rels = %v, want %v", got, want)
	}
}

func TestWalk_VisitorError(t *testing.T) {
	root := testutil.WriteVault(t, map[string]string{"a.md": ""})
	boom := errors.New("boom")
	err := Walk(root, nil, func(Entry) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")
	if rels := walkRels(t, root, nil); len(rels) != 0 {
		t.Errorf("rels = %v, want none", rels)
	}
}

func TestWalk_FollowsSymlinks(t *testing.T) {
	outside := testutil.WriteVault(t, map[string]string{"linked.md": ""})
	root := testutil.WriteVault(t, map[string]string{"a.md": ""})
	if err := os.Symlink(outside, filepath.Join(root, "shared")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "nowhere.md"), filepath.Join(root, "broken.md")); err != nil {
		t.Fatal(err)
	}
	got := walkRels(t, root, nil)
	want := []string{"a.md", "shared", "shared/linked.md"}
	if !slices.Equal(got, want) {
		t.Errorf("rels = %v, want %v", got, want)
	}
}

func TestWalk_DirectoryNamedLikeNote(t *testing.T) {
	root := testutil.WriteVault(t, map[string]string{"folder.md/inner.md": ""})
	var dirs, notes []string
	_ = Walk(root, nil, func(e Entry) error {
		if e.Dir {
			dirs = append(dirs, e.Rel)
		} else {
			notes = append(notes, e.Rel)
		}
		return nil
	})
	if !slices.Equal(dirs, []string{"folder.md"}) || !slices.Equal(notes, []string{"folder.md/inner.md"}) {
		t.Errorf("dirs = %v notes = %v", dirs, notes)
	}
}

func TestNotes(t *testing.T) {
	root := testutil.WriteVault(t, map[string]string{
		"a.md":   "",
		"x/b.md": "",
		"x/y/":   "",
	})
	var rels []string
	for _, e := range Notes(root, nil) {
		rels = append(rels, e.Rel)
	}
	if !slices.Equal(rels, []string{"a.md", "x/b.md"}) {
		t.Errorf("notes = %v", rels)
	}
}
