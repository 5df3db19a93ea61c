package vault

import "testing"

func TestSplitTarget(t *testing.T) {
	cases := []struct {
		in, folder, name string
	}{
		{"Note", "", "Note"},
		{"sub/Note", "sub", "Note"},
		{"a/b/Note", "a/b", "Note"},
		{"folder/", "folder", ""},
		{"", "", ""},
	}
	for _, c := range cases {
		folder, name := SplitTarget(c.in)
		if folder != c.folder || name != c.name {
			t.Errorf("SplitTarget(%q) = (%q, %q), want (%q, %q)", c.in, folder, name, c.folder, c.name)
		}
	}
}

func TestSameNote(t *testing.T) {
	if !SameNote("Alpha", "aLPHA") {
		t.Error("names differing only in case should match")
	}
	if SameNote("Alpha", "Alpha2") {
		t.Error("different names should not match")
	}
}

func TestNoteName(t *testing.T) {
	cases := map[string]string{
		"/v/Note.md":        "Note",
		"a/b/archive.v2.md": "archive.v2",
		"plain":             "plain",
	}
	for in, want := range cases {
		if got := NoteName(in); got != want {
			t.Errorf("NoteName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsNote(t *testing.T) {
	if !IsNote("a.md") || IsNote("a.txt") || IsNote("a.MD") || IsNote("md") {
		t.Error("IsNote mismatch")
	}
}
