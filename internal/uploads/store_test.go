package uploads

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveCreatesDirectoryAndPreservesExtension(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	store, err := NewStore(dir, 1024)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	stored, err := store.Save("şiirim.PDF", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(stored.Name, ".PDF") || len(stored.Name) != 36+4 {
		t.Fatalf("unexpected stored name %q", stored.Name)
	}
	if stored.Size != 5 || stored.OriginalName != "şiirim.PDF" {
		t.Fatalf("unexpected stored file %+v", stored)
	}
	data, err := os.ReadFile(store.Path(stored.Name))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store, _ := NewStore(t.TempDir(), 1024)
	a, err := store.Save("a.txt", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := store.Save("a.txt", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if a.Name == b.Name {
		t.Fatalf("expected unique names, got %q twice", a.Name)
	}
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir, 4)

	_, err := store.Save("big.jpg", strings.NewReader("12345"))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("oversized file must be removed, found %d entries", len(entries))
	}

	if _, err := store.Save("exact.jpg", strings.NewReader("1234")); err != nil {
		t.Fatalf("file at the limit should be accepted: %v", err)
	}
}

func TestRemoveIgnoresMissingFiles(t *testing.T) {
	store, _ := NewStore(t.TempDir(), 10)
	if err := store.Remove("does-not-exist.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	stored, _ := store.Save("x.txt", strings.NewReader("x"))
	if err := store.Remove(stored.Name); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(store.Path(stored.Name)); !os.IsNotExist(err) {
		t.Fatalf("expected file to be gone, stat err=%v", err)
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"photo.jpeg":            ".jpeg",
		"../../etc/passwd":      "",
		"archive.tar.gz":        ".gz",
		"noext":                 "",
		"weird.ext with space":  "",
		`C:\docs\essay.docx`:    ".docx",
		"kış.şiir":              ".şiir",
		"ödev.ğ":                ".ğ",
		"a.pdf;rm":              "",
		"long.abcdefghijklmnop": "",
	}
	for in, want := range cases {
		if got := Extension(in); got != want {
			t.Fatalf("Extension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewStoreValidates(t *testing.T) {
	if _, err := NewStore("", 10); err == nil {
		t.Fatal("expected empty dir to be rejected")
	}
	if _, err := NewStore("x", 0); err == nil {
		t.Fatal("expected zero limit to be rejected")
	}
}
