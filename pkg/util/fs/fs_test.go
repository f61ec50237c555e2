package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenamePreservesContents(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "dist")
	to := filepath.Join(dir, "old_dist")

	h := NewFileSystem()
	if err := h.Mkdir(from); err != nil {
		t.Fatal(err)
	}
	if err := h.WriteFile(filepath.Join(from, "pkg.whl"), []byte("wheel")); err != nil {
		t.Fatal(err)
	}

	if err := h.Rename(from, to); err != nil {
		t.Fatalf("unexpected rename error: %v", err)
	}
	if h.Exists(from) {
		t.Error("source directory still exists after rename")
	}
	data, err := h.ReadFile(filepath.Join(to, "pkg.whl"))
	if err != nil || string(data) != "wheel" {
		t.Errorf("renamed file not intact: %q, %v", data, err)
	}
}

func TestRemoveDirectoryIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "old_dist")

	h := NewFileSystem()
	if err := h.Mkdir(target); err != nil {
		t.Fatal(err)
	}
	if err := h.RemoveDirectory(target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// second removal of an absent directory must not fail
	if err := h.RemoveDirectory(target); err != nil {
		t.Fatalf("unexpected error on second removal: %v", err)
	}
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	h := NewFileSystem()
	for _, name := range []string{"a.whl", "b.tar.gz"} {
		if err := h.WriteFile(filepath.Join(dir, name), []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	matches, err := h.Glob(filepath.Join(dir, "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 matches, got %v", matches)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	h := NewFileSystem()
	if h.Exists(filepath.Join(dir, "missing")) {
		t.Error("Exists returned true for a missing path")
	}
	if err := os.Mkdir(filepath.Join(dir, "present"), 0700); err != nil {
		t.Fatal(err)
	}
	if !h.Exists(filepath.Join(dir, "present")) {
		t.Error("Exists returned false for a present path")
	}
}
