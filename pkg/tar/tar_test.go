package tar

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"

	"github.com/singer-contrib/tbrel/pkg/util/fs"
)

func createTestTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"setup.py":                "from setuptools import setup",
		"requirements.txt":        "jsonschema\nsinger-python",
		"target_bigquery/main.py": "print('hi')",
		".git/config":             "[core]",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readTarNames(t *testing.T, r io.Reader) []string {
	t.Helper()
	names := []string{}
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("error reading tar: %v", err)
		}
		names = append(names, header.Name)
	}
	sort.Strings(names)
	return names
}

func TestCreateTarStreamExcludesGit(t *testing.T) {
	dir := createTestTree(t)

	var buf bytes.Buffer
	th := New(fs.NewFileSystem())
	if err := th.CreateTarStream(dir, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := readTarNames(t, &buf)
	expected := []string{
		"requirements.txt",
		"setup.py",
		"target_bigquery/",
		"target_bigquery/main.py",
	}
	if len(names) != len(expected) {
		t.Fatalf("expected entries %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("expected entry %q, got %q", expected[i], names[i])
		}
	}
}

func TestCreateTarStreamCustomExclusion(t *testing.T) {
	dir := createTestTree(t)

	th := New(fs.NewFileSystem())
	th.SetExclusionPattern(regexp.MustCompile(`\.txt$`))

	var buf bytes.Buffer
	if err := th.CreateTarStream(dir, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range readTarNames(t, &buf) {
		if name == "requirements.txt" {
			t.Error("excluded file ended up in the archive")
		}
	}
}

func TestCreateTarStreamContents(t *testing.T) {
	dir := createTestTree(t)

	var buf bytes.Buffer
	th := New(fs.NewFileSystem())
	if err := th.CreateTarStream(dir, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tr := tar.NewReader(&buf)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if header.Name != "setup.py" {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "from setuptools import setup" {
			t.Errorf("unexpected content: %q", data)
		}
		return
	}
	t.Error("setup.py not found in archive")
}

func TestParseExclusionPattern(t *testing.T) {
	type testDef struct {
		expr        string
		expectNil   bool
		expectError bool
	}
	tests := map[string]testDef{
		"Empty":      {"", true, false},
		"Whitespace": {"   ", true, false},
		"Valid":      {`(^|/)\.git(/|$)`, false, false},
		"Invalid":    {"([", false, true},
	}

	for test, def := range tests {
		re, err := ParseExclusionPattern(def.expr)
		if def.expectError {
			if err == nil {
				t.Errorf("%s: expected error, got %v", test, re)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test, err)
		}
		if def.expectNil != (re == nil) {
			t.Errorf("%s: expected nil=%v, got %v", test, def.expectNil, re)
		}
	}
}
