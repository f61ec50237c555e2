package create

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/singer-contrib/tbrel/pkg/api/constants"
)

func TestAddDockerfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Dockerfile")

	b := New()
	if err := b.AddDockerfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	// order of the recipe steps matters: decode before install, source last
	checks := []string{
		"FROM python:3.8",
		"ARG " + constants.CredentialsBuildArg,
		"RUN mkdir /app-config",
		"base64 -d > " + constants.CredentialsImagePath,
		"ENV " + constants.CredentialsEnv + "=" + constants.CredentialsImagePath,
		"RUN pip install pytest",
		"COPY requirements.txt setup.py ./",
		"ENV " + constants.ProjectIDEnv + "=$" + constants.ProjectIDBuildArg,
		"CMD [\"pytest\"]",
	}
	last := -1
	for _, check := range checks {
		idx := strings.Index(content, check)
		if idx < 0 {
			t.Errorf("generated Dockerfile missing %q", check)
			continue
		}
		if idx < last {
			t.Errorf("step %q out of order", check)
		}
		last = idx
	}
}

func TestAddDockerfileRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Dockerfile")
	if err := os.WriteFile(path, []byte("FROM scratch"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := New().AddDockerfile(path); err == nil {
		t.Fatal("expected an error overwriting an existing Dockerfile")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "FROM scratch" {
		t.Error("existing Dockerfile was modified")
	}
}

func TestAddDockerfileCustomRunner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Dockerfile")

	b := New()
	b.TestRunner = "nose2"
	if err := b.AddDockerfile(path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "CMD [\"nose2\"]") {
		t.Errorf("custom test runner not applied:\n%s", data)
	}
}
