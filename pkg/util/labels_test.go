package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/singer-contrib/tbrel/pkg/api"
	"github.com/singer-contrib/tbrel/pkg/api/constants"
)

func TestImageMetadataLabels(t *testing.T) {
	tests := []struct {
		json  string
		count int
	}{
		{
			json:  "{\"labels\": [{\"org.example/service\":\"target-bigquery\"}]}",
			count: 1,
		},
		{
			json:  "{\"labels\": [{\"labelkey1\":\"value1\"},{\"labelkey2\":\"value2\"}]}",
			count: 2,
		},
		{
			json:  "{\"labels\": [{\"labelkey1\":\"value1\",\"labelkey2\":\"value2\"}]}",
			count: 2,
		},
	}
	for _, tc := range tests {
		tempDir := t.TempDir()

		path := filepath.Join(tempDir, MetadataFilename)
		if err := os.WriteFile(path, []byte(tc.json), 0700); err != nil {
			t.Fatalf("could not create temp image_metadata.json: %v", err)
		}

		cfg := &api.Config{
			WorkingDir: tempDir,
			ProjectID:  "warehouse-ci",
		}
		data := GenerateOutputImageLabels(cfg)
		// builder, builder-version and project-id labels are always present
		if len(data) != tc.count+3 {
			t.Fatalf("data from GenerateOutputImageLabels len %d when needed %d for %s", len(data), tc.count+3, tc.json)
		}
		if data[constants.ProjectIDLabel] != "warehouse-ci" {
			t.Errorf("expected project id label, got %v", data)
		}
	}
}

func TestGenerateOutputImageLabelsWithoutMetadataFile(t *testing.T) {
	cfg := &api.Config{WorkingDir: t.TempDir()}
	data := GenerateOutputImageLabels(cfg)
	if len(data) != 2 {
		t.Fatalf("expected only the builder labels, got %v", data)
	}
}
