package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/singer-contrib/tbrel/pkg/api"
	"github.com/singer-contrib/tbrel/pkg/api/constants"
	"github.com/singer-contrib/tbrel/pkg/version"
)

const (
	// MetadataFilename is the name of the optional config file defining
	// additional labels to set on the output image.
	MetadataFilename = "image_metadata.json"
)

// GenerateOutputImageLabels generates the labels stamped on the test image,
// based on the Config and the version of this tool.
func GenerateOutputImageLabels(config *api.Config) map[string]string {
	labels := map[string]string{
		constants.BuilderLabel:        "tbrel",
		constants.BuilderVersionLabel: version.Get().String(),
	}
	if len(config.ProjectID) > 0 {
		labels[constants.ProjectIDLabel] = config.ProjectID
	}

	if data, err := ProcessImageMetadataFile(config.WorkingDir); err == nil {
		ll, ok := data["labels"].([]interface{})
		if !ok {
			return labels
		}
		for _, l := range ll {
			entry, ok := l.(map[string]interface{})
			if !ok {
				continue
			}
			for k, v := range entry {
				value, ok := v.(string)
				if !ok {
					continue
				}
				labels[k] = value
			}
		}
	}
	return labels
}

// ProcessImageMetadataFile returns a map of the labels to set on the output
// image, read from the optional metadata file in the project directory.
func ProcessImageMetadataFile(dir string) (map[string]interface{}, error) {
	filePath := filepath.Join(dir, MetadataFilename)
	fd, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to open file '%s' : %v", filePath, err)
	}
	defer fd.Close()

	var data map[string]interface{}
	if err = json.NewDecoder(fd).Decode(&data); err != nil {
		return nil, fmt.Errorf("JSON decode error with '%s' file : %v", MetadataFilename, err)
	}
	return data, nil
}
