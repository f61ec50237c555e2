// Package credential handles the service-account key that the image build
// bakes into the test image. The key travels as a base64 build argument and
// is decoded to a fixed path inside the image, so the only transformations
// performed here are load, validate, and encode.
package credential

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/singer-contrib/tbrel/pkg/util/fs"
	utillog "github.com/singer-contrib/tbrel/pkg/util/log"
)

var log = utillog.StderrLog

// serviceAccountType is the only key type the warehouse client accepts.
const serviceAccountType = "service_account"

// Key is the subset of a service-account key file the workflow inspects.
// Only fields needed to decide the key is plausible are parsed; the key is
// never used for authentication here.
type Key struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
}

// Load reads the raw key file from the given path.
func Load(fileSystem fs.FileSystem, path string) ([]byte, error) {
	data, err := fileSystem.ReadFile(path)
	if err != nil {
		return nil, err
	}
	log.V(3).Infof("Loaded %d bytes of credential data from %s", len(data), path)
	return data, nil
}

// Parse validates that data looks like a service-account key and returns
// the parsed fields. The checks mirror what the warehouse client will later
// reject anyway; failing here keeps a corrupt credential out of the image.
func Parse(data []byte) (*Key, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("credential file is empty")
	}
	key := &Key{}
	if err := json.Unmarshal(data, key); err != nil {
		return nil, fmt.Errorf("credential file is not valid JSON: %v", err)
	}
	if key.Type != serviceAccountType {
		return nil, fmt.Errorf("credential has type %q, expected %q", key.Type, serviceAccountType)
	}
	if len(key.ClientEmail) == 0 {
		return nil, fmt.Errorf("credential has no client_email")
	}
	if len(key.PrivateKey) == 0 {
		return nil, fmt.Errorf("credential has no private_key")
	}
	return key, nil
}

// Encode returns the base64 form of the key, as passed to the image build.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode reverses Encode. The image build performs the same decode with
// the platform base64 tool; this implementation exists for verification.
func Decode(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}
