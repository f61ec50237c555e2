// Package create bootstraps the canonical Dockerfile for projects that do
// not carry their own image recipe yet.
package create

import (
	"bytes"
	"fmt"
	pathpkg "path"
	"text/template"

	"github.com/singer-contrib/tbrel/pkg/api/constants"
	"github.com/singer-contrib/tbrel/pkg/create/templates"
	"github.com/singer-contrib/tbrel/pkg/util/fs"
	utillog "github.com/singer-contrib/tbrel/pkg/util/log"
)

var log = utillog.StderrLog

const (
	// DefaultBaseImage is the image the generated Dockerfile builds on.
	DefaultBaseImage = "python:3.8"

	// DefaultTestRunner is the test runner installed into the image and
	// used as its default command.
	DefaultTestRunner = "pytest"
)

// Bootstrap creates the files required to build the test image.
type Bootstrap struct {
	fileSystem fs.FileSystem

	// BaseImage is the base of the generated Dockerfile.
	BaseImage string

	// TestRunner is the test runner package and command.
	TestRunner string
}

// New returns a new bootstrap with the default recipe parameters.
func New() *Bootstrap {
	return &Bootstrap{
		fileSystem: fs.NewFileSystem(),
		BaseImage:  DefaultBaseImage,
		TestRunner: DefaultTestRunner,
	}
}

// NewWithFS returns a bootstrap writing through the given filesystem.
func NewWithFS(fileSystem fs.FileSystem) *Bootstrap {
	b := New()
	b.fileSystem = fileSystem
	return b
}

// dockerfileParams is the data rendered into the Dockerfile template. The
// argument, path and variable names come from pkg/api/constants so the
// generated recipe cannot drift from what the build passes in.
type dockerfileParams struct {
	BaseImage            string
	TestRunner           string
	CredentialsBuildArg  string
	CredentialsImageDir  string
	CredentialsImagePath string
	CredentialsEnv       string
	ProjectIDBuildArg    string
	ProjectIDEnv         string
}

// AddDockerfile renders the canonical Dockerfile to the given path. It
// refuses to overwrite an existing recipe.
func (b *Bootstrap) AddDockerfile(path string) error {
	if b.fileSystem.Exists(path) {
		return fmt.Errorf("refusing to overwrite existing Dockerfile at %q", path)
	}

	tmpl, err := template.New("Dockerfile").Parse(templates.Dockerfile)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	params := dockerfileParams{
		BaseImage:            b.BaseImage,
		TestRunner:           b.TestRunner,
		CredentialsBuildArg:  constants.CredentialsBuildArg,
		CredentialsImageDir:  pathpkg.Dir(constants.CredentialsImagePath),
		CredentialsImagePath: constants.CredentialsImagePath,
		CredentialsEnv:       constants.CredentialsEnv,
		ProjectIDBuildArg:    constants.ProjectIDBuildArg,
		ProjectIDEnv:         constants.ProjectIDEnv,
	}
	if err := tmpl.Execute(&buf, params); err != nil {
		return err
	}

	log.V(1).Infof("Writing Dockerfile to %s", path)
	return b.fileSystem.WriteFile(path, buf.Bytes())
}
