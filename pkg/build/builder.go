// Package build implements the image build workflow: load and validate the
// service-account credential, make sure a Dockerfile exists, archive the
// project tree, and drive the engine build that bakes the credential into
// the test image.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/singer-contrib/tbrel/pkg/api"
	"github.com/singer-contrib/tbrel/pkg/api/constants"
	"github.com/singer-contrib/tbrel/pkg/create"
	"github.com/singer-contrib/tbrel/pkg/credential"
	"github.com/singer-contrib/tbrel/pkg/docker"
	tbrelerr "github.com/singer-contrib/tbrel/pkg/errors"
	"github.com/singer-contrib/tbrel/pkg/tar"
	"github.com/singer-contrib/tbrel/pkg/util"
	"github.com/singer-contrib/tbrel/pkg/util/fs"
	utillog "github.com/singer-contrib/tbrel/pkg/util/log"
	"github.com/singer-contrib/tbrel/pkg/util/status"
)

var log = utillog.StderrLog

// Builder executes the image build described by its Config.
type Builder struct {
	config     *api.Config
	docker     docker.Docker
	fileSystem fs.FileSystem
	result     *api.Result
}

// New returns a Builder connected to the docker engine named by the
// Config.
func New(config *api.Config) (*Builder, error) {
	dkr, err := docker.New(config.DockerConfig)
	if err != nil {
		return nil, err
	}
	return NewWithDependencies(config, dkr, fs.NewFileSystem()), nil
}

// NewWithDependencies returns a Builder using the given engine and
// filesystem. Used by tests.
func NewWithDependencies(config *api.Config, dkr docker.Docker, fileSystem fs.FileSystem) *Builder {
	return &Builder{
		config:     config,
		docker:     dkr,
		fileSystem: fileSystem,
		result:     &api.Result{},
	}
}

// Build runs the whole image build. The returned Result is valid even when
// an error is returned; its BuildInfo then carries the failure reason and
// the timing of the stages that did run.
func (b *Builder) Build(ctx context.Context) (*api.Result, error) {
	if err := b.docker.CheckReachable(ctx); err != nil {
		return b.result, err
	}

	encoded, err := b.prepareCredential()
	if err != nil {
		return b.result, err
	}

	dockerfile, err := b.ensureDockerfile()
	if err != nil {
		return b.result, err
	}

	if err := b.buildImage(ctx, dockerfile, encoded); err != nil {
		return b.result, err
	}

	if id, err := b.docker.GetImageID(ctx, b.config.Tag); err == nil {
		b.result.ImageID = id
	} else {
		log.V(1).Infof("Built image %s but could not read its ID: %v", b.config.Tag, err)
	}

	b.result.Success = true
	b.result.Messages = append(b.result.Messages,
		fmt.Sprintf("image %s embeds the service-account key; do not push it to a shared registry", b.config.Tag))
	return b.result, nil
}

// prepareCredential loads the key file, checks it parses as a
// service-account key, and returns its base64 form for the build argument.
// With AllowMissingCredentials set, load and parse failures degrade to
// warnings and whatever bytes were read (possibly none) are encoded as is.
func (b *Builder) prepareCredential() (string, error) {
	var data []byte

	stages, err := api.TimedStep(b.result.BuildInfo.Stages, api.StageCredentials, api.StepLoadCredentials, func() error {
		var loadErr error
		data, loadErr = credential.Load(b.fileSystem, b.config.CredentialsPath)
		return loadErr
	})
	b.result.BuildInfo.Stages = stages
	if err != nil {
		if !b.config.AllowMissingCredentials {
			b.result.BuildInfo.FailureReason = status.NewFailureReason(
				status.ReasonCredentialLoadFailed, status.ReasonMessageCredentialLoadFailed)
			return "", tbrelerr.NewCredentialsError(b.config.CredentialsPath, err)
		}
		log.Warningf("Credential %s could not be read (%v); baking an empty credential into the image", b.config.CredentialsPath, err)
		data = nil
	}

	stages, err = api.TimedStep(b.result.BuildInfo.Stages, api.StageCredentials, api.StepValidateCredentials, func() error {
		if data == nil && b.config.AllowMissingCredentials {
			return nil
		}
		key, parseErr := credential.Parse(data)
		if parseErr != nil {
			return parseErr
		}
		log.V(1).Infof("Using service account %s", key.ClientEmail)
		return nil
	})
	b.result.BuildInfo.Stages = stages
	if err != nil {
		if !b.config.AllowMissingCredentials {
			b.result.BuildInfo.FailureReason = status.NewFailureReason(
				status.ReasonCredentialInvalid, status.ReasonMessageCredentialInvalid)
			return "", tbrelerr.NewCredentialsError(b.config.CredentialsPath, err)
		}
		log.Warningf("Credential %s is not a valid service-account key (%v); baking it in anyway", b.config.CredentialsPath, err)
	}

	return credential.Encode(data), nil
}

// ensureDockerfile returns the recipe path relative to the build context,
// scaffolding the canonical recipe first when asked to.
func (b *Builder) ensureDockerfile() (string, error) {
	dockerfile := b.config.Dockerfile
	path := filepath.Join(b.config.WorkingDir, dockerfile)

	if b.fileSystem.Exists(path) {
		return dockerfile, nil
	}

	if !b.config.Scaffold {
		b.result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonDockerfileCreateFailed, status.ReasonMessageDockerfileCreateFailed)
		return "", tbrelerr.NewDockerfileError(path, os.ErrNotExist)
	}

	stages, err := api.TimedStep(b.result.BuildInfo.Stages, api.StageImageBuild, api.StepScaffoldDockerfile, func() error {
		return create.NewWithFS(b.fileSystem).AddDockerfile(path)
	})
	b.result.BuildInfo.Stages = stages
	if err != nil {
		b.result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonDockerfileCreateFailed, status.ReasonMessageDockerfileCreateFailed)
		return "", tbrelerr.NewDockerfileError(path, err)
	}
	return dockerfile, nil
}

// buildImage archives the project tree and runs the engine build.
func (b *Builder) buildImage(ctx context.Context, dockerfile, encodedCredential string) error {
	var tarHandler tar.Tar
	stages, err := api.TimedStep(b.result.BuildInfo.Stages, api.StageImageBuild, api.StepArchiveContext, func() error {
		exclude, parseErr := tar.ParseExclusionPattern(b.config.ExcludeRegExp)
		if parseErr != nil {
			return parseErr
		}
		tarHandler = tar.New(b.fileSystem)
		if exclude != nil {
			tarHandler.SetExclusionPattern(exclude)
		}
		return nil
	})
	b.result.BuildInfo.Stages = stages
	if err != nil {
		b.result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonTarSourceFailed, status.ReasonMessageTarSourceFailed)
		return tbrelerr.NewTarError(b.config.WorkingDir, err)
	}

	buildArgs := map[string]*string{
		constants.ProjectIDBuildArg:   &b.config.ProjectID,
		constants.CredentialsBuildArg: &encodedCredential,
	}

	opts := docker.BuildImageOptions{
		Name:       b.config.Tag,
		ContextDir: b.config.WorkingDir,
		Dockerfile: dockerfile,
		BuildArgs:  buildArgs,
		Labels:     util.GenerateOutputImageLabels(b.config),
		NoCache:    b.config.NoCache,
		Tar:        tarHandler,
	}
	if !b.config.Quiet {
		opts.Stdout = os.Stdout
	}

	stages, err = api.TimedStep(b.result.BuildInfo.Stages, api.StageImageBuild, api.StepBuildImage, func() error {
		return b.docker.BuildImage(ctx, opts)
	})
	b.result.BuildInfo.Stages = stages
	if err != nil {
		b.result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonDockerImageBuildFailed, status.ReasonMessageDockerImageBuildFailed)
		return tbrelerr.NewBuildError(b.config.Tag, err)
	}
	return nil
}
