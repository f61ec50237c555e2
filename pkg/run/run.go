// Package run supports running the built test image: docker-test executes
// its test suite through the engine API, docker-shell hands the operator an
// interactive shell through the docker CLI.
package run

import (
	"context"
	"fmt"
	"os"

	"github.com/singer-contrib/tbrel/pkg/api"
	"github.com/singer-contrib/tbrel/pkg/docker"
	tbrelerr "github.com/singer-contrib/tbrel/pkg/errors"
	"github.com/singer-contrib/tbrel/pkg/util"
	utillog "github.com/singer-contrib/tbrel/pkg/util/log"
)

var log = utillog.StderrLog

// DockerRunner runs containers from the built test image.
type DockerRunner struct {
	containerClient docker.Docker
	runner          util.CommandRunner
}

// New creates a DockerRunner connected to the engine named in config.
func New(config *api.Config) (*DockerRunner, error) {
	client, err := docker.New(config.DockerConfig)
	if err != nil {
		log.Errorf("Failed to connect to Docker daemon: %v", err)
		return nil, err
	}
	return &DockerRunner{containerClient: client, runner: util.NewCommandRunner()}, nil
}

// NewWithDependencies creates a DockerRunner around the given engine and
// command runner. Used by tests.
func NewWithDependencies(client docker.Docker, runner util.CommandRunner) *DockerRunner {
	return &DockerRunner{containerClient: client, runner: runner}
}

// Test runs the image's test suite in a new container and streams its
// output. The container's exit code is preserved in the returned error so
// the process can exit with it.
func (r *DockerRunner) Test(ctx context.Context, config *api.Config) error {
	env, err := testEnvironment(config)
	if err != nil {
		return err
	}

	log.V(2).Infof("Running test suite of image %s", config.Tag)
	opts := docker.RunContainerOptions{
		Image:  config.Tag,
		Env:    env,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	err = r.containerClient.RunContainer(ctx, opts)
	// The container is temporary and its generated name is meaningless;
	// report the image tag instead.
	if e, ok := err.(tbrelerr.ContainerError); ok {
		return tbrelerr.NewContainerError(config.Tag, e.ExitCode, e.Output)
	}
	return err
}

// Shell starts an interactive shell in the image, with the project tree
// mounted over the image's source copy so edits on the host are visible
// inside. An interactive terminal needs the docker CLI; the engine API has
// no terminal handling.
func (r *DockerRunner) Shell(config *api.Config) error {
	args := []string{
		"run", "-it", "--rm",
		"-v", config.WorkingDir + ":/code",
		config.Tag,
		config.ShellCommand,
	}

	log.V(2).Infof("Starting %s %v", config.DockerCLIBin, args)
	opts := util.CommandOpts{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	if err := r.runner.RunWithOptions(opts, config.DockerCLIBin, args...); err != nil {
		return tbrelerr.NewShellError(config.Tag, err)
	}
	return nil
}

// testEnvironment merges the environment file with the explicit flags.
// Flags win on conflict.
func testEnvironment(config *api.Config) ([]string, error) {
	fromFile := map[string]string{}
	if len(config.EnvironmentFile) > 0 {
		var err error
		fromFile, err = util.ReadEnvironmentFile(config.EnvironmentFile)
		if err != nil {
			return nil, tbrelerr.NewConfigError(fmt.Sprintf("unable to read environment file %q: %v", config.EnvironmentFile, err))
		}
	}
	return util.MergeEnvironment(config.Environment, fromFile).AsEnv(), nil
}
