// Package docker wraps the docker engine API for the two operations the
// workflow needs: building the test image and running containers from it.
package docker

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	dockertypes "github.com/docker/docker/api/types"
	dockercontainer "github.com/docker/docker/api/types/container"
	dockernetwork "github.com/docker/docker/api/types/network"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/moby/term"
	specs "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/singer-contrib/tbrel/pkg/api"
	tbrelerr "github.com/singer-contrib/tbrel/pkg/errors"
	"github.com/singer-contrib/tbrel/pkg/tar"
	"github.com/singer-contrib/tbrel/pkg/util"
	"github.com/singer-contrib/tbrel/pkg/util/interrupt"
	utillog "github.com/singer-contrib/tbrel/pkg/util/log"
)

var log = utillog.StderrLog

const (
	// containerNamePrefix prefixes the name of containers launched by the
	// workflow so they are easy to find later.
	containerNamePrefix = "tbrel"
)

// Client is the subset of the docker engine API client used by this
// package. The real implementation is *dockerclient.Client; tests supply a
// fake.
type Client interface {
	ServerVersion(ctx context.Context) (dockertypes.Version, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options dockertypes.ImageBuildOptions) (dockertypes.ImageBuildResponse, error)
	ImageInspectWithRaw(ctx context.Context, imageID string) (dockertypes.ImageInspect, []byte, error)
	ContainerCreate(ctx context.Context, config *dockercontainer.Config, hostConfig *dockercontainer.HostConfig, networkingConfig *dockernetwork.NetworkingConfig, platform *specs.Platform, containerName string) (dockercontainer.ContainerCreateCreatedBody, error)
	ContainerStart(ctx context.Context, containerID string, options dockertypes.ContainerStartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition dockercontainer.WaitCondition) (<-chan dockercontainer.ContainerWaitOKBody, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options dockertypes.ContainerLogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options dockertypes.ContainerRemoveOptions) error
}

// Docker is the interface between the workflow and the container engine.
type Docker interface {
	// CheckReachable returns an error if the engine cannot be contacted.
	CheckReachable(ctx context.Context) error

	// BuildImage builds an image from the given context directory.
	BuildImage(ctx context.Context, opts BuildImageOptions) error

	// RunContainer creates, starts and waits for a container, streaming
	// its output. A non-zero container exit code is returned as a
	// ContainerError carrying that code.
	RunContainer(ctx context.Context, opts RunContainerOptions) error

	// InspectImage returns the metadata of a local image.
	InspectImage(ctx context.Context, name string) (*dockertypes.ImageInspect, error)

	// GetImageID returns the ID of a local image.
	GetImageID(ctx context.Context, name string) (string, error)
}

// BuildImageOptions are options passed to BuildImage.
type BuildImageOptions struct {
	// Name is the tag of the resulting image.
	Name string

	// ContextDir is the directory archived and sent to the engine.
	ContextDir string

	// Dockerfile is the recipe path relative to ContextDir.
	Dockerfile string

	// BuildArgs are the build arguments, nil values unset them.
	BuildArgs map[string]*string

	// Labels are stamped onto the resulting image.
	Labels map[string]string

	// NoCache disables the engine build cache.
	NoCache bool

	// Tar produces the context archive.
	Tar tar.Tar

	// Stdout receives the engine's build output.
	Stdout io.Writer
}

// RunContainerOptions are options passed to RunContainer.
type RunContainerOptions struct {
	// Image is the image to run.
	Image string

	// Command overrides the image's default command when non-empty.
	Command []string

	// Env is the container environment in NAME=VALUE form.
	Env []string

	// Binds are host:container mount specifications.
	Binds []string

	// WorkingDir overrides the container working directory when set.
	WorkingDir string

	// Stdout and Stderr receive the demultiplexed container output.
	Stdout io.Writer
	Stderr io.Writer
}

type engineDocker struct {
	client   Client
	endpoint string
}

// New creates a Docker implementation backed by the engine API at the
// configured endpoint.
func New(config *api.DockerConfig) (Docker, error) {
	opts := []dockerclient.Opt{
		dockerclient.WithHost(config.Endpoint),
		dockerclient.WithAPIVersionNegotiation(),
	}
	if config.UseTLS || config.TLSVerify {
		opts = append(opts, dockerclient.WithTLSClientConfig(config.CAFile, config.CertFile, config.KeyFile))
	}
	client, err := dockerclient.NewClientWithOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &engineDocker{client: client, endpoint: config.Endpoint}, nil
}

// NewWithClient creates a Docker implementation around an existing engine
// client. Used by tests.
func NewWithClient(client Client, endpoint string) Docker {
	return &engineDocker{client: client, endpoint: endpoint}
}

// GetDefaultDockerConfig returns a connection configuration seeded from the
// conventional docker environment variables. This is the single place the
// ambient environment is consulted, and only to provide flag defaults.
func GetDefaultDockerConfig() *api.DockerConfig {
	cfg := &api.DockerConfig{}

	if cfg.Endpoint = os.Getenv("DOCKER_HOST"); cfg.Endpoint == "" {
		cfg.Endpoint = dockerclient.DefaultDockerHost
	}

	certPath := os.Getenv("DOCKER_CERT_PATH")
	if certPath == "" {
		certPath = filepath.Join(os.Getenv("HOME"), ".docker")
	}
	cfg.CertFile = filepath.Join(certPath, "cert.pem")
	cfg.KeyFile = filepath.Join(certPath, "key.pem")
	cfg.CAFile = filepath.Join(certPath, "ca.pem")

	if tlsVerify := os.Getenv("DOCKER_TLS_VERIFY"); tlsVerify != "" {
		cfg.TLSVerify = true
		cfg.UseTLS = true
	}
	return cfg
}

// CheckReachable returns if the engine is reachable.
func (d *engineDocker) CheckReachable(ctx context.Context) error {
	if _, err := d.client.ServerVersion(ctx); err != nil {
		return tbrelerr.NewDockerConnectionError(err, d.endpoint)
	}
	return nil
}

// BuildImage builds an image.
func (d *engineDocker) BuildImage(ctx context.Context, opts BuildImageOptions) error {
	dockerOpts := dockertypes.ImageBuildOptions{
		Tags:           []string{opts.Name},
		Dockerfile:     opts.Dockerfile,
		NoCache:        opts.NoCache,
		SuppressOutput: false,
		Remove:         true,
		BuildArgs:      opts.BuildArgs,
		Labels:         opts.Labels,
	}
	log.V(2).Infof("Building container using config: %+v", safeForLoggingImageBuildOptions(&dockerOpts))

	tarReader, tarWriter := io.Pipe()
	go func() {
		err := opts.Tar.CreateTarStream(opts.ContextDir, tarWriter)
		tarWriter.CloseWithError(err)
	}()

	resp, err := d.client.ImageBuild(ctx, tarReader, dockerOpts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out := opts.Stdout
	if out == nil {
		out = io.Discard
	}
	termFd, isTerm := term.GetFdInfo(out)
	err = jsonmessage.DisplayJSONMessagesStream(resp.Body, out, termFd, isTerm, nil)
	if jerr, ok := err.(*jsonmessage.JSONError); ok {
		return fmt.Errorf("the Dockerfile build failed with message: %s", jerr.Message)
	}
	return err
}

// InspectImage returns the image metadata.
func (d *engineDocker) InspectImage(ctx context.Context, name string) (*dockertypes.ImageInspect, error) {
	resp, _, err := d.client.ImageInspectWithRaw(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("unable to get metadata for %s: %v", name, err)
	}
	return &resp, nil
}

// GetImageID returns the ID of the image.
func (d *engineDocker) GetImageID(ctx context.Context, name string) (string, error) {
	image, err := d.InspectImage(ctx, name)
	if err != nil {
		return "", err
	}
	return image.ID, nil
}

// RunContainer runs a container from the image and propagates its exit
// code. The container is removed when the run finishes or the operator
// interrupts it.
func (d *engineDocker) RunContainer(ctx context.Context, opts RunContainerOptions) error {
	config := &dockercontainer.Config{
		Image: opts.Image,
		Env:   opts.Env,
	}
	if len(opts.Command) > 0 {
		config.Cmd = opts.Command
	}
	if len(opts.WorkingDir) > 0 {
		config.WorkingDir = opts.WorkingDir
	}
	hostConfig := &dockercontainer.HostConfig{}
	if len(opts.Binds) > 0 {
		hostConfig.Binds = opts.Binds
	}

	name := containerName(opts.Image)
	log.V(2).Infof("Creating container %q with config: %+v", name, util.SafeForLoggingContainerConfig(config))
	resp, err := d.client.ContainerCreate(ctx, config, hostConfig, nil, nil, name)
	if err != nil {
		return err
	}
	containerID := resp.ID

	removeContainer := func() {
		log.V(4).Infof("Removing container %q ...", containerID)
		removeOpts := dockertypes.ContainerRemoveOptions{Force: true, RemoveVolumes: true}
		if err := d.client.ContainerRemove(context.Background(), containerID, removeOpts); err != nil {
			log.V(0).Infof("warning: Failed to remove container %q: %v", containerID, err)
		} else {
			log.V(4).Infof("Removed container %q", containerID)
		}
	}

	return interrupt.New(nil, removeContainer).Run(func() error {
		waitC, waitErrC := d.client.ContainerWait(ctx, containerID, dockercontainer.WaitConditionNextExit)

		log.V(2).Infof("Starting container %q ...", containerID)
		if err := d.client.ContainerStart(ctx, containerID, dockertypes.ContainerStartOptions{}); err != nil {
			return err
		}

		logs, err := d.client.ContainerLogs(ctx, containerID, dockertypes.ContainerLogsOptions{
			ShowStdout: true,
			ShowStderr: true,
			Follow:     true,
		})
		if err != nil {
			return err
		}
		defer logs.Close()

		stdout := opts.Stdout
		if stdout == nil {
			stdout = io.Discard
		}
		stderr := opts.Stderr
		if stderr == nil {
			stderr = io.Discard
		}
		if _, err := stdcopy.StdCopy(stdout, stderr, logs); err != nil {
			log.V(0).Infof("warning: Error reading container output: %v", err)
		}

		select {
		case result := <-waitC:
			if result.StatusCode != 0 {
				return tbrelerr.NewContainerError(opts.Image, int(result.StatusCode), "")
			}
			return nil
		case err := <-waitErrC:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// containerName returns the name of a newly created container, derived
// from the image name plus a random suffix so repeated runs do not clash.
func containerName(image string) string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		binary.BigEndian.PutUint32(suffix, uint32(time.Now().UnixNano()))
	}
	name := invalidNameChars.ReplaceAllString(image, "_")
	return fmt.Sprintf("%s_%s_%s", containerNamePrefix, name, hex.EncodeToString(suffix))
}

// safeForLoggingImageBuildOptions returns a copy of the build options with
// the credential build argument redacted.
func safeForLoggingImageBuildOptions(opts *dockertypes.ImageBuildOptions) dockertypes.ImageBuildOptions {
	newOpts := *opts
	newOpts.BuildArgs = make(map[string]*string, len(opts.BuildArgs))
	for k, v := range opts.BuildArgs {
		if strings.Contains(strings.ToLower(k), "base64") || strings.Contains(strings.ToLower(k), "secret") {
			redacted := "[redacted]"
			newOpts.BuildArgs[k] = &redacted
			continue
		}
		newOpts.BuildArgs[k] = v
	}
	return newOpts
}
