// Package test provides a fake engine API client for docker tests.
package test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	dockertypes "github.com/docker/docker/api/types"
	dockercontainer "github.com/docker/docker/api/types/container"
	dockernetwork "github.com/docker/docker/api/types/network"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

// FakeEngineClient provides a fake docker engine client. Each call is
// recorded, and errors can be injected per call name.
type FakeEngineClient struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error

	// Image holds the inspect result returned for any image.
	Image *dockertypes.ImageInspect

	// BuildOptions captures the options of the last ImageBuild call.
	BuildOptions dockertypes.ImageBuildOptions

	// BuildContext captures the archive sent with the last ImageBuild.
	BuildContext []byte

	// BuildOutput is the JSON message stream returned from ImageBuild.
	BuildOutput string

	// ContainerConfig and HostConfig capture the last ContainerCreate.
	ContainerConfig *dockercontainer.Config
	HostConfig      *dockercontainer.HostConfig
	ContainerName   string

	// WaitStatusCode is the exit code delivered by ContainerWait.
	WaitStatusCode int64

	// LogsOutput is the raw (multiplexed) log stream content.
	LogsOutput []byte

	// Removed is set once ContainerRemove has been called.
	Removed bool
}

// InjectError makes the named call fail with err.
func (c *FakeEngineClient) InjectError(call string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errs == nil {
		c.errs = map[string]error{}
	}
	c.errs[call] = err
}

// AssertCalls compares the recorded calls with the expected ones.
func (c *FakeEngineClient) AssertCalls(expected []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(expected) != len(c.calls) {
		return fmt.Errorf("expected calls %v, got %v", expected, c.calls)
	}
	for i := range expected {
		if expected[i] != c.calls[i] {
			return fmt.Errorf("expected calls %v, got %v", expected, c.calls)
		}
	}
	return nil
}

func (c *FakeEngineClient) record(call string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	return c.errs[call]
}

// ServerVersion implements the engine client.
func (c *FakeEngineClient) ServerVersion(ctx context.Context) (dockertypes.Version, error) {
	return dockertypes.Version{Version: "fake"}, c.record("server_version")
}

// ImageBuild implements the engine client.
func (c *FakeEngineClient) ImageBuild(ctx context.Context, buildContext io.Reader, options dockertypes.ImageBuildOptions) (dockertypes.ImageBuildResponse, error) {
	err := c.record("image_build")
	if err != nil {
		return dockertypes.ImageBuildResponse{}, err
	}
	c.BuildOptions = options
	data, readErr := io.ReadAll(buildContext)
	if readErr != nil {
		return dockertypes.ImageBuildResponse{}, readErr
	}
	c.BuildContext = data
	return dockertypes.ImageBuildResponse{
		Body: io.NopCloser(bytes.NewBufferString(c.BuildOutput)),
	}, nil
}

// ImageInspectWithRaw implements the engine client.
func (c *FakeEngineClient) ImageInspectWithRaw(ctx context.Context, imageID string) (dockertypes.ImageInspect, []byte, error) {
	err := c.record("inspect_image")
	if err != nil {
		return dockertypes.ImageInspect{}, nil, err
	}
	if c.Image == nil {
		return dockertypes.ImageInspect{}, nil, fmt.Errorf("no such image: %s", imageID)
	}
	return *c.Image, nil, nil
}

// ContainerCreate implements the engine client.
func (c *FakeEngineClient) ContainerCreate(ctx context.Context, config *dockercontainer.Config, hostConfig *dockercontainer.HostConfig, networkingConfig *dockernetwork.NetworkingConfig, platform *specs.Platform, containerName string) (dockercontainer.ContainerCreateCreatedBody, error) {
	err := c.record("create")
	if err != nil {
		return dockercontainer.ContainerCreateCreatedBody{}, err
	}
	c.ContainerConfig = config
	c.HostConfig = hostConfig
	c.ContainerName = containerName
	return dockercontainer.ContainerCreateCreatedBody{ID: "fake-container-id"}, nil
}

// ContainerStart implements the engine client.
func (c *FakeEngineClient) ContainerStart(ctx context.Context, containerID string, options dockertypes.ContainerStartOptions) error {
	return c.record("start")
}

// ContainerWait implements the engine client.
func (c *FakeEngineClient) ContainerWait(ctx context.Context, containerID string, condition dockercontainer.WaitCondition) (<-chan dockercontainer.ContainerWaitOKBody, <-chan error) {
	c.record("wait")
	waitC := make(chan dockercontainer.ContainerWaitOKBody, 1)
	errC := make(chan error, 1)
	c.mu.Lock()
	if err := c.errs["wait_result"]; err != nil {
		errC <- err
	} else {
		waitC <- dockercontainer.ContainerWaitOKBody{StatusCode: c.WaitStatusCode}
	}
	c.mu.Unlock()
	return waitC, errC
}

// ContainerLogs implements the engine client.
func (c *FakeEngineClient) ContainerLogs(ctx context.Context, containerID string, options dockertypes.ContainerLogsOptions) (io.ReadCloser, error) {
	err := c.record("logs")
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(c.LogsOutput)), nil
}

// ContainerRemove implements the engine client.
func (c *FakeEngineClient) ContainerRemove(ctx context.Context, containerID string, options dockertypes.ContainerRemoveOptions) error {
	err := c.record("remove")
	if err == nil {
		c.mu.Lock()
		c.Removed = true
		c.mu.Unlock()
	}
	return err
}
