package run

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/singer-contrib/tbrel/pkg/api"
	"github.com/singer-contrib/tbrel/pkg/docker"
	dockertest "github.com/singer-contrib/tbrel/pkg/docker/test"
	tbrelerr "github.com/singer-contrib/tbrel/pkg/errors"
	"github.com/singer-contrib/tbrel/pkg/util"
)

type fakeRunner struct {
	commands []string
}

func (r *fakeRunner) RunWithOptions(opts util.CommandOpts, name string, arg ...string) error {
	r.commands = append(r.commands, strings.Join(append([]string{name}, arg...), " "))
	return nil
}

func (r *fakeRunner) Run(name string, arg ...string) error {
	return r.RunWithOptions(util.CommandOpts{}, name, arg...)
}

func TestTestPassesEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("TARGET_DATASET=ci\nTARGET_LOCATION=EU\n"), 0644); err != nil {
		t.Fatal(err)
	}

	config := &api.Config{
		Tag:             "target-bigquery-test",
		EnvironmentFile: envFile,
	}
	if err := config.Environment.Set("TARGET_LOCATION=US"); err != nil {
		t.Fatal(err)
	}

	engine := &dockertest.FakeEngineClient{}
	runner := NewWithDependencies(docker.NewWithClient(engine, "unix:///fake"), &fakeRunner{})
	if err := runner.Test(context.Background(), config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env := engine.ContainerConfig.Env
	want := map[string]bool{"TARGET_DATASET=ci": false, "TARGET_LOCATION=US": false}
	for _, e := range env {
		if e == "TARGET_LOCATION=EU" {
			t.Error("environment file value overrode the explicit flag")
		}
		if _, ok := want[e]; ok {
			want[e] = true
		}
	}
	for e, seen := range want {
		if !seen {
			t.Errorf("container environment missing %q (got %v)", e, env)
		}
	}
}

func TestTestBadEnvironmentFile(t *testing.T) {
	config := &api.Config{
		Tag:             "target-bigquery-test",
		EnvironmentFile: filepath.Join(t.TempDir(), "does-not-exist.env"),
	}

	engine := &dockertest.FakeEngineClient{}
	runner := NewWithDependencies(docker.NewWithClient(engine, "unix:///fake"), &fakeRunner{})
	err := runner.Test(context.Background(), config)
	if err == nil {
		t.Fatal("expected an error for an unreadable environment file")
	}
	serr, ok := err.(tbrelerr.Error)
	if !ok || serr.ErrorCode != tbrelerr.ConfigErrorCode {
		t.Errorf("unexpected error: %#v", err)
	}
	// no container work may start with a broken environment
	if e := engine.AssertCalls([]string{}); e != nil {
		t.Error(e)
	}
}

func TestTestPropagatesExitCode(t *testing.T) {
	engine := &dockertest.FakeEngineClient{WaitStatusCode: 3}
	runner := NewWithDependencies(docker.NewWithClient(engine, "unix:///fake"), &fakeRunner{})

	err := runner.Test(context.Background(), &api.Config{Tag: "target-bigquery-test"})
	if err == nil {
		t.Fatal("expected an error when the test container fails")
	}
	cerr, ok := err.(tbrelerr.ContainerError)
	if !ok {
		t.Fatalf("unexpected error type: %#v", err)
	}
	if cerr.ExitCode != 3 {
		t.Errorf("exit code not preserved: got %d", cerr.ExitCode)
	}
	if cerr.Name != "target-bigquery-test" {
		t.Errorf("error should name the image, got %q", cerr.Name)
	}
}

func TestShell(t *testing.T) {
	config := &api.Config{
		Tag:          "target-bigquery-test",
		WorkingDir:   "/home/dev/target-bigquery",
		DockerCLIBin: "docker",
		ShellCommand: "/bin/bash",
	}
	fake := &fakeRunner{}
	runner := NewWithDependencies(nil, fake)

	if err := runner.Shell(config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.commands) != 1 {
		t.Fatalf("expected one command, got %v", fake.commands)
	}
	want := "docker run -it --rm -v /home/dev/target-bigquery:/code target-bigquery-test /bin/bash"
	if fake.commands[0] != want {
		t.Errorf("unexpected shell command:\n got %q\nwant %q", fake.commands[0], want)
	}
}
