package main

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/singer-contrib/tbrel/pkg/api"
)

type fakeImageOps struct {
	calls    []string
	buildErr error
	testErr  error
	shellErr error
}

func (f *fakeImageOps) Build(ctx context.Context) (*api.Result, error) {
	f.calls = append(f.calls, "build")
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return &api.Result{Success: true}, nil
}

func (f *fakeImageOps) Test(ctx context.Context, config *api.Config) error {
	f.calls = append(f.calls, "test")
	return f.testErr
}

func (f *fakeImageOps) Shell(config *api.Config) error {
	f.calls = append(f.calls, "shell")
	return f.shellErr
}

func TestTestRebuildsImageFirst(t *testing.T) {
	fake := &fakeImageOps{}
	if err := buildThenTest(context.Background(), &api.Config{}, fake, fake); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if expected := []string{"build", "test"}; !reflect.DeepEqual(fake.calls, expected) {
		t.Errorf("expected calls %v, got %v", expected, fake.calls)
	}
}

func TestShellRebuildsImageFirst(t *testing.T) {
	fake := &fakeImageOps{}
	if err := buildThenShell(context.Background(), &api.Config{}, fake, fake); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if expected := []string{"build", "shell"}; !reflect.DeepEqual(fake.calls, expected) {
		t.Errorf("expected calls %v, got %v", expected, fake.calls)
	}
}

func TestBuildFailureStopsTest(t *testing.T) {
	fake := &fakeImageOps{buildErr: fmt.Errorf("build failed")}
	if err := buildThenTest(context.Background(), &api.Config{}, fake, fake); err == nil {
		t.Error("expected a build error")
	}
	if expected := []string{"build"}; !reflect.DeepEqual(fake.calls, expected) {
		t.Errorf("expected calls %v, got %v", expected, fake.calls)
	}
}

func TestBuildFailureStopsShell(t *testing.T) {
	fake := &fakeImageOps{buildErr: fmt.Errorf("build failed")}
	if err := buildThenShell(context.Background(), &api.Config{}, fake, fake); err == nil {
		t.Error("expected a build error")
	}
	if expected := []string{"build"}; !reflect.DeepEqual(fake.calls, expected) {
		t.Errorf("expected calls %v, got %v", expected, fake.calls)
	}
}

func TestTestErrorPropagates(t *testing.T) {
	fake := &fakeImageOps{testErr: fmt.Errorf("suite failed")}
	err := buildThenTest(context.Background(), &api.Config{}, fake, fake)
	if err == nil || err.Error() != "suite failed" {
		t.Errorf("expected the runner error, got %v", err)
	}
}
