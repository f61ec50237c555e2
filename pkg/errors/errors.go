// Package errors provides the error types used by the release and image
// build workflow. Every failure surfaced to an operator is an Error with a
// numeric code (which doubles as the process exit code), a short message,
// and a suggestion for how to resolve it.
package errors

import (
	"fmt"
)

// Common error codes. The code of the first fatal error becomes the exit
// code of the whole invocation.
const (
	DockerConnectionErrorCode = 10
	CredentialsErrorCode      = 11
	DockerfileErrorCode       = 12
	BuildErrorCode            = 13
	TarErrorCode              = 14
	PrepErrorCode             = 20
	DistErrorCode             = 21
	UploadErrorCode           = 22
	CleanupErrorCode          = 23
	ShellErrorCode            = 30
	ConfigErrorCode           = 40
)

// Error represents an error thrown during the workflow. It supports a
// suggestion for the operator and keeps the underlying error around for
// verbose output.
type Error struct {
	Message    string
	Details    error
	ErrorCode  int
	Suggestion string
}

// ContainerError is returned when a container the workflow started exits
// with a non-zero code. The container's own exit code is preserved so it
// can be propagated as the process exit code (docker-test contract).
type ContainerError struct {
	Name     string
	Output   string
	ExitCode int
}

// Error returns a string for a given error.
func (s Error) Error() string {
	return s.Message
}

// Error returns a string for the given error.
func (e ContainerError) Error() string {
	return fmt.Sprintf("container %q exited with code %d", e.Name, e.ExitCode)
}

// NewContainerError returns a new error which indicates there was a problem
// running the container.
func NewContainerError(name string, code int, output string) error {
	return ContainerError{
		Name:     name,
		Output:   output,
		ExitCode: code,
	}
}

// NewDockerConnectionError returns a new error which indicates there was a
// problem connecting to the docker daemon.
func NewDockerConnectionError(err error, endpoint string) error {
	return Error{
		Message:    fmt.Sprintf("could not reach docker daemon at %q", endpoint),
		Details:    err,
		ErrorCode:  DockerConnectionErrorCode,
		Suggestion: "make sure the docker daemon is running and the --url flag (or DOCKER_HOST) points at it",
	}
}

// NewCredentialsError returns a new error which indicates the service
// account credential could not be loaded or is not a valid key file.
func NewCredentialsError(path string, err error) error {
	return Error{
		Message:    fmt.Sprintf("service account credential %q is missing or invalid", path),
		Details:    err,
		ErrorCode:  CredentialsErrorCode,
		Suggestion: "point --credentials at a valid service-account JSON key, or pass --allow-missing-credentials to bake whatever is there anyway",
	}
}

// NewDockerfileError returns a new error which indicates the project has no
// Dockerfile to build from.
func NewDockerfileError(path string, err error) error {
	return Error{
		Message:    fmt.Sprintf("no Dockerfile found at %q", path),
		Details:    err,
		ErrorCode:  DockerfileErrorCode,
		Suggestion: "run docker-build with --scaffold to generate the canonical Dockerfile for this project",
	}
}

// NewBuildError returns a new error which indicates the image build failed.
func NewBuildError(name string, err error) error {
	return Error{
		Message:    fmt.Sprintf("building image %q failed", name),
		Details:    err,
		ErrorCode:  BuildErrorCode,
		Suggestion: "check the build output above; rerun with --loglevel=3 for the full engine response",
	}
}

// NewTarError returns a new error which indicates the build context could
// not be archived.
func NewTarError(dir string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to archive build context %q", dir),
		Details:    err,
		ErrorCode:  TarErrorCode,
		Suggestion: "verify the project directory is readable",
	}
}

// NewPrepError returns a new error which indicates the output directory
// could not be moved aside.
func NewPrepError(dist, backup string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to move %q aside to %q", dist, backup),
		Details:    err,
		ErrorCode:  PrepErrorCode,
		Suggestion: "remove or rename the leftover backup directory from a previous failed release before retrying",
	}
}

// NewDistError returns a new error which indicates the packaging tool
// failed to produce distributions.
func NewDistError(err error) error {
	return Error{
		Message:    "building the source distribution and wheel failed",
		Details:    err,
		ErrorCode:  DistErrorCode,
		Suggestion: "run the packaging tool by hand to see its full output; the previous release is still in the backup directory",
	}
}

// NewUploadError returns a new error which indicates publishing the
// distributions failed. The backup directory is intentionally left in place.
func NewUploadError(err error) error {
	return Error{
		Message:    "uploading distributions to the package index failed",
		Details:    err,
		ErrorCode:  UploadErrorCode,
		Suggestion: "check network connectivity and index credentials; the previous release is retained in the backup directory for manual recovery",
	}
}

// NewCleanupError returns a new error which indicates the backup directory
// could not be removed.
func NewCleanupError(backup string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to remove backup directory %q", backup),
		Details:    err,
		ErrorCode:  CleanupErrorCode,
		Suggestion: "remove the directory manually",
	}
}

// NewShellError returns a new error which indicates the interactive
// container shell could not be started.
func NewShellError(image string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to start a shell in image %q", image),
		Details:    err,
		ErrorCode:  ShellErrorCode,
		Suggestion: "make sure the docker CLI is installed and the image was built",
	}
}

// NewConfigError returns a new error for an invalid configuration value.
func NewConfigError(msg string) error {
	return Error{
		Message:    msg,
		ErrorCode:  ConfigErrorCode,
		Suggestion: "run with --help to see the accepted flags and their formats",
	}
}
