package api

import (
	"fmt"
	"strings"
	"time"
)

// Config contains essential fields for performing a release or building the
// test image. It is constructed once in main from the command line and
// threaded explicitly through every component; nothing below main reads the
// process environment.
type Config struct {
	// Tag is the name of the resulting container image.
	Tag string

	// ProjectID is the warehouse project the test suite runs against. It is
	// passed into the image as a build argument and surfaces inside as the
	// GOOGLE_PROJECT_ID environment variable.
	ProjectID string

	// CredentialsPath is the host path of the service-account JSON key that
	// the image build re-encodes and bakes into the image.
	CredentialsPath string

	// AllowMissingCredentials restores the historical behavior of baking an
	// empty or malformed credential file into the image instead of failing
	// the build up front.
	AllowMissingCredentials bool

	// WorkingDir is the project root all relative paths resolve against.
	WorkingDir string

	// Dockerfile is the path of the image recipe, relative to WorkingDir.
	Dockerfile string

	// Scaffold generates the canonical Dockerfile when none is present.
	Scaffold bool

	// DistDir is the directory the packaging tool writes distributions to,
	// relative to WorkingDir.
	DistDir string

	// BackupDir is the directory a pre-existing DistDir is renamed to
	// before a new build, relative to WorkingDir.
	BackupDir string

	// PythonInterpreter is the interpreter used to run the packaging tool.
	PythonInterpreter string

	// TwineBin is the upload tool binary.
	TwineBin string

	// IndexURL overrides the package index the distributions are uploaded
	// to. Empty means the upload tool's default index.
	IndexURL string

	// DockerCLIBin is the docker client binary used for the interactive
	// shell, which needs a real terminal rather than the engine API.
	DockerCLIBin string

	// ShellCommand is the command started by docker-shell.
	ShellCommand string

	// Environment contains extra variables passed to the test container.
	Environment EnvironmentList

	// EnvironmentFile is an optional file with additional NAME=VALUE pairs
	// for the test container.
	EnvironmentFile string

	// ExcludeRegExp contains a regular expression of files in the project
	// tree to exclude from the build context.
	ExcludeRegExp string

	// NoCache instructs the engine to ignore its build cache.
	NoCache bool

	// Quiet suppresses all non-error output.
	Quiet bool

	// DockerConfig holds the docker daemon connection settings.
	DockerConfig *DockerConfig

	// RunImage runs the freshly built image's test suite as part of
	// docker-build.
	RunImage bool
}

// DockerConfig contains the configuration for a Docker connection.
type DockerConfig struct {
	// Endpoint is the docker network endpoint.
	Endpoint string

	// CertFile is the certificate file path for a TLS connection.
	CertFile string

	// KeyFile is the key file path for a TLS connection.
	KeyFile string

	// CAFile is the certificate authority file path for a TLS connection.
	CAFile string

	// UseTLS indicates if TLS must be used.
	UseTLS bool

	// TLSVerify indicates if TLS peer must be verified.
	TLSVerify bool
}

// Result structure contains the outcome of a workflow invocation.
type Result struct {
	// Success describes whether the invocation was successful.
	Success bool

	// Messages is a list of messages from the workflow for the operator.
	Messages []string

	// ImageID is the ID of the image created when applicable.
	ImageID string

	// BuildInfo holds timing and failure details.
	BuildInfo BuildInfo
}

// BuildInfo contains timing about the workflow stages and the reason of a
// potential failure.
type BuildInfo struct {
	Stages        []StageInfo
	FailureReason FailureReason
}

// StageName is the name of a workflow stage.
type StageName string

// StepName is the name of a step within a stage.
type StepName string

// Valid stage names.
const (
	StageCredentials StageName = "Credentials"
	StageImageBuild  StageName = "ImageBuild"
	StageRelease     StageName = "Release"
)

// Valid step names.
const (
	StepLoadCredentials     StepName = "LoadCredentials"
	StepValidateCredentials StepName = "ValidateCredentials"
	StepScaffoldDockerfile  StepName = "ScaffoldDockerfile"
	StepArchiveContext      StepName = "ArchiveContext"
	StepBuildImage          StepName = "BuildImage"
	StepPrep                StepName = "Prep"
	StepDist                StepName = "Dist"
	StepUpload              StepName = "Upload"
	StepCleanup             StepName = "Cleanup"
)

// StageInfo contains details about a workflow stage.
type StageInfo struct {
	Name      StageName
	StartTime time.Time
	Duration  time.Duration
	Steps     []StepInfo
}

// StepInfo contains details about a step within a stage.
type StepInfo struct {
	Name      StepName
	StartTime time.Time
	Duration  time.Duration
}

// StepFailureReason is a machine-readable cause of a failed invocation.
type StepFailureReason string

// StepFailureMessage is a human-readable cause of a failed invocation.
type StepFailureMessage string

// FailureReason describes a failure and carries both representations.
type FailureReason struct {
	Reason  StepFailureReason
	Message StepFailureMessage
}

// EnvironmentSpec specifies a single environment variable.
type EnvironmentSpec struct {
	Name  string
	Value string
}

// EnvironmentList contains list of environment variables.
type EnvironmentList []EnvironmentSpec

// Set implements the pflag.Value interface and parses a NAME=VALUE pair.
func (e *EnvironmentList) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 || len(parts[0]) == 0 {
		return fmt.Errorf("invalid environment format %q, must be NAME=VALUE", value)
	}
	*e = append(*e, EnvironmentSpec{
		Name:  strings.TrimSpace(parts[0]),
		Value: parts[1],
	})
	return nil
}

// String implements the pflag.Value interface.
func (e *EnvironmentList) String() string {
	result := []string{}
	for _, env := range *e {
		result = append(result, strings.Join([]string{env.Name, env.Value}, "="))
	}
	return strings.Join(result, ",")
}

// Type implements the pflag.Value interface.
func (e *EnvironmentList) Type() string {
	return "string"
}

// AsEnv converts the list into "NAME=VALUE" strings suitable for a
// container definition.
func (e EnvironmentList) AsEnv() []string {
	result := []string{}
	for _, env := range e {
		result = append(result, fmt.Sprintf("%s=%s", env.Name, env.Value))
	}
	return result
}
