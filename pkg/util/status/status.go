// Package status contains the machine-readable failure reasons attached to
// a Result when a workflow stage fails.
package status

import (
	"github.com/singer-contrib/tbrel/pkg/api"
)

const (
	// ReasonCredentialLoadFailed is the reason associated with the service
	// account credential being missing or unreadable.
	ReasonCredentialLoadFailed        api.StepFailureReason  = "CredentialLoadFailed"
	ReasonMessageCredentialLoadFailed api.StepFailureMessage = "Failed to load service account credential"

	// ReasonCredentialInvalid is the reason associated with a credential
	// that is not a valid service-account key file.
	ReasonCredentialInvalid        api.StepFailureReason  = "CredentialInvalid"
	ReasonMessageCredentialInvalid api.StepFailureMessage = "Credential is not a valid service-account key"

	// ReasonDockerImageBuildFailed is the reason associated with a failed
	// image build.
	ReasonDockerImageBuildFailed        api.StepFailureReason  = "DockerImageBuildFailed"
	ReasonMessageDockerImageBuildFailed api.StepFailureMessage = "Docker image build failed"

	// ReasonDockerfileCreateFailed is the reason associated with failing to
	// scaffold a Dockerfile for the build.
	ReasonDockerfileCreateFailed        api.StepFailureReason  = "DockerfileCreationFailed"
	ReasonMessageDockerfileCreateFailed api.StepFailureMessage = "Failed to create Dockerfile"

	// ReasonTarSourceFailed is the failure reason associated with a failure
	// to tar the build context.
	ReasonTarSourceFailed        api.StepFailureReason  = "TarSourceFailed"
	ReasonMessageTarSourceFailed api.StepFailureMessage = "Failed to tar source files"

	// ReasonFSOperationFailed is the reason associated with a failed fs
	// operation. Create, remove directory, rename, etc.
	ReasonFSOperationFailed        api.StepFailureReason  = "FileSystemOperationFailed"
	ReasonMessageFSOperationFailed api.StepFailureMessage = "Failed to perform filesystem operation"

	// ReasonDistFailed is the reason associated with the packaging tool
	// failing to produce distributions.
	ReasonDistFailed        api.StepFailureReason  = "DistFailed"
	ReasonMessageDistFailed api.StepFailureMessage = "Building distributions failed"

	// ReasonUploadFailed is the reason associated with a failure to publish
	// the distributions to the package index.
	ReasonUploadFailed        api.StepFailureReason  = "UploadFailed"
	ReasonMessageUploadFailed api.StepFailureMessage = "Uploading distributions failed"
)

// NewFailureReason initializes a new failure reason that contains both the
// reason and a message to be displayed.
func NewFailureReason(reason api.StepFailureReason, message api.StepFailureMessage) api.FailureReason {
	return api.FailureReason{
		Reason:  reason,
		Message: message,
	}
}
