// Package validation checks a Config for problems an operator can fix
// before any external tool is invoked.
package validation

import (
	"fmt"

	"github.com/docker/distribution/reference"

	"github.com/singer-contrib/tbrel/pkg/api"
)

// ValidateImageConfig returns a list of errors for the fields the image
// build consumes. An absent credential is an error here rather than a
// silently corrupt file in the image; AllowMissingCredentials opts back
// into the historical behavior.
func ValidateImageConfig(config *api.Config) []Error {
	allErrs := []Error{}
	if len(config.Tag) == 0 {
		allErrs = append(allErrs, NewFieldRequired("tag"))
	} else if err := validateDockerReference(config.Tag); err != nil {
		allErrs = append(allErrs, NewFieldInvalidValue("tag"))
	}
	if len(config.ProjectID) == 0 {
		allErrs = append(allErrs, NewFieldRequired("project-id"))
	}
	if len(config.CredentialsPath) == 0 && !config.AllowMissingCredentials {
		allErrs = append(allErrs, NewFieldRequired("credentials"))
	}
	if config.DockerConfig == nil || len(config.DockerConfig.Endpoint) == 0 {
		allErrs = append(allErrs, NewFieldRequired("url"))
	}
	return allErrs
}

// ValidateReleaseConfig returns a list of errors for the fields the release
// tasks consume.
func ValidateReleaseConfig(config *api.Config) []Error {
	allErrs := []Error{}
	if len(config.DistDir) == 0 {
		allErrs = append(allErrs, NewFieldRequired("dist-dir"))
	}
	if len(config.BackupDir) == 0 {
		allErrs = append(allErrs, NewFieldRequired("backup-dir"))
	}
	if len(config.DistDir) > 0 && config.DistDir == config.BackupDir {
		allErrs = append(allErrs, NewFieldInvalidValue("backup-dir"))
	}
	return allErrs
}

func validateDockerReference(ref string) error {
	_, err := reference.ParseNormalizedNamed(ref)
	return err
}

// NewFieldRequired returns a *ValidationError indicating "value required".
func NewFieldRequired(field string) Error {
	return Error{Type: ErrorTypeRequired, Field: field}
}

// NewFieldInvalidValue returns a ValidationError indicating "invalid value".
func NewFieldInvalidValue(field string) Error {
	return Error{Type: ErrorInvalidValue, Field: field}
}

// ErrorType is a machine readable value providing more detail about why a
// field is invalid.
type ErrorType string

const (
	// ErrorTypeRequired is used to report required values that are not
	// provided (e.g. empty strings, null values, or empty arrays).
	ErrorTypeRequired ErrorType = "FieldValueRequired"

	// ErrorInvalidValue is used to report values that do not conform to
	// the expected schema.
	ErrorInvalidValue ErrorType = "InvalidValue"
)

// Error is an implementation of the 'error' interface, which represents a
// validation error.
type Error struct {
	Type  ErrorType
	Field string
}

func (v Error) Error() string {
	var msg string
	switch v.Type {
	case ErrorInvalidValue:
		msg = fmt.Sprintf("Invalid value specified for %q", v.Field)
	case ErrorTypeRequired:
		msg = fmt.Sprintf("Required value not specified for %q", v.Field)
	default:
		msg = fmt.Sprintf("%s: %s", v.Type, v.Field)
	}
	return msg
}
