// Package constants includes the names the workflow and the image recipe
// agree on: build arguments, in-image paths and environment variables, and
// the labels stamped on built images.
package constants

const (
	// ProjectIDBuildArg is the build argument carrying the warehouse
	// project id into the image.
	ProjectIDBuildArg = "GOOGLE_PROJECT_ID"

	// CredentialsBuildArg is the build argument carrying the base64-encoded
	// service-account key into the image.
	CredentialsBuildArg = "SERVICE_ACCOUNT_JSON_BASE64"

	// CredentialsImagePath is the fixed path the decoded key is written to
	// inside the image.
	CredentialsImagePath = "/app-config/service_account.json"

	// CredentialsEnv is the environment variable the client libraries in
	// the image read the key path from.
	CredentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"

	// ProjectIDEnv is the environment variable carrying the project id
	// inside the image.
	ProjectIDEnv = "GOOGLE_PROJECT_ID"
)

// Image labels.
const (
	labelPrefix = "io.singer.target-bigquery."

	// BuilderLabel names the tool that produced the image.
	BuilderLabel = labelPrefix + "builder"

	// BuilderVersionLabel records the tool version that produced the image.
	BuilderVersionLabel = labelPrefix + "builder-version"

	// ProjectIDLabel records the project the image was built for.
	ProjectIDLabel = labelPrefix + "project-id"
)
