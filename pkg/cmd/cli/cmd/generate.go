package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/singer-contrib/tbrel/pkg/api"
	"github.com/singer-contrib/tbrel/pkg/create"
)

// generateDockerfile writes the canonical Dockerfile with the given
// configuration.
func generateDockerfile(cfg *api.Config, bootstrap *create.Bootstrap) error {
	return bootstrap.AddDockerfile(filepath.Join(cfg.WorkingDir, cfg.Dockerfile))
}

// NewCmdGenerate implements the cli generate command. It writes the
// canonical Dockerfile without building anything, for projects that want
// to check the recipe in and edit it.
func NewCmdGenerate(cfg *api.Config) *cobra.Command {
	bootstrap := create.New()

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the canonical Dockerfile for the project",
		Long: "Generate the Dockerfile that docker-build would use, so it can " +
			"be committed to the project and adjusted by hand.",
		Example: `
# Write ./Dockerfile for the project in the current directory:
$ tbrel generate

# Use a newer interpreter base:
$ tbrel generate --base-image python:3.11
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generateDockerfile(cfg, bootstrap)
		},
	}

	generateCmd.Flags().StringVarP(&(cfg.WorkingDir), "workdir", "w", ".", "Specify the project directory")
	generateCmd.Flags().StringVarP(&(cfg.Dockerfile), "dockerfile", "f", "Dockerfile", "Specify the output file, relative to the project directory")
	generateCmd.Flags().StringVar(&(bootstrap.BaseImage), "base-image", create.DefaultBaseImage, "Specify the base image of the generated Dockerfile")
	generateCmd.Flags().StringVar(&(bootstrap.TestRunner), "test-runner", create.DefaultTestRunner, "Specify the test runner installed into the image")

	return generateCmd
}
