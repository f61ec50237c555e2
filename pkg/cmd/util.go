package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/singer-contrib/tbrel/pkg/api"
)

// AddCommonFlags adds the flags shared by every command that operates on
// the project tree.
func AddCommonFlags(c *cobra.Command, cfg *api.Config) {
	c.Flags().BoolVarP(&(cfg.Quiet), "quiet", "q", false,
		"Operate quietly. Suppress all non-error output.")
	c.Flags().StringVarP(&(cfg.WorkingDir), "workdir", "w", ".",
		"Specify the project directory all relative paths resolve against")
}

// AddImageFlags adds the flags shared by the commands that name the test
// image.
func AddImageFlags(c *cobra.Command, cfg *api.Config) {
	AddCommonFlags(c, cfg)
	c.Flags().StringVarP(&(cfg.Tag), "tag", "t", "target-bigquery-test",
		"Specify the name of the test image")
}

// AddReleaseFlags adds the flags shared by the release tasks. The
// credentials default honors the conventional environment variable; this
// is the only release setting read from the environment, and only as a
// flag default.
func AddReleaseFlags(c *cobra.Command, cfg *api.Config) {
	AddCommonFlags(c, cfg)
	c.Flags().StringVar(&(cfg.DistDir), "dist-dir", "dist",
		"Specify the directory the packaging tool writes distributions to")
	c.Flags().StringVar(&(cfg.BackupDir), "backup-dir", "old_dist",
		"Specify the directory a previous distribution set is moved to during a release")
	c.Flags().StringVar(&(cfg.PythonInterpreter), "python", "python",
		"Specify the interpreter used to run the packaging tool")
	c.Flags().StringVar(&(cfg.TwineBin), "twine", "twine",
		"Specify the upload tool binary")
	c.Flags().StringVar(&(cfg.IndexURL), "index-url", "",
		"Specify the package index to upload to instead of the tool's default")
}

// AddCredentialFlags adds the flags naming the service-account credential.
func AddCredentialFlags(c *cobra.Command, cfg *api.Config) {
	c.Flags().StringVar(&(cfg.CredentialsPath), "credentials", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		"Specify the path of the service-account JSON key to bake into the image (default from GOOGLE_APPLICATION_CREDENTIALS)")
	c.Flags().BoolVar(&(cfg.AllowMissingCredentials), "allow-missing-credentials", false,
		"Build the image even when the credential file is missing or not a valid key")
}
