package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog"

	"github.com/singer-contrib/tbrel/pkg/api"
	"github.com/singer-contrib/tbrel/pkg/api/validation"
	"github.com/singer-contrib/tbrel/pkg/build"
	cmdutil "github.com/singer-contrib/tbrel/pkg/cmd"
	clicmd "github.com/singer-contrib/tbrel/pkg/cmd/cli/cmd"
	"github.com/singer-contrib/tbrel/pkg/config"
	"github.com/singer-contrib/tbrel/pkg/docker"
	"github.com/singer-contrib/tbrel/pkg/errors"
	"github.com/singer-contrib/tbrel/pkg/release"
	"github.com/singer-contrib/tbrel/pkg/run"
	"github.com/singer-contrib/tbrel/pkg/tar"
	utillog "github.com/singer-contrib/tbrel/pkg/util/log"
	"github.com/singer-contrib/tbrel/pkg/version"
)

var log = utillog.StderrLog

// imageBuilder, imageTester and imageSheller narrow pkg/build and pkg/run
// to the methods the docker commands chain together.
type imageBuilder interface {
	Build(ctx context.Context) (*api.Result, error)
}

type imageTester interface {
	Test(ctx context.Context, config *api.Config) error
}

type imageSheller interface {
	Shell(config *api.Config) error
}

func runBuild(ctx context.Context, builder imageBuilder) error {
	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	for _, message := range result.Messages {
		log.V(1).Infof(message)
	}
	return nil
}

// buildThenTest rebuilds the test image so the container always runs the
// current sources, then runs the suite inside it.
func buildThenTest(ctx context.Context, cfg *api.Config, builder imageBuilder, runner imageTester) error {
	if err := runBuild(ctx, builder); err != nil {
		return err
	}
	return runner.Test(ctx, cfg)
}

// buildThenShell rebuilds the test image before opening the interactive
// session, mirroring buildThenTest.
func buildThenShell(ctx context.Context, cfg *api.Config, builder imageBuilder, runner imageSheller) error {
	if err := runBuild(ctx, builder); err != nil {
		return err
	}
	return runner.Shell(cfg)
}

func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version",
		Long:  "Display version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tbrel %v\n", version.Get())
		},
	}
}

func newCmdDockerBuild(cfg *api.Config) *cobra.Command {
	useConfig := false

	buildCmd := &cobra.Command{
		Use:   "docker-build",
		Short: "Build the test image",
		Long: "Build the container image that runs the connector's test suite. The " +
			"service-account key is baked into the image, so the image must never " +
			"be pushed to a shared registry.",
		Example: `
# Build the test image for a project:
$ tbrel docker-build --project-id my-warehouse --credentials secrets/key.json

# Build and immediately run the test suite:
$ tbrel docker-build --project-id my-warehouse --credentials secrets/key.json --run
`,
		Run: func(cmd *cobra.Command, args []string) {
			log.V(1).Infof("Running tbrel version %q", version.Get())

			if useConfig {
				config.Restore(cfg, cmd)
			}

			validateConfig(cmd, validation.ValidateImageConfig(cfg))

			if useConfig {
				config.Save(cfg, cmd)
			}

			log.V(2).Infof("\n%s\n", cfg.PrintObj())

			builder, err := build.New(cfg)
			checkErr(err)

			if cfg.RunImage {
				runner, err := run.New(cfg)
				checkErr(err)
				checkErr(buildThenTest(context.Background(), cfg, builder, runner))
				return
			}
			checkErr(runBuild(context.Background(), builder))
		},
	}

	addBuildFlags(buildCmd, cfg)
	buildCmd.Flags().BoolVar(&(cfg.RunImage), "run", false, "Run the test suite once the image is built")
	buildCmd.Flags().BoolVar(&(useConfig), "use-config", false, "Store command line options to "+config.DefaultConfigPath)
	buildCmd.Flags().VarP(&(cfg.Environment), "env", "e", "Specify a single environment variable for the test container in NAME=VALUE format")
	buildCmd.Flags().StringVarP(&(cfg.EnvironmentFile), "environment-file", "E", "", "Specify the path to a file with environment variables for the test container")

	return buildCmd
}

func newCmdDockerTest(cfg *api.Config) *cobra.Command {
	testCmd := &cobra.Command{
		Use:   "docker-test",
		Short: "Build the test image and run the test suite inside it",
		Long: "Rebuild the test image, start a container from it and run the test " +
			"suite. The process exits with the container's own exit code.",
		Run: func(cmd *cobra.Command, args []string) {
			validateConfig(cmd, validation.ValidateImageConfig(cfg))

			builder, err := build.New(cfg)
			checkErr(err)
			runner, err := run.New(cfg)
			checkErr(err)
			checkErr(buildThenTest(context.Background(), cfg, builder, runner))
		},
	}

	addBuildFlags(testCmd, cfg)
	testCmd.Flags().VarP(&(cfg.Environment), "env", "e", "Specify a single environment variable for the test container in NAME=VALUE format")
	testCmd.Flags().StringVarP(&(cfg.EnvironmentFile), "environment-file", "E", "", "Specify the path to a file with environment variables for the test container")

	return testCmd
}

func newCmdDockerShell(cfg *api.Config) *cobra.Command {
	shellCmd := &cobra.Command{
		Use:   "docker-shell",
		Short: "Build the test image and start an interactive shell inside it",
		Long: "Rebuild the test image and start an interactive shell in it with the " +
			"project tree mounted, so the suite can be rerun against edited sources.",
		Run: func(cmd *cobra.Command, args []string) {
			validateConfig(cmd, validation.ValidateImageConfig(cfg))

			builder, err := build.New(cfg)
			checkErr(err)
			runner, err := run.New(cfg)
			checkErr(err)
			checkErr(buildThenShell(context.Background(), cfg, builder, runner))
		},
	}

	addBuildFlags(shellCmd, cfg)
	shellCmd.Flags().StringVar(&(cfg.DockerCLIBin), "docker-bin", "docker", "Specify the docker client binary used for the interactive session")
	shellCmd.Flags().StringVar(&(cfg.ShellCommand), "shell", "/bin/bash", "Specify the command started inside the container")

	return shellCmd
}

// addBuildFlags registers the flags shared by every command that builds
// the test image.
func addBuildFlags(c *cobra.Command, cfg *api.Config) {
	cmdutil.AddImageFlags(c, cfg)
	cmdutil.AddCredentialFlags(c, cfg)
	c.Flags().StringVarP(&(cfg.ProjectID), "project-id", "p", "", "Specify the warehouse project the test suite runs against")
	c.Flags().StringVarP(&(cfg.Dockerfile), "dockerfile", "f", "Dockerfile", "Specify the image recipe, relative to the project directory")
	c.Flags().BoolVar(&(cfg.Scaffold), "scaffold", false, "Generate the canonical Dockerfile when the project has none")
	c.Flags().StringVar(&(cfg.ExcludeRegExp), "exclude", tar.DefaultExclusionPattern.String(), "Regular expression selecting files to exclude from the build context (\"\" excludes nothing)")
	c.Flags().BoolVar(&(cfg.NoCache), "no-cache", false, "Ignore the engine build cache")
}

// newReleaseTaskCmd builds one of the single-task release commands around
// the given Driver method.
func newReleaseTaskCmd(cfg *api.Config, use, short string, task func(*release.Driver) error) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   use,
		Short: short,
		Run: func(cmd *cobra.Command, args []string) {
			validateConfig(cmd, validation.ValidateReleaseConfig(cfg))
			checkErr(task(release.New(cfg)))
		},
	}
	cmdutil.AddReleaseFlags(taskCmd, cfg)
	return taskCmd
}

func newCmdPip(cfg *api.Config) *cobra.Command {
	pipCmd := &cobra.Command{
		Use:   "pip",
		Short: "Build and publish a release to the package index",
		Long: "Run the full release sequence: move the previous distributions aside, " +
			"build fresh ones, upload them, and drop the backup. A failed upload " +
			"leaves the backup in place for manual recovery.",
		Run: func(cmd *cobra.Command, args []string) {
			validateConfig(cmd, validation.ValidateReleaseConfig(cfg))

			log.V(2).Infof("\n%s\n", cfg.PrintObj())

			result, err := release.New(cfg).Release()
			for _, message := range result.Messages {
				log.Infof(message)
			}
			checkErr(err)
		},
	}
	cmdutil.AddReleaseFlags(pipCmd, cfg)
	return pipCmd
}

func newCmdGenBashCompletion(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "genbashcompletion",
		Short: "Generate Bash completion for the tbrel command",
		Long:  "Generate Bash completion for the tbrel command into standard output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.GenBashCompletion(os.Stdout)
		},
	}
}

// setupLog makes --loglevel reflect in klog's -v flag.
func setupLog(flags *pflag.FlagSet) {
	from := flag.CommandLine
	if fflag := from.Lookup("v"); fflag != nil {
		level := fflag.Value.(*klog.Level)
		loglevelPtr := (*int32)(level)
		flags.Int32Var(loglevelPtr, "loglevel", 0, "Set the level of log output (0-5)")
	}

	flag.CommandLine.Set("logtostderr", "true")
}

func validateConfig(cmd *cobra.Command, errs []validation.Error) {
	if len(errs) == 0 {
		return
	}
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", e)
	}
	fmt.Println()
	cmd.Help()
	os.Exit(1)
}

func checkErr(err error) {
	if err == nil {
		return
	}
	if e, ok := err.(errors.ContainerError); ok {
		// the container's exit code is the contract of docker-test
		log.Errorf("An error occurred: %v", e)
		os.Exit(e.ExitCode)
	}
	if e, ok := err.(errors.Error); ok {
		log.Errorf("An error occurred: %v", e)
		log.Errorf("Suggested solution: %v", e.Suggestion)
		if e.Details != nil {
			log.V(1).Infof("Details: %v", e.Details)
		}
		log.Error("If the problem persists, rerun with --loglevel=3 and file an issue providing the full log")
		os.Exit(e.ErrorCode)
	}
	log.Errorf("An error occurred: %v", err)
	os.Exit(1)
}

func main() {
	klog.InitFlags(flag.CommandLine)

	// Without this fake command line parse, klog complains that its flags
	// have not been interpreted.
	flag.CommandLine.Parse([]string{})

	cfg := &api.Config{}
	rootCmd := &cobra.Command{
		Use: "tbrel",
		Long: "tbrel builds, tests and releases the target-bigquery connector.\n\n" +
			"A command line interface that bakes a service-account credential into a\n" +
			"disposable test image and publishes connector releases to the package index.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	cfg.DockerConfig = docker.GetDefaultDockerConfig()
	rootCmd.PersistentFlags().StringVarP(&(cfg.DockerConfig.Endpoint), "url", "U", cfg.DockerConfig.Endpoint, "Set the url of the docker socket to use")
	rootCmd.PersistentFlags().StringVar(&(cfg.DockerConfig.CertFile), "cert", cfg.DockerConfig.CertFile, "Set the path of the docker TLS certificate file")
	rootCmd.PersistentFlags().StringVar(&(cfg.DockerConfig.KeyFile), "key", cfg.DockerConfig.KeyFile, "Set the path of the docker TLS key file")
	rootCmd.PersistentFlags().StringVar(&(cfg.DockerConfig.CAFile), "ca", cfg.DockerConfig.CAFile, "Set the path of the docker TLS ca file")
	rootCmd.PersistentFlags().BoolVar(&(cfg.DockerConfig.UseTLS), "tls", cfg.DockerConfig.UseTLS, "Use TLS to connect to docker; implied by --tlsverify")
	rootCmd.PersistentFlags().BoolVar(&(cfg.DockerConfig.TLSVerify), "tlsverify", cfg.DockerConfig.TLSVerify, "Use TLS to connect to docker and verify the remote")

	rootCmd.AddCommand(newCmdVersion())
	rootCmd.AddCommand(newCmdDockerBuild(cfg))
	rootCmd.AddCommand(newCmdDockerTest(cfg))
	rootCmd.AddCommand(newCmdDockerShell(cfg))
	rootCmd.AddCommand(newReleaseTaskCmd(cfg, "prep", "Move the previous distributions aside", (*release.Driver).Prep))
	rootCmd.AddCommand(newReleaseTaskCmd(cfg, "dist", "Build the source distribution and wheel", (*release.Driver).Dist))
	rootCmd.AddCommand(newReleaseTaskCmd(cfg, "upload", "Upload the distributions to the package index", (*release.Driver).Upload))
	rootCmd.AddCommand(newReleaseTaskCmd(cfg, "cleanup", "Remove the backup left by prep", (*release.Driver).Cleanup))
	rootCmd.AddCommand(newCmdPip(cfg))
	rootCmd.AddCommand(clicmd.NewCmdGenerate(cfg))
	setupLog(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newCmdGenBashCompletion(rootCmd))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
