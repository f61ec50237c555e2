// Package release implements the publishing workflow: move the previous
// distributions aside, build fresh ones, upload them to the package index,
// and drop the backup once the upload went through.
package release

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/singer-contrib/tbrel/pkg/api"
	tbrelerr "github.com/singer-contrib/tbrel/pkg/errors"
	"github.com/singer-contrib/tbrel/pkg/util"
	"github.com/singer-contrib/tbrel/pkg/util/fs"
	utillog "github.com/singer-contrib/tbrel/pkg/util/log"
	"github.com/singer-contrib/tbrel/pkg/util/status"
)

var log = utillog.StderrLog

// Driver executes the release tasks described by its Config. Each task is
// also exposed on its own so the operator can run a single step.
type Driver struct {
	config     *api.Config
	fileSystem fs.FileSystem
	runner     util.CommandRunner
	result     *api.Result
}

// New returns a Driver operating on the real filesystem and running real
// commands.
func New(config *api.Config) *Driver {
	return NewWithDependencies(config, fs.NewFileSystem(), util.NewCommandRunner())
}

// NewWithDependencies returns a Driver using the given filesystem and
// command runner. Used by tests.
func NewWithDependencies(config *api.Config, fileSystem fs.FileSystem, runner util.CommandRunner) *Driver {
	return &Driver{
		config:     config,
		fileSystem: fileSystem,
		runner:     runner,
		result:     &api.Result{},
	}
}

func (d *Driver) distPath() string {
	return filepath.Join(d.config.WorkingDir, d.config.DistDir)
}

func (d *Driver) backupPath() string {
	return filepath.Join(d.config.WorkingDir, d.config.BackupDir)
}

// Prep moves an existing output directory aside so the packaging tool
// starts from a clean slate. A leftover backup from a previous failed
// release blocks the move; it holds the only copy of those distributions.
func (d *Driver) Prep() error {
	dist := d.distPath()
	backup := d.backupPath()

	if !d.fileSystem.Exists(dist) {
		log.V(2).Infof("No %s directory to move aside", dist)
		return nil
	}
	if d.fileSystem.Exists(backup) {
		d.result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonFSOperationFailed, status.ReasonMessageFSOperationFailed)
		return tbrelerr.NewPrepError(dist, backup, fmt.Errorf("backup directory %s already exists", backup))
	}

	log.V(1).Infof("Moving %s to %s", dist, backup)
	if err := d.fileSystem.Rename(dist, backup); err != nil {
		d.result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonFSOperationFailed, status.ReasonMessageFSOperationFailed)
		return tbrelerr.NewPrepError(dist, backup, err)
	}
	return nil
}

// Dist builds the source distribution and wheel with the configured
// interpreter.
func (d *Driver) Dist() error {
	opts := util.CommandOpts{Dir: d.config.WorkingDir}
	if !d.config.Quiet {
		opts.Stdout = os.Stdout
		opts.Stderr = os.Stderr
	}

	log.V(1).Infof("Building distributions in %s", d.config.WorkingDir)
	if err := d.runner.RunWithOptions(opts, d.config.PythonInterpreter, "setup.py", "sdist", "bdist_wheel"); err != nil {
		d.result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonDistFailed, status.ReasonMessageDistFailed)
		return tbrelerr.NewDistError(err)
	}
	return nil
}

// Upload publishes every file in the output directory to the package
// index.
func (d *Driver) Upload() error {
	files, err := d.fileSystem.Glob(filepath.Join(d.distPath(), "*"))
	if err == nil && len(files) == 0 {
		err = fmt.Errorf("no distributions found in %s", d.distPath())
	}
	if err != nil {
		d.result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonUploadFailed, status.ReasonMessageUploadFailed)
		return tbrelerr.NewUploadError(err)
	}

	args := []string{"upload"}
	if len(d.config.IndexURL) > 0 {
		args = append(args, "--repository-url", d.config.IndexURL)
	}
	args = append(args, files...)

	opts := util.CommandOpts{Dir: d.config.WorkingDir}
	if !d.config.Quiet {
		opts.Stdout = os.Stdout
		opts.Stderr = os.Stderr
	}

	log.V(1).Infof("Uploading %d distribution files", len(files))
	if err := d.runner.RunWithOptions(opts, d.config.TwineBin, args...); err != nil {
		d.result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonUploadFailed, status.ReasonMessageUploadFailed)
		return tbrelerr.NewUploadError(err)
	}
	return nil
}

// Cleanup removes the backup directory. Running it again, or without a
// backup in place, is a no-op.
func (d *Driver) Cleanup() error {
	backup := d.backupPath()
	if !d.fileSystem.Exists(backup) {
		log.V(2).Infof("No %s directory to remove", backup)
		return nil
	}
	if err := d.fileSystem.RemoveDirectory(backup); err != nil {
		return tbrelerr.NewCleanupError(backup, err)
	}
	return nil
}

// Release runs the full publishing sequence. The backup taken by Prep is
// only dropped after the upload succeeded; any earlier failure leaves it
// in place so the previous release can be restored by hand.
func (d *Driver) Release() (*api.Result, error) {
	steps := []struct {
		name api.StepName
		fn   func() error
	}{
		{api.StepPrep, d.Prep},
		{api.StepDist, d.Dist},
		{api.StepUpload, d.Upload},
		{api.StepCleanup, d.Cleanup},
	}

	for _, step := range steps {
		stages, err := api.TimedStep(d.result.BuildInfo.Stages, api.StageRelease, step.name, step.fn)
		d.result.BuildInfo.Stages = stages
		if err != nil {
			if step.name != api.StepPrep && step.name != api.StepCleanup {
				d.result.Messages = append(d.result.Messages,
					fmt.Sprintf("previous release retained in %s", d.backupPath()))
			}
			return d.result, err
		}
	}

	d.result.Success = true
	return d.result, nil
}
