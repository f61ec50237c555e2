package release

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/singer-contrib/tbrel/pkg/api"
	tbrelerr "github.com/singer-contrib/tbrel/pkg/errors"
	"github.com/singer-contrib/tbrel/pkg/util"
	"github.com/singer-contrib/tbrel/pkg/util/fs"
)

// fakeRunner records every command and can fail per binary name. When a
// command looks like the packaging tool it also drops a wheel into the
// output directory, the way the real tool would.
type fakeRunner struct {
	commands []string
	dirs     []string
	errs     map[string]error
	distDir  string
}

func (r *fakeRunner) RunWithOptions(opts util.CommandOpts, name string, arg ...string) error {
	r.commands = append(r.commands, strings.Join(append([]string{name}, arg...), " "))
	r.dirs = append(r.dirs, opts.Dir)
	if err := r.errs[name]; err != nil {
		return err
	}
	if len(arg) > 0 && arg[0] == "setup.py" && r.distDir != "" {
		if err := os.MkdirAll(r.distDir, 0755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(r.distDir, "target_bigquery-1.0-py3-none-any.whl"), []byte("wheel"), 0644)
	}
	return nil
}

func (r *fakeRunner) Run(name string, arg ...string) error {
	return r.RunWithOptions(util.CommandOpts{}, name, arg...)
}

func testConfig(t *testing.T) *api.Config {
	t.Helper()
	return &api.Config{
		WorkingDir:        t.TempDir(),
		DistDir:           "dist",
		BackupDir:         "old_dist",
		PythonInterpreter: "python",
		TwineBin:          "twine",
		Quiet:             true,
	}
}

func testDriver(config *api.Config) (*Driver, *fakeRunner) {
	runner := &fakeRunner{
		errs:    map[string]error{},
		distDir: filepath.Join(config.WorkingDir, config.DistDir),
	}
	return NewWithDependencies(config, fs.NewFileSystem(), runner), runner
}

func mkDist(t *testing.T, config *api.Config, dir, file string) {
	t.Helper()
	path := filepath.Join(config.WorkingDir, dir)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, file), []byte("dist"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestReleaseFreshTree(t *testing.T) {
	config := testConfig(t)
	driver, runner := testDriver(config)

	result, err := driver.Release()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("expected a successful result")
	}

	if len(runner.commands) != 2 {
		t.Fatalf("expected 2 commands, got %v", runner.commands)
	}
	if runner.commands[0] != "python setup.py sdist bdist_wheel" {
		t.Errorf("unexpected packaging command %q", runner.commands[0])
	}
	if !strings.HasPrefix(runner.commands[1], "twine upload ") {
		t.Errorf("unexpected upload command %q", runner.commands[1])
	}
	if !strings.Contains(runner.commands[1], "target_bigquery-1.0-py3-none-any.whl") {
		t.Errorf("upload command does not name the wheel: %q", runner.commands[1])
	}
	for _, dir := range runner.dirs {
		if dir != config.WorkingDir {
			t.Errorf("command ran in %q, want %q", dir, config.WorkingDir)
		}
	}
}

func TestReleaseMovesPreviousDistAside(t *testing.T) {
	config := testConfig(t)
	mkDist(t, config, config.DistDir, "target_bigquery-0.9.tar.gz")
	driver, _ := testDriver(config)

	if _, err := driver.Release(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the old distributions were moved aside and the backup removed after
	// the upload succeeded
	if _, err := os.Stat(filepath.Join(config.WorkingDir, config.BackupDir)); !os.IsNotExist(err) {
		t.Error("backup directory still present after a successful release")
	}
	files, _ := filepath.Glob(filepath.Join(config.WorkingDir, config.DistDir, "*"))
	if len(files) != 1 || !strings.HasSuffix(files[0], ".whl") {
		t.Errorf("unexpected dist contents %v", files)
	}
}

func TestPrepRefusesOccupiedBackup(t *testing.T) {
	config := testConfig(t)
	mkDist(t, config, config.DistDir, "new.tar.gz")
	mkDist(t, config, config.BackupDir, "stranded.tar.gz")
	driver, runner := testDriver(config)

	_, err := driver.Release()
	if err == nil {
		t.Fatal("expected an error with a leftover backup directory")
	}
	serr, ok := err.(tbrelerr.Error)
	if !ok || serr.ErrorCode != tbrelerr.PrepErrorCode {
		t.Errorf("unexpected error: %#v", err)
	}
	if len(runner.commands) != 0 {
		t.Errorf("no commands should run after a failed prep, got %v", runner.commands)
	}
	// the stranded distributions are untouched
	if _, err := os.Stat(filepath.Join(config.WorkingDir, config.BackupDir, "stranded.tar.gz")); err != nil {
		t.Errorf("backup contents modified: %v", err)
	}
}

func TestDistFailureRetainsBackup(t *testing.T) {
	config := testConfig(t)
	mkDist(t, config, config.DistDir, "previous.tar.gz")
	driver, runner := testDriver(config)
	runner.errs["python"] = fmt.Errorf("exit status 1")

	_, err := driver.Release()
	if err == nil {
		t.Fatal("expected an error when packaging fails")
	}
	serr, ok := err.(tbrelerr.Error)
	if !ok || serr.ErrorCode != tbrelerr.DistErrorCode {
		t.Errorf("unexpected error: %#v", err)
	}
	if _, err := os.Stat(filepath.Join(config.WorkingDir, config.BackupDir, "previous.tar.gz")); err != nil {
		t.Errorf("previous release not retained in backup: %v", err)
	}
}

func TestUploadFailureRetainsBackup(t *testing.T) {
	config := testConfig(t)
	mkDist(t, config, config.DistDir, "previous.tar.gz")
	driver, runner := testDriver(config)
	runner.errs["twine"] = fmt.Errorf("403 forbidden")

	result, err := driver.Release()
	if err == nil {
		t.Fatal("expected an error when the upload fails")
	}
	serr, ok := err.(tbrelerr.Error)
	if !ok || serr.ErrorCode != tbrelerr.UploadErrorCode {
		t.Errorf("unexpected error: %#v", err)
	}
	if _, err := os.Stat(filepath.Join(config.WorkingDir, config.BackupDir, "previous.tar.gz")); err != nil {
		t.Errorf("previous release not retained in backup: %v", err)
	}
	found := false
	for _, msg := range result.Messages {
		if strings.Contains(msg, config.BackupDir) {
			found = true
		}
	}
	if !found {
		t.Errorf("result does not tell the operator about the backup: %v", result.Messages)
	}
}

func TestUploadEmptyDist(t *testing.T) {
	config := testConfig(t)
	mkDist(t, config, config.DistDir, ".keep")
	if err := os.Remove(filepath.Join(config.WorkingDir, config.DistDir, ".keep")); err != nil {
		t.Fatal(err)
	}
	driver, runner := testDriver(config)

	err := driver.Upload()
	if err == nil {
		t.Fatal("expected an error uploading an empty dist directory")
	}
	serr, ok := err.(tbrelerr.Error)
	if !ok || serr.ErrorCode != tbrelerr.UploadErrorCode {
		t.Errorf("unexpected error: %#v", err)
	}
	if len(runner.commands) != 0 {
		t.Errorf("upload tool should not run with nothing to upload, got %v", runner.commands)
	}
}

func TestUploadCustomIndex(t *testing.T) {
	config := testConfig(t)
	config.IndexURL = "https://pypi.example.com/simple"
	mkDist(t, config, config.DistDir, "pkg.whl")
	driver, runner := testDriver(config)

	if err := driver.Upload(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(runner.commands[0], "--repository-url https://pypi.example.com/simple") {
		t.Errorf("custom index not passed to the upload tool: %q", runner.commands[0])
	}
}

func TestCleanupIdempotent(t *testing.T) {
	config := testConfig(t)
	mkDist(t, config, config.BackupDir, "old.tar.gz")
	driver, _ := testDriver(config)

	for i := 0; i < 2; i++ {
		if err := driver.Cleanup(); err != nil {
			t.Fatalf("cleanup run %d failed: %v", i+1, err)
		}
	}
	if _, err := os.Stat(filepath.Join(config.WorkingDir, config.BackupDir)); !os.IsNotExist(err) {
		t.Error("backup directory still present after cleanup")
	}
}
