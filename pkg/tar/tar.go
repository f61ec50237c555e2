// Package tar creates the archive streamed to the docker engine as the
// image build context.
package tar

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/singer-contrib/tbrel/pkg/util/fs"
	utillog "github.com/singer-contrib/tbrel/pkg/util/log"
)

var log = utillog.StderrLog

// DefaultExclusionPattern is the pattern of files that will not be included
// in the build context. The .git directory never belongs in an image.
var DefaultExclusionPattern = regexp.MustCompile(`(^|/)\.git(/|$)`)

// Tar can create a tar stream of a directory tree.
type Tar interface {
	// SetExclusionPattern sets the exclusion pattern for tar creation. A
	// nil pattern disables exclusion.
	SetExclusionPattern(*regexp.Regexp)

	// CreateTarStream creates a tar stream of the given directory and
	// writes it to the given writer. Paths inside the archive are relative
	// to the directory.
	CreateTarStream(dir string, writer io.Writer) error
}

// New creates a new Tar with the default exclusion pattern.
func New(fileSystem fs.FileSystem) Tar {
	return &fsTar{
		FileSystem: fileSystem,
		exclude:    DefaultExclusionPattern,
	}
}

// fsTar is an implementation of the Tar interface.
type fsTar struct {
	fs.FileSystem
	exclude *regexp.Regexp
}

// SetExclusionPattern sets the exclusion pattern for tar creation.
func (t *fsTar) SetExclusionPattern(p *regexp.Regexp) {
	t.exclude = p
}

// shouldExclude checks if a file should be excluded based on the set
// exclusion pattern.
func (t *fsTar) shouldExclude(path string) bool {
	return t.exclude != nil && t.exclude.String() != "" && t.exclude.MatchString(path)
}

// CreateTarStream streams a tar of the given directory to the writer.
func (t *fsTar) CreateTarStream(dir string, writer io.Writer) error {
	tarWriter := tar.NewWriter(writer)
	defer tarWriter.Close()

	dir = filepath.Clean(dir)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if t.shouldExclude(relPath) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = relPath
		if info.IsDir() {
			header.Name += "/"
		}
		if err = tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		file, err := t.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		log.V(5).Infof("Adding to tar: %s as %s", path, relPath)
		if _, err = io.Copy(tarWriter, file); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error writing tar: %v", err)
		return err
	}
	return nil
}

// ParseExclusionPattern compiles the user supplied exclusion expression.
// An empty expression means no files are excluded.
func ParseExclusionPattern(expr string) (*regexp.Regexp, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	return regexp.Compile(expr)
}
