package share

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/toritoma/playbridge/internal/errors"
)

// Stager makes a local file readable by an external share target.
type Stager interface {
	// Stage copies the file at path somewhere the target can read and
	// returns its URI.
	Stage(path string) (string, error)
}

// Dispatcher hands share requests to the OS.
type Dispatcher interface {
	// Dispatch sends payload to targetPackage. It returns an error wrapping
	// errors.ErrTargetNotInstalled when the package is absent.
	Dispatch(targetPackage string, payload Payload) error

	// DispatchToBrowser opens url in a browser.
	DispatchToBrowser(url string) error
}

// FileStager copies images into a shared directory on an afero filesystem.
type FileStager struct {
	fs  afero.Fs
	dir string
}

// NewFileStager creates a FileStager writing into dir on fs.
func NewFileStager(fs afero.Fs, dir string) *FileStager {
	return &FileStager{fs: fs, dir: dir}
}

// Dir returns the staging directory.
func (s *FileStager) Dir() string { return s.dir }

// Stage copies path into the staging directory under its base name and
// returns a file:// URI. path may itself be a file:// URI. The copy is
// written to a temp file and renamed, so readers never see a partial image.
func (s *FileStager) Stage(path string) (string, error) {
	src := localPath(path)

	info, err := s.fs.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewShareError(errors.StageStaging, "source image missing", errors.ErrSourceMissing).WithPath(src)
		}
		return "", stagingError(src, err)
	}
	if info.IsDir() {
		return "", stagingError(src, fmt.Errorf("%s is a directory", src))
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", stagingError(src, fmt.Errorf("creating staging dir: %w", err))
	}

	in, err := s.fs.Open(src)
	if err != nil {
		return "", stagingError(src, err)
	}
	defer in.Close()

	tmp, err := afero.TempFile(s.fs, s.dir, ".stage-*.tmp")
	if err != nil {
		return "", stagingError(src, fmt.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = s.fs.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return "", stagingError(src, fmt.Errorf("copying image: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return "", stagingError(src, fmt.Errorf("closing temp file: %w", err))
	}

	dest := filepath.Join(s.dir, filepath.Base(src))
	if err := s.fs.Rename(tmpPath, dest); err != nil {
		return "", stagingError(src, fmt.Errorf("renaming staged image: %w", err))
	}
	committed = true

	return fileURI(dest), nil
}

func stagingError(path string, cause error) error {
	return errors.NewShareError(errors.StageStaging, "could not stage image",
		errors.Join(errors.ErrStagingFailed, cause)).WithPath(path)
}

func localPath(path string) string {
	if strings.HasPrefix(path, "file://") {
		if u, err := url.Parse(path); err == nil {
			return u.Path
		}
	}
	return path
}

func fileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
