package include

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileSourceReader reads include(file(...)) and the bare-string
// heuristic locator from a filesystem, resolving relative locators
// against the baseDir supplied per call (the top-level document's
// directory; see SourceReader for why it is not recomputed per nested
// include).
type FileSourceReader struct {
	Fs afero.Fs
}

// NewFileSourceReader returns a FileSourceReader backed by the real OS
// filesystem.
func NewFileSourceReader() *FileSourceReader {
	return &FileSourceReader{Fs: afero.NewOsFs()}
}

// Read loads locator relative to baseDir (or as an absolute path, if
// it is one).
func (r *FileSourceReader) Read(baseDir, locator string) (string, error) {
	path := locator
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, locator)
	}

	data, err := afero.ReadFile(r.Fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errNotFound(path, err)
		}
		if os.IsPermission(err) {
			return "", errPermissions(path, err)
		}
		return "", errFetchFailed(path, err)
	}
	return string(data), nil
}
