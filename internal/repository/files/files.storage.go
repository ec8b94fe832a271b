// FilePath: internal/repository/files/files.storage.go
package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/itsatony/hydrohub/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultPermissions = 0755
	tempPattern        = ".upload-*"
)

// FileConfig holds configuration for the file storage
type FileConfig struct {
	BasePath    string
	MaxFileSize int64
}

// FileRepo stores camera images as flat files below BasePath
type FileRepo struct {
	config FileConfig
}

// NewFileRepository creates a new file storage repository
func NewFileRepository(config FileConfig) (*FileRepo, error) {
	if err := createDirectoryIfNotExists(config.BasePath); err != nil {
		return nil, err
	}
	return &FileRepo{config: config}, nil
}

// Save writes content to name atomically and returns the stored size.
// Readers never observe a partially written file.
func (r *FileRepo) Save(ctx context.Context, name string, content io.Reader) (int64, error) {
	target, err := r.resolve(name)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(r.config.BasePath, tempPattern)
	if err != nil {
		return 0, errors.NewInternalError("failed to create destination file", err)
	}
	defer os.Remove(tmp.Name())

	src := content
	if r.config.MaxFileSize > 0 {
		src = io.LimitReader(content, r.config.MaxFileSize+1)
	}
	size, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, errors.NewInternalError("failed to copy file", err)
	}
	if r.config.MaxFileSize > 0 && size > r.config.MaxFileSize {
		return 0, errors.NewValidationError("file size exceeds maximum allowed size", nil)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, errors.NewInternalError("failed to store file", err)
	}

	nuts.L.Infof("[FileRepo] Stored file: %s (%d bytes)", name, size)
	return size, nil
}

// Open returns a reader for name together with its modification time
func (r *FileRepo) Open(ctx context.Context, name string) (io.ReadSeekCloser, time.Time, error) {
	target, err := r.resolve(name)
	if err != nil {
		return nil, time.Time{}, err
	}
	f, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, errors.NewNotFoundError("file not found", err)
		}
		return nil, time.Time{}, errors.NewInternalError("failed to open file", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, time.Time{}, errors.NewInternalError("failed to stat file", err)
	}
	return f, info.ModTime(), nil
}

func (r *FileRepo) Remove(ctx context.Context, name string) error {
	target, err := r.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return errors.NewInternalError("failed to delete file", err)
	}
	return nil
}

func (r *FileRepo) Exists(ctx context.Context, name string) bool {
	target, err := r.resolve(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && !info.IsDir()
}

// resolve maps a stored name to a path inside BasePath, rejecting traversal
func (r *FileRepo) resolve(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || strings.HasPrefix(base, ".") || base != name {
		return "", errors.NewValidationError("invalid file name", nil)
	}
	return filepath.Join(r.config.BasePath, base), nil
}

func createDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err := os.MkdirAll(path, defaultPermissions)
		if err != nil {
			return errors.NewInternalError("failed to create directory", err)
		}
	}
	return nil
}
