// Package fs provides the billy-backed filesystem and walker used by the state layer.
package fs

import (
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
)

var _ ports.FileSystem = (*FileSystem)(nil)

// FileSystem adapts a billy.Filesystem to ports.FileSystem.
// Every error it returns is a *domain.Fault.
type FileSystem struct {
	bfs billy.Filesystem
}

// NewLocal creates a FileSystem rooted at "/" on the host.
// Relative paths are resolved against the working directory.
func NewLocal() *FileSystem {
	return &FileSystem{bfs: osfs.New("/")}
}

// NewMemory creates an empty in-memory FileSystem.
func NewMemory() *FileSystem {
	return &FileSystem{bfs: memfs.New()}
}

// Unwrap returns the underlying billy.Filesystem.
func (f *FileSystem) Unwrap() billy.Filesystem {
	return f.bfs
}

// Stat returns file metadata for path.
func (f *FileSystem) Stat(path string) (iofs.FileInfo, error) {
	abs, err := resolve(path)
	if err != nil {
		return nil, classify("stat", path, err)
	}
	info, err := f.bfs.Stat(abs)
	if err != nil {
		return nil, classify("stat", path, err)
	}
	return info, nil
}

// Remove deletes the file at path.
func (f *FileSystem) Remove(path string) error {
	abs, err := resolve(path)
	if err != nil {
		return classify("remove", path, err)
	}
	return classify("remove", path, f.bfs.Remove(abs))
}

// Open opens path for reading.
func (f *FileSystem) Open(path string) (io.ReadCloser, error) {
	abs, err := resolve(path)
	if err != nil {
		return nil, classify("open", path, err)
	}
	file, err := f.bfs.Open(abs)
	if err != nil {
		return nil, classify("open", path, err)
	}
	return file, nil
}

// Create creates or truncates path for writing, creating parent directories first.
func (f *FileSystem) Create(path string) (io.WriteCloser, error) {
	abs, err := resolve(path)
	if err != nil {
		return nil, classify("create", path, err)
	}
	if err := f.bfs.MkdirAll(filepath.Dir(abs), domain.DirPerm); err != nil {
		return nil, classify("mkdir", filepath.Dir(path), err)
	}
	file, err := f.bfs.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, domain.FilePerm)
	if err != nil {
		return nil, classify("create", path, err)
	}
	return file, nil
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// classify wraps err in a Fault. A nil err stays nil.
func classify(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var fault *domain.Fault
	if errors.As(err, &fault) {
		return err
	}
	return domain.NewFault(kindOf(err), op, path, err)
}

func kindOf(err error) domain.FaultKind {
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return domain.KindNotExist
	case errors.Is(err, iofs.ErrPermission):
		return domain.KindPermission
	}

	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return domain.KindIO
	}
	switch errno {
	case syscall.EROFS:
		return domain.KindReadOnly
	case syscall.ENOSPC, syscall.EDQUOT:
		return domain.KindNoSpace
	case syscall.EBUSY, syscall.ETXTBSY, syscall.EAGAIN:
		return domain.KindLocked
	case syscall.ENOMEM:
		return domain.KindOutOfMemory
	default:
		return domain.KindIO
	}
}
