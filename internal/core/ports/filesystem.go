package ports

import (
	"io"
	"io/fs"
)

// FileSystem is the filesystem capability used by the state cache and freshness tracker.
// Errors returned by implementations carry a domain.Fault so callers can tell critical
// failures from ordinary ones with domain.KindOf.
//
//go:generate mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// Stat returns file metadata for path.
	Stat(path string) (fs.FileInfo, error)
	// Remove deletes the file at path.
	Remove(path string) error
	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)
	// Create creates or truncates path for writing, creating parent directories as needed.
	Create(path string) (io.WriteCloser, error)
}
