package fs

import (
	iofs "io/fs"
	"iter"
	"path/filepath"

	"github.com/go-git/go-billy/v5/util"
)

// Walker expands directories into the files below them.
type Walker struct {
	fsys *FileSystem
}

// NewWalker creates a new Walker over fsys.
func NewWalker(fsys *FileSystem) *Walker {
	return &Walker{fsys: fsys}
}

// WalkFiles yields the absolute path of every file under root, skipping VCS and state
// directories and any entry whose name matches one of ignores.
// A root that is itself a file is yielded as-is.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		abs, err := resolve(root)
		if err != nil {
			return
		}
		_ = util.Walk(w.fsys.bfs, abs, func(path string, info iofs.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if skip := w.shouldSkip(path, abs, info, ignores); skip != nil || info.IsDir() {
				return skip
			}
			if w.matches(info.Name(), ignores) {
				return nil
			}

			if !yield(filepath.FromSlash(path)) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// shouldSkip returns filepath.SkipDir for directories below root that must not be walked.
func (w *Walker) shouldSkip(path, root string, info iofs.FileInfo, ignores []string) error {
	if !info.IsDir() || path == root {
		return nil
	}
	switch info.Name() {
	case ".git", ".jj", ".stash":
		return filepath.SkipDir
	}
	if w.matches(info.Name(), ignores) {
		return filepath.SkipDir
	}
	return nil
}

func (w *Walker) matches(name string, ignores []string) bool {
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
