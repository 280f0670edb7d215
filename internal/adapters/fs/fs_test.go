package fs_test

import (
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stash/internal/adapters/fs"
	"go.trai.ch/stash/internal/core/domain"
)

func TestFileSystem_CreateOpenRemove(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "file.state")
	fsys := fs.NewLocal()

	w, err := fsys.Create(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	info, err := fsys.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len("payload")), info.Size())

	r, err := fsys.Open(path)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "payload", string(data))

	require.NoError(t, fsys.Remove(path))

	_, err = fsys.Stat(path)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotExist, domain.KindOf(err))
}

func TestFileSystem_CreateTruncates(t *testing.T) {
	t.Parallel()

	fsys := fs.NewMemory()
	path := "/state/file"

	for _, content := range []string{"a much longer first write", "short"} {
		w, err := fsys.Create(path)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	r, err := fsys.Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck // Best effort close in test
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))
}

func TestFileSystem_MissingFileFaults(t *testing.T) {
	t.Parallel()

	fsys := fs.NewLocal()
	missing := filepath.Join(t.TempDir(), "missing")

	_, err := fsys.Open(missing)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotExist, domain.KindOf(err))

	var fault *domain.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "open", fault.Op)
	assert.Equal(t, missing, fault.Path)

	err = fsys.Remove(missing)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotExist, domain.KindOf(err))
}

func TestFileSystem_PermissionDenied(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(locked, 0o500)) //nolint:gosec // Read-only directory under test

	_, err := fs.NewLocal().Create(filepath.Join(locked, "file"))
	require.Error(t, err)
	assert.Equal(t, domain.KindPermission, domain.KindOf(err))
	assert.False(t, domain.IsCritical(err))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	pathErr := func(errno syscall.Errno) error {
		return &iofs.PathError{Op: "open", Path: "/x", Err: errno}
	}

	tests := []struct {
		name string
		err  error
		want domain.FaultKind
	}{
		{name: "not exist", err: pathErr(syscall.ENOENT), want: domain.KindNotExist},
		{name: "sentinel not exist", err: iofs.ErrNotExist, want: domain.KindNotExist},
		{name: "access", err: pathErr(syscall.EACCES), want: domain.KindPermission},
		{name: "not permitted", err: pathErr(syscall.EPERM), want: domain.KindPermission},
		{name: "read only", err: pathErr(syscall.EROFS), want: domain.KindReadOnly},
		{name: "no space", err: pathErr(syscall.ENOSPC), want: domain.KindNoSpace},
		{name: "quota", err: pathErr(syscall.EDQUOT), want: domain.KindNoSpace},
		{name: "busy", err: pathErr(syscall.EBUSY), want: domain.KindLocked},
		{name: "text busy", err: pathErr(syscall.ETXTBSY), want: domain.KindLocked},
		{name: "out of memory", err: pathErr(syscall.ENOMEM), want: domain.KindOutOfMemory},
		{name: "other errno", err: pathErr(syscall.EIO), want: domain.KindIO},
		{name: "plain error", err: errors.New("boom"), want: domain.KindIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := fs.Classify("open", "/x", tt.err)
			assert.Equal(t, tt.want, domain.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestClassify_KeepsExistingFault(t *testing.T) {
	t.Parallel()

	original := domain.NewFault(domain.KindAborted, "read", "/x", nil)
	err := fs.Classify("open", "/y", original)

	var fault *domain.Fault
	require.ErrorAs(t, err, &fault)
	assert.Same(t, original, fault)
	assert.NoError(t, fs.Classify("open", "/y", nil))
}

func TestWalker_WalkFiles(t *testing.T) {
	t.Parallel()

	// root/
	//   .git/config
	//   .stash/state/x.state
	//   ignored/file
	//   src/main.go
	//   src/main.tmp
	//   README.md
	root := t.TempDir()
	write := func(rel string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(rel), 0o600))
	}
	write(".git/config")
	write(".stash/state/x.state")
	write("ignored/file")
	write("src/main.go")
	write("src/main.tmp")
	write("README.md")

	walker := fs.NewWalker(fs.NewLocal())

	var files []string
	for path := range walker.WalkFiles(root, []string{"ignored", "*.tmp"}) {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		files = append(files, filepath.ToSlash(rel))
	}

	assert.ElementsMatch(t, []string{"README.md", "src/main.go"}, files)
}

func TestWalker_FileRoot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "single.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	walker := fs.NewWalker(fs.NewLocal())

	var files []string
	for p := range walker.WalkFiles(path, nil) {
		files = append(files, p)
	}
	assert.Equal(t, []string{path}, files)
}

func TestWalker_StopsEarly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(name), 0o600))
	}

	walker := fs.NewWalker(fs.NewLocal())

	count := 0
	for range walker.WalkFiles(root, nil) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
