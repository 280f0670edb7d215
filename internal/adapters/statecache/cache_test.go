package statecache_test

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stash/internal/adapters/fs"
	"go.trai.ch/stash/internal/adapters/regcache"
	"go.trai.ch/stash/internal/adapters/statecache"
	"go.trai.ch/stash/internal/adapters/telemetry"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
	"google.golang.org/protobuf/encoding/protowire"
)

const noteKind domain.StateKind = "note"

// noteBlob is a minimal blob whose behavior can be bent for failure tests.
type noteBlob struct {
	version       uint32
	Text          string
	failMarshal   bool
	panicOnDecode bool
}

func (n *noteBlob) StateKind() domain.StateKind { return noteKind }
func (n *noteBlob) SchemaVersion() uint32       { return n.version }

func (n *noteBlob) MarshalState() ([]byte, error) {
	if n.failMarshal {
		return nil, errors.New("cannot marshal note")
	}
	return []byte(n.Text), nil
}

func (n *noteBlob) UnmarshalState(data []byte) error {
	if n.panicOnDecode {
		panic("corrupted heap")
	}
	n.Text = string(data)
	return nil
}

func noteConstructor(version uint32) statecache.Constructor {
	return func() statecache.Blob { return &noteBlob{version: version} }
}

type harness struct {
	cache *statecache.Cache
	fs    *fs.FileSystem
	log   *mocks.MockLogger
}

func newHarness(t *testing.T, registry *statecache.Registry) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().With(gomock.Any()).Return(log).AnyTimes()

	fsys := fs.NewMemory()
	return &harness{
		cache: statecache.New(fsys, log, telemetry.NewNoOpTracer(), registry),
		fs:    fsys,
		log:   log,
	}
}

func defaultRegistry(t *testing.T) *statecache.Registry {
	t.Helper()

	r := statecache.NewRegistry()
	require.NoError(t, regcache.Register(r))
	require.NoError(t, r.Register(noteConstructor(1)))
	return r
}

func (h *harness) readRaw(t *testing.T, path string) []byte {
	t.Helper()

	r, err := h.fs.Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck // Best effort close in test
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func (h *harness) writeRaw(t *testing.T, path string, data []byte) {
	t.Helper()

	w, err := h.fs.Create(path)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestCache_RoundTrip(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaultRegistry(t))
	path := "/state/registrations.state"

	rc := regcache.New()
	rc.Add("/src/a.proj", "/obj/a.dll")
	rc.Add("/src/b.proj", "/obj/b.dll")
	rc.Add("/src/a.proj", "/obj/a.dll")

	require.NoError(t, h.cache.Save(t.Context(), path, rc))

	blob, err := h.cache.Load(t.Context(), path, regcache.Kind)
	require.NoError(t, err)
	require.NotNil(t, blob)
	assert.Equal(t, rc, blob)

	typed, err := statecache.LoadAs[*regcache.RegistrationCache](t.Context(), h.cache, path)
	require.NoError(t, err)
	assert.Equal(t, rc, typed)
}

func TestCache_SaveReplacesExistingFile(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaultRegistry(t))
	path := "/state/note.state"

	require.NoError(t, h.cache.Save(t.Context(), path, &noteBlob{version: 1, Text: "a considerably longer first note"}))
	require.NoError(t, h.cache.Save(t.Context(), path, &noteBlob{version: 1, Text: "short"}))

	blob, err := h.cache.Load(t.Context(), path, noteKind)
	require.NoError(t, err)
	require.NotNil(t, blob)
	assert.Equal(t, "short", blob.(*noteBlob).Text)
}

func TestCache_EmptyPathIsNoOp(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	// No expectations: any filesystem or logger call fails the test.
	fsys := mocks.NewMockFileSystem(ctrl)
	log := mocks.NewMockLogger(ctrl)
	cache := statecache.New(fsys, log, telemetry.NewNoOpTracer(), defaultRegistry(t))

	require.NoError(t, cache.Save(t.Context(), "", regcache.New()))
	require.NoError(t, cache.Delete(t.Context(), ""))

	blob, err := cache.Load(t.Context(), "", regcache.Kind)
	require.NoError(t, err)
	assert.Nil(t, blob)

	typed, err := statecache.LoadAs[*regcache.RegistrationCache](t.Context(), cache, "")
	require.NoError(t, err)
	assert.Nil(t, typed)
}

func TestCache_LoadMissingFile(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaultRegistry(t))

	blob, err := h.cache.Load(t.Context(), "/state/missing.state", regcache.Kind)
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestCache_LoadTruncated(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaultRegistry(t))
	path := "/state/registrations.state"

	rc := regcache.New()
	rc.Add("/src/a.proj", "/obj/a.dll")
	require.NoError(t, h.cache.Save(t.Context(), path, rc))
	full := h.readRaw(t, path)

	h.log.EXPECT().LogMessage(domain.CodeStateUnreadable, path, gomock.Any()).Times(len(full))

	for n := range len(full) {
		h.writeRaw(t, path, full[:n])

		blob, err := h.cache.Load(t.Context(), path, regcache.Kind)
		require.NoError(t, err, "prefix of %d bytes", n)
		assert.Nil(t, blob, "prefix of %d bytes", n)
	}
}

func TestCache_LoadCorrupted(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaultRegistry(t))
	path := "/state/note.state"

	require.NoError(t, h.cache.Save(t.Context(), path, &noteBlob{version: 1, Text: "payload"}))
	saved := h.readRaw(t, path)

	flipped := append([]byte(nil), saved...)
	idx := len(flipped) - 12 // inside the payload, before the checksum field
	flipped[idx] ^= 0xFF

	cases := map[string][]byte{
		"foreign bytes":  []byte("definitely not a state file"),
		"empty":          {},
		"flipped byte":   flipped,
		"trailing junk":  append(append([]byte(nil), saved...), 0xFF),
		"checksum wiped": append(append([]byte(nil), saved[:len(saved)-8]...), make([]byte, 8)...),
	}

	h.log.EXPECT().LogMessage(domain.CodeStateUnreadable, path, gomock.Any()).Times(len(cases))

	for name, data := range cases {
		h.writeRaw(t, path, data)

		blob, err := h.cache.Load(t.Context(), path, noteKind)
		require.NoError(t, err, name)
		assert.Nil(t, blob, name)
	}
}

func TestCache_LoadSkipsUnknownEnvelopeFields(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaultRegistry(t))
	path := "/state/note.state"

	require.NoError(t, h.cache.Save(t.Context(), path, &noteBlob{version: 1, Text: "hello"}))
	data := h.readRaw(t, path)
	data = protowire.AppendTag(data, 15, protowire.VarintType)
	data = protowire.AppendVarint(data, 42)
	h.writeRaw(t, path, data)

	blob, err := h.cache.Load(t.Context(), path, noteKind)
	require.NoError(t, err)
	require.NotNil(t, blob)
	assert.Equal(t, "hello", blob.(*noteBlob).Text)
}

func TestCache_LoadKindMismatch(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaultRegistry(t))
	path := "/state/note.state"

	require.NoError(t, h.cache.Save(t.Context(), path, &noteBlob{version: 1, Text: "x"}))

	h.log.EXPECT().LogWarning(domain.CodeStateKindMismatch, path, string(noteKind), string(regcache.Kind))

	blob, err := h.cache.Load(t.Context(), path, regcache.Kind)
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestLoadAs_TypeMismatch(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaultRegistry(t))
	path := "/state/note.state"

	require.NoError(t, h.cache.Save(t.Context(), path, &noteBlob{version: 1, Text: "x"}))

	h.log.EXPECT().LogWarning(
		domain.CodeStateTypeMismatch, path, "*statecache_test.noteBlob", "*regcache.RegistrationCache",
	)

	typed, err := statecache.LoadAs[*regcache.RegistrationCache](t.Context(), h.cache, path)
	require.NoError(t, err)
	assert.Nil(t, typed)
}

func TestCache_LoadSchemaDrift(t *testing.T) {
	t.Parallel()

	older := newHarness(t, defaultRegistry(t))
	path := "/state/note.state"
	require.NoError(t, older.cache.Save(t.Context(), path, &noteBlob{version: 1, Text: "old layout"}))

	newer := statecache.NewRegistry()
	require.NoError(t, newer.Register(noteConstructor(2)))

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().With(gomock.Any()).Return(log).AnyTimes()
	log.EXPECT().LogMessage(domain.CodeStateSchemaDrift, path, uint32(1), uint32(2))

	cache := statecache.New(older.fs, log, telemetry.NewNoOpTracer(), newer)

	blob, err := cache.Load(t.Context(), path, noteKind)
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestCache_LoadUnknownKind(t *testing.T) {
	t.Parallel()

	h := newHarness(t, statecache.NewRegistry())
	path := "/state/note.state"
	require.NoError(t, h.cache.Save(t.Context(), path, &noteBlob{version: 1, Text: "x"}))

	h.log.EXPECT().LogMessage(domain.CodeStateUnreadable, path, gomock.Any())

	blob, err := h.cache.Load(t.Context(), path, statecache.AnyKind)
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestCache_LoadDecodePanicIsCritical(t *testing.T) {
	t.Parallel()

	r := statecache.NewRegistry()
	require.NoError(t, r.Register(func() statecache.Blob { return &noteBlob{version: 1, panicOnDecode: true} }))
	h := newHarness(t, r)
	path := "/state/note.state"
	require.NoError(t, h.cache.Save(t.Context(), path, &noteBlob{version: 1, Text: "x"}))

	blob, err := h.cache.Load(t.Context(), path, noteKind)
	require.Error(t, err)
	assert.Nil(t, blob)
	assert.Equal(t, domain.KindRuntimeFault, domain.KindOf(err))
	assert.ErrorContains(t, err, "corrupted heap")
}

func TestCache_SaveMarshalFailureIsSkipped(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaultRegistry(t))
	path := "/state/note.state"

	h.log.EXPECT().LogWarning(domain.CodeStateWriteFailed, path, gomock.Any())

	require.NoError(t, h.cache.Save(t.Context(), path, &noteBlob{version: 1, failMarshal: true}))

	_, err := h.fs.Stat(path)
	assert.Equal(t, domain.KindNotExist, domain.KindOf(err))
}

func TestCache_FilesystemFailures(t *testing.T) {
	t.Parallel()

	path := filepath.FromSlash("/state/x.state")
	fault := func(kind domain.FaultKind) error {
		return domain.NewFault(kind, "op", path, errors.New(kind.String()))
	}
	notExist := fault(domain.KindNotExist)

	tests := []struct {
		name     string
		setup    func(fsys *mocks.MockFileSystem, log *mocks.MockLogger)
		run      func(t *testing.T, c *statecache.Cache) error
		wantKind domain.FaultKind
	}{
		{
			name: "save permission denied is logged",
			setup: func(fsys *mocks.MockFileSystem, log *mocks.MockLogger) {
				fsys.EXPECT().Remove(path).Return(notExist)
				fsys.EXPECT().Create(path).Return(nil, fault(domain.KindPermission))
				log.EXPECT().LogWarning(domain.CodeStateWriteFailed, path, gomock.Any())
			},
			run: func(t *testing.T, c *statecache.Cache) error {
				return c.Save(t.Context(), path, regcache.New())
			},
		},
		{
			name: "save locked file is logged",
			setup: func(fsys *mocks.MockFileSystem, log *mocks.MockLogger) {
				fsys.EXPECT().Remove(path).Return(fault(domain.KindLocked))
				log.EXPECT().LogWarning(domain.CodeStateWriteFailed, path, gomock.Any())
			},
			run: func(t *testing.T, c *statecache.Cache) error {
				return c.Save(t.Context(), path, regcache.New())
			},
		},
		{
			name: "save out of memory propagates",
			setup: func(fsys *mocks.MockFileSystem, _ *mocks.MockLogger) {
				fsys.EXPECT().Remove(path).Return(nil)
				fsys.EXPECT().Create(path).Return(nil, fault(domain.KindOutOfMemory))
			},
			run: func(t *testing.T, c *statecache.Cache) error {
				return c.Save(t.Context(), path, regcache.New())
			},
			wantKind: domain.KindOutOfMemory,
		},
		{
			name: "load permission denied is a miss",
			setup: func(fsys *mocks.MockFileSystem, log *mocks.MockLogger) {
				fsys.EXPECT().Open(path).Return(nil, fault(domain.KindPermission))
				log.EXPECT().LogMessage(domain.CodeStateUnreadable, path, gomock.Any())
			},
			run: func(t *testing.T, c *statecache.Cache) error {
				blob, err := c.Load(t.Context(), path, regcache.Kind)
				assert.Nil(t, blob)
				return err
			},
		},
		{
			name: "load aborted propagates",
			setup: func(fsys *mocks.MockFileSystem, _ *mocks.MockLogger) {
				fsys.EXPECT().Open(path).Return(nil, fault(domain.KindAborted))
			},
			run: func(t *testing.T, c *statecache.Cache) error {
				_, err := c.Load(t.Context(), path, regcache.Kind)
				return err
			},
			wantKind: domain.KindAborted,
		},
		{
			name: "delete missing file is silent",
			setup: func(fsys *mocks.MockFileSystem, _ *mocks.MockLogger) {
				fsys.EXPECT().Remove(path).Return(notExist)
			},
			run: func(t *testing.T, c *statecache.Cache) error {
				return c.Delete(t.Context(), path)
			},
		},
		{
			name: "delete permission denied is logged",
			setup: func(fsys *mocks.MockFileSystem, log *mocks.MockLogger) {
				fsys.EXPECT().Remove(path).Return(fault(domain.KindPermission))
				log.EXPECT().LogWarning(domain.CodeStateDeleteFailed, path, gomock.Any())
			},
			run: func(t *testing.T, c *statecache.Cache) error {
				return c.Delete(t.Context(), path)
			},
		},
		{
			name: "delete stack exhaustion propagates",
			setup: func(fsys *mocks.MockFileSystem, _ *mocks.MockLogger) {
				fsys.EXPECT().Remove(path).Return(fault(domain.KindStackExhausted))
			},
			run: func(t *testing.T, c *statecache.Cache) error {
				return c.Delete(t.Context(), path)
			},
			wantKind: domain.KindStackExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			fsys := mocks.NewMockFileSystem(ctrl)
			log := mocks.NewMockLogger(ctrl)
			log.EXPECT().With(gomock.Any()).Return(log).AnyTimes()
			tt.setup(fsys, log)

			cache := statecache.New(fsys, log, telemetry.NewNoOpTracer(), defaultRegistry(t))
			err := tt.run(t, cache)

			if tt.wantKind == domain.KindUnknown {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
			assert.True(t, domain.IsCritical(err))
		})
	}
}

func TestCache_RemoveReportsRemoval(t *testing.T) {
	t.Parallel()

	path := filepath.FromSlash("/state/x.state")

	tests := []struct {
		name        string
		removeErr   error
		warn        bool
		wantRemoved bool
	}{
		{name: "removed", wantRemoved: true},
		{name: "missing", removeErr: domain.NewFault(domain.KindNotExist, "remove", path, nil)},
		{name: "locked", removeErr: domain.NewFault(domain.KindLocked, "remove", path, nil), warn: true},
		{name: "permission", removeErr: domain.NewFault(domain.KindPermission, "remove", path, nil), warn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			fsys := mocks.NewMockFileSystem(ctrl)
			log := mocks.NewMockLogger(ctrl)
			log.EXPECT().With(gomock.Any()).Return(log).AnyTimes()
			fsys.EXPECT().Remove(path).Return(tt.removeErr)
			if tt.warn {
				log.EXPECT().LogWarning(domain.CodeStateDeleteFailed, path, gomock.Any())
			}

			cache := statecache.New(fsys, log, telemetry.NewNoOpTracer(), defaultRegistry(t))
			removed, err := cache.Remove(t.Context(), path)

			require.NoError(t, err)
			assert.Equal(t, tt.wantRemoved, removed)
		})
	}
}

func TestCache_AttributesLogsToEventContext(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	attributed := mocks.NewMockLogger(ctrl)

	bec := domain.NewBuildEventContext(7, 1, 2, 3, 4, 5)
	ctx := domain.WithEventContext(t.Context(), bec)
	path := "/state/garbage.state"

	log.EXPECT().With(bec).Return(attributed)
	attributed.EXPECT().LogMessage(domain.CodeStateUnreadable, path, gomock.Any())

	fsys := fs.NewMemory()
	cache := statecache.New(fsys, log, telemetry.NewNoOpTracer(), defaultRegistry(t))

	w, err := fsys.Create(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("garbage"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	blob, err := cache.Load(ctx, path, statecache.AnyKind)
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestCache_CriticalErrorCarriesContext(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	fsys := mocks.NewMockFileSystem(ctrl)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().With(gomock.Any()).Return(log).AnyTimes()

	path := "/state/x.state"
	fsys.EXPECT().Open(path).Return(nil, domain.NewFault(domain.KindOutOfMemory, "open", path, nil))

	bec := domain.NewBuildEventContext(1, 2, 3, 4, 5, 6)
	cache := statecache.New(fsys, log, telemetry.NewNoOpTracer(), defaultRegistry(t))

	_, err := cache.Load(domain.WithEventContext(t.Context(), bec), path, regcache.Kind)
	require.Error(t, err)

	type metadata interface{ Metadata() map[string]any }
	var md metadata
	require.ErrorAs(t, err, &md)
	assert.Equal(t, path, md.Metadata()["path"])
	assert.Equal(t, bec.String(), md.Metadata()["context"])
}
