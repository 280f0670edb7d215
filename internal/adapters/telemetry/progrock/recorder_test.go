package progrock_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vprogrock "github.com/vito/progrock"
	"go.trai.ch/stash/internal/adapters/telemetry/progrock"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestRecorder_RecordAndClose(t *testing.T) {
	t.Parallel()

	recorder := progrock.New()

	ctx, vertex := recorder.Record(t.Context(), "load state", ports.WithVertexGroup("inspect"))
	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, vertex, fromCtx)

	_, err := vertex.Stdout().Write([]byte("Standard Output\n"))
	require.NoError(t, err)
	vertex.Log(domain.LogLevelWarn, "warned")
	vertex.Cached()
	vertex.Complete(nil)

	require.NoError(t, recorder.Close())
}

func TestRenderer_PrintsFinishedVertices(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	r := progrock.NewRenderer(buf, nil)
	now := timestamppb.New(time.Now())
	failure := "boom"

	require.NoError(t, r.WriteStatus(&vprogrock.StatusUpdate{
		Vertexes: []*vprogrock.Vertex{
			{Id: "1", Name: "statecache.load"},
			{Id: "2", Name: "statecache.save"},
			{Id: "3", Name: "statecache.delete"},
		},
	}))
	assert.Empty(t, buf.String(), "running vertices print nothing")

	require.NoError(t, r.WriteStatus(&vprogrock.StatusUpdate{
		Vertexes: []*vprogrock.Vertex{
			{Id: "1", Cached: true, Completed: now},
			{Id: "2", Completed: now},
			{Id: "3", Completed: now, Error: &failure},
		},
	}))
	// A repeated completion is printed once.
	require.NoError(t, r.WriteStatus(&vprogrock.StatusUpdate{
		Vertexes: []*vprogrock.Vertex{{Id: "2", Completed: now}},
	}))

	assert.Equal(t,
		"~ statecache.load (cached)\n✓ statecache.save\n✗ statecache.delete: boom\n",
		buf.String())
	require.NoError(t, r.Close())
}

type captureWriter struct {
	updates []*vprogrock.StatusUpdate
	closed  bool
	err     error
}

func (w *captureWriter) WriteStatus(u *vprogrock.StatusUpdate) error {
	w.updates = append(w.updates, u)
	return w.err
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestRenderer_ForwardsToNext(t *testing.T) {
	t.Parallel()

	next := &captureWriter{err: errors.New("full")}
	r := progrock.NewRenderer(&bytes.Buffer{}, next)

	update := &vprogrock.StatusUpdate{Vertexes: []*vprogrock.Vertex{{Id: "1", Name: "x"}}}
	err := r.WriteStatus(update)

	require.Error(t, err)
	require.Len(t, next.updates, 1)
	assert.Same(t, update, next.updates[0])

	require.NoError(t, r.Close())
	assert.True(t, next.closed)
}
