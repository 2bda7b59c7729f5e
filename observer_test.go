package tutorkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []ToolEvent
	busy   []bool
}

func (r *recorder) event(ev ToolEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) setBusy(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = append(r.busy, v)
}

func newTestObserver(rec *recorder, opts ...ObserverOption) *Observer {
	base := []ObserverOption{
		WithEventSink(rec.event),
		WithBusyHook(rec.setBusy),
		WithObserverLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	}
	return NewObserver(append(base, opts...)...)
}

func TestObserve_Success(t *testing.T) {
	rec := &recorder{}
	obs := newTestObserver(rec)
	fn := Observe(obs, "move", func(_ context.Context, a moveArgs) (Result, error) {
		assert.True(t, obs.Busy())
		return OK("moved "+a.ID, nil), nil
	})

	res, err := fn(context.Background(), moveArgs{ID: "s1", X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, "moved s1", res.Summary)
	assert.False(t, obs.Busy())

	require.Len(t, rec.events, 2)
	start, done := rec.events[0], rec.events[1]
	assert.Equal(t, EventStart, start.Status)
	assert.Equal(t, EventDone, done.Status)
	assert.Len(t, start.RequestID, 6)
	assert.Equal(t, start.RequestID, done.RequestID)
	assert.Contains(t, start.Args, `"id":"s1"`)
	assert.Contains(t, done.Result, "moved s1")
	assert.Equal(t, []bool{true, false}, rec.busy)

	lines := obs.Lines()
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[tool:start] move rid="+start.RequestID))
	assert.True(t, strings.HasPrefix(lines[1], "[tool:done] move rid="+start.RequestID))
}

func TestObserve_ErrorIsReRaisedUnchanged(t *testing.T) {
	rec := &recorder{}
	obs := newTestObserver(rec)
	cause := errors.New("surface rejected")
	fn := Observe(obs, "delete", func(context.Context, string) (Result, error) {
		return Result{}, cause
	})
	_, err := fn(context.Background(), "s1")
	assert.Same(t, cause, err)
	require.Len(t, rec.events, 2)
	assert.Equal(t, EventError, rec.events[1].Status)
	assert.Equal(t, "surface rejected", rec.events[1].Err)
	assert.Equal(t, []bool{true, false}, rec.busy)
	assert.Contains(t, obs.Lines()[1], "[tool:error] delete")
}

func TestObserve_PanicClearsBusy(t *testing.T) {
	rec := &recorder{}
	obs := newTestObserver(rec)
	fn := Observe(obs, "pen", func(context.Context, int) (int, error) {
		panic("renderer crashed")
	})
	assert.Panics(t, func() { _, _ = fn(context.Background(), 1) })
	assert.Equal(t, []bool{true, false}, rec.busy)
	assert.False(t, obs.Busy())
	assert.Equal(t, EventError, rec.events[len(rec.events)-1].Status)
}

func TestObserve_BusyStaysSetWhileCallsOverlap(t *testing.T) {
	rec := &recorder{}
	obs := newTestObserver(rec)
	inner := Observe(obs, "get_view_context", func(context.Context, int) (int, error) { return 1, nil })
	outer := Observe(obs, "create_shape", func(ctx context.Context, n int) (int, error) {
		got, err := inner(ctx, n)
		assert.True(t, obs.Busy())
		return got + 1, err
	})

	got, err := outer(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, []bool{true, false}, rec.busy)
	assert.False(t, obs.Busy())
	assert.Len(t, rec.events, 4)
}

func TestObserve_TelemetryFailuresSwallowed(t *testing.T) {
	obs := NewObserver(
		WithEventSink(func(ToolEvent) { panic("sink down") }),
		WithBusyHook(func(bool) { panic("ui gone") }),
		WithObserverLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)
	fn := Observe(obs, "stack", func(context.Context, int) (int, error) { return 7, nil })
	got, err := fn(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestObserver_LogIsCapped(t *testing.T) {
	obs := newTestObserver(&recorder{}, WithLogLimit(5))
	fn := Observe(obs, "noop", func(_ context.Context, i int) (int, error) { return i, nil })
	for i := range 10 {
		_, _ = fn(context.Background(), i)
	}
	lines := obs.Lines()
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "[tool:done]"))
	assert.Contains(t, lines[4], "result=9")
}

func TestObserve_TruncatesDumps(t *testing.T) {
	rec := &recorder{}
	obs := newTestObserver(rec)
	fn := Observe(obs, "set_document_text", func(_ context.Context, s string) (string, error) { return s, nil })
	long := strings.Repeat("é", 1000)
	_, err := fn(context.Background(), long)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(rec.events[0].Args), dumpLimit+len("…"))
	assert.True(t, strings.HasSuffix(rec.events[0].Args, "…"))
}

func TestWithObserver_Middleware(t *testing.T) {
	rec := &recorder{}
	obs := newTestObserver(rec)
	reg := NewRegistry()
	reg.Use(WithObserver(obs))
	reg.Register(minTool{name: "clear", execute: func(context.Context, []byte) ([]byte, error) {
		return nil, &SystemError{Err: fmt.Errorf("canvas locked")}
	}})
	res := reg.Execute(context.Background(), ToolCall{ID: "1", ToolName: "clear", Args: raw(`{}`)})
	assert.True(t, IsSystemError(res.Error))
	require.Len(t, rec.events, 2)
	assert.Equal(t, "clear", rec.events[0].Name)
	assert.Equal(t, `{}`, rec.events[0].Args)
	assert.Equal(t, EventError, rec.events[1].Status)
}

func TestRequestID(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		id := requestID()
		assert.Len(t, id, 6)
		assert.Equal(t, strings.ToLower(id), id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 45)
}
