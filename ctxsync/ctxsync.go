// Package ctxsync keeps the agent's view of the workspace fresh. It snapshots the
// board, the active code file and the lesson notes, fingerprints the snapshot and
// sends it to the conversation only when it changed or the debounce window passed.
package ctxsync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/tutorkit/code"
	"github.com/skosovsky/tutorkit/internal/tracer"
	"github.com/skosovsky/tutorkit/workspace"
)

// Status is the outcome of one synchronization.
type Status string

const (
	StatusOK        Status = "ok"
	StatusNoSession Status = "no-session"
	StatusNoop      Status = "noop"
	StatusError     Status = "error"
)

// Defaults used when the corresponding option is not set.
const (
	DefaultDebounce        = 300 * time.Millisecond
	DefaultResponseDelay   = 120 * time.Millisecond
	DefaultImageHashPrefix = 512
)

// Session is the agent conversation the snapshot is delivered to.
type Session interface {
	ID() string
	// SendContext inserts one user message holding text and, when imageURL is not
	// empty, the image.
	SendContext(ctx context.Context, text, imageURL string) error
	// CreateResponse asks the agent to respond now.
	CreateResponse(ctx context.Context) error
}

// CodeSource exposes the active code file. code.Editor implements it.
type CodeSource interface {
	Active() (workspace.CodeFile, error)
}

// NotesSource exposes the lesson notes text. lesson.Store implements it.
type NotesSource interface {
	Text() string
}

// Snapshot is the JSON document sent to the agent.
type Snapshot struct {
	Type       string                `json:"type"`
	Whiteboard workspace.ViewContext `json:"whiteboard"`
	IDE        *workspace.CodeFile   `json:"ide"`
	Notes      Notes                 `json:"notes"`
}

// Notes carries the raw lesson document.
type Notes struct {
	YAML string `json:"yaml"`
}

// Fingerprint identifies the last snapshot sent to a session.
type Fingerprint struct {
	Text  uint64
	Image uint64
	At    time.Time
}

// Engine is safe for concurrent use. Two overlapping syncs for the same session may
// both send; the later one wins the fingerprint.
type Engine struct {
	viewer  workspace.Viewer
	session func() Session
	code    CodeSource
	notes   NotesSource
	logger  *slog.Logger

	limits        workspace.Limits
	debounce      time.Duration
	responseDelay time.Duration
	prefix        int
	now           func() time.Time
	sleep         func(context.Context, time.Duration) error
	onSent        func(Snapshot, string)

	mu   sync.Mutex
	last map[string]Fingerprint

	waiting atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithCode sets the code editor source.
func WithCode(c CodeSource) Option { return func(e *Engine) { e.code = c } }

// WithNotes sets the lesson notes source.
func WithNotes(n NotesSource) Option { return func(e *Engine) { e.notes = n } }

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithLimits caps the board lists in the snapshot.
func WithLimits(l workspace.Limits) Option { return func(e *Engine) { e.limits = l } }

// WithDebounce sets the window during which an unchanged snapshot is not resent.
func WithDebounce(d time.Duration) Option { return func(e *Engine) { e.debounce = d } }

// WithResponseDelay sets the pause between delivering context and requesting a response.
func WithResponseDelay(d time.Duration) Option { return func(e *Engine) { e.responseDelay = d } }

// WithImageHashPrefix sets how many bytes of the screenshot URL are hashed.
func WithImageHashPrefix(n int) Option { return func(e *Engine) { e.prefix = n } }

// WithClock replaces time.Now and the response delay sleep.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(e *Engine) {
		e.now = now
		e.sleep = sleep
	}
}

// WithSentHook registers fn to run after a snapshot was delivered.
func WithSentHook(fn func(s Snapshot, imageURL string)) Option {
	return func(e *Engine) { e.onSent = fn }
}

// New returns an engine reading the board through viewer. session returns the
// current conversation or nil when none is connected.
func New(viewer workspace.Viewer, session func() Session, opts ...Option) *Engine {
	e := &Engine{
		viewer:        viewer,
		session:       session,
		limits:        workspace.DefaultLimits,
		debounce:      DefaultDebounce,
		responseDelay: DefaultResponseDelay,
		prefix:        DefaultImageHashPrefix,
		now:           time.Now,
		sleep:         sleepCtx,
		last:          make(map[string]Fingerprint),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot builds the current snapshot and its compact JSON form.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, string, error) {
	vc, err := e.viewer.ViewContext(ctx)
	if err != nil {
		return Snapshot{}, "", err
	}
	snap := Snapshot{Type: "workspace_context", Whiteboard: normalize(vc.Limit(e.limits))}
	if e.code != nil {
		f, err := e.code.Active()
		switch {
		case errors.Is(err, code.ErrNoActiveFile):
		case err != nil:
			return Snapshot{}, "", err
		default:
			snap.IDE = &f
		}
	}
	if e.notes != nil {
		snap.Notes.YAML = e.notes.Text()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, "", err
	}
	return snap, string(data), nil
}

func normalize(vc workspace.ViewContext) workspace.ViewContext {
	if vc.BlurryShapes == nil {
		vc.BlurryShapes = []workspace.ShapeSummary{}
	}
	if vc.PeripheralClusters == nil {
		vc.PeripheralClusters = []workspace.Cluster{}
	}
	if vc.SelectedShapes == nil {
		vc.SelectedShapes = []workspace.ShapeSummary{}
	}
	return vc
}

// screenshot returns "" when there is nothing to capture.
func (e *Engine) screenshot(ctx context.Context) (string, error) {
	url, err := e.viewer.Screenshot(ctx)
	if errors.Is(err, workspace.ErrNoImage) {
		return "", nil
	}
	return url, err
}

func (e *Engine) imageHash(url string) uint64 {
	if url == "" {
		return 0
	}
	if e.prefix > 0 && len(url) > e.prefix {
		url = url[:e.prefix]
	}
	return xxhash.Sum64String(url)
}

// Sync sends the workspace snapshot to the current session unless the same snapshot
// was sent within the debounce window. With trigger set it then waits the response
// delay and asks the agent to respond. Sync never panics and reports failures only
// through the returned Status.
func (e *Engine) Sync(ctx context.Context, trigger bool) (status Status) {
	ctx, span := tracer.StartSpan(ctx, "ctxsync.sync")
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "context sync panicked", "panic", r)
			status = StatusError
		}
		span.End()
	}()

	s := e.session()
	if s == nil {
		return StatusNoSession
	}
	snap, text, err := e.Snapshot(ctx)
	if err != nil {
		return e.fail(ctx, span, "snapshot", err)
	}
	url, err := e.screenshot(ctx)
	if err != nil {
		return e.fail(ctx, span, "screenshot", err)
	}

	fp := Fingerprint{Text: xxhash.Sum64String(text), Image: e.imageHash(url), At: e.now()}
	e.mu.Lock()
	prev, seen := e.last[s.ID()]
	e.mu.Unlock()
	if seen && prev.Text == fp.Text && prev.Image == fp.Image && fp.At.Sub(prev.At) < e.debounce {
		e.logger.DebugContext(ctx, "context unchanged", "session", s.ID())
		tracer.SetOK(span)
		return StatusNoop
	}

	if err := s.SendContext(ctx, text, url); err != nil {
		return e.fail(ctx, span, "send context", err)
	}
	e.mu.Lock()
	e.last[s.ID()] = fp
	e.mu.Unlock()
	e.logger.InfoContext(ctx, "context sent", "session", s.ID(), "text_chars", len(text), "image_chars", len(url))
	if e.onSent != nil {
		e.onSent(snap, url)
	}

	if trigger {
		if err := e.respond(ctx, s); err != nil {
			return e.fail(ctx, span, "create response", err)
		}
	}
	tracer.SetOK(span)
	return StatusOK
}

func (e *Engine) respond(ctx context.Context, s Session) error {
	if err := e.sleep(ctx, e.responseDelay); err != nil {
		return err
	}
	return s.CreateResponse(ctx)
}

func (e *Engine) fail(ctx context.Context, span trace.Span, step string, err error) Status {
	tracer.RecordError(span, err)
	e.logger.WarnContext(ctx, "context sync failed", "step", step, "error", err)
	return StatusError
}
