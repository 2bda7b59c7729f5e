package tutorkit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skosovsky/tutorkit/internal/tracer"
)

const (
	defaultLogLines = 500
	dumpLimit       = 600
)

// EventStatus is the phase of a ToolEvent.
type EventStatus string

const (
	EventStart EventStatus = "start"
	EventDone  EventStatus = "done"
	EventError EventStatus = "error"
)

// ToolEvent describes one phase of one tool invocation. Args, Result and Err are
// truncated dumps meant for display.
type ToolEvent struct {
	RequestID string
	Name      string
	Status    EventStatus
	StartedAt time.Time
	Duration  time.Duration
	Args      string
	Result    string
	Err       string
}

// Observer is the telemetry context shared by the wrapped tools of one agent session:
// busy signaling, a capped in-memory log, an event sink, slog and tracing. Independent
// sessions use independent Observers.
type Observer struct {
	logger   *slog.Logger
	onEvent  func(ToolEvent)
	onBusy   func(bool)
	maxLines int
	now      func() time.Time
	newID    func() string

	inflight atomic.Int64
	mu       sync.Mutex
	lines    []string
}

// ObserverOption configures an Observer.
type ObserverOption func(*Observer)

// WithEventSink receives every ToolEvent. Panics in fn are swallowed.
func WithEventSink(fn func(ToolEvent)) ObserverOption {
	return func(o *Observer) { o.onEvent = fn }
}

// WithBusyHook is called with true when the first invocation starts and with false
// when the last running one ends.
func WithBusyHook(fn func(bool)) ObserverOption {
	return func(o *Observer) { o.onBusy = fn }
}

// WithObserverLogger sets the slog destination. Defaults to slog.Default().
func WithObserverLogger(l *slog.Logger) ObserverOption {
	return func(o *Observer) { o.logger = l }
}

// WithLogLimit caps the in-memory log; older lines are discarded.
func WithLogLimit(n int) ObserverOption {
	return func(o *Observer) { o.maxLines = n }
}

// NewObserver returns an Observer with a 500 line log.
func NewObserver(opts ...ObserverOption) *Observer {
	o := &Observer{
		maxLines: defaultLogLines,
		now:      time.Now,
		newID:    requestID,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.maxLines <= 0 {
		o.maxLines = defaultLogLines
	}
	return o
}

// Busy reports whether any observed invocation is in flight.
func (o *Observer) Busy() bool { return o.inflight.Load() > 0 }

// Lines returns a copy of the in-memory log, oldest first.
func (o *Observer) Lines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.lines...)
}

// Observe wraps fn with request ids, timing, events, busy signaling and logging.
// The wrapped function returns exactly what fn returns; errors are re-raised unchanged.
func Observe[T any, R any](o *Observer, name string, fn func(context.Context, T) (R, error)) func(context.Context, T) (R, error) {
	return func(ctx context.Context, args T) (res R, err error) {
		inv := o.begin(ctx, name, args)
		defer func() {
			if p := recover(); p != nil {
				inv.end(nil, fmt.Errorf("panic: %v", p))
				panic(p)
			}
			if err != nil {
				inv.end(nil, err)
			} else {
				inv.end(res, nil)
			}
		}()
		return fn(inv.ctx, args)
	}
}

// WithObserver is a Middleware applying Observe to a registered Tool.
func WithObserver(o *Observer) Middleware {
	return func(next Tool) Tool {
		return &observedTool{toolBase: toolBase{next: next}, obs: o}
	}
}

type observedTool struct {
	toolBase
	obs *Observer
}

func (t *observedTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	return Observe(t.obs, t.next.Name(), func(ctx context.Context, a json.RawMessage) ([]byte, error) {
		return t.next.Execute(ctx, a)
	})(ctx, args)
}

type invocation struct {
	ctx context.Context
	end func(result any, err error)
}

func (o *Observer) begin(ctx context.Context, name string, args any) *invocation {
	rid := o.newID()
	started := o.now()
	ctx, span := tracer.StartSpan(ctx, "tool."+name,
		attribute.String("tool.name", name),
		attribute.String("tool.request_id", rid),
	)
	argDump := dump(args)
	o.append(fmt.Sprintf("[tool:start] %s rid=%s args=%s", name, rid, argDump))
	o.logger.InfoContext(ctx, "tool start", "tool", name, "rid", rid)
	o.emit(ToolEvent{RequestID: rid, Name: name, Status: EventStart, StartedAt: started, Args: argDump})
	if o.inflight.Add(1) == 1 {
		o.busy(true)
	}

	inv := &invocation{ctx: ctx}
	inv.end = func(result any, err error) {
		defer func() {
			if o.inflight.Add(-1) == 0 {
				o.busy(false)
			}
			span.End()
		}()
		dur := o.now().Sub(started)
		ev := ToolEvent{RequestID: rid, Name: name, StartedAt: started, Duration: dur, Args: argDump}
		if err != nil {
			ev.Status = EventError
			ev.Err = truncate(fmt.Sprintf("%+v", err), dumpLimit)
			o.append(fmt.Sprintf("[tool:error] %s rid=%s %dms err=%s", name, rid, dur.Milliseconds(), ev.Err))
			o.logger.ErrorContext(ctx, "tool error", "tool", name, "rid", rid, "duration", dur, "error", err)
			tracer.RecordError(span, err)
		} else {
			ev.Status = EventDone
			ev.Result = dump(result)
			o.append(fmt.Sprintf("[tool:done] %s rid=%s %dms result=%s", name, rid, dur.Milliseconds(), ev.Result))
			o.logger.InfoContext(ctx, "tool end", "tool", name, "rid", rid, "duration", dur)
			tracer.SetOK(span)
		}
		o.emit(ev)
	}
	return inv
}

func (o *Observer) append(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, line)
	if over := len(o.lines) - o.maxLines; over > 0 {
		o.lines = append(o.lines[:0:0], o.lines[over:]...)
	}
}

func (o *Observer) emit(ev ToolEvent) {
	if o.onEvent == nil {
		return
	}
	defer func() { _ = recover() }()
	o.onEvent(ev)
}

func (o *Observer) busy(v bool) {
	if o.onBusy == nil {
		return
	}
	defer func() { _ = recover() }()
	o.onBusy(v)
}

// requestID returns six lowercase characters from the random part of a ULID.
func requestID() string {
	s := ulid.Make().String()
	return strings.ToLower(s[len(s)-6:])
}

func dump(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case []byte:
		return truncate(string(x), dumpLimit)
	case json.RawMessage:
		return truncate(string(x), dumpLimit)
	case string:
		return truncate(x, dumpLimit)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return truncate(fmt.Sprintf("%+v", v), dumpLimit)
	}
	return truncate(string(b), dumpLimit)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
