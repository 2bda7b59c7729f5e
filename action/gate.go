package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrApprovalRequired is wrapped by *ApprovalError.
	ErrApprovalRequired = errors.New("approval required")
	// ErrUnknownApproval is returned when no pending request has the given id.
	ErrUnknownApproval = errors.New("unknown approval request")
)

// Approval is one pending confirmation request.
type Approval struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Summary     string    `json:"summary"`
	RequestedAt time.Time `json:"requestedAt"`
}

// ApprovalError reports that an action waits for confirmation. Re-invoke the same
// action after Gate.Approve(ID).
type ApprovalError struct {
	Approval
}

func (e *ApprovalError) Error() string {
	return fmt.Sprintf("%s requires approval (request %s): %s", e.Kind, e.ID, e.Summary)
}

func (e *ApprovalError) Unwrap() error { return ErrApprovalRequired }

type approvalState int

const (
	stateRequested approvalState = iota
	stateApproved
)

type approvalEntry struct {
	Approval
	key   string
	state approvalState
}

// Gate holds irreversible action kinds until an out-of-band party approves them. It
// never blocks: a gated action is rejected with an *ApprovalError and the caller
// re-invokes it once approved. Each approval admits exactly one dispatch.
type Gate struct {
	mu        sync.Mutex
	kinds     map[Kind]bool
	entries   map[string]*approvalEntry // by key
	byID      map[string]string         // id -> key
	onRequest func(Approval)
	now       func() time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// OnApprovalRequested receives every new request. Repeated requests for the same
// action while one is pending are not re-emitted.
func OnApprovalRequested(fn func(Approval)) GateOption {
	return func(g *Gate) { g.onRequest = fn }
}

// NewGate gates the given kinds.
func NewGate(kinds []Kind, opts ...GateOption) *Gate {
	g := &Gate{
		kinds:   make(map[Kind]bool, len(kinds)),
		entries: make(map[string]*approvalEntry),
		byID:    make(map[string]string),
		now:     time.Now,
	}
	for _, k := range kinds {
		g.kinds[k] = true
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Requires reports whether k is gated.
func (g *Gate) Requires(k Kind) bool {
	if g == nil {
		return false
	}
	return g.kinds[k]
}

// Check admits a when it is not gated or has been approved; the approval is consumed.
// Otherwise it records a request (or finds the pending one) and returns *ApprovalError.
func (g *Gate) Check(a Action) error {
	if !g.Requires(a.Kind()) {
		return nil
	}
	key := approvalKey(a)
	g.mu.Lock()
	e, ok := g.entries[key]
	if ok && e.state == stateApproved {
		delete(g.entries, key)
		delete(g.byID, e.ID)
		g.mu.Unlock()
		return nil
	}
	if ok {
		g.mu.Unlock()
		return &ApprovalError{Approval: e.Approval}
	}
	e = &approvalEntry{
		Approval: Approval{
			ID:          "apr_" + strings.ToLower(ulid.Make().String()),
			Kind:        a.Kind(),
			Summary:     Describe(a),
			RequestedAt: g.now(),
		},
		key: key,
	}
	g.entries[key] = e
	g.byID[e.ID] = key
	g.mu.Unlock()

	g.emit(e.Approval)
	return &ApprovalError{Approval: e.Approval}
}

// Approve arms the pending request id for one dispatch.
func (g *Gate) Approve(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	key, ok := g.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownApproval, id)
	}
	g.entries[key].state = stateApproved
	return nil
}

// Reject drops the pending request id.
func (g *Gate) Reject(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	key, ok := g.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownApproval, id)
	}
	delete(g.entries, key)
	delete(g.byID, id)
	return nil
}

// Pending lists requests not yet approved, oldest first.
func (g *Gate) Pending() []Approval {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Approval
	for _, e := range g.entries {
		if e.state == stateRequested {
			out = append(out, e.Approval)
		}
	}
	slices.SortFunc(out, func(a, b Approval) int { return a.RequestedAt.Compare(b.RequestedAt) })
	return out
}

func (g *Gate) emit(a Approval) {
	if g.onRequest == nil {
		return
	}
	defer func() { _ = recover() }()
	g.onRequest(a)
}

// approvalKey identifies an action independently of its intent text.
func approvalKey(a Action) string {
	data, err := Marshal(a)
	if err != nil {
		return string(a.Kind())
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return string(a.Kind())
	}
	delete(fields, "intent")
	canonical, err := json.Marshal(fields)
	if err != nil {
		return string(a.Kind())
	}
	return string(canonical)
}

// Describe returns a one-line human summary of a.
func Describe(a Action) string {
	switch v := a.(type) {
	case Clear:
		return withIntent("clear the entire board", v.Note)
	case Delete:
		return withIntent("delete shape "+v.ID, v.Note)
	case Create:
		return withIntent("create "+v.Shape.Type+" shape", v.Note)
	default:
		return withIntent(string(a.Kind()), a.Intent())
	}
}

func withIntent(s, intent string) string {
	if intent == "" {
		return s
	}
	return s + " (" + intent + ")"
}
