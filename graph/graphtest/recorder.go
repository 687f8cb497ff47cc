// Package graphtest provides a recording graph.Delegate for tests.
package graphtest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cwbudde/algo-live/graph"
)

// Op names a Delegate method.
type Op string

const (
	OpCreate     Op = "create"
	OpEphemeral  Op = "ephemeral"
	OpDestroy    Op = "destroy"
	OpUpdate     Op = "update"
	OpConnect    Op = "connect"
	OpDisconnect Op = "disconnect"
)

// Handle is the resource type handed out by Recorder.
type Handle struct {
	ID    int
	Kind  graph.Kind
	Props graph.Props
}

func (h *Handle) String() string {
	if h == nil {
		return "<nil>"
	}

	return fmt.Sprintf("%s#%d", h.Kind, h.ID)
}

// Call is one recorded Delegate invocation.
type Call struct {
	Op      Op
	Kind    graph.Kind
	Res     *Handle
	Dst     *Handle
	Changes []graph.Change
}

// ErrRefused is returned for kinds listed in Recorder.Refuse.
var ErrRefused = errors.New("graphtest: creation refused")

// Recorder is a no-op Delegate that records every call. The zero value is
// ready to use.
type Recorder struct {
	// Refuse makes CreatePersistent fail for the listed kinds.
	Refuse map[graph.Kind]bool
	// Nil makes CreatePersistent return a nil resource for the listed kinds.
	Nil map[graph.Kind]bool

	mu         sync.Mutex
	next       int
	calls      []Call
	ephemerals []graph.Ephemeral
	live       map[*Handle]bool
}

var _ graph.Delegate = (*Recorder)(nil)

func (r *Recorder) CreatePersistent(kind graph.Kind, props graph.Props, _ graph.Resolver) (graph.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Refuse[kind] {
		return nil, fmt.Errorf("%w: %s", ErrRefused, kind)
	}

	if r.Nil[kind] {
		return nil, nil
	}

	r.next++
	h := &Handle{ID: r.next, Kind: kind, Props: props}

	if r.live == nil {
		r.live = make(map[*Handle]bool)
	}

	r.live[h] = true
	r.calls = append(r.calls, Call{Op: OpCreate, Kind: kind, Res: h})

	return h, nil
}

func (r *Recorder) CreateEphemeral(e graph.Ephemeral) (graph.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := &Handle{ID: r.next, Kind: e.Kind, Props: e.Props}
	r.ephemerals = append(r.ephemerals, e)
	r.calls = append(r.calls, Call{Op: OpEphemeral, Kind: e.Kind, Res: h})

	return h, nil
}

func (r *Recorder) Destroy(res graph.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := handle(res)
	if err != nil {
		return err
	}

	delete(r.live, h)
	r.calls = append(r.calls, Call{Op: OpDestroy, Kind: h.Kind, Res: h})

	return nil
}

func (r *Recorder) Update(res graph.Resource, changes []graph.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := handle(res)
	if err != nil {
		return err
	}

	r.calls = append(r.calls, Call{Op: OpUpdate, Kind: h.Kind, Res: h, Changes: changes})

	return nil
}

func (r *Recorder) Connect(src, dst graph.Resource) error {
	return r.link(OpConnect, src, dst)
}

func (r *Recorder) Disconnect(src, dst graph.Resource) error {
	return r.link(OpDisconnect, src, dst)
}

func (r *Recorder) link(op Op, src, dst graph.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := handle(src)
	if err != nil {
		return err
	}

	d, err := handle(dst)
	if err != nil {
		return err
	}

	r.calls = append(r.calls, Call{Op: op, Kind: s.Kind, Res: s, Dst: d})

	return nil
}

func handle(res graph.Resource) (*Handle, error) {
	h, ok := res.(*Handle)
	if !ok || h == nil {
		return nil, fmt.Errorf("%w: %T", graph.ErrIncompatibleResource, res)
	}

	return h, nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Call(nil), r.calls...)
}

// Count returns the number of recorded calls of op.
func (r *Recorder) Count(op Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}

	return n
}

// Ephemerals returns the ephemeral specs received so far.
func (r *Recorder) Ephemerals() []graph.Ephemeral {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]graph.Ephemeral(nil), r.ephemerals...)
}

// Live returns the number of created and not yet destroyed resources.
func (r *Recorder) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.live)
}

// Reset forgets recorded calls and ephemerals; live resources are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = nil
	r.ephemerals = nil
}
