package graph

import (
	"errors"
	"fmt"
	"log/slog"
)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for degraded creations and render
// summaries.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// Stats counts the Delegate calls issued over the reconciler's lifetime by
// Render, SetProperty and Close.
type Stats struct {
	Created      int
	Updated      int
	Destroyed    int
	Connected    int
	Disconnected int
}

// Reconciler keeps a persistent processing graph in step with successive
// descriptor trees. It is not safe for concurrent use.
type Reconciler struct {
	delegate Delegate
	logger   *slog.Logger

	cur   *arena
	aux   []auxEdge
	stats Stats
	errs  []error
}

type auxEdge struct {
	src, dst Resource
}

// NewReconciler returns a reconciler that drives d.
func NewReconciler(d Delegate, opts ...Option) *Reconciler {
	r := &Reconciler{
		delegate: d,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Render reconciles the live graph against root. An invalid tree is
// rejected before any Delegate call and leaves the previous graph live.
// Errors from Update and from connection calls do not stop the render; they
// are joined and returned once the new tree is committed.
func (r *Reconciler) Render(root *Node) error {
	if err := Validate(root); err != nil {
		return err
	}

	before := r.stats
	r.errs = nil

	next := newArena(Count(root))

	oldRoot := -1
	if r.cur != nil && len(r.cur.slots) > 0 {
		oldRoot = 0
	}

	r.reconcile(next, root, oldRoot, -1, nil)
	r.wireAux(next)
	r.cur = next

	r.logger.Debug("graph rendered",
		"nodes", len(next.slots),
		"created", r.stats.Created-before.Created,
		"updated", r.stats.Updated-before.Updated,
		"destroyed", r.stats.Destroyed-before.Destroyed,
		"connected", r.stats.Connected-before.Connected,
		"disconnected", r.stats.Disconnected-before.Disconnected,
	)

	err := errors.Join(r.errs...)
	r.errs = nil

	return err
}

// reconcile places n into next and returns its slot index. old is the slot
// in the current arena at the same structural position, or -1.
func (r *Reconciler) reconcile(next *arena, n *Node, old, parent int, parentRes Resource) int {
	props := n.EffectiveProps()
	idx := next.add(slot{
		kind:      n.Kind,
		key:       n.Key,
		props:     props,
		aux:       append([]string(nil), n.Aux...),
		parent:    parent,
		parentRes: parentRes,
	})

	if old >= 0 {
		prev := r.cur.slots[old]
		if prev.kind == n.Kind && prev.key == n.Key {
			next.slots[idx].res = prev.res
			r.update(prev.res, prev.kind, prev.key, prev.props, props)

			for i, c := range n.Children {
				oc := -1
				if i < len(prev.children) {
					oc = prev.children[i]
				}

				r.reconcile(next, c, oc, idx, prev.res)
			}

			if len(prev.children) > len(n.Children) {
				for _, oc := range prev.children[len(n.Children):] {
					r.destroy(oc)
				}
			}

			return idx
		}

		r.destroy(old)
	}

	res := r.create(next, n.Kind, n.Key, props)
	next.slots[idx].res = res

	if res != nil && parentRes != nil {
		r.connect(res, parentRes)
	}

	for _, c := range n.Children {
		r.reconcile(next, c, -1, idx, res)
	}

	return idx
}

func (r *Reconciler) create(next *arena, kind Kind, key string, props Props) Resource {
	if kind.Ephemeral() {
		return nil
	}

	res, err := r.delegate.CreatePersistent(kind, props, next)
	if err != nil || res == nil {
		r.logger.Warn("backend could not create node", "kind", kind, "key", key, "error", err)

		return nil
	}

	r.stats.Created++

	return res
}

func (r *Reconciler) update(res Resource, kind Kind, key string, old, props Props) {
	if res == nil {
		return
	}

	changes := Diff(old, props)
	if len(changes) == 0 {
		return
	}

	r.stats.Updated++

	if err := r.delegate.Update(res, changes); err != nil {
		r.errs = append(r.errs, fmt.Errorf("update %s node %q: %w", kind, key, err))
	}
}

// destroy tears down slot i of the current arena and its descendants,
// innermost first, severing aux edges that touch them.
func (r *Reconciler) destroy(i int) {
	s := r.cur.slots[i]
	for _, c := range s.children {
		r.destroy(c)
	}

	if s.res == nil {
		return
	}

	r.stats.Destroyed++

	if err := r.delegate.Destroy(s.res); err != nil {
		r.logger.Warn("backend could not destroy node", "kind", s.kind, "key", s.key, "error", err)
	}

	r.sever(s.res)
}

func (r *Reconciler) sever(res Resource) {
	kept := r.aux[:0]

	for _, e := range r.aux {
		if e.src == res || e.dst == res {
			r.disconnect(e)

			continue
		}

		kept = append(kept, e)
	}

	r.aux = kept
}

// wireAux brings the aux connections in line with next: edges no longer
// wanted are disconnected, new ones connected, existing ones left alone.
func (r *Reconciler) wireAux(next *arena) {
	var want []auxEdge

	for _, s := range next.slots {
		for _, key := range s.aux {
			ti, ok := next.lookup(key)
			if !ok {
				continue
			}

			dst := next.slots[ti].res
			if s.res == nil || dst == nil {
				r.logger.Debug("aux send skipped, endpoint has no resource", "key", s.key, "target", key)

				continue
			}

			e := auxEdge{src: s.res, dst: dst}
			if !containsEdge(want, e) {
				want = append(want, e)
			}
		}
	}

	kept := r.aux[:0]

	for _, e := range r.aux {
		if containsEdge(want, e) {
			kept = append(kept, e)

			continue
		}

		r.disconnect(e)
	}

	r.aux = kept

	for _, e := range want {
		if containsEdge(r.aux, e) {
			continue
		}

		r.connect(e.src, e.dst)
		r.aux = append(r.aux, e)
	}
}

func containsEdge(edges []auxEdge, e auxEdge) bool {
	for _, x := range edges {
		if x == e {
			return true
		}
	}

	return false
}

func (r *Reconciler) connect(src, dst Resource) {
	r.stats.Connected++

	if err := r.delegate.Connect(src, dst); err != nil {
		r.errs = append(r.errs, fmt.Errorf("connect: %w", err))
	}
}

func (r *Reconciler) disconnect(e auxEdge) {
	r.stats.Disconnected++

	if err := r.delegate.Disconnect(e.src, e.dst); err != nil {
		r.errs = append(r.errs, fmt.Errorf("disconnect: %w", err))
	}
}

// Stats returns the cumulative Delegate call counters.
func (r *Reconciler) Stats() Stats {
	return r.stats
}

// Lookup returns the reconciled node with the given key.
func (r *Reconciler) Lookup(key string) (Info, bool) {
	if r.cur == nil {
		return Info{}, false
	}

	i, ok := r.cur.lookup(key)
	if !ok {
		return Info{}, false
	}

	return r.cur.info(i), true
}

// Tree returns a descriptor copy of the live tree, or nil before the first
// successful Render.
func (r *Reconciler) Tree() *Node {
	if r.cur == nil || len(r.cur.slots) == 0 {
		return nil
	}

	return r.cur.descriptor(0)
}

// Walk calls fn for every reconciled node in depth-first order.
func (r *Reconciler) Walk(fn func(Info)) {
	if r.cur == nil {
		return
	}

	for i := range r.cur.slots {
		fn(r.cur.info(i))
	}
}

// SetProperty changes one field of a keyed node without a full render. The
// node must be of the given kind and the new value must keep the tree
// valid.
func (r *Reconciler) SetProperty(key string, kind Kind, field string, value any) error {
	if r.cur == nil {
		return fmt.Errorf("%w: %q", ErrUnresolvedKey, key)
	}

	i, ok := r.cur.lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnresolvedKey, key)
	}

	s := &r.cur.slots[i]
	if s.kind != kind {
		return fmt.Errorf("%w: %q is a %s, not a %s", ErrKindMismatch, key, s.kind, kind)
	}

	props, err := s.props.with(field, value)
	if err != nil {
		return err
	}

	old := s.props
	s.props = props

	if err := Validate(r.cur.descriptor(0)); err != nil {
		s.props = old

		return err
	}

	r.errs = nil
	r.update(s.res, s.kind, s.key, old, props)

	err = errors.Join(r.errs...)
	r.errs = nil

	return err
}

// Close destroys every live resource. The reconciler can render again
// afterwards, starting from an empty graph.
func (r *Reconciler) Close() error {
	if r.cur == nil || len(r.cur.slots) == 0 {
		return nil
	}

	r.errs = nil
	r.destroy(0)

	for _, e := range r.aux {
		r.disconnect(e)
	}

	r.aux = nil
	r.cur = nil

	err := errors.Join(r.errs...)
	r.errs = nil

	return err
}
