package graph

import "slices"

// slot is one reconciled node. Slots live in a flat arena and refer to each
// other by index, so replacing a subtree only rewires indices.
type slot struct {
	kind      Kind
	key       string
	props     Props
	aux       []string
	parent    int
	children  []int
	res       Resource
	parentRes Resource
}

type arena struct {
	slots []slot
	keys  map[string]int
}

func newArena(capacity int) *arena {
	return &arena{
		slots: make([]slot, 0, capacity),
		keys:  make(map[string]int),
	}
}

func (a *arena) add(s slot) int {
	a.slots = append(a.slots, s)

	idx := len(a.slots) - 1
	if s.key != "" {
		a.keys[s.key] = idx
	}

	if s.parent >= 0 {
		a.slots[s.parent].children = append(a.slots[s.parent].children, idx)
	}

	return idx
}

func (a *arena) lookup(key string) (int, bool) {
	i, ok := a.keys[key]

	return i, ok
}

// Resolve implements Resolver over the nodes placed so far.
func (a *arena) Resolve(key string) (Resource, bool) {
	i, ok := a.keys[key]
	if !ok || a.slots[i].res == nil {
		return nil, false
	}

	return a.slots[i].res, true
}

// descriptor rebuilds the descriptor subtree rooted at slot i.
func (a *arena) descriptor(i int) *Node {
	s := a.slots[i]

	n := &Node{
		Kind:  s.kind,
		Key:   s.key,
		Props: s.props,
		Aux:   slices.Clone(s.aux),
	}
	for _, c := range s.children {
		n.Children = append(n.Children, a.descriptor(c))
	}

	return n
}

func (a *arena) info(i int) Info {
	s := a.slots[i]

	return Info{
		Kind:           s.kind,
		Key:            s.key,
		Props:          s.props,
		Aux:            slices.Clone(s.aux),
		Resource:       s.res,
		ParentResource: s.parentRes,
	}
}

// Info is a read-only view of one reconciled node.
type Info struct {
	Kind  Kind
	Key   string
	Props Props
	Aux   []string
	// Resource is nil for ephemeral kinds and for nodes the backend could
	// not provide.
	Resource Resource
	// ParentResource is the resource this node's output feeds.
	ParentResource Resource
}
