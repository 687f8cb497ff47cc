package graph

import "fmt"

// Validate checks a descriptor tree without touching any backend: the root
// is the only destination, keys are unique, props match their node kinds
// and are within range, every aux, modulation and sequencer target
// resolves, and no descriptor appears twice.
func Validate(root *Node) error {
	if root == nil || root.Kind != KindDestination {
		return ErrInvalidRoot
	}

	v := validator{
		root:  root,
		keys:  make(map[string]*Node),
		nodes: make(map[*Node]struct{}),
	}

	if err := v.collect(root, true); err != nil {
		return err
	}

	return v.resolve(root)
}

type validator struct {
	root  *Node
	keys  map[string]*Node
	nodes map[*Node]struct{}
}

func (v *validator) collect(n *Node, isRoot bool) error {
	if n == nil {
		return fmt.Errorf("%w: nil child node", ErrConfig)
	}

	if _, seen := v.nodes[n]; seen {
		return fmt.Errorf("%w: descriptor %s %q appears twice", ErrConfig, n.Kind, n.Key)
	}

	v.nodes[n] = struct{}{}

	if n.Kind == KindDestination && !isRoot {
		return ErrInvalidRoot
	}

	if n.Key != "" {
		if _, dup := v.keys[n.Key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, n.Key)
		}

		v.keys[n.Key] = n
	}

	props := n.EffectiveProps()
	if props == nil {
		return fmt.Errorf("%w: unknown node kind %d", ErrConfig, int(n.Kind))
	}

	if props.Kind() != n.Kind {
		return fmt.Errorf("%w: %s node %q carries %s props", ErrKindMismatch, n.Kind, n.Key, props.Kind())
	}

	if err := props.validate(); err != nil {
		return fmt.Errorf("%s node %q: %w", n.Kind, n.Key, err)
	}

	for _, c := range n.Children {
		if err := v.collect(c, false); err != nil {
			return err
		}
	}

	return nil
}

func (v *validator) resolve(n *Node) error {
	for _, key := range n.Aux {
		if Find(v.root, key) == nil {
			return fmt.Errorf("%w: %s node %q aux target %q", ErrUnresolvedKey, n.Kind, n.Key, key)
		}
	}

	switch p := n.EffectiveProps().(type) {
	case GeneratorProps:
		for _, key := range append(append([]string(nil), p.FrequencyMod...), p.GainMod...) {
			if err := v.expect(key, KindEnvelope, "modulation source"); err != nil {
				return err
			}
		}
	case SequencerProps:
		for _, key := range p.Targets {
			if err := v.expect(key, KindGenerator, "sequencer target"); err != nil {
				return err
			}
		}
	}

	for _, c := range n.Children {
		if err := v.resolve(c); err != nil {
			return err
		}
	}

	return nil
}

func (v *validator) expect(key string, kind Kind, role string) error {
	target, ok := v.keys[key]
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrUnresolvedKey, role, key)
	}

	if target.Kind != kind {
		return fmt.Errorf("%w: %s %q is a %s, want %s", ErrKindMismatch, role, key, target.Kind, kind)
	}

	return nil
}
