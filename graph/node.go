package graph

// Node is an immutable descriptor of one point in the patch tree. A caller
// builds a fresh tree for every render and must not mutate a tree after
// handing it to Render.
type Node struct {
	Kind Kind
	// Key optionally names the node. Keyed nodes keep their identity across
	// renders and can be referenced by aux, modulation and sequencer targets.
	Key string
	// Props holds kind-specific parameters; nil means DefaultProps(Kind).
	Props Props
	// Children feed their output into this node's input.
	Children []*Node
	// Aux lists keys of nodes this node additionally sends its output to.
	Aux []string
}

// NewNode returns a descriptor of the given kind with its props' kind.
// A nil props selects the defaults for k.
func NewNode(k Kind, key string, props Props, children ...*Node) *Node {
	return &Node{Kind: k, Key: key, Props: props, Children: children}
}

// Destination returns the root output node.
func Destination(children ...*Node) *Node {
	return NewNode(KindDestination, "", nil, children...)
}

// Generator returns an oscillator template node.
func Generator(key string, p GeneratorProps) *Node {
	return NewNode(KindGenerator, key, p)
}

// Envelope returns an envelope template node.
func Envelope(key string, p EnvelopeProps) *Node {
	return NewNode(KindEnvelope, key, p)
}

// Filter returns a filter node fed by children.
func Filter(key string, p FilterProps, children ...*Node) *Node {
	return NewNode(KindFilter, key, p, children...)
}

// Multiplier returns a gain node fed by children.
func Multiplier(key string, p MultiplierProps, children ...*Node) *Node {
	return NewNode(KindMultiplier, key, p, children...)
}

// Delay returns a feedback delay node fed by children.
func Delay(key string, p DelayProps, children ...*Node) *Node {
	return NewNode(KindDelay, key, p, children...)
}

// Clipper returns a clipper node fed by children.
func Clipper(key string, p ClipperProps, children ...*Node) *Node {
	return NewNode(KindClipper, key, p, children...)
}

// Sequencer returns a step sequencer node.
func Sequencer(key string, p SequencerProps) *Node {
	return NewNode(KindSequencer, key, p)
}

// WithAux returns a shallow copy of n that also sends to the given keys.
func (n *Node) WithAux(keys ...string) *Node {
	c := *n
	c.Aux = append(append([]string(nil), n.Aux...), keys...)

	return &c
}

// EffectiveProps returns n.Props, or the defaults for n.Kind when unset.
func (n *Node) EffectiveProps() Props {
	if n.Props == nil {
		return DefaultProps(n.Kind)
	}

	return n.Props
}

// Find returns the first node with the given key in depth-first order.
func Find(root *Node, key string) *Node {
	if root == nil || key == "" {
		return nil
	}

	if root.Key == key {
		return root
	}

	for _, c := range root.Children {
		if n := Find(c, key); n != nil {
			return n
		}
	}

	return nil
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n *Node) int {
	if n == nil {
		return 0
	}

	total := 1
	for _, c := range n.Children {
		total += Count(c)
	}

	return total
}
