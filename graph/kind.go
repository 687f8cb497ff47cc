package graph

import "fmt"

// Kind identifies the type of a node.
type Kind int

const (
	KindGenerator Kind = iota
	KindFilter
	KindMultiplier
	KindEnvelope
	KindDelay
	KindClipper
	KindSequencer
	KindDestination
)

var kindNames = [...]string{
	KindGenerator:   "generator",
	KindFilter:      "filter",
	KindMultiplier:  "multiplier",
	KindEnvelope:    "envelope",
	KindDelay:       "delay",
	KindClipper:     "clipper",
	KindSequencer:   "sequencer",
	KindDestination: "destination",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}

	return kindNames[k]
}

// ParseKind maps a kind name to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}

	return 0, fmt.Errorf("%w: unknown node kind %q", ErrConfig, name)
}

// Ephemeral reports whether nodes of this kind are instantiated per note
// instead of being backed by a persistent resource.
func (k Kind) Ephemeral() bool {
	return k == KindGenerator || k == KindEnvelope
}
