package graph

import (
	"errors"
	"fmt"
)

// ErrConfig is the root of every configuration error: the caller's tree or
// property change is inconsistent and the operation was rejected.
var ErrConfig = errors.New("graph: configuration error")

var (
	// ErrInvalidRoot reports a tree whose root is not the single destination.
	ErrInvalidRoot = fmt.Errorf("%w: root must be the only destination node", ErrConfig)
	// ErrDuplicateKey reports a key used by more than one node.
	ErrDuplicateKey = fmt.Errorf("%w: duplicate key", ErrConfig)
	// ErrUnresolvedKey reports an aux, modulation or sequencer target that
	// names no node in the tree.
	ErrUnresolvedKey = fmt.Errorf("%w: unresolved key", ErrConfig)
	// ErrKindMismatch reports props or a property change addressed to a node
	// of another kind.
	ErrKindMismatch = fmt.Errorf("%w: kind mismatch", ErrConfig)
	// ErrUnknownProperty reports a property name or value type the node kind
	// does not support.
	ErrUnknownProperty = fmt.Errorf("%w: unknown property", ErrConfig)
)

// ErrIncompatibleResource is returned by a Delegate asked to apply changes
// to a resource of another kind. It indicates a programming error and is
// never retried.
var ErrIncompatibleResource = errors.New("graph: incompatible resource")
