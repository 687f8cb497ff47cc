package graph

// Resource is an opaque backend handle for one persistent or ephemeral
// node. Implementations must use comparable values (typically pointers):
// the reconciler compares handles to track connections.
type Resource any

// Resolver looks up the resource of an already placed node by key.
type Resolver interface {
	Resolve(key string) (Resource, bool)
}

// Ephemeral describes one fired note: a generator voice with its
// modulation envelopes, sounding into Dest on the audio clock. The gate
// opens at Start and closes at Stop; the voice is discarded at End, after
// the longest envelope release.
type Ephemeral struct {
	Kind      Kind
	Props     Props
	Frequency float64
	// GainEnvelopes shape the voice amplitude.
	GainEnvelopes []EnvelopeProps
	// FrequencyEnvelopes sweep the voice pitch by up to one octave.
	FrequencyEnvelopes []EnvelopeProps
	Dest               Resource
	Start              float64
	Stop               float64
	End                float64
}

// Delegate owns the backing resources of a rendering backend. The
// reconciler and the sequencer drive it; it never calls back into them.
type Delegate interface {
	// CreatePersistent builds the resource for a reconciled node. A nil
	// resource with a nil error means the backend cannot provide this node;
	// the tree continues without its audio effect.
	CreatePersistent(kind Kind, props Props, r Resolver) (Resource, error)
	// CreateEphemeral builds a fire-and-forget voice. The backend starts and
	// stops it on the audio clock and discards it afterwards; the caller
	// keeps no reference.
	CreateEphemeral(e Ephemeral) (Resource, error)
	// Destroy releases a persistent resource and all its connections.
	Destroy(res Resource) error
	// Update applies changed fields to a persistent resource. A resource of
	// another kind yields an error wrapping ErrIncompatibleResource.
	Update(res Resource, changes []Change) error
	// Connect routes the output of src into the input of dst.
	Connect(src, dst Resource) error
	// Disconnect removes a route created by Connect. It must tolerate
	// endpoints that were already destroyed.
	Disconnect(src, dst Resource) error
}
