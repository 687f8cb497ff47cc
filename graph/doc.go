// Package graph models a synthesis patch as an immutable tree of node
// descriptors and reconciles successive trees against a persistent,
// stateful processing graph owned by a [Delegate].
//
// A caller builds a new descriptor tree for every change and passes it to
// [Reconciler.Render]. The reconciler compares it with the previously
// rendered tree position by position and issues the smallest set of
// create, destroy, update and connect calls needed to make the backend
// match. Signal flows from the leaves towards the single [KindDestination]
// root: a child's output feeds its parent's input. Aux targets add extra
// routes between keyed nodes anywhere in the tree.
//
// Children are matched by index, and a key only confirms identity at the
// same position: reordering siblings destroys and recreates every node
// whose position changed, keyed or not. Append new siblings at the end to
// keep the existing ones alive.
//
// Generator and envelope nodes are templates: they never get a backing
// resource. The sequencer instantiates them on demand through
// [Delegate.CreateEphemeral].
package graph
