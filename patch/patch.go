// Package patch loads descriptor trees and transport settings from YAML.
//
// A patch file lists the children of the destination node:
//
//	tempo: 110
//	stepBeats: 0.25
//	gain: 0.8
//	nodes:
//	  - kind: delay
//	    key: echo
//	    props: {time: 0.3, feedback: 0.4}
//	    children:
//	      - kind: generator
//	        key: lead
//	        props: {waveform: saw, gainMod: [env]}
//	  - kind: envelope
//	    key: env
//	  - kind: sequencer
//	    props: {length: 16, steps: 5, notes: [60, 63, 67], targets: [lead]}
//
// Omitted props keep the defaults of their kind.
package patch

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/cwbudde/algo-live/engine"
	"github.com/cwbudde/algo-live/graph"
)

// ErrPatch is returned for malformed patch files.
var ErrPatch = errors.New("patch: invalid patch")

type file struct {
	Tempo      float64  `yaml:"tempo"`
	StepBeats  float64  `yaml:"stepBeats"`
	Lookahead  float64  `yaml:"lookahead"`
	NoteLength float64  `yaml:"noteLength"`
	Gain       *float64 `yaml:"gain"`
	Nodes      []node   `yaml:"nodes"`
}

type node struct {
	Kind     string         `yaml:"kind"`
	Key      string         `yaml:"key"`
	Props    map[string]any `yaml:"props"`
	Aux      []string       `yaml:"aux"`
	Children []node         `yaml:"children"`
}

// Patch is a loaded patch file. Zero settings mean "engine default".
type Patch struct {
	Root       *graph.Node
	Tempo      float64
	StepBeats  float64
	Lookahead  float64
	NoteLength float64
}

// Load reads and parses the patch file at path.
func Load(path string) (*Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patch: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

// Parse decodes a patch and validates the resulting tree.
func Parse(data []byte) (*Patch, error) {
	var f file
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPatch, err)
	}

	dest := graph.DefaultProps(graph.KindDestination)
	if f.Gain != nil {
		var err error
		if dest, err = graph.WithProperty(dest, graph.FieldGain, *f.Gain); err != nil {
			return nil, err
		}
	}

	root := graph.NewNode(graph.KindDestination, "", dest)

	for i, n := range f.Nodes {
		child, err := build(n, fmt.Sprintf("nodes[%d]", i))
		if err != nil {
			return nil, err
		}

		root.Children = append(root.Children, child)
	}

	if err := graph.Validate(root); err != nil {
		return nil, err
	}

	return &Patch{
		Root:       root,
		Tempo:      f.Tempo,
		StepBeats:  f.StepBeats,
		Lookahead:  f.Lookahead,
		NoteLength: f.NoteLength,
	}, nil
}

func build(n node, path string) (*graph.Node, error) {
	kind, err := graph.ParseKind(n.Kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if kind == graph.KindDestination {
		return nil, fmt.Errorf("%s: %w", path, graph.ErrInvalidRoot)
	}

	props := graph.DefaultProps(kind)
	for field, value := range n.Props {
		if props, err = graph.WithProperty(props, field, value); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	out := &graph.Node{Kind: kind, Key: n.Key, Props: props, Aux: n.Aux}

	for i, c := range n.Children {
		child, err := build(c, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}

		out.Children = append(out.Children, child)
	}

	return out, nil
}

// EngineOptions returns the engine options for the settings present in
// the patch.
func (p *Patch) EngineOptions() []engine.Option {
	var opts []engine.Option

	if p.Tempo != 0 {
		opts = append(opts, engine.WithTempo(p.Tempo))
	}

	if p.StepBeats != 0 {
		opts = append(opts, engine.WithStepBeats(p.StepBeats))
	}

	if p.Lookahead != 0 {
		opts = append(opts, engine.WithLookahead(p.Lookahead))
	}

	if p.NoteLength != 0 {
		opts = append(opts, engine.WithNoteLength(p.NoteLength))
	}

	return opts
}
