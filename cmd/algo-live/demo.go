package main

const demoPatch = `
tempo: 112
stepBeats: 0.25
noteLength: 0.12
gain: 0.9
nodes:
  - kind: clipper
    key: out
    props: {drive: 1.4}
    children:
      - kind: delay
        key: echo
        props: {time: 0.4, feedback: 0.35, mix: 0.4}
        children:
          - kind: filter
            key: lp
            props: {type: lowpass, cutoff: 2400, resonance: 1.2}
            children:
              - kind: generator
                key: lead
                props: {waveform: saw, gain: 0.3, detune: 4, gainMod: [pluck]}
              - kind: generator
                key: bass
                props: {waveform: square, gain: 0.25, gainMod: [thump]}
  - kind: envelope
    key: pluck
    props: {attack: 0.004, decay: 0.08, sustain: 0.4, release: 0.25}
  - kind: envelope
    key: thump
    props: {attack: 0.002, decay: 0.15, sustain: 0.2, release: 0.1}
  - kind: sequencer
    key: melody
    props: {length: 16, steps: 7, notes: [69, 72, 76, 74, 72, 67, 64], targets: [lead], probability: 0.9}
  - kind: sequencer
    key: low
    props: {length: 16, steps: 4, notes: [45, 45, 41, 43], targets: [bass]}
`
