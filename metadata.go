package automata

// Reserved action labels.
const (
	// Tau labels an internal, unobservable step.
	Tau = "tau"
	// Delta labels the transition into an error (deadlock) state.
	Delta = "delta"
)

// IsReserved reports whether label is one of the reserved action labels.
func IsReserved(label string) bool {
	return label == Tau || label == Delta
}

// Kind is the representation kind of a compiled process.
type Kind string

const (
	KindAutomaton Kind = "automata"
	KindPetriNet  Kind = "petrinet"
)

// TerminalKind says why a state has no further expected behaviour.
type TerminalKind string

const (
	NotTerminal       TerminalKind = ""
	TerminalStop      TerminalKind = "stop"
	TerminalError     TerminalKind = "error"
	TerminalDivergent TerminalKind = "divergent"
)

func (t TerminalKind) rank() int {
	switch t {
	case TerminalStop:
		return 1
	case TerminalDivergent:
		return 2
	case TerminalError:
		return 3
	}
	return 0
}

// MergeTerminal returns the stronger of two terminal kinds.
// Error beats divergent, divergent beats stop.
func MergeTerminal(a, b TerminalKind) TerminalKind {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Metadata is the per-node annotation.
type Metadata struct {
	Start    bool
	Terminal TerminalKind
}

// IsTerminal reports whether the node is marked as a terminal.
func (m Metadata) IsTerminal() bool {
	return m.Terminal != NotTerminal
}

// Process is anything a process map can hold.
type Process interface {
	ProcessID() string
	Kind() Kind
}

// ProcessMap maps process identifiers to their compiled form.
// It is scoped to one compilation.
type ProcessMap map[string]Process

// Automaton returns the automaton registered under ident, if ident names
// an automaton-kind process.
func (m ProcessMap) Automaton(ident string) (*Automaton, bool) {
	a, ok := m[ident].(*Automaton)
	return a, ok
}
