package automata

import (
	"errors"
	"fmt"
)

// Engine errors. All of them abort the compilation pass that raised them.
var (
	// ErrInvalidReference is returned when an edge endpoint or merge target
	// is not a node of the automaton, or a Petri-net transition names an
	// unknown place or has no input place.
	ErrInvalidReference = errors.New("automata: invalid node reference")

	// ErrTypeMismatch is returned when an identifier references a process of
	// a different representation kind.
	ErrTypeMismatch = errors.New("automata: process kind mismatch")

	ErrUnknownNodeKind      = errors.New("automata: unknown syntax tree node kind")
	ErrUndefinedIdentifier  = errors.New("automata: undefined identifier")
	ErrUnsupportedConstruct = errors.New("automata: unsupported construct")

	// ErrComposition is returned when an operand of a parallel composition
	// has no root.
	ErrComposition = errors.New("automata: composition failed")

	// ErrUnboundedMarking is returned when token rule exploration exceeds the
	// caller's bound on distinct markings.
	ErrUnboundedMarking = errors.New("automata: marking bound exceeded")
)

// Position is a location in the source the syntax tree was parsed from.
// The zero value means the location is unknown.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	if p.Line == 0 {
		return "unknown position"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// NodeKindError reports a syntax tree node the interpreter does not know.
type NodeKindError struct {
	Kind string
	Pos  Position
}

func (e *NodeKindError) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("%v: %q", ErrUnknownNodeKind, e.Kind)
	}
	return fmt.Sprintf("%v: %q at %s", ErrUnknownNodeKind, e.Kind, e.Pos)
}

func (e *NodeKindError) Unwrap() error {
	return ErrUnknownNodeKind
}
