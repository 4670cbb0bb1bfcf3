// Package ast holds the syntax tree of process definitions as handed over by
// the parser. Trees arrive already expanded: every shorthand has been
// rewritten into the node kinds below.
package ast

import (
	"strconv"

	"github.com/meikuraledutech/automata"
)

// Node is one syntax tree node. The set of implementations is closed.
type Node interface {
	// Common returns the labelling, relabelling and position attached to
	// the node.
	Common() *Annotations
	node()
}

// Annotations are carried by every node kind.
type Annotations struct {
	// Label prefixes every action produced by the node ("label:a" becomes "label.a").
	Label   string            `json:"label,omitempty"`
	Relabel []Relabel         `json:"relabel,omitempty"`
	Pos     automata.Position `json:"pos"`
}

func (a *Annotations) Common() *Annotations { return a }

// Relabel renames the action Old to New.
type Relabel struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Sequence is "Action -> Next".
type Sequence struct {
	Annotations
	Action string
	Next   Node
}

// Choice is "Left | Right".
type Choice struct {
	Annotations
	Left  Node
	Right Node
}

// Composite is "Left || Right".
type Composite struct {
	Annotations
	Left  Node
	Right Node
}

// Function names accepted by Function.
const (
	FuncAbs       = "abs"
	FuncSimp      = "simp"
	FuncTokenRule = "tokenRule"
)

// Function applies abs, simp or tokenRule to Body.
type Function struct {
	Annotations
	Func string
	Body Node
}

// Identifier references a process by name. Name may contain placeholders
// such as "Q[$i]".
type Identifier struct {
	Annotations
	Name string
}

// Index interprets Body once for every value of Range with Variable bound.
type Index struct {
	Annotations
	Variable string
	Range    Range
	Body     Node
}

// Terminal kinds accepted by Terminal.
const (
	Stop  = "STOP"
	Error = "ERROR"
)

// Terminal is STOP or ERROR.
type Terminal struct {
	Annotations
	Kind string
}

// Nested is a process definition written inside a process body. The
// interpreter rejects it.
type Nested struct {
	Annotations
	Ident string
}

func (*Sequence) node()   {}
func (*Choice) node()     {}
func (*Composite) node()  {}
func (*Function) node()   {}
func (*Identifier) node() {}
func (*Index) node()      {}
func (*Terminal) node()   {}
func (*Nested) node()     {}

// Range is either an inclusive integer interval or an explicit set of
// values.
type Range struct {
	Start *int     `json:"start,omitempty"`
	End   *int     `json:"end,omitempty"`
	Set   []string `json:"set,omitempty"`
}

// IntRange returns the interval start..end.
func IntRange(start, end int) Range {
	return Range{Start: &start, End: &end}
}

// SetRange returns the range over the given values.
func SetRange(values ...string) Range {
	return Range{Set: values}
}

// Values expands the range. An interval whose start exceeds its end is
// empty.
func (r Range) Values() ([]string, error) {
	if r.Set != nil {
		return r.Set, nil
	}
	if r.Start == nil || r.End == nil {
		return nil, automata.ErrUnsupportedConstruct
	}
	var values []string
	for i := *r.Start; i <= *r.End; i++ {
		values = append(values, strconv.Itoa(i))
	}
	return values, nil
}

// HidingMode says how a hiding set is read.
type HidingMode string

const (
	// Includes hides exactly the listed actions.
	Includes HidingMode = "includes"
	// Excludes hides every action except the listed ones.
	Excludes HidingMode = "excludes"
)

type Hiding struct {
	Mode HidingMode `json:"type"`
	Set  []string   `json:"set"`
}

// IndexRange binds Variable to each value of Range.
type IndexRange struct {
	Variable string `json:"variable"`
	Range    Range  `json:"range"`
}

// LocalDefinition is a process defined inside another one, optionally
// indexed. "Q[i:1..2] = ..." yields the locals Q[1] and Q[2].
type LocalDefinition struct {
	Ident  string            `json:"ident"`
	Ranges []IndexRange      `json:"ranges,omitempty"`
	Body   Node              `json:"-"`
	Pos    automata.Position `json:"pos"`
}

// Definition is one top level process definition.
type Definition struct {
	Ident string `json:"ident"`
	// Kind is the representation the process is compiled to. Empty means
	// automata.KindAutomaton.
	Kind    automata.Kind     `json:"kind,omitempty"`
	Body    Node              `json:"-"`
	Local   []LocalDefinition `json:"local,omitempty"`
	Hiding  *Hiding           `json:"hiding,omitempty"`
	Relabel []Relabel         `json:"relabel,omitempty"`
	Pos     automata.Position `json:"pos"`
}

// ProcessKind returns Kind, defaulting to automata.KindAutomaton.
func (d *Definition) ProcessKind() automata.Kind {
	if d.Kind == "" {
		return automata.KindAutomaton
	}
	return d.Kind
}

// Operation kinds.
const (
	OpBisimulation = "bisimulation"
)

// Operation is a query over compiled processes, such as "P ~ Q".
type Operation struct {
	Kind      string            `json:"type"`
	Processes []string          `json:"processes"`
	Negated   bool              `json:"negated,omitempty"`
	Pos       automata.Position `json:"pos"`
}

// Program is everything one compilation consumes.
type Program struct {
	Processes  []Definition      `json:"processes"`
	Operations []Operation       `json:"operations,omitempty"`
	Bindings   map[string]string `json:"bindings,omitempty"`
}
