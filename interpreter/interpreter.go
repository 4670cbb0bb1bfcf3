// Package interpreter builds automata and Petri nets from process
// definition syntax trees.
package interpreter

import (
	"fmt"
	"strconv"

	"github.com/meikuraledutech/automata"
	"github.com/meikuraledutech/automata/ast"
	"github.com/meikuraledutech/automata/petrinet"
)

// Config controls the operators applied during interpretation.
type Config struct {
	// FairAbstraction selects the fair variant of abs().
	FairAbstraction bool
	// MarkingBound caps the markings explored by the token rule. Zero means
	// unbounded.
	MarkingBound int
}

// DefaultConfig returns fair abstraction with a bound of 10000 markings.
func DefaultConfig() Config {
	return Config{FairAbstraction: true, MarkingBound: 10000}
}

// Interpreter turns definitions into processes. It is not safe for
// concurrent use: the process map and bindings are shared by every
// definition it interprets.
type Interpreter struct {
	cfg       Config
	processes automata.ProcessMap
	bindings  map[string]string
}

// New returns an interpreter that registers processes in processes and
// resolves placeholders from bindings. Either map may be nil.
func New(cfg Config, processes automata.ProcessMap, bindings map[string]string) *Interpreter {
	if processes == nil {
		processes = make(automata.ProcessMap)
	}
	if bindings == nil {
		bindings = make(map[string]string)
	}
	return &Interpreter{cfg: cfg, processes: processes, bindings: bindings}
}

// Processes returns the process map being populated.
func (in *Interpreter) Processes() automata.ProcessMap { return in.processes }

// Interpret builds the process for def and registers it under def.Ident.
// On error the process map is left without an entry for def.
func (in *Interpreter) Interpret(def *ast.Definition) error {
	var (
		p   automata.Process
		err error
	)
	switch def.ProcessKind() {
	case automata.KindAutomaton:
		p, err = in.interpretAutomaton(def)
	case automata.KindPetriNet:
		p, err = in.interpretNet(def)
	default:
		err = fmt.Errorf("%w: process kind %q", automata.ErrUnsupportedConstruct, def.Kind)
	}
	if err != nil {
		return fmt.Errorf("process %s: %w", def.Ident, err)
	}
	in.processes[def.Ident] = p
	return nil
}

func (in *Interpreter) interpretAutomaton(def *ast.Definition) (*automata.Automaton, error) {
	a, err := in.buildAutomaton(def.Ident, def.Ident, automata.KindAutomaton, nil, def.Body, def.Local)
	if err != nil {
		return nil, err
	}
	relabel, err := in.relabelPairs(def.Relabel)
	if err != nil {
		return nil, err
	}
	for _, r := range relabel {
		a.RelabelEdge(r.Old, r.New)
	}
	if err := in.hide(a.Alphabet(), a.RelabelEdge, def.Hiding); err != nil {
		return nil, err
	}
	a.Trim()
	labelNodes(a)

	automata.Debugw("interpreted process", "ident", def.Ident, "kind", automata.KindAutomaton,
		"states", a.NodeCount(), "transitions", a.EdgeCount())
	return a, nil
}

// scope is the automaton under construction together with the names an
// identifier can resolve to without going through the process map.
type scope struct {
	// ident is the definition being built. It is empty for the operands of
	// composites and functions, which are built separately.
	ident  string
	kind   automata.Kind
	a      *automata.Automaton
	locals map[string]string
	parent *scope
}

// enclosing reports whether name refers to a definition or local process
// of an outer scope.
func (s *scope) enclosing(name string) bool {
	for p := s.parent; p != nil; p = p.parent {
		if p.ident == name {
			return true
		}
		if _, ok := p.locals[name]; ok {
			return true
		}
	}
	return false
}

type localProcess struct {
	name     string
	node     string
	body     ast.Node
	bindings map[string]string
}

// buildAutomaton interprets body, then every local definition, into a new
// automaton with the given id. Hiding, trimming and labelling are left to
// the caller.
func (in *Interpreter) buildAutomaton(id, ident string, kind automata.Kind, parent *scope, body ast.Node, locals []ast.LocalDefinition) (*automata.Automaton, error) {
	s := &scope{
		ident:  ident,
		kind:   kind,
		a:      automata.NewWithRoot(id),
		locals: make(map[string]string),
		parent: parent,
	}

	var expanded []localProcess
	for _, l := range locals {
		procs, err := in.expandLocal(s, l)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, procs...)
	}

	if err := in.interpret(s, body, s.a.RootID()); err != nil {
		return nil, err
	}
	for _, l := range expanded {
		err := in.withBindings(l.bindings, func() error {
			return in.interpret(s, l.body, l.node)
		})
		if err != nil {
			return nil, fmt.Errorf("local process %s: %w", l.name, err)
		}
	}
	return s.a, nil
}

// expandLocal allocates one node per instance of an indexed local
// definition. "Q[i:1..2][j:a..b]" yields Q[1][a], Q[1][b], Q[2][a], Q[2][b].
func (in *Interpreter) expandLocal(s *scope, l ast.LocalDefinition) ([]localProcess, error) {
	procs := []localProcess{{name: l.Ident, bindings: map[string]string{}}}
	for _, r := range l.Ranges {
		values, err := r.Range.Values()
		if err != nil {
			return nil, fmt.Errorf("local process %s range %s: %w", l.Ident, r.Variable, err)
		}
		var next []localProcess
		for _, p := range procs {
			for _, v := range values {
				b := make(map[string]string, len(p.bindings)+1)
				for k, val := range p.bindings {
					b[k] = val
				}
				b[r.Variable] = v
				next = append(next, localProcess{name: p.name + "[" + v + "]", bindings: b})
			}
		}
		procs = next
	}
	for i := range procs {
		procs[i].body = l.Body
		procs[i].node = s.a.AddNode("", "", automata.Metadata{}).ID
		s.locals[procs[i].name] = procs[i].node
	}
	return procs, nil
}

// labelNodes names the nodes "0", "1", ... in breadth first order from the
// root.
func labelNodes(a *automata.Automaton) {
	root := a.Root()
	if root == nil {
		return
	}
	visited := map[string]bool{root.ID: true}
	queue := []*automata.Node{root}
	for i := 0; len(queue) > 0; i++ {
		current := queue[0]
		queue = queue[1:]
		current.Label = strconv.Itoa(i)
		for _, e := range a.Outgoing(current.ID) {
			if !visited[e.To()] {
				visited[e.To()] = true
				queue = append(queue, a.Node(e.To()))
			}
		}
	}
}

// AsAutomaton returns p as an automaton, running the token rule for nets.
func AsAutomaton(p automata.Process, bound int) (*automata.Automaton, error) {
	switch p := p.(type) {
	case *automata.Automaton:
		return p, nil
	case *petrinet.Net:
		a, err := petrinet.TokenRule(p, bound)
		if err != nil {
			return nil, err
		}
		labelNodes(a)
		return a, nil
	}
	return nil, fmt.Errorf("%w: process %s of kind %q", automata.ErrTypeMismatch, p.ProcessID(), p.Kind())
}

// Snapshot returns the wire form of p. Nets are rendered as their marking
// graph and keep their kind.
func Snapshot(p automata.Process, bound int) (*automata.Snapshot, error) {
	a, err := AsAutomaton(p, bound)
	if err != nil {
		return nil, err
	}
	s := a.Snapshot()
	s.Kind = p.Kind()
	return s, nil
}

// Snapshots renders every process of m.
func Snapshots(m automata.ProcessMap, bound int) (map[string]*automata.Snapshot, error) {
	snapshots := make(map[string]*automata.Snapshot, len(m))
	for ident, p := range m {
		s, err := Snapshot(p, bound)
		if err != nil {
			return nil, fmt.Errorf("process %s: %w", ident, err)
		}
		snapshots[ident] = s
	}
	return snapshots, nil
}
