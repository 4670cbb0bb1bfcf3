package interpreter

import (
	"fmt"

	"github.com/meikuraledutech/automata"
	"github.com/meikuraledutech/automata/ast"
	"github.com/meikuraledutech/automata/petrinet"
)

func (in *Interpreter) interpretNet(def *ast.Definition) (*petrinet.Net, error) {
	var (
		net *petrinet.Net
		err error
	)
	switch def.Body.(type) {
	case *ast.Composite, *ast.Identifier:
		if len(def.Local) > 0 {
			return nil, fmt.Errorf("%w: local processes in a composed net", automata.ErrUnsupportedConstruct)
		}
		s := &scope{ident: def.Ident, kind: automata.KindPetriNet}
		net, err = in.buildNet(s, def.Body, def.Ident)
	default:
		var a *automata.Automaton
		a, err = in.buildAutomaton(def.Ident, def.Ident, automata.KindPetriNet, nil, def.Body, def.Local)
		if err == nil {
			a.Trim()
			net, err = petrinet.FromAutomaton(a)
		}
	}
	if err != nil {
		return nil, err
	}

	relabel, err := in.relabelPairs(def.Relabel)
	if err != nil {
		return nil, err
	}
	for _, r := range relabel {
		net.RelabelTransition(r.Old, r.New)
	}
	if err := in.hide(net.Alphabet(), net.RelabelTransition, def.Hiding); err != nil {
		return nil, err
	}

	automata.Debugw("interpreted process", "ident", def.Ident, "kind", automata.KindPetriNet,
		"places", len(net.Places()), "transitions", len(net.Transitions()))
	return net, nil
}

// buildNet builds n as a Petri net. Composites are composed by transition
// fusion, identifiers of nets are copied, and anything else is built as an
// automaton and converted to its state machine net.
func (in *Interpreter) buildNet(s *scope, n ast.Node, id string) (*petrinet.Net, error) {
	var (
		net *petrinet.Net
		err error
	)
	switch n := n.(type) {
	case *ast.Composite:
		var left, right *petrinet.Net
		if left, err = in.buildNet(s, n.Left, id+".l"); err != nil {
			return nil, err
		}
		if right, err = in.buildNet(s, n.Right, id+".r"); err != nil {
			return nil, err
		}
		net, err = petrinet.Compose(id, left, right)
	case *ast.Identifier:
		net, err = in.netReference(s, n, id)
	default:
		// annotations are applied while the automaton is built
		a, err := in.buildAutomaton(id, "", automata.KindPetriNet, s, n, nil)
		if err != nil {
			return nil, err
		}
		a.Trim()
		return petrinet.FromAutomaton(a)
	}
	if err != nil {
		return nil, err
	}

	c := n.Common()
	if c.Label != "" {
		prefix, err := in.substitute(c.Label, c.Pos)
		if err != nil {
			return nil, err
		}
		net.LabelTransitions(prefix)
	}
	relabel, err := in.relabelPairs(c.Relabel)
	if err != nil {
		return nil, err
	}
	for _, r := range relabel {
		net.RelabelTransition(r.Old, r.New)
	}
	return net, nil
}

func (in *Interpreter) netReference(s *scope, n *ast.Identifier, id string) (*petrinet.Net, error) {
	name, err := in.substitute(n.Name, n.Pos)
	if err != nil {
		return nil, err
	}
	if name == s.ident || s.enclosing(name) {
		return nil, fmt.Errorf("%w: recursive net %s at %s", automata.ErrUnsupportedConstruct, name, n.Pos)
	}
	if _, ok := s.locals[name]; ok {
		return nil, fmt.Errorf("%w: recursive net %s at %s", automata.ErrUnsupportedConstruct, name, n.Pos)
	}
	p, ok := in.processes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s at %s", automata.ErrUndefinedIdentifier, name, n.Pos)
	}
	net, ok := p.(*petrinet.Net)
	if !ok {
		return nil, fmt.Errorf("%w: cannot reference %s process %s from %s at %s",
			automata.ErrTypeMismatch, p.Kind(), name, automata.KindPetriNet, n.Pos)
	}
	return net.CloneAs(id), nil
}
