package interpreter

import (
	"fmt"

	"github.com/meikuraledutech/automata"
	"github.com/meikuraledutech/automata/ast"
	"github.com/meikuraledutech/automata/operations"
	"github.com/meikuraledutech/automata/petrinet"
)

// interpret builds n starting at the node current of s.a. Labelling and
// relabelling attached to n apply to the edges created while n is built.
func (in *Interpreter) interpret(s *scope, n ast.Node, current string) error {
	if n == nil {
		return &automata.NodeKindError{}
	}
	mark := s.a.EdgeMark()

	var err error
	switch n := n.(type) {
	case *ast.Sequence:
		err = in.sequence(s, n, current)
	case *ast.Choice:
		if err = in.interpret(s, n.Left, current); err == nil {
			err = in.interpret(s, n.Right, current)
		}
	case *ast.Composite:
		err = in.composite(s, n, current)
	case *ast.Function:
		err = in.function(s, n, current)
	case *ast.Identifier:
		err = in.identifier(s, n, current)
	case *ast.Index:
		err = in.index(s, n, current)
	case *ast.Terminal:
		err = in.terminal(s, n, current)
	case *ast.Nested:
		err = fmt.Errorf("%w: nested process %s at %s", automata.ErrUnsupportedConstruct, n.Ident, n.Pos)
	default:
		err = &automata.NodeKindError{Kind: fmt.Sprintf("%T", n), Pos: n.Common().Pos}
	}
	if err != nil {
		return err
	}
	c := n.Common()
	if c.Label == "" && len(c.Relabel) == 0 {
		return nil
	}
	return in.annotate(c, s.a.EdgesSince(mark))
}

// annotate applies a node's labelling and relabelling to edges.
func (in *Interpreter) annotate(c *ast.Annotations, edges []*automata.Edge) error {
	if c.Label != "" {
		prefix, err := in.substitute(c.Label, c.Pos)
		if err != nil {
			return err
		}
		for _, e := range edges {
			if !automata.IsReserved(e.Label) {
				e.Label = prefix + "." + e.Label
			}
		}
	}
	relabel, err := in.relabelPairs(c.Relabel)
	if err != nil {
		return err
	}
	for _, r := range relabel {
		for _, e := range edges {
			if e.Label == r.Old {
				e.Label = r.New
			}
		}
	}
	return nil
}

func (in *Interpreter) sequence(s *scope, n *ast.Sequence, current string) error {
	action, err := in.substitute(n.Action, n.Pos)
	if err != nil {
		return err
	}
	next := s.a.AddNode("", "", automata.Metadata{}).ID
	if _, err := s.a.AddEdge("", action, s.a.Resolve(current), next); err != nil {
		return err
	}
	return in.interpret(s, n.Next, next)
}

// operand builds n as a standalone automaton whose identifiers resolve
// through the process map only.
func (in *Interpreter) operand(s *scope, n ast.Node, suffix string) (*automata.Automaton, error) {
	a, err := in.buildAutomaton(s.a.ID()+"."+suffix, "", s.kind, s, n, nil)
	if err != nil {
		return nil, err
	}
	a.Trim()
	return a, nil
}

func (in *Interpreter) composite(s *scope, n *ast.Composite, current string) error {
	left, err := in.operand(s, n.Left, "l")
	if err != nil {
		return err
	}
	right, err := in.operand(s, n.Right, "r")
	if err != nil {
		return err
	}
	composed, err := operations.Compose(s.a.ID()+".c", left, right)
	if err != nil {
		return err
	}
	return s.a.AddGraph(composed, current)
}

func (in *Interpreter) function(s *scope, n *ast.Function, current string) error {
	var result *automata.Automaton
	switch n.Func {
	case ast.FuncAbs:
		body, err := in.operand(s, n.Body, "abs")
		if err != nil {
			return err
		}
		result = operations.Abstract(body, in.cfg.FairAbstraction)
	case ast.FuncSimp:
		body, err := in.operand(s, n.Body, "simp")
		if err != nil {
			return err
		}
		result = operations.Minimise(body)
	case ast.FuncTokenRule:
		net, err := in.buildNet(s, n.Body, s.a.ID()+".tr")
		if err != nil {
			return err
		}
		if result, err = petrinet.TokenRule(net, in.cfg.MarkingBound); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: function %q at %s", automata.ErrUnsupportedConstruct, n.Func, n.Pos)
	}
	return s.a.AddGraph(result, current)
}

func (in *Interpreter) identifier(s *scope, n *ast.Identifier, current string) error {
	name, err := in.substitute(n.Name, n.Pos)
	if err != nil {
		return err
	}
	if s.ident != "" && name == s.ident {
		return s.a.MergeNodes(s.a.RootID(), current)
	}
	if node, ok := s.locals[name]; ok {
		return s.a.MergeNodes(node, current)
	}
	if s.enclosing(name) {
		return fmt.Errorf("%w: reference to enclosing process %s from inside an operand at %s",
			automata.ErrUnsupportedConstruct, name, n.Pos)
	}

	p, ok := in.processes[name]
	if !ok {
		return fmt.Errorf("%w: %s at %s", automata.ErrUndefinedIdentifier, name, n.Pos)
	}
	switch {
	case p.Kind() == s.kind && s.kind == automata.KindAutomaton:
		return s.a.AddGraph(p.(*automata.Automaton), current)
	case p.Kind() == s.kind && s.kind == automata.KindPetriNet:
		a, err := AsAutomaton(p, in.cfg.MarkingBound)
		if err != nil {
			return err
		}
		return s.a.AddGraph(a, current)
	}
	return fmt.Errorf("%w: cannot reference %s process %s from %s at %s",
		automata.ErrTypeMismatch, p.Kind(), name, s.kind, n.Pos)
}

func (in *Interpreter) index(s *scope, n *ast.Index, current string) error {
	values, err := n.Range.Values()
	if err != nil {
		return fmt.Errorf("range of %s at %s: %w", n.Variable, n.Pos, err)
	}
	for _, v := range values {
		err := in.withBindings(map[string]string{n.Variable: v}, func() error {
			return in.interpret(s, n.Body, current)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) terminal(s *scope, n *ast.Terminal, current string) error {
	node := s.a.Node(s.a.Resolve(current))
	switch n.Kind {
	case ast.Stop:
		node.Meta.Terminal = automata.MergeTerminal(node.Meta.Terminal, automata.TerminalStop)
		return nil
	case ast.Error:
		deadlock := s.a.AddNode("", "", automata.Metadata{Terminal: automata.TerminalError})
		_, err := s.a.AddEdge("", automata.Delta, node.ID, deadlock.ID)
		return err
	}
	return fmt.Errorf("%w: terminal %q at %s", automata.ErrUnsupportedConstruct, n.Kind, n.Pos)
}
