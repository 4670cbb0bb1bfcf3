package interpreter

import (
	"fmt"
	"strings"

	"github.com/meikuraledutech/automata"
	"github.com/meikuraledutech/automata/ast"
	"github.com/meikuraledutech/automata/operations"
)

// Result is the outcome of compiling a program.
type Result struct {
	Processes  automata.ProcessMap
	Operations []automata.OperationResult
}

// Compile interprets every definition of prog in order into a fresh
// process map, then evaluates its operations.
func Compile(prog *ast.Program, cfg Config) (*Result, error) {
	in := New(cfg, nil, copyBindings(prog.Bindings))
	for i := range prog.Processes {
		if err := in.Interpret(&prog.Processes[i]); err != nil {
			return nil, err
		}
	}
	results, err := in.EvaluateAll(prog.Operations)
	if err != nil {
		return nil, err
	}
	return &Result{Processes: in.processes, Operations: results}, nil
}

// EvaluateAll evaluates ops in order.
func (in *Interpreter) EvaluateAll(ops []ast.Operation) ([]automata.OperationResult, error) {
	results := make([]automata.OperationResult, 0, len(ops))
	for _, op := range ops {
		r, err := in.Evaluate(op)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Evaluate runs one operation against the processes interpreted so far.
// Nets take part through their token rule automaton.
func (in *Interpreter) Evaluate(op ast.Operation) (automata.OperationResult, error) {
	if op.Kind != ast.OpBisimulation {
		return automata.OperationResult{}, fmt.Errorf("%w: operation %q at %s", automata.ErrUnsupportedConstruct, op.Kind, op.Pos)
	}
	if len(op.Processes) < 2 {
		return automata.OperationResult{}, fmt.Errorf("%w: bisimulation needs two processes at %s", automata.ErrUnsupportedConstruct, op.Pos)
	}

	idents := make([]string, len(op.Processes))
	procs := make([]*automata.Automaton, len(op.Processes))
	for i, name := range op.Processes {
		ident, err := in.substitute(name, op.Pos)
		if err != nil {
			return automata.OperationResult{}, err
		}
		p, ok := in.processes[ident]
		if !ok {
			return automata.OperationResult{}, fmt.Errorf("%w: %s at %s", automata.ErrUndefinedIdentifier, ident, op.Pos)
		}
		a, err := AsAutomaton(p, in.cfg.MarkingBound)
		if err != nil {
			return automata.OperationResult{}, fmt.Errorf("process %s: %w", ident, err)
		}
		idents[i] = ident
		procs[i] = a
	}

	result := operations.Bisimilar(procs...)
	sep := " ~ "
	if op.Negated {
		result = !result
		sep = " !~ "
	}
	return automata.OperationResult{Statement: strings.Join(idents, sep), Result: result}, nil
}

func copyBindings(b map[string]string) map[string]string {
	c := make(map[string]string, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}
