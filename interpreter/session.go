package interpreter

import (
	"sync"

	"github.com/meikuraledutech/automata"
	"github.com/meikuraledutech/automata/ast"
)

// Analyzer decides which definitions of a program must be interpreted
// again. Definitions it does not select are carried over from the previous
// compilation when they exist there.
type Analyzer interface {
	// Analyze returns the identifiers to reinterpret. prev is nil on the
	// first compilation. configChanged is set when the interpreter
	// configuration differs from the previous compilation.
	Analyze(prev, next *ast.Program, configChanged bool) map[string]bool
}

// FullAnalysis selects every definition.
type FullAnalysis struct{}

func (FullAnalysis) Analyze(_, next *ast.Program, _ bool) map[string]bool {
	selected := make(map[string]bool, len(next.Processes))
	for _, def := range next.Processes {
		selected[def.Ident] = true
	}
	return selected
}

// Session holds the artifacts of the last successful compilation so the
// next one can reuse them.
type Session struct {
	ID string

	mu         sync.Mutex
	cfg        Config
	analyzer   Analyzer
	program    *ast.Program
	processes  automata.ProcessMap
	operations []automata.OperationResult
}

// NewSession returns an empty session. A nil analyzer means FullAnalysis.
func NewSession(id string, cfg Config, analyzer Analyzer) *Session {
	if analyzer == nil {
		analyzer = FullAnalysis{}
	}
	return &Session{
		ID:        id,
		cfg:       cfg,
		analyzer:  analyzer,
		processes: make(automata.ProcessMap),
	}
}

// Compile interprets prog with the given abstraction fairness. On success
// the session adopts the new process map; on error it is left unchanged.
func (s *Session) Compile(prog *ast.Program, fair bool) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg
	cfg.FairAbstraction = fair
	changed := s.program != nil && cfg != s.cfg
	selected := s.analyzer.Analyze(s.program, prog, changed)

	in := New(cfg, nil, copyBindings(prog.Bindings))
	reused := 0
	for i := range prog.Processes {
		def := &prog.Processes[i]
		if prev, ok := s.processes[def.Ident]; ok && !selected[def.Ident] {
			in.processes[def.Ident] = prev
			reused++
			continue
		}
		if err := in.Interpret(def); err != nil {
			return nil, err
		}
	}
	results, err := in.EvaluateAll(prog.Operations)
	if err != nil {
		return nil, err
	}

	s.cfg = cfg
	s.program = prog
	s.processes = in.processes
	s.operations = results
	automata.Debugw("session compiled", "session", s.ID, "processes", len(in.processes), "reused", reused)
	return &Result{Processes: in.processes, Operations: results}, nil
}

// Process returns a process of the last successful compilation.
func (s *Session) Process(ident string) (automata.Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.processes[ident]
	return p, ok
}

// Processes returns the process map of the last successful compilation.
func (s *Session) Processes() automata.ProcessMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processes
}

// Operations returns the operation results of the last successful
// compilation.
func (s *Session) Operations() []automata.OperationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.operations
}

// Config returns the configuration of the last compilation.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Equivalent reports whether the named processes of the last compilation
// are bisimilar.
func (s *Session) Equivalent(idents ...string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := New(s.cfg, s.processes, nil)
	r, err := in.Evaluate(ast.Operation{Kind: ast.OpBisimulation, Processes: idents})
	if err != nil {
		return false, err
	}
	return r.Result, nil
}
