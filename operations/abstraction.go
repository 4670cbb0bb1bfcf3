package operations

import (
	"github.com/meikuraledutech/automata"
)

type abstractEdge struct {
	label, from, to string
}

// Abstract returns a copy of a with every tau transition removed. Each
// state s gets an edge s -x-> u for every observable edge t -x-> u with t
// reachable from s by tau steps.
//
// A state that can reach a tau cycle diverges. With fair set divergence is
// dropped; otherwise the state gets a tau edge to a single node marked
// automata.TerminalDivergent. A state whose tau closure already holds such
// a divergent node diverges too, so abstracting twice keeps the marker. A
// state left without observable edges whose tau closure holds a stop or
// error terminal inherits that terminal's kind.
func Abstract(a *automata.Automaton, fair bool) *automata.Automaton {
	result := a.Clone()
	nodes := result.Nodes()

	closures := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		closures[n.ID] = tauClosure(result, n.ID)
	}
	cyclic := make(map[string]bool)
	for _, n := range nodes {
		for _, e := range result.Outgoing(n.ID) {
			if e.Label != automata.Tau {
				continue
			}
			for _, id := range closures[e.To()] {
				if id == n.ID {
					cyclic[n.ID] = true
				}
			}
		}
	}

	var added []abstractEdge
	terminals := make(map[string]automata.TerminalKind)
	var divergent []string
	for _, s := range nodes {
		observable := false
		kind := automata.NotTerminal
		diverges := false
		for _, t := range closures[s.ID] {
			if t != s.ID {
				// a divergence marker left by an earlier abstraction
				if k := result.Node(t).Meta.Terminal; k == automata.TerminalDivergent {
					diverges = true
				} else {
					kind = automata.MergeTerminal(kind, k)
				}
			}
			diverges = diverges || cyclic[t]
			if t == s.ID {
				for _, e := range result.Outgoing(t) {
					if e.Label != automata.Tau {
						observable = true
					}
				}
				continue
			}
			for _, e := range result.Outgoing(t) {
				if e.Label == automata.Tau {
					continue
				}
				observable = true
				added = append(added, abstractEdge{e.Label, s.ID, e.To()})
			}
		}
		if !observable && kind != automata.NotTerminal {
			terminals[s.ID] = kind
		}
		if diverges && !fair {
			divergent = append(divergent, s.ID)
		}
	}

	for _, e := range result.Edges() {
		if e.Label == automata.Tau {
			result.RemoveEdge(e.ID)
		}
	}
	for _, e := range added {
		// both endpoints exist: no node has been removed
		_, _ = result.AddEdge("", e.label, e.from, e.to)
	}
	for id, kind := range terminals {
		n := result.Node(id)
		n.Meta.Terminal = automata.MergeTerminal(n.Meta.Terminal, kind)
	}
	if len(divergent) > 0 {
		d := result.AddNode("", "", automata.Metadata{Terminal: automata.TerminalDivergent})
		for _, id := range divergent {
			_, _ = result.AddEdge("", automata.Tau, id, d.ID)
		}
	}

	result.Trim()
	result.RemoveDuplicateEdges()

	automata.Debugw("abstracted automaton", "id", a.ID(), "fair", fair,
		"states", result.NodeCount(), "transitions", result.EdgeCount())
	return result
}

// tauClosure returns the states reachable from id by zero or more tau
// steps, id first.
func tauClosure(a *automata.Automaton, id string) []string {
	closure := []string{id}
	visited := map[string]bool{id: true}
	for i := 0; i < len(closure); i++ {
		for _, e := range a.Outgoing(closure[i]) {
			if e.Label == automata.Tau && !visited[e.To()] {
				visited[e.To()] = true
				closure = append(closure, e.To())
			}
		}
	}
	return closure
}
