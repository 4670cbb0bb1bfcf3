// Package operations implements the behavioural operators over automata:
// parallel composition, bisimulation and tau-abstraction.
package operations

import (
	"fmt"

	"github.com/meikuraledutech/automata"
)

type pair struct {
	left, right string
}

// Compose returns the synchronised product of a and b under the id id.
//
// An action in both alphabets is taken by both sides together. Any other
// action, and the reserved tau and delta actions, is taken by one side while
// the other stays put. Only pair states reachable from the pair of roots are
// created. A pair is terminal when either component is, with the stronger
// terminal kind.
func Compose(id string, a, b *automata.Automaton) (*automata.Automaton, error) {
	if a.Root() == nil {
		return nil, fmt.Errorf("%w: %s has no root", automata.ErrComposition, a.ID())
	}
	if b.Root() == nil {
		return nil, fmt.Errorf("%w: %s has no root", automata.ErrComposition, b.ID())
	}

	shared := sharedAlphabet(a, b)
	result := automata.New(id)
	states := make(map[pair]string)
	var queue []pair

	visit := func(p pair) string {
		if nid, ok := states[p]; ok {
			return nid
		}
		meta := automata.Metadata{
			Terminal: automata.MergeTerminal(a.Node(p.left).Meta.Terminal, b.Node(p.right).Meta.Terminal),
		}
		nid := result.AddNode("", "", meta).ID
		states[p] = nid
		queue = append(queue, p)
		return nid
	}
	visit(pair{a.RootID(), b.RootID()})

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		from := states[current]

		for _, e1 := range a.Outgoing(current.left) {
			if !shared[e1.Label] {
				to := visit(pair{e1.To(), current.right})
				if _, err := result.AddEdge("", e1.Label, from, to); err != nil {
					return nil, err
				}
				continue
			}
			for _, e2 := range b.Outgoing(current.right) {
				if e2.Label != e1.Label {
					continue
				}
				to := visit(pair{e1.To(), e2.To()})
				if _, err := result.AddEdge("", e1.Label, from, to); err != nil {
					return nil, err
				}
			}
		}
		for _, e2 := range b.Outgoing(current.right) {
			if shared[e2.Label] {
				continue
			}
			to := visit(pair{current.left, e2.To()})
			if _, err := result.AddEdge("", e2.Label, from, to); err != nil {
				return nil, err
			}
		}
	}

	automata.Debugw("composed automata", "id", id, "left", a.ID(), "right", b.ID(),
		"states", result.NodeCount(), "transitions", result.EdgeCount())
	return result, nil
}

// sharedAlphabet returns the observable actions both automata can perform.
func sharedAlphabet(a, b *automata.Automaton) map[string]bool {
	right := b.AlphabetSet()
	shared := make(map[string]bool)
	for label := range a.AlphabetSet() {
		if right[label] && !automata.IsReserved(label) {
			shared[label] = true
		}
	}
	return shared
}
