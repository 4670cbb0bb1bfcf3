package petrinet

import (
	"fmt"

	"github.com/meikuraledutech/automata"
)

// FromAutomaton returns the state machine net of a: one place per state,
// one transition per edge and a single token on the root's place.
func FromAutomaton(a *automata.Automaton) (*Net, error) {
	if a.Root() == nil {
		return nil, fmt.Errorf("%w: %s has no root", automata.ErrInvalidReference, a.ID())
	}
	n := NewNet(a.ID())
	for _, node := range a.Nodes() {
		n.AddPlace(node.ID, node.Meta.Terminal)
	}
	for _, e := range a.Edges() {
		if _, err := n.AddTransition(e.Label, map[string]int{e.From(): 1}, map[string]int{e.To(): 1}); err != nil {
			return nil, err
		}
	}
	if err := n.Mark(a.RootID(), 1); err != nil {
		return nil, err
	}
	return n, nil
}

// Compose returns the parallel composition of two nets by transition
// fusion. Transitions sharing an observable label present in both nets are
// fused pairwise; a shared transition without a partner is dropped. All
// other transitions are copied unchanged. Places are copied under fresh ids.
func Compose(id string, left, right *Net) (*Net, error) {
	if len(left.initial) == 0 {
		return nil, fmt.Errorf("%w: %s has no initial marking", automata.ErrComposition, left.id)
	}
	if len(right.initial) == 0 {
		return nil, fmt.Errorf("%w: %s has no initial marking", automata.ErrComposition, right.id)
	}

	result := NewNet(id)
	leftPlaces := copyPlaces(result, left)
	rightPlaces := copyPlaces(result, right)

	rightLabels := make(map[string]bool)
	for _, t := range right.transitions {
		rightLabels[t.Label] = true
	}
	shared := make(map[string]bool)
	for _, t := range left.transitions {
		if rightLabels[t.Label] && !automata.IsReserved(t.Label) {
			shared[t.Label] = true
		}
	}

	for _, t := range left.transitions {
		if !shared[t.Label] {
			if _, err := result.AddTransition(t.Label, rename(t.Pre, leftPlaces), rename(t.Post, leftPlaces)); err != nil {
				return nil, err
			}
			continue
		}
		for _, u := range right.transitions {
			if u.Label != t.Label {
				continue
			}
			pre := rename(t.Pre, leftPlaces)
			post := rename(t.Post, leftPlaces)
			for p, w := range rename(u.Pre, rightPlaces) {
				pre[p] += w
			}
			for p, w := range rename(u.Post, rightPlaces) {
				post[p] += w
			}
			if _, err := result.AddTransition(t.Label, pre, post); err != nil {
				return nil, err
			}
		}
	}
	for _, u := range right.transitions {
		if shared[u.Label] {
			continue
		}
		if _, err := result.AddTransition(u.Label, rename(u.Pre, rightPlaces), rename(u.Post, rightPlaces)); err != nil {
			return nil, err
		}
	}

	for p, tokens := range left.initial {
		result.initial[leftPlaces[p]] += tokens
	}
	for p, tokens := range right.initial {
		result.initial[rightPlaces[p]] += tokens
	}

	automata.Debugw("composed nets", "id", id, "places", len(result.places), "transitions", len(result.transitions))
	return result, nil
}

func copyPlaces(dst, src *Net) map[string]string {
	ids := make(map[string]string, len(src.places))
	for _, p := range src.places {
		ids[p.ID] = dst.AddPlace("", p.Terminal).ID
	}
	return ids
}

func rename(w map[string]int, ids map[string]string) map[string]int {
	renamed := make(map[string]int, len(w))
	for p, v := range w {
		renamed[ids[p]] += v
	}
	return renamed
}
