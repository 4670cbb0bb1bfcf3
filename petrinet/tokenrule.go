package petrinet

import (
	"fmt"
	"math"
	"sort"

	"github.com/jazzpetri/engine/petri"
	"github.com/jazzpetri/engine/token"
	"github.com/jazzpetri/engine/verification"
	"github.com/meikuraledutech/automata"
)

// engine builds the executable form of n with its initial marking loaded
// as tokens.
func (n *Net) engine() (*petri.PetriNet, error) {
	pn := petri.NewPetriNet(n.id, n.id)
	places := make(map[string]*petri.Place, len(n.places))
	for _, p := range n.places {
		capacity := n.initial[p.ID]
		if capacity < 1 {
			capacity = 1
		}
		place := petri.NewPlace(p.ID, p.ID, capacity)
		place.IsTerminal = p.Terminal != automata.NotTerminal
		place.IsInitial = n.initial[p.ID] > 0
		places[p.ID] = place
		pn.AddPlace(place)
	}
	for _, t := range n.transitions {
		pn.AddTransition(petri.NewTransition(t.ID, t.Label))
		for _, id := range sortedPlaces(t.Pre) {
			pn.AddArc(petri.NewArc(id+">"+t.ID, id, t.ID, t.Pre[id]))
		}
		for _, id := range sortedPlaces(t.Post) {
			pn.AddArc(petri.NewArc(t.ID+">"+id, t.ID, id, t.Post[id]))
		}
	}
	if err := pn.Resolve(); err != nil {
		return nil, fmt.Errorf("%w: net %s: %v", automata.ErrInvalidReference, n.id, err)
	}

	for _, id := range sortedPlaces(n.initial) {
		for i := 0; i < n.initial[id]; i++ {
			places[id].AddToken(&token.Token{
				ID:   fmt.Sprintf("%s#%d", id, i),
				Data: &petri.MapToken{Value: map[string]interface{}{}},
			})
		}
	}
	return pn, nil
}

func sortedPlaces(w map[string]int) []string {
	ids := make([]string, 0, len(w))
	for id := range w {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TokenRule converts n into the automaton of its reachable markings. Each
// firing becomes an edge carrying the transition's label. A positive bound
// caps the number of distinct markings; exceeding it fails with
// automata.ErrUnboundedMarking. Nodes are created breadth first from the
// initial marking, following transitions in insertion order.
func TokenRule(n *Net, bound int) (*automata.Automaton, error) {
	pn, err := n.engine()
	if err != nil {
		return nil, err
	}
	maxStates := math.MaxInt
	if bound > 0 {
		maxStates = bound + 1
	}
	ss, err := verification.NewVerifier(pn, maxStates).BuildStateSpace()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has more than %d markings", automata.ErrUnboundedMarking, n.id, bound)
	}

	order := make(map[string]int, len(n.transitions))
	labels := make(map[string]string, len(n.transitions))
	for i, t := range n.transitions {
		order[t.ID] = i
		labels[t.ID] = t.Label
	}

	a := automata.New(n.id)
	nodes := make(map[int]string, len(ss.States))
	visit := func(state int) (string, bool) {
		if id, ok := nodes[state]; ok {
			return id, false
		}
		m := ss.States[state].Marking
		id := a.AddNode("", "", automata.Metadata{Terminal: n.TerminalKind(m)}).ID
		nodes[state] = id
		return id, true
	}
	visit(ss.Initial)

	queue := []int{ss.Initial}
	for len(queue) > 0 {
		state := queue[0]
		queue = queue[1:]
		from := nodes[state]

		edges := append([]verification.Edge(nil), ss.Edges[state]...)
		sort.SliceStable(edges, func(i, j int) bool {
			return order[edges[i].TransitionID] < order[edges[j].TransitionID]
		})
		for _, e := range edges {
			to, fresh := visit(e.To)
			if fresh {
				queue = append(queue, e.To)
			}
			if _, err := a.AddEdge("", labels[e.TransitionID], from, to); err != nil {
				return nil, err
			}
		}
	}

	automata.Debugw("token rule", "net", n.id, "markings", len(ss.States), "transitions", a.EdgeCount())
	return a, nil
}
