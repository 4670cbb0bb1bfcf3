// Package petrinet models processes as place/transition nets and converts
// them to automata by exploring their reachable markings.
package petrinet

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/meikuraledutech/automata"
)

// Place holds tokens. A marked terminal place makes the whole marking
// terminal.
type Place struct {
	ID       string
	Terminal automata.TerminalKind
}

// Transition consumes Pre and produces Post, both weighted by place id.
// Weights below one count as one.
type Transition struct {
	ID    string
	Label string
	Pre   map[string]int
	Post  map[string]int
}

// Net is a labelled place/transition net with an initial marking.
type Net struct {
	id          string
	places      []*Place
	placeIndex  map[string]*Place
	transitions []*Transition
	initial     Marking

	nextPlace      int
	nextTransition int
}

// NewNet returns an empty net.
func NewNet(id string) *Net {
	return &Net{
		id:         id,
		placeIndex: make(map[string]*Place),
		initial:    make(Marking),
	}
}

func (n *Net) ID() string { return n.id }

// ProcessID implements automata.Process.
func (n *Net) ProcessID() string { return n.id }

// Kind implements automata.Process.
func (n *Net) Kind() automata.Kind { return automata.KindPetriNet }

// Places returns the places in insertion order.
func (n *Net) Places() []*Place { return n.places }

// Transitions returns the transitions in insertion order.
func (n *Net) Transitions() []*Transition { return n.transitions }

// Place returns the place with the given id, or nil.
func (n *Net) Place(id string) *Place { return n.placeIndex[id] }

// Initial returns a copy of the initial marking.
func (n *Net) Initial() Marking { return n.initial.Copy() }

// AddPlace registers a place. An empty id gets a fresh one.
func (n *Net) AddPlace(id string, terminal automata.TerminalKind) *Place {
	if id == "" {
		for {
			id = n.id + ".p" + strconv.Itoa(n.nextPlace)
			n.nextPlace++
			if n.placeIndex[id] == nil {
				break
			}
		}
	} else if n.placeIndex[id] != nil {
		panic("naming collision when adding place " + id)
	}
	p := &Place{ID: id, Terminal: terminal}
	n.places = append(n.places, p)
	n.placeIndex[id] = p
	return p
}

// AddTransition registers a transition between existing places. A
// transition needs at least one input place; source transitions would never
// be explored by the token rule.
func (n *Net) AddTransition(label string, pre, post map[string]int) (*Transition, error) {
	if len(pre) == 0 {
		return nil, fmt.Errorf("%w: transition %q has no input place", automata.ErrInvalidReference, label)
	}
	for id := range pre {
		if n.placeIndex[id] == nil {
			return nil, fmt.Errorf("%w: input place %q", automata.ErrInvalidReference, id)
		}
	}
	for id := range post {
		if n.placeIndex[id] == nil {
			return nil, fmt.Errorf("%w: output place %q", automata.ErrInvalidReference, id)
		}
	}
	t := &Transition{
		ID:    n.id + ".t" + strconv.Itoa(n.nextTransition),
		Label: label,
		Pre:   copyWeights(pre),
		Post:  copyWeights(post),
	}
	n.nextTransition++
	n.transitions = append(n.transitions, t)
	return t, nil
}

// Mark adds tokens to a place in the initial marking.
func (n *Net) Mark(place string, tokens int) error {
	if n.placeIndex[place] == nil {
		return fmt.Errorf("%w: marked place %q", automata.ErrInvalidReference, place)
	}
	n.initial[place] += tokens
	return nil
}

// TerminalKind returns the strongest terminal kind among the places marked
// in m.
func (n *Net) TerminalKind(m Marking) automata.TerminalKind {
	kind := automata.NotTerminal
	for _, p := range n.places {
		if m[p.ID] > 0 {
			kind = automata.MergeTerminal(kind, p.Terminal)
		}
	}
	return kind
}

// Alphabet returns the distinct transition labels, sorted.
func (n *Net) Alphabet() []string {
	set := make(map[string]bool)
	for _, t := range n.transitions {
		set[t.Label] = true
	}
	alphabet := make([]string, 0, len(set))
	for label := range set {
		alphabet = append(alphabet, label)
	}
	sort.Strings(alphabet)
	return alphabet
}

// RelabelTransition renames every transition labelled oldLabel.
func (n *Net) RelabelTransition(oldLabel, newLabel string) {
	for _, t := range n.transitions {
		if t.Label == oldLabel {
			t.Label = newLabel
		}
	}
}

// LabelTransitions prefixes every observable transition label with prefix
// and a dot.
func (n *Net) LabelTransitions(prefix string) {
	for _, t := range n.transitions {
		if !automata.IsReserved(t.Label) {
			t.Label = prefix + "." + t.Label
		}
	}
}

// Clone returns an independent copy under the same ids.
func (n *Net) Clone() *Net { return n.CloneAs(n.id) }

// CloneAs returns an independent copy identified by id. Place and
// transition ids are kept.
func (n *Net) CloneAs(id string) *Net {
	c := NewNet(id)
	for _, p := range n.places {
		c.AddPlace(p.ID, p.Terminal)
	}
	for _, t := range n.transitions {
		c.transitions = append(c.transitions, &Transition{
			ID:    t.ID,
			Label: t.Label,
			Pre:   copyWeights(t.Pre),
			Post:  copyWeights(t.Post),
		})
	}
	c.initial = n.initial.Copy()
	c.nextPlace = n.nextPlace
	c.nextTransition = n.nextTransition
	return c
}

func copyWeights(w map[string]int) map[string]int {
	c := make(map[string]int, len(w))
	for k, v := range w {
		c[k] = v
	}
	return c
}
