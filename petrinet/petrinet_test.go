package petrinet

import (
	"errors"
	"reflect"
	"testing"

	"github.com/meikuraledutech/automata"
	"github.com/meikuraledutech/automata/operations"
)

// chain builds root -a1-> n1 -a2-> ... -> nk with nk a stop terminal.
func chain(t *testing.T, id string, actions ...string) *automata.Automaton {
	t.Helper()
	a := automata.NewWithRoot(id)
	current := a.RootID()
	for _, action := range actions {
		next := a.AddNode("", "", automata.Metadata{}).ID
		if _, err := a.AddEdge("", action, current, next); err != nil {
			t.Fatal(err)
		}
		current = next
	}
	a.Node(current).Meta.Terminal = automata.TerminalStop
	return a
}

func TestMarkingKey(t *testing.T) {
	tests := []struct {
		name string
		a, b Marking
		same bool
	}{
		{"order independent", Marking{"p": 1, "q": 2}, Marking{"q": 2, "p": 1}, true},
		{"zero counts kept", Marking{"p": 1, "q": 0}, Marking{"p": 1}, false},
		{"different counts", Marking{"p": 1}, Marking{"p": 2}, false},
		{"different places", Marking{"p": 1}, Marking{"q": 1}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Key() == tt.b.Key(); got != tt.same {
			t.Errorf("%s: expected %v, got %v (%s vs %s)", tt.name, tt.same, got, tt.a.Key(), tt.b.Key())
		}
	}
	if got := (Marking{"b": 2, "a": 1}).Key(); got != "a:1,b:2" {
		t.Errorf("expected a:1,b:2, got %s", got)
	}
}

func TestMarkingCopy(t *testing.T) {
	m := Marking{"p": 1}
	c := m.Copy()
	c["p"] = 5
	if m["p"] != 1 {
		t.Error("expected copy to be independent")
	}
}

func TestFromAutomatonRoundTrip(t *testing.T) {
	a := automata.NewWithRoot("P")
	n1 := a.AddNode("", "", automata.Metadata{}).ID
	n2 := a.AddNode("", "", automata.Metadata{Terminal: automata.TerminalError}).ID
	for _, e := range []struct{ label, from, to string }{
		{"a", a.RootID(), n1},
		{"b", n1, a.RootID()},
		{automata.Delta, n1, n2},
	} {
		if _, err := a.AddEdge("", e.label, e.from, e.to); err != nil {
			t.Fatal(err)
		}
	}

	net, err := FromAutomaton(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(net.Places()) != 3 || len(net.Transitions()) != 3 {
		t.Fatalf("expected 3 places and 3 transitions, got %d and %d", len(net.Places()), len(net.Transitions()))
	}
	if net.Kind() != automata.KindPetriNet {
		t.Errorf("expected petrinet kind, got %s", net.Kind())
	}

	back, err := TokenRule(net, 0)
	if err != nil {
		t.Fatal(err)
	}
	if back.NodeCount() != 3 || back.EdgeCount() != 3 {
		t.Errorf("expected 3 states and 3 transitions, got %d and %d", back.NodeCount(), back.EdgeCount())
	}
	if !operations.Bisimilar(a, back) {
		t.Error("expected token rule of the state machine net to be bisimilar to the automaton")
	}
}

func TestComposeAgreesWithAutomatonComposition(t *testing.T) {
	tests := []struct {
		name string
		p, q *automata.Automaton
	}{
		{"shared prefix", chain(t, "P", "a"), chain(t, "Q", "a", "b")},
		{"disjoint", chain(t, "P", "a"), chain(t, "Q", "b")},
		{"blocked", chain(t, "P", "a", "c"), chain(t, "Q", "c", "a")},
		{"tau interleaves", chain(t, "P", automata.Tau), chain(t, "Q", automata.Tau, "a")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := operations.Compose("PQ", tt.p, tt.q)
			if err != nil {
				t.Fatal(err)
			}
			left, err := FromAutomaton(tt.p)
			if err != nil {
				t.Fatal(err)
			}
			right, err := FromAutomaton(tt.q)
			if err != nil {
				t.Fatal(err)
			}
			net, err := Compose("PQ", left, right)
			if err != nil {
				t.Fatal(err)
			}
			got, err := TokenRule(net, 100)
			if err != nil {
				t.Fatal(err)
			}
			if got.NodeCount() != want.NodeCount() {
				t.Errorf("expected %d states, got %d", want.NodeCount(), got.NodeCount())
			}
			if !operations.Bisimilar(want, got) {
				t.Error("expected net composition to agree with automaton composition")
			}
		})
	}
}

func TestComposeWithoutMarking(t *testing.T) {
	net, err := FromAutomaton(chain(t, "P", "a"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Compose("x", NewNet("E"), net); !errors.Is(err, automata.ErrComposition) {
		t.Errorf("expected ErrComposition, got %v", err)
	}
}

func TestTokenRuleBound(t *testing.T) {
	n := NewNet("N")
	p := n.AddPlace("", automata.NotTerminal).ID
	if _, err := n.AddTransition("grow", map[string]int{p: 1}, map[string]int{p: 2}); err != nil {
		t.Fatal(err)
	}
	if err := n.Mark(p, 1); err != nil {
		t.Fatal(err)
	}

	if _, err := TokenRule(n, 5); !errors.Is(err, automata.ErrUnboundedMarking) {
		t.Errorf("expected ErrUnboundedMarking, got %v", err)
	}
}

func TestTokenRuleWeights(t *testing.T) {
	n := NewNet("N")
	p := n.AddPlace("", automata.NotTerminal).ID
	q := n.AddPlace("", automata.TerminalStop).ID
	if _, err := n.AddTransition("pair", map[string]int{p: 2}, map[string]int{q: 1}); err != nil {
		t.Fatal(err)
	}
	if err := n.Mark(p, 3); err != nil {
		t.Fatal(err)
	}

	a, err := TokenRule(n, 10)
	if err != nil {
		t.Fatal(err)
	}
	// {p:3} -pair-> {p:1,q:1}, then pair is disabled
	if a.NodeCount() != 2 || a.EdgeCount() != 1 {
		t.Fatalf("expected 2 states and 1 transition, got %d and %d", a.NodeCount(), a.EdgeCount())
	}
	if a.Root().Meta.IsTerminal() {
		t.Error("expected initial marking not to be terminal")
	}
	out := a.Outgoing(a.RootID())
	if a.Node(out[0].To()).Meta.Terminal != automata.TerminalStop {
		t.Error("expected marking with a token on a stop place to be terminal")
	}
}

func TestAddTransitionInvalidPlace(t *testing.T) {
	n := NewNet("N")
	p := n.AddPlace("", automata.NotTerminal).ID
	tests := []struct {
		name      string
		pre, post map[string]int
	}{
		{"unknown output place", map[string]int{p: 1}, map[string]int{"nope": 1}},
		{"unknown input place", map[string]int{"nope": 1}, map[string]int{p: 1}},
		{"no input place", nil, map[string]int{p: 1}},
	}
	for _, tt := range tests {
		if _, err := n.AddTransition("a", tt.pre, tt.post); !errors.Is(err, automata.ErrInvalidReference) {
			t.Errorf("%s: expected ErrInvalidReference, got %v", tt.name, err)
		}
	}
	if len(n.Transitions()) != 0 {
		t.Errorf("expected no transitions, got %d", len(n.Transitions()))
	}
	if err := n.Mark("nope", 1); !errors.Is(err, automata.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestTokenRuleOrder(t *testing.T) {
	n := NewNet("N")
	p := n.AddPlace("", automata.NotTerminal).ID
	q := n.AddPlace("", automata.NotTerminal).ID
	r := n.AddPlace("", automata.TerminalStop).ID
	for _, tr := range []struct {
		label    string
		from, to string
	}{
		{"b", p, r},
		{"a", p, q},
		{"c", q, p},
	} {
		if _, err := n.AddTransition(tr.label, map[string]int{tr.from: 1}, map[string]int{tr.to: 1}); err != nil {
			t.Fatal(err)
		}
	}
	if err := n.Mark(p, 1); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		a, err := TokenRule(n, 0)
		if err != nil {
			t.Fatal(err)
		}
		out := a.Outgoing(a.RootID())
		if len(out) != 2 || out[0].Label != "b" || out[1].Label != "a" {
			t.Fatalf("expected root edges [b a], got %v", out)
		}
		if a.Nodes()[1].ID != out[0].To() {
			t.Errorf("expected the b successor to be discovered first")
		}
		if a.NodeCount() != 3 || a.EdgeCount() != 3 {
			t.Errorf("expected 3 states and 3 transitions, got %d and %d", a.NodeCount(), a.EdgeCount())
		}
	}
}

func TestRelabelAndClone(t *testing.T) {
	net, err := FromAutomaton(chain(t, "P", "a", automata.Tau, "b"))
	if err != nil {
		t.Fatal(err)
	}
	c := net.Clone()
	c.LabelTransitions("x")
	c.RelabelTransition("x.b", "c")

	if got, want := c.Alphabet(), []string{"c", automata.Tau, "x.a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got, want := net.Alphabet(), []string{"a", "b", automata.Tau}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected original alphabet %v, got %v", want, got)
	}
}
