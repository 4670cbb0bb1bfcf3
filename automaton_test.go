package automata

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func mustEdge(t *testing.T, a *Automaton, label, from, to string) *Edge {
	t.Helper()
	e, err := a.AddEdge("", label, from, to)
	if err != nil {
		t.Fatalf("AddEdge(%s, %s, %s): %v", label, from, to, err)
	}
	return e
}

func TestAddNodeFreshIDs(t *testing.T) {
	a := NewWithRoot("P")
	root := a.Root()
	if root == nil || !root.Meta.Start {
		t.Fatal("expected a start-flagged root")
	}
	seen := map[string]bool{root.ID: true}
	for i := 0; i < 10; i++ {
		n := a.AddNode("", "", Metadata{})
		if seen[n.ID] {
			t.Fatalf("duplicate node id %s", n.ID)
		}
		seen[n.ID] = true
	}
	if a.NodeCount() != 11 {
		t.Errorf("expected 11 nodes, got %d", a.NodeCount())
	}
	if a.Nodes()[0] != root {
		t.Error("expected root to be listed first")
	}
}

func TestAddNodeSkipsTakenIDs(t *testing.T) {
	a := New("P")
	a.AddNode("P.0", "", Metadata{})
	n := a.AddNode("", "", Metadata{})
	if n.ID == "P.0" {
		t.Error("expected generated id to avoid explicit id P.0")
	}
}

func TestAddEdgeInvalidReference(t *testing.T) {
	a := NewWithRoot("P")
	_, err := a.AddEdge("", "a", a.RootID(), "missing")
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
	_, err = a.AddEdge("", "a", "missing", a.RootID())
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
	if a.EdgeCount() != 0 {
		t.Errorf("expected no edges, got %d", a.EdgeCount())
	}
}

func TestRemoveNodeRemovesIncidentEdges(t *testing.T) {
	a := NewWithRoot("P")
	r := a.RootID()
	n := a.AddNode("", "", Metadata{}).ID
	m := a.AddNode("", "", Metadata{}).ID
	mustEdge(t, a, "a", r, n)
	mustEdge(t, a, "b", n, m)
	mustEdge(t, a, "c", n, n)
	lonely := a.AddNode("", "", Metadata{}).ID

	a.RemoveNode(n)
	if a.Node(n) != nil {
		t.Error("expected node to be removed")
	}
	if a.EdgeCount() != 0 {
		t.Errorf("expected 0 edges, got %d", a.EdgeCount())
	}
	if len(a.Outgoing(r)) != 0 || len(a.Incoming(m)) != 0 {
		t.Error("expected endpoint edge sets to be cleaned up")
	}

	a.RemoveNode(lonely)
	if a.NodeCount() != 2 {
		t.Errorf("expected 2 nodes, got %d", a.NodeCount())
	}
}

func TestMergeConservation(t *testing.T) {
	a := NewWithRoot("P")
	x := a.RootID()
	b := a.AddNode("", "", Metadata{}).ID
	c := a.AddNode("", "", Metadata{}).ID
	d := a.AddNode("", "", Metadata{}).ID
	mustEdge(t, a, "a", x, b)
	mustEdge(t, a, "b", c, b)
	mustEdge(t, a, "c", b, c)
	mustEdge(t, a, "d", b, d)
	mustEdge(t, a, "e", b, x)

	outBefore := len(a.Outgoing(x))
	inBefore := len(a.Incoming(x))
	k := len(a.Outgoing(b))
	m := len(a.Incoming(b))

	if err := a.MergeNodes(x, b); err != nil {
		t.Fatal(err)
	}
	if a.Node(b) != nil {
		t.Error("expected merged node to be gone")
	}
	if got, want := len(a.Outgoing(x)), outBefore+k; got != want {
		t.Errorf("expected %d outgoing edges, got %d", want, got)
	}
	if got, want := len(a.Incoming(x)), inBefore+m; got != want {
		t.Errorf("expected %d incoming edges, got %d", want, got)
	}
	for _, e := range a.Edges() {
		if e.From() == b || e.To() == b {
			t.Errorf("edge %s still references merged node", e.Label)
		}
	}
	if a.Resolve(b) != x {
		t.Errorf("expected %s to resolve to %s, got %s", b, x, a.Resolve(b))
	}
}

func TestMergeEdgesBetweenMergedNodes(t *testing.T) {
	a := NewWithRoot("P")
	p := a.RootID()
	b := a.AddNode("", "", Metadata{}).ID
	c := a.AddNode("", "", Metadata{Terminal: TerminalStop}).ID
	mustEdge(t, a, "x", b, c)
	mustEdge(t, a, "y", c, b)
	mustEdge(t, a, "z", c, c)

	if err := a.MergeNodes(p, b, c); err != nil {
		t.Fatal(err)
	}
	if a.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", a.NodeCount())
	}
	for _, e := range a.Edges() {
		if e.From() != p || e.To() != p {
			t.Errorf("expected self-loop on %s, got %s -> %s", p, e.From(), e.To())
		}
	}
	if a.Root().Meta.Terminal != TerminalStop {
		t.Error("expected terminal marker to propagate to primary")
	}
}

func TestMergeMovesRoot(t *testing.T) {
	a := NewWithRoot("P")
	oldRoot := a.RootID()
	n := a.AddNode("", "", Metadata{}).ID
	if err := a.MergeNodes(n, oldRoot); err != nil {
		t.Fatal(err)
	}
	if a.RootID() != n {
		t.Errorf("expected root %s, got %s", n, a.RootID())
	}
	if !a.Root().Meta.Start {
		t.Error("expected start flag on new root")
	}
}

func TestMergeChainResolves(t *testing.T) {
	a := NewWithRoot("P")
	x := a.RootID()
	y := a.AddNode("", "", Metadata{}).ID
	z := a.AddNode("", "", Metadata{}).ID
	if err := a.MergeNodes(y, z); err != nil {
		t.Fatal(err)
	}
	if err := a.MergeNodes(x, y); err != nil {
		t.Fatal(err)
	}
	if a.Resolve(z) != x {
		t.Errorf("expected %s, got %s", x, a.Resolve(z))
	}
	// merging through a stale id targets the surviving node
	w := a.AddNode("", "", Metadata{}).ID
	if err := a.MergeNodes(z, w); err != nil {
		t.Fatal(err)
	}
	if a.NodeCount() != 1 {
		t.Errorf("expected 1 node, got %d", a.NodeCount())
	}
}

func TestMergeInvalidReference(t *testing.T) {
	a := NewWithRoot("P")
	if err := a.MergeNodes("nope", a.RootID()); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
	if err := a.MergeNodes(a.RootID(), "nope"); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestAddGraphCopiesSource(t *testing.T) {
	q := NewWithRoot("Q")
	q1 := q.AddNode("", "", Metadata{Terminal: TerminalStop}).ID
	mustEdge(t, q, "b", q.RootID(), q1)

	p := NewWithRoot("P")
	p1 := p.AddNode("", "", Metadata{}).ID
	mustEdge(t, p, "a", p.RootID(), p1)

	if err := p.AddGraph(q, p1); err != nil {
		t.Fatal(err)
	}
	if q.NodeCount() != 2 || q.EdgeCount() != 1 {
		t.Error("expected source automaton to be unchanged")
	}
	if p.NodeCount() != 3 || p.EdgeCount() != 2 {
		t.Fatalf("expected 3 nodes and 2 edges, got %d and %d", p.NodeCount(), p.EdgeCount())
	}
	out := p.Outgoing(p1)
	if len(out) != 1 || out[0].Label != "b" {
		t.Fatalf("expected one b edge from the splice point, got %v", out)
	}
	if !p.Node(out[0].To()).Meta.IsTerminal() {
		t.Error("expected copied terminal marker")
	}
	if p.RootID() == p1 {
		t.Error("splice point must not become the root")
	}
	for _, n := range p.Nodes() {
		if q.Node(n.ID) != nil {
			t.Errorf("expected fresh ids, found %s shared with source", n.ID)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := NewWithRoot("P")
	n := a.AddNode("", "", Metadata{}).ID
	mustEdge(t, a, "a", a.RootID(), n)

	c := a.Clone()
	if c.RootID() != a.RootID() || c.NodeCount() != 2 || c.EdgeCount() != 1 {
		t.Fatal("expected clone to share structure")
	}
	c.RelabelEdge("a", "z")
	c.AddNode("", "", Metadata{})
	if a.Edges()[0].Label != "a" {
		t.Error("relabelling the clone changed the original")
	}
	if a.NodeCount() != 2 {
		t.Error("adding to the clone changed the original")
	}
	if c.Node(c.AddNode("", "", Metadata{}).ID) == nil {
		t.Error("expected clone to keep generating ids")
	}
}

func TestTrimFixpoint(t *testing.T) {
	a := NewWithRoot("P")
	r := a.RootID()
	n := a.AddNode("", "", Metadata{}).ID
	orphan := a.AddNode("", "", Metadata{}).ID
	orphanChild := a.AddNode("", "", Metadata{}).ID
	mustEdge(t, a, "a", r, n)
	mustEdge(t, a, "b", n, r)
	mustEdge(t, a, "c", orphan, orphanChild)
	mustEdge(t, a, "d", orphan, n)

	a.Trim()
	if a.NodeCount() != 2 || a.EdgeCount() != 2 {
		t.Fatalf("expected 2 nodes and 2 edges, got %d and %d", a.NodeCount(), a.EdgeCount())
	}
	nodes, edges := a.NodeCount(), a.EdgeCount()
	a.Trim()
	if a.NodeCount() != nodes || a.EdgeCount() != edges {
		t.Error("expected second trim to be a no-op")
	}
}

func TestLabelAndRelabel(t *testing.T) {
	a := NewWithRoot("P")
	n := a.AddNode("", "", Metadata{}).ID
	mustEdge(t, a, "a", a.RootID(), n)
	mustEdge(t, a, Tau, n, n)
	mustEdge(t, a, "b", n, a.RootID())

	a.LabelEdges("x")
	if got, want := a.Alphabet(), []string{Tau, "x.a", "x.b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	a.RelabelEdge("x.a", "c")
	if got, want := a.Alphabet(), []string{"c", Tau, "x.b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRemoveDuplicateEdges(t *testing.T) {
	a := NewWithRoot("P")
	n := a.AddNode("", "", Metadata{}).ID
	first := mustEdge(t, a, "a", a.RootID(), n)
	mustEdge(t, a, "a", a.RootID(), n)
	mustEdge(t, a, "b", a.RootID(), n)
	mustEdge(t, a, "a", n, a.RootID())

	a.RemoveDuplicateEdges()
	if a.EdgeCount() != 3 {
		t.Errorf("expected 3 edges, got %d", a.EdgeCount())
	}
	if a.Edge(first.ID) == nil {
		t.Error("expected the earliest duplicate to be kept")
	}
}

func TestEdgesSince(t *testing.T) {
	a := NewWithRoot("P")
	n := a.AddNode("", "", Metadata{}).ID
	mustEdge(t, a, "a", a.RootID(), n)
	mark := a.EdgeMark()
	m := a.AddNode("", "", Metadata{}).ID
	mustEdge(t, a, "b", n, m)
	mustEdge(t, a, "c", m, n)

	since := a.EdgesSince(mark)
	if len(since) != 2 || since[0].Label != "b" || since[1].Label != "c" {
		t.Errorf("expected [b c], got %v", since)
	}
}

func TestEdgesSinceAfterEdits(t *testing.T) {
	tests := []struct {
		name string
		edit func(t *testing.T, a *Automaton, b, c *Edge) *Automaton
		want []string
	}{
		{"untouched", func(_ *testing.T, a *Automaton, _, _ *Edge) *Automaton { return a }, []string{"b", "c"}},
		{"removed edge", func(_ *testing.T, a *Automaton, b, _ *Edge) *Automaton {
			a.RemoveEdge(b.ID)
			return a
		}, []string{"c"}},
		{"reused id", func(t *testing.T, a *Automaton, b, _ *Edge) *Automaton {
			a.RemoveEdge(b.ID)
			if _, err := a.AddEdge(b.ID, "d", a.RootID(), a.RootID()); err != nil {
				t.Fatal(err)
			}
			return a
		}, []string{"c", "d"}},
		{"clone", func(_ *testing.T, a *Automaton, _, _ *Edge) *Automaton { return a.Clone() }, []string{"b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewWithRoot("P")
			n := a.AddNode("", "", Metadata{}).ID
			mustEdge(t, a, "a", a.RootID(), n)
			mark := a.EdgeMark()
			b := mustEdge(t, a, "b", n, a.RootID())
			c := mustEdge(t, a, "c", n, n)

			got := labelsOf(tt.edit(t, a, b, c).EdgesSince(mark))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func labelsOf(edges []*Edge) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Label)
	}
	return out
}

func TestSnapshotRoundTrip(t *testing.T) {
	a := NewWithRoot("P")
	n := a.AddNode("", "1", Metadata{Terminal: TerminalError})
	a.Root().Label = "0"
	mustEdge(t, a, Delta, a.RootID(), n.ID)

	data, err := json.Marshal(a.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	if len(s.Terminals) != 1 || s.Terminals[0] != n.ID {
		t.Errorf("expected terminals [%s], got %v", n.ID, s.Terminals)
	}
	b, err := FromSnapshot(&s)
	if err != nil {
		t.Fatal(err)
	}
	if b.RootID() != a.RootID() || b.NodeCount() != 2 || b.EdgeCount() != 1 {
		t.Error("expected rebuilt automaton to match")
	}
	if b.Node(n.ID).Meta.Terminal != TerminalError {
		t.Error("expected terminal kind to survive")
	}
}

func TestFromSnapshotInvalidEdge(t *testing.T) {
	s := &Snapshot{
		ID:    "P",
		Root:  "P.0",
		Nodes: []NodeData{{ID: "P.0"}},
		Edges: []EdgeData{{ID: "e", Label: "a", From: "P.0", To: "P.9"}},
	}
	if _, err := FromSnapshot(s); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestNodeKindError(t *testing.T) {
	err := error(&NodeKindError{Kind: "loop", Pos: Position{Line: 3, Column: 7}})
	if !errors.Is(err, ErrUnknownNodeKind) {
		t.Error("expected NodeKindError to match ErrUnknownNodeKind")
	}
	if err.Error() != `automata: unknown syntax tree node kind: "loop" at 3:7` {
		t.Errorf("unexpected message %q", err.Error())
	}
}
