package automata

import "fmt"

// Snapshot is the serialisable form of a compiled process: what the store
// persists and what downstream layout collaborators consume.
type Snapshot struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"kind"`
	Root      string     `json:"root"`
	Nodes     []NodeData `json:"nodes"`
	Edges     []EdgeData `json:"edges"`
	Alphabet  []string   `json:"alphabet"`
	Terminals []string   `json:"terminals"`
}

// NodeData is the serialisable form of a Node.
type NodeData struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Start    bool         `json:"start,omitempty"`
	Terminal TerminalKind `json:"terminal,omitempty"`
}

// EdgeData is the serialisable form of an Edge.
type EdgeData struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Snapshot captures the automaton's current structure. Nodes are listed root
// first.
func (a *Automaton) Snapshot() *Snapshot {
	s := &Snapshot{
		ID:        a.id,
		Kind:      KindAutomaton,
		Root:      a.rootID,
		Nodes:     []NodeData{},
		Edges:     []EdgeData{},
		Alphabet:  a.Alphabet(),
		Terminals: []string{},
	}
	for _, n := range a.Nodes() {
		s.Nodes = append(s.Nodes, NodeData{
			ID:       n.ID,
			Label:    n.Label,
			Start:    n.Meta.Start,
			Terminal: n.Meta.Terminal,
		})
		if n.Meta.IsTerminal() {
			s.Terminals = append(s.Terminals, n.ID)
		}
	}
	for _, e := range a.Edges() {
		s.Edges = append(s.Edges, EdgeData{ID: e.ID, Label: e.Label, From: e.from, To: e.to})
	}
	return s
}

// FromSnapshot rebuilds an automaton. Edges referencing unknown nodes fail
// with ErrInvalidReference.
func FromSnapshot(s *Snapshot) (*Automaton, error) {
	a := New(s.ID)
	var root *NodeData
	for i := range s.Nodes {
		if s.Nodes[i].ID == s.Root {
			root = &s.Nodes[i]
		}
	}
	if root == nil && len(s.Nodes) > 0 {
		return nil, fmt.Errorf("%w: root %q", ErrInvalidReference, s.Root)
	}
	if root != nil {
		a.AddNode(root.ID, root.Label, Metadata{Start: true, Terminal: root.Terminal})
	}
	for _, n := range s.Nodes {
		if n.ID == s.Root {
			continue
		}
		a.AddNode(n.ID, n.Label, Metadata{Terminal: n.Terminal})
	}
	for _, e := range s.Edges {
		if _, err := a.AddEdge(e.ID, e.Label, e.From, e.To); err != nil {
			return nil, err
		}
	}
	return a, nil
}
