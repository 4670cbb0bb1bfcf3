package automata

import (
	"fmt"
	"sort"
	"strconv"
)

// Automaton is a labelled transition system representing the behaviour of
// one process.
//
// Edges reference nodes by id. Merging nodes leaves an alias behind, so an id
// handed out before a merge can still be resolved to the node that absorbed
// it (see Resolve).
type Automaton struct {
	id     string
	rootID string

	nodes map[string]*Node
	edges map[string]*Edge

	// aliases forwards merged-away node ids to the node they were merged into.
	aliases map[string]string

	nextNodeID int
	nextEdgeID int
	seq        uint64

	// log holds every edge in insertion order, removed ones included.
	log []*Edge
}

// Node is one state of an automaton.
type Node struct {
	ID string
	// Label is the display name assigned by the labelling pass.
	Label string
	Meta  Metadata

	seq uint64
	in  map[string]*Edge
	out map[string]*Edge
}

// Edge is one transition. Its endpoints are only changed by the owning
// automaton.
type Edge struct {
	ID    string
	Label string

	from string
	to   string
	seq  uint64
}

// From returns the id of the node the edge leaves.
func (e *Edge) From() string { return e.from }

// To returns the id of the node the edge enters.
func (e *Edge) To() string { return e.to }

// New returns an empty automaton. Fresh node and edge ids are derived from id.
func New(id string) *Automaton {
	return &Automaton{
		id:      id,
		nodes:   make(map[string]*Node),
		edges:   make(map[string]*Edge),
		aliases: make(map[string]string),
	}
}

// NewWithRoot returns an automaton holding a single start node.
func NewWithRoot(id string) *Automaton {
	a := New(id)
	a.AddNode("", "", Metadata{Start: true})
	return a
}

// ID returns the automaton's identifier.
func (a *Automaton) ID() string { return a.id }

// ProcessID implements Process.
func (a *Automaton) ProcessID() string { return a.id }

// Kind implements Process.
func (a *Automaton) Kind() Kind { return KindAutomaton }

// Root returns the start node, or nil for an empty automaton.
func (a *Automaton) Root() *Node { return a.nodes[a.rootID] }

// RootID returns the id of the start node.
func (a *Automaton) RootID() string { return a.rootID }

// SetRoot makes the node with the given id the start node.
func (a *Automaton) SetRoot(id string) error {
	n := a.nodes[a.Resolve(id)]
	if n == nil {
		return fmt.Errorf("%w: root %q", ErrInvalidReference, id)
	}
	if old := a.Root(); old != nil {
		old.Meta.Start = false
	}
	n.Meta.Start = true
	a.rootID = n.ID
	return nil
}

// Node returns the node with the given id, or nil.
func (a *Automaton) Node(id string) *Node { return a.nodes[id] }

// Edge returns the edge with the given id, or nil.
func (a *Automaton) Edge(id string) *Edge { return a.edges[id] }

func (a *Automaton) NodeCount() int { return len(a.nodes) }
func (a *Automaton) EdgeCount() int { return len(a.edges) }

// Nodes returns every node, root first, the rest in insertion order.
func (a *Automaton) Nodes() []*Node {
	nodes := make([]*Node, 0, len(a.nodes))
	for _, n := range a.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		ri, rj := nodes[i].ID == a.rootID, nodes[j].ID == a.rootID
		if ri != rj {
			return ri
		}
		return nodes[i].seq < nodes[j].seq
	})
	return nodes
}

// Edges returns every edge in insertion order.
func (a *Automaton) Edges() []*Edge {
	return sortedEdges(a.edges)
}

// Outgoing returns the edges leaving the node in insertion order.
func (a *Automaton) Outgoing(id string) []*Edge {
	n := a.nodes[id]
	if n == nil {
		return nil
	}
	return sortedEdges(n.out)
}

// Incoming returns the edges entering the node in insertion order.
func (a *Automaton) Incoming(id string) []*Edge {
	n := a.nodes[id]
	if n == nil {
		return nil
	}
	return sortedEdges(n.in)
}

func sortedEdges(m map[string]*Edge) []*Edge {
	edges := make([]*Edge, 0, len(m))
	for _, e := range m {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].seq < edges[j].seq })
	return edges
}

// Terminals returns the nodes carrying a terminal marker.
func (a *Automaton) Terminals() []*Node {
	var terminals []*Node
	for _, n := range a.Nodes() {
		if n.Meta.IsTerminal() {
			terminals = append(terminals, n)
		}
	}
	return terminals
}

// NewNodeID returns a node id not used by this automaton.
func (a *Automaton) NewNodeID() string {
	for {
		id := a.id + "." + strconv.Itoa(a.nextNodeID)
		a.nextNodeID++
		if _, ok := a.nodes[id]; ok {
			continue
		}
		if _, ok := a.aliases[id]; ok {
			continue
		}
		return id
	}
}

// NewEdgeID returns an edge id not used by this automaton.
func (a *Automaton) NewEdgeID() string {
	for {
		id := a.id + ".e" + strconv.Itoa(a.nextEdgeID)
		a.nextEdgeID++
		if _, ok := a.edges[id]; !ok {
			return id
		}
	}
}

// AddNode creates and registers a node. An empty id gets a fresh one.
// The first node added to an empty automaton becomes its root.
func (a *Automaton) AddNode(id, label string, meta Metadata) *Node {
	if id == "" {
		id = a.NewNodeID()
	} else if _, ok := a.nodes[id]; ok {
		panic("naming collision when adding node " + id)
	}
	a.seq++
	n := &Node{
		ID:    id,
		Label: label,
		Meta:  meta,
		seq:   a.seq,
		in:    make(map[string]*Edge),
		out:   make(map[string]*Edge),
	}
	a.nodes[id] = n
	if a.rootID == "" {
		n.Meta.Start = true
		a.rootID = id
	}
	return n
}

// AddEdge creates an edge between two existing nodes. An empty id gets a
// fresh one.
func (a *Automaton) AddEdge(id, label, from, to string) (*Edge, error) {
	src, dst := a.nodes[from], a.nodes[to]
	if src == nil {
		return nil, fmt.Errorf("%w: edge source %q", ErrInvalidReference, from)
	}
	if dst == nil {
		return nil, fmt.Errorf("%w: edge target %q", ErrInvalidReference, to)
	}
	if id == "" {
		id = a.NewEdgeID()
	} else if _, ok := a.edges[id]; ok {
		panic("naming collision when adding edge " + id)
	}
	a.seq++
	e := &Edge{ID: id, Label: label, from: from, to: to, seq: a.seq}
	src.out[id] = e
	dst.in[id] = e
	a.edges[id] = e
	a.log = append(a.log, e)
	return e, nil
}

// RemoveNode deletes the node and every edge touching it.
func (a *Automaton) RemoveNode(id string) {
	n := a.nodes[id]
	if n == nil {
		return
	}
	for eid := range n.out {
		a.RemoveEdge(eid)
	}
	for eid := range n.in {
		a.RemoveEdge(eid)
	}
	delete(a.nodes, id)
	if a.rootID == id {
		a.rootID = ""
	}
}

// RemoveEdge deletes the edge with the given id.
func (a *Automaton) RemoveEdge(id string) {
	e := a.edges[id]
	if e == nil {
		return
	}
	if n := a.nodes[e.from]; n != nil {
		delete(n.out, id)
	}
	if n := a.nodes[e.to]; n != nil {
		delete(n.in, id)
	}
	delete(a.edges, id)
}

// Resolve returns the id of the node that currently stands for id. It is id
// itself unless that node was merged away.
func (a *Automaton) Resolve(id string) string {
	root := id
	for {
		next, ok := a.aliases[root]
		if !ok {
			break
		}
		root = next
	}
	// compress the chain
	for id != root {
		next := a.aliases[id]
		a.aliases[id] = root
		id = next
	}
	return root
}

// MergeNodes folds every node in rest into primary. Edges incident to the
// merged nodes are redirected onto primary, which may produce self-loops.
// Start and terminal markers move to primary, and primary becomes the root if
// any merged node was the root.
func (a *Automaton) MergeNodes(primary string, rest ...string) error {
	p := a.nodes[a.Resolve(primary)]
	if p == nil {
		return fmt.Errorf("%w: merge target %q", ErrInvalidReference, primary)
	}
	for _, id := range rest {
		id = a.Resolve(id)
		if id == p.ID {
			continue
		}
		n := a.nodes[id]
		if n == nil {
			return fmt.Errorf("%w: merged node %q", ErrInvalidReference, id)
		}
		for eid, e := range n.out {
			e.from = p.ID
			p.out[eid] = e
		}
		for eid, e := range n.in {
			e.to = p.ID
			p.in[eid] = e
		}
		if n.Meta.Start || a.rootID == n.ID {
			p.Meta.Start = true
			a.rootID = p.ID
		}
		p.Meta.Terminal = MergeTerminal(p.Meta.Terminal, n.Meta.Terminal)
		delete(a.nodes, id)
		a.aliases[id] = p.ID
	}
	return nil
}

// AddGraph copies every node and edge of other into a under fresh ids and
// merges the copy of other's root into the node mergeOn. other is not
// modified.
func (a *Automaton) AddGraph(other *Automaton, mergeOn string) error {
	target := a.Resolve(mergeOn)
	if a.nodes[target] == nil {
		return fmt.Errorf("%w: splice point %q", ErrInvalidReference, mergeOn)
	}
	if other.Root() == nil {
		return fmt.Errorf("%w: spliced automaton %q has no root", ErrInvalidReference, other.id)
	}
	ids := make(map[string]string, len(other.nodes))
	for _, n := range other.Nodes() {
		meta := n.Meta
		meta.Start = false
		ids[n.ID] = a.AddNode("", n.Label, meta).ID
	}
	for _, e := range other.Edges() {
		if _, err := a.AddEdge("", e.Label, ids[e.from], ids[e.to]); err != nil {
			return err
		}
	}
	return a.MergeNodes(target, ids[other.rootID])
}

// Clone returns an independent deep copy with the same ids and root.
func (a *Automaton) Clone() *Automaton {
	c := New(a.id)
	for _, n := range a.Nodes() {
		c.nodes[n.ID] = &Node{
			ID:    n.ID,
			Label: n.Label,
			Meta:  n.Meta,
			seq:   n.seq,
			in:    make(map[string]*Edge),
			out:   make(map[string]*Edge),
		}
	}
	for _, e := range a.Edges() {
		ce := &Edge{ID: e.ID, Label: e.Label, from: e.from, to: e.to, seq: e.seq}
		c.edges[e.ID] = ce
		c.log = append(c.log, ce)
		c.nodes[e.from].out[e.ID] = ce
		c.nodes[e.to].in[e.ID] = ce
	}
	for from, to := range a.aliases {
		c.aliases[from] = to
	}
	c.rootID = a.rootID
	c.nextNodeID = a.nextNodeID
	c.nextEdgeID = a.nextEdgeID
	c.seq = a.seq
	return c
}

// Trim deletes every node that cannot be reached from the root.
func (a *Automaton) Trim() {
	root := a.Root()
	if root == nil {
		return
	}
	visited := map[string]bool{}
	stack := []*Node{root}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current.ID] {
			continue
		}
		visited[current.ID] = true
		for _, e := range current.out {
			if !visited[e.to] {
				stack = append(stack, a.nodes[e.to])
			}
		}
	}
	for id := range a.nodes {
		if !visited[id] {
			a.RemoveNode(id)
		}
	}
}

// RelabelEdge renames every edge labelled oldLabel.
func (a *Automaton) RelabelEdge(oldLabel, newLabel string) {
	for _, e := range a.edges {
		if e.Label == oldLabel {
			e.Label = newLabel
		}
	}
}

// LabelEdges prefixes every observable edge label with prefix and a dot.
// Reserved labels are left alone.
func (a *Automaton) LabelEdges(prefix string) {
	for _, e := range a.edges {
		if !IsReserved(e.Label) {
			e.Label = prefix + "." + e.Label
		}
	}
}

// RemoveDuplicateEdges keeps the earliest of every group of edges sharing
// source, target and label.
func (a *Automaton) RemoveDuplicateEdges() {
	seen := make(map[string]bool)
	for _, e := range a.Edges() {
		key := e.from + "\x00" + e.to + "\x00" + e.Label
		if seen[key] {
			a.RemoveEdge(e.ID)
			continue
		}
		seen[key] = true
	}
}

// Alphabet returns the distinct edge labels, sorted.
func (a *Automaton) Alphabet() []string {
	set := a.AlphabetSet()
	alphabet := make([]string, 0, len(set))
	for label := range set {
		alphabet = append(alphabet, label)
	}
	sort.Strings(alphabet)
	return alphabet
}

// AlphabetSet returns the distinct edge labels as a set.
func (a *Automaton) AlphabetSet() map[string]bool {
	set := make(map[string]bool)
	for _, e := range a.edges {
		set[e.Label] = true
	}
	return set
}

// EdgeMark returns a position in the automaton's history. Edges added after
// it are returned by EdgesSince.
func (a *Automaton) EdgeMark() uint64 { return a.seq }

// EdgesSince returns the edges added after mark that are still present, in
// insertion order. It costs the number of edges added since mark.
func (a *Automaton) EdgesSince(mark uint64) []*Edge {
	i := sort.Search(len(a.log), func(i int) bool { return a.log[i].seq > mark })
	var edges []*Edge
	for _, e := range a.log[i:] {
		if a.edges[e.ID] == e {
			edges = append(edges, e)
		}
	}
	return edges
}
