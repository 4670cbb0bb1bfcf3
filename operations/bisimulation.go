package operations

import (
	"sort"
	"strconv"
	"strings"

	"github.com/meikuraledutech/automata"
)

// Terminal nodes keep a fixed colour per terminal kind and are never
// refined. Every other node starts in firstColour.
const (
	stopColour = iota
	errorColour
	divergentColour
	firstColour
)

func terminalColour(t automata.TerminalKind) int {
	switch t {
	case automata.TerminalError:
		return errorColour
	case automata.TerminalDivergent:
		return divergentColour
	}
	return stopColour
}

// nodeKey identifies a node across several automata: node ids are only
// unique within their own automaton.
type nodeKey struct {
	automaton int
	id        string
}

// colouring is the stable partition of every node of a set of automata.
type colouring map[nodeKey]int

// refine runs partition refinement over all nodes of the given automata
// in one shared colour space.
func refine(processes []*automata.Automaton) colouring {
	colours := make(colouring)
	classes := 0
	for i, a := range processes {
		for _, n := range a.Nodes() {
			if n.Meta.IsTerminal() {
				colours[nodeKey{i, n.ID}] = terminalColour(n.Meta.Terminal)
				continue
			}
			colours[nodeKey{i, n.ID}] = firstColour
			classes = 1
		}
	}

	for round := 1; ; round++ {
		next := make(colouring, len(colours))
		signatures := make(map[string]int)
		for i, a := range processes {
			for _, n := range a.Nodes() {
				key := nodeKey{i, n.ID}
				if n.Meta.IsTerminal() {
					next[key] = colours[key]
					continue
				}
				sig := signature(colours, i, a, n)
				c, ok := signatures[sig]
				if !ok {
					c = firstColour + len(signatures)
					signatures[sig] = c
				}
				next[key] = c
			}
		}
		colours = next
		// The own colour is part of every signature, so classes only split
		// and an unchanged count means the partition is stable.
		if len(signatures) == classes {
			automata.Debugw("bisimulation stable", "rounds", round, "classes", classes)
			return colours
		}
		classes = len(signatures)
	}
}

// signature is the set of (own colour, action, target colour) triples of
// n's outgoing edges, rendered canonically.
func signature(colours colouring, index int, a *automata.Automaton, n *automata.Node) string {
	own := strconv.Itoa(colours[nodeKey{index, n.ID}])
	seen := make(map[string]bool)
	triples := []string{own}
	for _, e := range a.Outgoing(n.ID) {
		t := own + "\x00" + e.Label + "\x00" + strconv.Itoa(colours[nodeKey{index, e.To()}])
		if !seen[t] {
			seen[t] = true
			triples = append(triples, t)
		}
	}
	sort.Strings(triples[1:])
	return strings.Join(triples, "\x01")
}

// Minimise returns a copy of a in which bisimilar states are merged and
// duplicate edges removed. a is not modified.
func Minimise(a *automata.Automaton) *automata.Automaton {
	reduced := a.Clone()
	colours := refine([]*automata.Automaton{reduced})

	groups := make(map[int][]string)
	var order []int
	for _, n := range reduced.Nodes() {
		c := colours[nodeKey{0, n.ID}]
		if _, ok := groups[c]; !ok {
			order = append(order, c)
		}
		groups[c] = append(groups[c], n.ID)
	}
	for _, c := range order {
		ids := groups[c]
		if len(ids) < 2 {
			continue
		}
		// every id is a live node of reduced
		_ = reduced.MergeNodes(ids[0], ids[1:]...)
	}
	reduced.RemoveDuplicateEdges()

	automata.Debugw("minimised automaton", "id", a.ID(),
		"states", a.NodeCount(), "reduced", reduced.NodeCount())
	return reduced
}

// Bisimilar reports whether the roots of all given automata end up in the
// same colour class. The automata are not modified. An automaton without a
// root is only bisimilar to other empty automata.
func Bisimilar(processes ...*automata.Automaton) bool {
	if len(processes) < 2 {
		return true
	}
	colours := refine(processes)
	rootColour := func(i int) int {
		if processes[i].Root() == nil {
			return -1
		}
		return colours[nodeKey{i, processes[i].RootID()}]
	}
	want := rootColour(0)
	for i := 1; i < len(processes); i++ {
		if rootColour(i) != want {
			return false
		}
	}
	return true
}
