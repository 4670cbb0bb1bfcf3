package ast

import (
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/automata"
)

// Wire names of the node kinds, carried in each node's "type" field.
const (
	TypeSequence   = "sequence"
	TypeChoice     = "choice"
	TypeComposite  = "composite"
	TypeFunction   = "function"
	TypeIdentifier = "identifier"
	TypeIndex      = "index"
	TypeTerminal   = "terminal"
	TypeProcess    = "process"
)

// rawNode is the union of every node kind's wire fields.
type rawNode struct {
	Type string `json:"type"`
	Annotations

	Action   string          `json:"action"`
	Next     json.RawMessage `json:"next"`
	Left     json.RawMessage `json:"left"`
	Right    json.RawMessage `json:"right"`
	Func     string          `json:"func"`
	Body     json.RawMessage `json:"body"`
	Ident    string          `json:"ident"`
	Variable string          `json:"variable"`
	Range    Range           `json:"range"`
	Terminal string          `json:"terminal"`
}

// DecodeProgram parses the JSON form of a program.
func DecodeProgram(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	return &p, nil
}

// DecodeNode parses the JSON form of a single node. A node whose "type" is
// not one of the known kinds fails with *automata.NodeKindError.
func DecodeNode(data []byte) (Node, error) {
	return decodeNode(data, automata.Position{})
}

func decodeNode(data json.RawMessage, parent automata.Position) (Node, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, &automata.NodeKindError{Pos: parent}
	}
	var r rawNode
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	var err error
	switch r.Type {
	case TypeSequence:
		n := &Sequence{Annotations: r.Annotations, Action: r.Action}
		n.Next, err = decodeNode(r.Next, r.Pos)
		return n, err
	case TypeChoice:
		n := &Choice{Annotations: r.Annotations}
		if n.Left, err = decodeNode(r.Left, r.Pos); err != nil {
			return nil, err
		}
		n.Right, err = decodeNode(r.Right, r.Pos)
		return n, err
	case TypeComposite:
		n := &Composite{Annotations: r.Annotations}
		if n.Left, err = decodeNode(r.Left, r.Pos); err != nil {
			return nil, err
		}
		n.Right, err = decodeNode(r.Right, r.Pos)
		return n, err
	case TypeFunction:
		n := &Function{Annotations: r.Annotations, Func: r.Func}
		n.Body, err = decodeNode(r.Body, r.Pos)
		return n, err
	case TypeIdentifier:
		return &Identifier{Annotations: r.Annotations, Name: r.Ident}, nil
	case TypeIndex:
		n := &Index{Annotations: r.Annotations, Variable: r.Variable, Range: r.Range}
		n.Body, err = decodeNode(r.Body, r.Pos)
		return n, err
	case TypeTerminal:
		return &Terminal{Annotations: r.Annotations, Kind: r.Terminal}, nil
	case TypeProcess:
		return &Nested{Annotations: r.Annotations, Ident: r.Ident}, nil
	}
	pos := r.Pos
	if pos.Line == 0 {
		pos = parent
	}
	return nil, &automata.NodeKindError{Kind: r.Type, Pos: pos}
}

// UnmarshalJSON decodes the definition and its body.
func (d *Definition) UnmarshalJSON(data []byte) error {
	type plain Definition
	aux := struct {
		*plain
		Body json.RawMessage `json:"body"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	body, err := decodeNode(aux.Body, d.Pos)
	if err != nil {
		return fmt.Errorf("process %s: %w", d.Ident, err)
	}
	d.Body = body
	return nil
}

// UnmarshalJSON decodes the local definition and its body.
func (l *LocalDefinition) UnmarshalJSON(data []byte) error {
	type plain LocalDefinition
	aux := struct {
		*plain
		Body json.RawMessage `json:"body"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	body, err := decodeNode(aux.Body, l.Pos)
	if err != nil {
		return fmt.Errorf("local process %s: %w", l.Ident, err)
	}
	l.Body = body
	return nil
}
