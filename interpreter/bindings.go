package interpreter

import (
	"fmt"
	"regexp"

	"github.com/meikuraledutech/automata"
	"github.com/meikuraledutech/automata/ast"
)

// placeholder matches "$x" and "$<x>".
var placeholder = regexp.MustCompile(`\$(?:<([A-Za-z0-9_]+)>|([A-Za-z0-9_]+))`)

// substitute replaces every placeholder in s with its binding. Bound values
// may contain placeholders themselves; substitution repeats until none are
// left.
func (in *Interpreter) substitute(s string, pos automata.Position) (string, error) {
	for depth := 0; placeholder.MatchString(s); depth++ {
		if depth > len(in.bindings) {
			return "", fmt.Errorf("%w: cyclic binding in %q at %s", automata.ErrUndefinedIdentifier, s, pos)
		}
		var missing string
		s = placeholder.ReplaceAllStringFunc(s, func(match string) string {
			sub := placeholder.FindStringSubmatch(match)
			name := sub[1]
			if name == "" {
				name = sub[2]
			}
			v, ok := in.bindings[name]
			if !ok {
				if missing == "" {
					missing = name
				}
				return match
			}
			return v
		})
		if missing != "" {
			return "", fmt.Errorf("%w: variable $%s at %s", automata.ErrUndefinedIdentifier, missing, pos)
		}
	}
	return s, nil
}

// withBindings runs fn with the given variables bound, restoring the
// previous bindings afterwards.
func (in *Interpreter) withBindings(vars map[string]string, fn func() error) error {
	type saved struct {
		value string
		ok    bool
	}
	previous := make(map[string]saved, len(vars))
	for k, v := range vars {
		old, ok := in.bindings[k]
		previous[k] = saved{old, ok}
		in.bindings[k] = v
	}
	defer func() {
		for k, s := range previous {
			if s.ok {
				in.bindings[k] = s.value
			} else {
				delete(in.bindings, k)
			}
		}
	}()
	return fn()
}

func (in *Interpreter) relabelPairs(pairs []ast.Relabel) ([]ast.Relabel, error) {
	resolved := make([]ast.Relabel, 0, len(pairs))
	for _, r := range pairs {
		oldLabel, err := in.substitute(r.Old, automata.Position{})
		if err != nil {
			return nil, err
		}
		newLabel, err := in.substitute(r.New, automata.Position{})
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, ast.Relabel{Old: oldLabel, New: newLabel})
	}
	return resolved, nil
}

// hide renames the hidden labels of alphabet to tau through relabel.
// Reserved labels are never hidden.
func (in *Interpreter) hide(alphabet []string, relabel func(oldLabel, newLabel string), h *ast.Hiding) error {
	if h == nil {
		return nil
	}
	set := make(map[string]bool, len(h.Set))
	for _, label := range h.Set {
		resolved, err := in.substitute(label, automata.Position{})
		if err != nil {
			return err
		}
		set[resolved] = true
	}

	var hidden []string
	switch h.Mode {
	case ast.Includes:
		for _, label := range alphabet {
			if set[label] {
				hidden = append(hidden, label)
			}
		}
	case ast.Excludes:
		for _, label := range alphabet {
			if !set[label] {
				hidden = append(hidden, label)
			}
		}
	default:
		return fmt.Errorf("%w: hiding mode %q", automata.ErrUnsupportedConstruct, h.Mode)
	}
	for _, label := range hidden {
		if !automata.IsReserved(label) {
			relabel(label, automata.Tau)
		}
	}
	return nil
}
