package ast

// Helpers for building trees in Go code.

// Seq returns the chain "a1 -> a2 -> ... -> next".
func Seq(next Node, actions ...string) Node {
	for i := len(actions) - 1; i >= 0; i-- {
		next = &Sequence{Action: actions[i], Next: next}
	}
	return next
}

func Or(left, right Node) *Choice { return &Choice{Left: left, Right: right} }

func Par(left, right Node) *Composite { return &Composite{Left: left, Right: right} }

func Apply(fn string, body Node) *Function { return &Function{Func: fn, Body: body} }

func Ref(name string) *Identifier { return &Identifier{Name: name} }

func STOP() *Terminal { return &Terminal{Kind: Stop} }

func ERROR() *Terminal { return &Terminal{Kind: Error} }

func ForEach(variable string, r Range, body Node) *Index {
	return &Index{Variable: variable, Range: r, Body: body}
}
