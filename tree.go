package sexp

// Sexp is an in-memory s-expression, either an atom or a list of Sexps.
// Ported from original_source's rust_parser.rs Sexp enum (Go's lack of
// sum types means an interface with a private marker method instead).
type Sexp interface {
	isSexp()
}

// Atom is a naked or unescaped-quoted atom's bytes.
type Atom []byte

func (Atom) isSexp() {}

// List is an ordered sequence of sub-forms.
type List []Sexp

func (List) isSexp() {}

// treeContext accumulates the children of one open list until its
// matching close.
type treeContext struct {
	children []Sexp
}

// TreeBuilder is a Visitor that builds a Sexp forest (one Sexp per
// top-level form) in memory, mirroring original_source's SexpFactory
// adapter.
type TreeBuilder struct {
	forms []Sexp
}

// NewTreeBuilder returns a TreeBuilder ready to visit one segment.
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{}
}

func (t *TreeBuilder) BOF(sizeHint int) {
	t.forms = t.forms[:0]
}

func (t *TreeBuilder) AtomReserve(lengthUpperBound int) []byte {
	return make([]byte, lengthUpperBound)
}

func (t *TreeBuilder) Atom(atom []byte, _ bool, parent *treeContext) {
	a := Atom(append([]byte(nil), atom...))
	if parent == nil {
		t.forms = append(t.forms, a)
		return
	}
	parent.children = append(parent.children, a)
}

func (t *TreeBuilder) ListOpen(_ *treeContext) treeContext {
	return treeContext{}
}

func (t *TreeBuilder) ListClose(ctx treeContext, parent *treeContext) {
	l := List(ctx.children)
	if parent == nil {
		t.forms = append(t.forms, l)
		return
	}
	parent.children = append(parent.children, l)
}

// EOF returns the top-level forms parsed so far.
func (t *TreeBuilder) EOF() []Sexp {
	return t.forms
}
