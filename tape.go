package sexp

// Tape is a flat (opcodes, arena) encoding of a parsed s-expression
// forest (SPEC_FULL.md §3, GLOSSARY "Tape"):
//
//	atom:  <len*2>      <offset into Atoms>
//	list:  <n*2+1>      n opcode words follow, holding the list's sub-forms
//
// Ported from original_source's parser.rs Tape/TapeVisitor.
type Tape struct {
	Ops   []uint32
	Atoms []byte
}

// tapeContext records where in Ops the currently-open list's length
// opcode lives, so ListClose can patch it in once the list's contents
// are known.
type tapeContext struct {
	opsStartIndex int
}

// TapeBuilder is a Visitor that encodes a parsed stream directly into a
// Tape, with no intermediate tree allocation.
type TapeBuilder struct {
	tape              Tape
	pendingAtomsStart int
}

// NewTapeBuilder returns a TapeBuilder ready to visit one segment.
func NewTapeBuilder() *TapeBuilder {
	return &TapeBuilder{}
}

func (t *TapeBuilder) BOF(sizeHint int) {
	t.tape = Tape{}
}

func (t *TapeBuilder) AtomReserve(lengthUpperBound int) []byte {
	atomsStart := len(t.tape.Atoms)
	t.tape.Ops = append(t.tape.Ops, 0, uint32(atomsStart))
	t.tape.Atoms = append(t.tape.Atoms, make([]byte, lengthUpperBound)...)
	t.pendingAtomsStart = atomsStart
	return t.tape.Atoms[atomsStart : atomsStart+lengthUpperBound]
}

func (t *TapeBuilder) Atom(atom []byte, _ bool, _ *tapeContext) {
	length := len(atom)
	t.tape.Ops[len(t.tape.Ops)-2] = uint32(length * 2)
	t.tape.Atoms = t.tape.Atoms[:t.pendingAtomsStart+length]
}

func (t *TapeBuilder) ListOpen(_ *tapeContext) tapeContext {
	start := len(t.tape.Ops)
	t.tape.Ops = append(t.tape.Ops, 0)
	return tapeContext{opsStartIndex: start}
}

func (t *TapeBuilder) ListClose(ctx tapeContext, _ *tapeContext) {
	n := uint32((len(t.tape.Ops)-ctx.opsStartIndex-1)*2 + 1)
	t.tape.Ops[ctx.opsStartIndex] = n
}

// EOF returns the completed Tape.
func (t *TapeBuilder) EOF() Tape {
	return t.tape
}

// Walk replays a Tape's opcodes against any Visitor, in the same order
// the original parse produced them. It is the Tape analogue of
// original_source's impl ReadVisitable for Tape.
func Walk[C any, R any](t *Tape, sizeHint int, v Visitor[C, R]) R {
	v.BOF(sizeHint)

	var stack []C
	var listEnds []int

	i := 0
	for i < len(t.Ops) {
		x := t.Ops[i]
		i++
		isAtom := x%2 == 0
		length := int(x / 2)

		var parent *C
		if len(stack) > 0 {
			parent = &stack[len(stack)-1]
		}

		if isAtom {
			y := int(t.Ops[i])
			i++
			v.Atom(t.Atoms[y:y+length], false, parent)
		} else {
			ctx := v.ListOpen(parent)
			stack = append(stack, ctx)
			listEnds = append(listEnds, i+length)
		}

		for len(listEnds) > 0 && listEnds[len(listEnds)-1] == i {
			listEnds = listEnds[:len(listEnds)-1]
			ctx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			var grandparent *C
			if len(stack) > 0 {
				grandparent = &stack[len(stack)-1]
			}
			v.ListClose(ctx, grandparent)
		}
	}

	return v.EOF()
}
