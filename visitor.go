package sexp

// Visitor is the contract Stage 2 dispatches against (SPEC_FULL.md §4.D,
// §12). Context is the per-list state a visitor wants carried from
// ListOpen to its matching ListClose (and made available to the atoms and
// nested lists in between, via the parent context passed to each call);
// Result is what EOF produces for a complete parse.
//
// This mirrors original_source's visitor.rs Visitor trait; Go generics
// stand in for its associated types.
type Visitor[Context any, Result any] interface {
	// BOF is called once before any other method, with the size of the
	// input if known (ParseReader passes -1; each ParseParallel chunk
	// passes that chunk's length).
	BOF(sizeHint int)

	// AtomReserve returns a buffer of at least lengthUpperBound bytes for
	// Stage 2 to unescape or copy an atom's bytes into. lengthUpperBound
	// is only an upper bound: a quoted atom's unescaped length is always
	// <= the quoted source length, never more.
	AtomReserve(lengthUpperBound int) []byte

	// Atom is called with the bytes of a parsed atom (a prefix of the
	// slice returned by AtomReserve, trimmed to the true length), whether
	// the source was a quoted string (vs. a naked atom), and the context
	// of its enclosing list, or nil at the top level. quoted lets a
	// visitor like the key-selector (SPEC_FULL.md §4.E.1) distinguish the
	// two without re-deriving it from content.
	Atom(atom []byte, quoted bool, parentContext *Context)

	// ListOpen is called on '(', with the enclosing list's context (nil
	// at the top level), and returns the new context for the list just
	// opened.
	ListOpen(parentContext *Context) Context

	// ListClose is called on ')', with the context returned by the
	// matching ListOpen and the enclosing list's context.
	ListClose(context Context, parentContext *Context)

	// EOF is called once, after the last top-level form, with an empty
	// context stack already verified by the caller.
	EOF() Result
}
