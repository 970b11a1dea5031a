package sexp

import "io"

type selectState int

const (
	selectStart selectState = iota
	selectNext
	selectSelected
	selectIgnore
)

// selectorContext is one parse-stack frame's state in the key-selector
// state machine (SPEC_FULL.md §4.E.1), ported from original_source's
// select.rs SelectStage2Context enum {Start, SelectNext, Selected,
// Ignore}.
type selectorContext struct {
	state selectState
	keyID int
	value []byte
}

// Selector implements Visitor to extract values keyed by an atom
// immediately preceding them within the same list, emitting one line per
// top-level form that contains at least one match.
//
// Transition rules (ported verbatim from select.rs, including the
// decided-unresolved quoted-atom case — see DESIGN.md):
//   - Start + atom: known key -> SelectNext(id); else -> Ignore.
//   - Start + list-open: -> Ignore.
//   - SelectNext(k) + naked atom: -> Selected(k, value).
//   - SelectNext(k) + quoted atom or list-open: -> Ignore.
//   - Selected + anything: -> Ignore.
type Selector struct {
	keys    map[string]int
	keyName []string
	labeled bool
	w       io.Writer
	err     error

	depth   int
	pending []selectedMatch
}

type selectedMatch struct {
	keyID int
	value []byte
}

// NewSelector returns a Selector that writes matches to w. In labeled mode
// each match is emitted as (key value); in unlabeled mode only the value
// is emitted.
func NewSelector(keys []string, labeled bool, w io.Writer) *Selector {
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		m[k] = i
	}
	return &Selector{
		keys:    m,
		keyName: append([]string(nil), keys...),
		labeled: labeled,
		w:       w,
	}
}

func (s *Selector) BOF(int) {
	s.depth = 0
	s.pending = s.pending[:0]
}

func (s *Selector) AtomReserve(lengthUpperBound int) []byte {
	return make([]byte, lengthUpperBound)
}

func (s *Selector) Atom(atom []byte, quoted bool, parent *selectorContext) {
	if parent == nil {
		return
	}
	switch parent.state {
	case selectStart:
		if id, ok := s.keys[string(atom)]; ok {
			parent.state = selectNext
			parent.keyID = id
		} else {
			parent.state = selectIgnore
		}
	case selectNext:
		if quoted {
			parent.state = selectIgnore
		} else {
			parent.state = selectSelected
			parent.value = append([]byte(nil), atom...)
		}
	default:
		parent.state = selectIgnore
	}
}

func (s *Selector) ListOpen(parent *selectorContext) selectorContext {
	s.depth++
	if parent != nil {
		parent.state = selectIgnore
	}
	return selectorContext{state: selectStart}
}

func (s *Selector) ListClose(ctx selectorContext, _ *selectorContext) {
	if ctx.state == selectSelected {
		s.pending = append(s.pending, selectedMatch{keyID: ctx.keyID, value: ctx.value})
	}
	s.depth--
	if s.depth == 0 {
		s.flush()
	}
}

func (s *Selector) flush() {
	if len(s.pending) == 0 || s.err != nil {
		s.pending = s.pending[:0]
		return
	}
	var buf []byte
	buf = append(buf, '(')
	for i, m := range s.pending {
		if i > 0 {
			buf = append(buf, ' ')
		}
		if s.labeled {
			buf = append(buf, '(')
			buf = append(buf, s.keyName[m.keyID]...)
			buf = append(buf, ' ')
			buf = append(buf, m.value...)
			buf = append(buf, ')')
		} else {
			buf = append(buf, m.value...)
		}
	}
	buf = append(buf, ')', '\n')
	_, s.err = s.w.Write(buf)
	s.pending = s.pending[:0]
}

// EOF returns the first write error encountered, if any.
func (s *Selector) EOF() error {
	return s.err
}
