package sexp

import (
	"bufio"
	"bytes"
	"io"
)

// printerContext carries nothing extra per list; the printer tracks its
// own depth and spacing state directly, matching original_source's
// print.rs Stage2, which does the same rather than threading per-frame
// state through the visitor's Context.
type printerContext struct{}

// Printer implements Visitor to re-render a parsed stream as s-expression
// text (SPEC_FULL.md §6 "Pretty-printer output format"): no whitespace
// after '(' or before ')', a single space between adjacent naked atoms,
// one top-level form per line.
type Printer struct {
	w         *bufio.Writer
	needSpace bool
	depth     int
	err       error
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: bufio.NewWriter(w)}
}

func (p *Printer) BOF(sizeHint int) {
	p.needSpace = false
	p.depth = 0
}

func (p *Printer) AtomReserve(lengthUpperBound int) []byte {
	return make([]byte, lengthUpperBound)
}

// Atom re-derives, from the already-unescaped bytes, whether the atom
// must be printed quoted (escape needed) or can be printed naked —
// exactly the decision original_source's print.rs makes from its own
// unescape buffer, so a quoted atom whose contents don't actually need
// quoting comes back out unquoted.
func (p *Printer) Atom(atom []byte, _ bool, _ *printerContext) {
	if needsEscaping(atom) {
		p.write('"')
		var buf bytes.Buffer
		writeEscaped(&buf, atom)
		p.writeBytes(buf.Bytes())
		p.write('"')
		p.needSpace = false
	} else {
		if p.needSpace {
			p.write(' ')
		}
		p.writeBytes(atom)
		p.needSpace = true
	}
	if p.depth == 0 {
		p.write('\n')
		p.needSpace = false
	}
}

func (p *Printer) ListOpen(_ *printerContext) printerContext {
	p.write('(')
	p.depth++
	p.needSpace = false
	return printerContext{}
}

func (p *Printer) ListClose(_ printerContext, _ *printerContext) {
	p.write(')')
	p.depth--
	p.needSpace = false
	if p.depth == 0 {
		p.write('\n')
	}
}

// EOF flushes the underlying writer and returns the first write error
// encountered, if any.
func (p *Printer) EOF() error {
	if p.err == nil {
		p.err = p.w.Flush()
	}
	return p.err
}

func (p *Printer) write(b byte) {
	if p.err != nil {
		return
	}
	p.err = p.w.WriteByte(b)
}

func (p *Printer) writeBytes(b []byte) {
	if p.err != nil {
		return
	}
	_, p.err = p.w.Write(b)
}
