package sexp

import (
	"io"
)

// indicesBufferMaxLen is the initial capacity of a Parser's structural-index
// buffer. How many indices are gathered per batch is set by
// ParserOptions.BatchSize. Neither limits nesting depth or atom size, only
// the work done per Classify call.
const indicesBufferMaxLen = 8192

// Parser is the Stage 2 event driver: it pulls structural indices from a
// Classifier and dispatches pairs of them against a Visitor, maintaining
// the bounded parse stack and the partial-buffering window described in
// SPEC_FULL.md §4.D. It is grounded on original_source's parser.rs State.
type Parser[C any, R any] struct {
	visitor Visitor[C, R]
	opts    ParserOptions
	segment SegmentIndex

	classifier *Classifier
	stack      []C

	input           []byte
	inputStartIndex int // absolute offset input[0] corresponds to
	inputIndex      int // absolute offset of the next byte not yet classified
	indices         []int
}

// NewParser returns a Parser for the entire input (SegmentIndex EntireFile).
func NewParser[C any, R any](visitor Visitor[C, R], opts ParserOptions) *Parser[C, R] {
	return newSegmentParser(visitor, opts, EntireFile)
}

func newSegmentParser[C any, R any](visitor Visitor[C, R], opts ParserOptions, segment SegmentIndex) *Parser[C, R] {
	opts = opts.withDefaults()
	return &Parser[C, R]{
		visitor:    visitor,
		opts:       opts,
		segment:    segment,
		classifier: NewClassifier(),
		indices:    make([]int, 0, indicesBufferMaxLen),
	}
}

func (p *Parser[C, R]) reset(sizeHint int) {
	p.visitor.BOF(sizeHint)
	p.classifier.Reset()
	p.stack = p.stack[:0]
	p.input = p.input[:0]
	p.inputStartIndex = 0
	p.inputIndex = 0
	p.indices = p.indices[:0]
}

func (p *Parser[C, R]) errAt(offset int, err error) error {
	return &ParseError{Offset: int64(offset), Segment: p.segment, Err: err}
}

// ParseBytes parses the entirety of input in one call.
func (p *Parser[C, R]) ParseBytes(input []byte) (R, error) {
	var zero R
	p.reset(len(input))

	for {
		p.classifyInto(input[p.inputIndex:])

		for i := 0; i+1 < len(p.indices); i++ {
			if _, err := p.processOne(input, 0, p.indices[i], p.indices[i+1], false); err != nil {
				return zero, err
			}
		}

		if p.inputIndex >= len(input) {
			if len(p.indices) > 0 {
				if _, err := p.processOne(input, 0, p.indices[len(p.indices)-1], len(input), true); err != nil {
					return zero, err
				}
			}
			return p.processEOF()
		}

		if len(p.indices) > 0 {
			p.indices[0] = p.indices[len(p.indices)-1]
			p.indices = p.indices[:1]
		}
	}
}

// readChunkSize is how much is read from an io.Reader per ParseReader
// iteration; unrelated to the parallel driver's chunk size.
const readChunkSize = 64 * 1024

// ParseReader parses input read incrementally from r.
func (p *Parser[C, R]) ParseReader(r io.Reader) (R, error) {
	var zero R
	p.reset(-1)

	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if perr := p.processPartial(buf[:n]); perr != nil {
				return zero, perr
			}
		}
		if err == io.EOF {
			return p.finishStreaming()
		}
		if err != nil {
			return zero, p.errAt(p.inputIndex, ioError(err))
		}
	}
}

// processPartial feeds newInput into the retained byte buffer and drains
// as many structural-index pairs as it can, sliding the window forward.
func (p *Parser[C, R]) processPartial(newInput []byte) error {
	p.input = append(p.input, newInput...)

	for {
		p.classifyInto(p.input[p.inputIndex-p.inputStartIndex:])

		keep := p.inputStartIndex
		for i := 0; i+1 < len(p.indices); i++ {
			k, err := p.processOne(p.input, p.inputStartIndex, p.indices[i], p.indices[i+1], false)
			if err != nil {
				return err
			}
			keep = k
		}

		if len(p.indices) > 0 {
			p.indices[0] = p.indices[len(p.indices)-1]
			p.indices = p.indices[:1]
		}

		if p.inputIndex-p.inputStartIndex >= len(p.input) {
			chop := keep - p.inputStartIndex
			if chop > 0 {
				copy(p.input, p.input[chop:])
				p.input = p.input[:len(p.input)-chop]
				p.inputStartIndex += chop
			}
			return nil
		}
	}
}

func (p *Parser[C, R]) finishStreaming() (R, error) {
	var zero R
	if len(p.indices) > 0 {
		eofOffset := p.inputStartIndex + len(p.input)
		if _, err := p.processOne(p.input, p.inputStartIndex, p.indices[len(p.indices)-1], eofOffset, true); err != nil {
			return zero, err
		}
	}
	return p.processEOF()
}

// classifyInto runs the classifier over rest (a suffix of the retained
// buffer starting at p.inputIndex) and appends newly-found structural
// indices to p.indices, stopping once the batch budget is reached.
func (p *Parser[C, R]) classifyInto(rest []byte) {
	p.classifier.Classify(rest, func(bitmask uint64, length int) CallbackResult {
		base := p.inputIndex
		p.indices = extractSafe(p.indices, bitmask, base)
		p.inputIndex += length
		if len(p.indices)+64 <= p.opts.BatchSize {
			return Continue
		}
		return Finish
	})
}

func (p *Parser[C, R]) processOne(input []byte, bufOffset, thisIndex, nextIndex int, isEOF bool) (int, error) {
	rel := thisIndex - bufOffset
	switch b := input[rel]; b {
	case '(':
		if len(p.stack) >= p.opts.MaxDepth {
			return 0, p.errAt(thisIndex, ErrDepthExceeded)
		}
		ctx := p.visitor.ListOpen(p.topContext())
		p.stack = append(p.stack, ctx)

	case ')':
		if len(p.stack) == 0 {
			return 0, p.errAt(thisIndex, ErrUnmatchedCloseParen)
		}
		ctx := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]
		p.visitor.ListClose(ctx, p.topContext())

	case '"':
		startIndex := thisIndex + 1
		lengthUpperBound := nextIndex - startIndex
		if lengthUpperBound < 0 {
			lengthUpperBound = 0
		}
		buf := p.visitor.AtomReserve(lengthUpperBound)
		_, n, ok := unescape(input[startIndex-bufOffset:], buf)
		if !ok {
			return 0, p.errAt(thisIndex, ErrBadQuotedAtom)
		}
		p.visitor.Atom(buf[:n], true, p.topContext())

	case ' ', '\t', '\n':
		// skip

	default:
		length := nextIndex - thisIndex
		buf := p.visitor.AtomReserve(length)
		copy(buf, input[rel:rel+length])
		p.visitor.Atom(buf[:length], false, p.topContext())
	}
	return nextIndex, nil
}

func (p *Parser[C, R]) topContext() *C {
	if len(p.stack) == 0 {
		return nil
	}
	return &p.stack[len(p.stack)-1]
}

func (p *Parser[C, R]) processEOF() (R, error) {
	var zero R
	if len(p.stack) > 0 {
		return zero, p.errAt(p.inputStartIndex+len(p.input), ErrUnmatchedOpenParen)
	}
	return p.visitor.EOF(), nil
}
