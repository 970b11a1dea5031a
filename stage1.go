package sexp

import (
	"golang.org/x/sys/cpu"
)

// Capabilities reports which hardware bit-manipulation instructions the
// running CPU supports. The structural classifier does not currently use
// them (see SPEC_FULL.md §10: a hardware CLMUL/BMI2 path is future work,
// gated behind goexperiment.simd being out of scope), but the probe is
// wired in now so a future vectorized Classifier can be selected through
// the same capability-probe mechanism described in spec.md §9 without
// changing any caller.
func Capabilities() (hasPCLMULQDQ, hasBMI2 bool) {
	return caps.hasPCLMULQDQ, caps.hasBMI2
}

var caps struct {
	hasPCLMULQDQ bool
	hasBMI2      bool
}

func init() {
	caps.hasPCLMULQDQ = cpu.X86.HasPCLMULQDQ
	caps.hasBMI2 = cpu.X86.HasBMI2
}

// CallbackResult tells the structural classifier's streaming loop whether
// to keep consuming input.
type CallbackResult int

const (
	Continue CallbackResult = iota
	Finish
)

// carryState is the three booleans threaded between 64-byte blocks
// within one segment (SPEC_FULL.md §3 "Carry state").
type carryState struct {
	escapeActive bool
	insideQuoted bool
	insideAtom   bool
}

// Classifier computes the structural bitmask of 64-byte blocks, threading
// carry state between calls. NewClassifier returns one in the
// segment-start carry state; the zero value has no byte classifier and
// is not usable.
type Classifier struct {
	carry    carryState
	atomTerm *byteClassifier
}

// NewClassifier returns a Classifier ready to process a new segment.
func NewClassifier() *Classifier {
	c, err := newByteClassifier(atomTerminatorAccept)
	if err != nil {
		// atomTerminatorAccept is a fixed, known-factorable 6-byte set;
		// this can only fail if that invariant is broken by an edit here.
		panic(err)
	}
	return &Classifier{atomTerm: c}
}

// Reset returns the classifier to its initial (segment-start) carry state.
func (c *Classifier) Reset() {
	c.carry = carryState{}
}

// Classify consumes input in 64-byte blocks (the last block may be
// shorter), calling f(bitmask, len) for each. f's return value controls
// whether classification continues. Over a full pass, the concatenation
// of per-block bitmasks equals the bitmask of the entire input under the
// carry state the Classifier started with.
func (c *Classifier) Classify(input []byte, f func(bitmask uint64, length int) CallbackResult) {
	for len(input) > 0 {
		n := 64
		if n > len(input) {
			n = len(input)
		}
		bitmask := c.classifyBlock(input[:n])
		if f(bitmask, n) == Finish {
			return
		}
		input = input[n:]
	}
}

// classifyBlock computes the structural bitmask for up to 64 bytes,
// updating carry state. This is the bit-parallel formulation from
// SPEC_FULL.md §4.C, built directly out of the component A primitives;
// scalarClassifyBlock below is the byte-at-a-time reference used to
// differentially test this one.
func (c *Classifier) classifyBlock(block []byte) uint64 {
	n := len(block)
	var validMask uint64
	if n >= 64 {
		validMask = ^uint64(0)
	} else {
		validMask = (uint64(1) << uint(n)) - 1
	}

	var p, q, b uint64
	for i := 0; i < n; i++ {
		switch block[i] {
		case '(', ')':
			p |= 1 << uint(i)
		case '"':
			q |= 1 << uint(i)
		case '\\':
			b |= 1 << uint(i)
		}
	}
	notAtomLike := c.atomTerm.classifyMask(block) // nonzero iff byte in {space,tab,nl,(,),"}
	l := ^notAtomLike & validMask

	escaped, escapeNext := oddRangeEnds(b, c.carry.escapeActive)
	escapedQuotes := q & escaped
	unescapedQuotes := q &^ escaped

	quoteTransitions, quoteNext := findQuoteTransitions(unescapedQuotes, escapedQuotes, c.carry.insideQuoted)

	var prevQuoteBits uint64
	if c.carry.insideQuoted {
		prevQuoteBits = ^uint64(0)
	}
	quotedAreas := (clmul(quoteTransitions) ^ prevQuoteBits) & validMask

	lPrime := l &^ quotedAreas
	atomBoundaries := rangeTransitions(lPrime, c.carry.insideAtom)

	special := (quoteTransitions & quotedAreas) | (^quotedAreas & (p | atomBoundaries))
	special &= validMask

	c.carry.escapeActive = escapeNext
	c.carry.insideQuoted = quoteNext
	c.carry.insideAtom = n > 0 && (lPrime>>uint(n-1))&1 != 0

	return special
}

// scalarClassifyBlock is the byte-at-a-time reference implementation,
// ported directly from original_source's structural.rs Generic classifier
// (the per-byte state machine tracking escape/quote_state/atom_like). It
// is bit-exact with classifyBlock and is used by stage1_test.go as a
// differential oracle, and is available for callers that want a plain
// non-bit-tricks fallback.
func scalarClassifyBlock(block []byte, carry *carryState) uint64 {
	var result uint64
	for i, ch := range block {
		quoteStateChange := ch == '"' && !(carry.insideQuoted && carry.escapeActive)
		escape := ch == '\\' && !carry.escapeActive
		var atomLike bool
		switch ch {
		case '"', ' ', '\n', '\t', '(', ')':
			atomLike = false
		default:
			atomLike = !carry.insideQuoted
		}
		paren := (ch == '(' || ch == ')') && !carry.insideQuoted

		atomLikeChange := atomLike != carry.insideAtom

		carry.escapeActive = escape
		carry.insideAtom = atomLike
		carry.insideQuoted = carry.insideQuoted != quoteStateChange

		if (carry.insideQuoted && quoteStateChange) || (!carry.insideQuoted && atomLikeChange) || paren {
			result |= 1 << uint(i)
		}
	}
	return result
}
