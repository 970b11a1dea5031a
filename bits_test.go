package sexp

import (
	"math/bits"
	"testing"
)

func TestClmul(t *testing.T) {
	tests := []struct {
		name string
		in   uint64
		want uint64
	}{
		{"zero", 0, 0},
		{"single low bit", 1, ^uint64(0)},
		{"single high bit", 1 << 63, 1 << 63},
		{"two adjacent bits", 0b11, 0b01},
		{"alternating", 0xAAAAAAAAAAAAAAAA, 0x6666666666666666},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clmul(tt.in); got != tt.want {
				t.Errorf("clmul(%#x) = %#x, want %#x", tt.in, got, tt.want)
			}
		})
	}
}

func TestClmulIsPrefixXor(t *testing.T) {
	// clmul(x) bit i must equal the running XOR (parity) of x's bits 0..=i.
	for _, x := range []uint64{0, 1, 0x5, 0xFF00FF00, ^uint64(0), 0x123456789ABCDEF0} {
		var want uint64
		parity := false
		for i := 0; i < 64; i++ {
			if x&(1<<uint(i)) != 0 {
				parity = !parity
			}
			if parity {
				want |= 1 << uint(i)
			}
		}
		if got := clmul(x); got != want {
			t.Errorf("clmul(%#x) = %#x, want %#x", x, got, want)
		}
	}
}

func TestXorMaskedAdjacent(t *testing.T) {
	tests := []struct {
		name           string
		bitsIn, mask   uint64
		loFill         bool
		want           uint64
	}{
		{"no masked bits", 0xFF, 0, false, 0},
		{"single masked bit low fill false", 0b1, 0b1, false, 0b1},
		{"single masked bit low fill true", 0b0, 0b1, true, 0b1},
		{"two masked bits both set", 0b11, 0b11, false, 0b01},
		{"two masked bits same value", 0b00, 0b11, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := xorMaskedAdjacent(tt.bitsIn, tt.mask, tt.loFill); got != tt.want {
				t.Errorf("xorMaskedAdjacent(%#b, %#b, %v) = %#b, want %#b", tt.bitsIn, tt.mask, tt.loFill, got, tt.want)
			}
		})
	}
}

func TestExtractSafeAndFastAgree(t *testing.T) {
	masks := []uint64{0, 1, 0xFF, 0xF0F0F0F0, ^uint64(0), 1 << 63, 0x8000000000000001}
	for _, m := range masks {
		safe := extractSafe(nil, m, 100)

		fastDst := make([]int, 8)
		n := extractFast(fastDst, m, 100)
		want := bits.OnesCount64(m)
		if want > 8 {
			want = 8
		}
		if n != want {
			t.Fatalf("extractFast(%#x) returned count %d, want %d", m, n, want)
		}
		for i := 0; i < n; i++ {
			if fastDst[i] != safe[i] {
				t.Errorf("extractFast(%#x)[%d] = %d, want %d", m, i, fastDst[i], safe[i])
			}
		}
	}
}

func TestRangeStartsSingle(t *testing.T) {
	// 0b0111 has one run starting at bit 0.
	if got := rangeStartsSingle(0b0111); got != 0b0001 {
		t.Errorf("rangeStartsSingle(0b0111) = %#b, want 0b0001", got)
	}
	// 0b0110_0011 has runs starting at bit 0 and bit 5.
	if got := rangeStartsSingle(0b01100011); got != 0b00100001 {
		t.Errorf("rangeStartsSingle(0b01100011) = %#b, want 0b00100001", got)
	}
}

func TestOddRangeEnds(t *testing.T) {
	tests := []struct {
		name         string
		bm           uint64
		prevOverflow bool
		wantEnds     uint64
		wantOverflow bool
	}{
		{"empty", 0, false, 0, false},
		{"single run length 1 (odd)", 0b1, false, 0b10, false},
		{"single run length 2 (even)", 0b11, false, 0, false},
		{"single run length 3 (odd)", 0b111, false, 0b1000, false},
		{"two runs, both length 1", 0b10001, false, 0b100010, false},
		{"prev overflow extends run to even", 0b1, true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ends, overflow := oddRangeEnds(tt.bm, tt.prevOverflow)
			if ends != tt.wantEnds || overflow != tt.wantOverflow {
				t.Errorf("oddRangeEnds(%#b, %v) = (%#b, %v), want (%#b, %v)",
					tt.bm, tt.prevOverflow, ends, overflow, tt.wantEnds, tt.wantOverflow)
			}
		})
	}
}

func TestOddRangeEndsCarryAcrossBlocks(t *testing.T) {
	// A run of backslashes split across two sequential 64-bit blocks (the
	// second block's bit 0 continues the first block's trailing run) must
	// produce the same nextOverflow carry as if threaded one bit at a time.
	// Block 1 ends with a run of 3 backslashes (odd); block 2 begins with
	// one more backslash, extending that run to 4 (even) before a gap.
	block1 := uint64(0b111) << 61 // bits 61,62,63 set
	_, carry := oddRangeEnds(block1, false)
	if !carry {
		t.Fatalf("block1 run of 3 should overflow (odd) into block2, got carry=false")
	}

	block2 := uint64(0b1) // bit 0 continues the run, making it length 4 (even)
	ends2, carry2 := oddRangeEnds(block2, carry)
	if ends2 != 0 {
		t.Errorf("completed even-length run should produce no end marker, got %#b", ends2)
	}
	if carry2 {
		t.Errorf("even-length run should not overflow further, got carry2=true")
	}
}

func TestRangeTransitions(t *testing.T) {
	tests := []struct {
		name   string
		bitsIn uint64
		prev   bool
		want   uint64
	}{
		{"no bits, no prev", 0, false, 0},
		{"all bits, no prev", ^uint64(0), false, 1},
		{"no bits, prev true", 0, true, 1},
		{"single low bit, no prev", 0b1, false, 0b11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rangeTransitions(tt.bitsIn, tt.prev); got != tt.want {
				t.Errorf("rangeTransitions(%#b, %v) = %#b, want %#b", tt.bitsIn, tt.prev, got, tt.want)
			}
		})
	}
}

func TestFindQuoteTransitions(t *testing.T) {
	// A single unescaped quote always toggles state and is itself the
	// transition bit.
	transitions, next := findQuoteTransitions(0b1, 0, false)
	if transitions != 0b1 || !next {
		t.Errorf("findQuoteTransitions(0b1, 0, false) = (%#b, %v), want (0b1, true)", transitions, next)
	}

	// No quotes at all: no transition, state unchanged.
	transitions, next = findQuoteTransitions(0, 0, true)
	if transitions != 0 || !next {
		t.Errorf("findQuoteTransitions(0, 0, true) = (%#b, %v), want (0, true)", transitions, next)
	}
}
