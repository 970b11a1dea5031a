package sexp

import "bytes"

// unescape decodes the body of a quoted atom (input must not include the
// opening quote) up to and including its closing unescaped quote, writing
// decoded bytes into output. It returns the number of input bytes consumed
// (including the closing quote) and the number of output bytes written.
// ok is false on a malformed escape (ErrBadQuotedAtom) or if input ends
// before a closing quote is found.
//
// Ported from original_source's escape.rs GenericUnescape::unescape: scan
// for the next quote-or-backslash, copy the literal run preceding it, then
// special-case the two delimiters.
func unescape(input, output []byte) (inputConsumed, outputLen int, ok bool) {
	ii, oi := 0, 0
	for {
		rest := input[ii:]
		idx := bytes.IndexAny(rest, "\"\\")
		if idx < 0 {
			return 0, 0, false
		}
		copy(output[oi:], rest[:idx])
		ii += idx
		oi += idx

		switch input[ii] {
		case '\\':
			ii++
			if ii >= len(input) {
				return 0, 0, false
			}
			switch ch := input[ii]; {
			case ch == '"' || ch == '\'' || ch == '\\':
				output[oi] = ch
				ii++
				oi++
			case ch == 'b':
				output[oi] = 0x07
				ii++
				oi++
			case ch == 'n':
				output[oi] = '\n'
				ii++
				oi++
			case ch == 'r':
				output[oi] = '\r'
				ii++
				oi++
			case ch == 't':
				output[oi] = '\t'
				ii++
				oi++
			case ch == 'x':
				if ii+3 > len(input) {
					return 0, 0, false
				}
				d1, ok1 := hexDigit(input[ii+1])
				d2, ok2 := hexDigit(input[ii+2])
				if !ok1 || !ok2 {
					return 0, 0, false
				}
				output[oi] = d1*16 + d2
				ii += 3
				oi++
			case ch >= '0' && ch <= '9':
				if ii+3 > len(input) {
					return 0, 0, false
				}
				d1, ok1 := decDigit(input[ii])
				d2, ok2 := decDigit(input[ii+1])
				d3, ok3 := decDigit(input[ii+2])
				if !ok1 || !ok2 || !ok3 {
					return 0, 0, false
				}
				v := int(d1)*100 + int(d2)*10 + int(d3)
				if v > 255 {
					return 0, 0, false
				}
				output[oi] = byte(v)
				ii += 3
				oi++
			default:
				// Unknown escape: emit a literal backslash and rescan ch
				// as an ordinary byte (it is not consumed here).
				output[oi] = '\\'
				oi++
			}
		case '"':
			return ii + 1, oi, true
		}
	}
}

func hexDigit(ch byte) (byte, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0', true
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10, true
	case ch >= 'A' && ch <= 'F':
		return ch - 'A' + 10, true
	default:
		return 0, false
	}
}

func decDigit(ch byte) (byte, bool) {
	if ch >= '0' && ch <= '9' {
		return ch - '0', true
	}
	return 0, false
}

// needsEscaping reports whether an atom's raw bytes cannot be emitted as a
// naked atom and must instead be quoted and escaped (SPEC_FULL.md §4.D
// "Escape-for-output"), ported from escape.rs's IsNecessary.
func needsEscaping(atom []byte) bool {
	if len(atom) == 0 {
		return true
	}
	for i, ch := range atom {
		switch {
		case ch == ' ', ch == '\t', ch == '\n', ch == '(', ch == ')', ch == '"', ch == ';', ch == '\\':
			return true
		case ch <= 0x1F, ch >= 0x80:
			return true
		}
		if i+1 < len(atom) {
			bigram := atom[i : i+2]
			if bytes.Equal(bigram, []byte("#|")) || bytes.Equal(bigram, []byte("|#")) {
				return true
			}
		}
	}
	return false
}

// writeEscaped writes atom to dst as the body of a quoted string (without
// the surrounding quotes), escaping it per the inverse of unescape.
func writeEscaped(dst *bytes.Buffer, atom []byte) {
	for _, ch := range atom {
		switch {
		case ch == '"':
			dst.WriteString(`\"`)
		case ch == '\\':
			dst.WriteString(`\\`)
		case ch == 0x07:
			dst.WriteString(`\b`)
		case ch == '\n':
			dst.WriteString(`\n`)
		case ch == '\r':
			dst.WriteString(`\r`)
		case ch == '\t':
			dst.WriteString(`\t`)
		case ch <= 0x1F || ch >= 0x80:
			dst.WriteByte('\\')
			dst.WriteByte('0' + ch/100)
			dst.WriteByte('0' + (ch/10)%10)
			dst.WriteByte('0' + ch%10)
		default:
			dst.WriteByte(ch)
		}
	}
}
