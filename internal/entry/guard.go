// Package entry implements the amount-entry guard used by interactive
// clients. It runs in two stages: an incremental filter applied on every
// edit, which tolerates partially-typed decimals ("12.", ".", "") so the
// user is not shouted at mid-keystroke, and a stricter commit check applied
// on submit. Both stages accept full-width digits and the full-width full
// stop alongside their ASCII forms.
package entry

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("amount is not a valid number")
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

// fullWidthPoint is the CJK full stop accepted as a decimal separator.
const fullWidthPoint = '．' // U+FF0E

// Field is an in-progress amount buffer. A rejected edit leaves the buffer
// untouched (the last valid text stays visible) and records an inline
// error; the next accepted edit clears it. The zero value is ready to use.
// Field is not safe for concurrent use; it belongs to a single input loop.
type Field struct {
	buf string
	err error
}

// Input offers a new candidate buffer, as produced by a keystroke or an
// edit. It reports whether the text was accepted.
func (f *Field) Input(text string) bool {
	if !ValidPartial(text) {
		f.err = ErrInvalidAmount
		return false
	}
	f.buf = text
	f.err = nil
	return true
}

// Text returns the current (always valid-partial) buffer.
func (f *Field) Text() string {
	return f.buf
}

// Err returns the inline error from the last rejected edit, or nil.
func (f *Field) Err() error {
	return f.err
}

// Reset clears the buffer and any inline error.
func (f *Field) Reset() {
	f.buf = ""
	f.err = nil
}

// Commit validates the buffer as a final amount and returns its numeric
// value. Unlike the server-side record validator, which accepts zero, the
// commit stage requires a strictly positive value.
func (f *Field) Commit() (float64, error) {
	return Commit(f.buf)
}

// ValidPartial reports whether s is an acceptable in-progress amount:
// zero or more digits, at most one decimal separator, zero or more digits.
// The empty string is valid.
func ValidPartial(s string) bool {
	seenPoint := false
	for _, r := range s {
		switch {
		case unicode.IsNumber(r):
		case r == '.' || r == fullWidthPoint:
			if seenPoint {
				return false
			}
			seenPoint = true
		default:
			return false
		}
	}
	return true
}

// Commit parses a final amount string. It requires at least one digit
// ("12", "12.", ".5") and a value strictly greater than zero.
func Commit(s string) (float64, error) {
	if !ValidPartial(s) {
		return 0, ErrInvalidAmount
	}
	norm := normalize(s)
	if !strings.ContainsAny(norm, "0123456789") {
		// Empty buffer or a lone separator.
		return 0, ErrInvalidAmount
	}
	dec, err := decimal.NewFromString(strings.TrimSuffix(norm, "."))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if dec.Sign() <= 0 {
		return 0, ErrNonPositiveAmount
	}
	v, _ := dec.Float64()
	return v, nil
}

// normalize maps full-width digits and the full-width point to ASCII so
// the buffer can be parsed and posted as a plain decimal string.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '０' && r <= '９':
			b.WriteRune('0' + (r - '０'))
		case r == fullWidthPoint:
			b.WriteByte('.')
		case unicode.IsNumber(r):
			if d := digitValue(r); d >= 0 {
				b.WriteRune('0' + rune(d))
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// digitValue returns the decimal value of any Unicode decimal digit,
// or -1 for non-digit number runes (fractions, roman numerals).
func digitValue(r rune) int {
	if '0' <= r && r <= '9' {
		return int(r - '0')
	}
	// Decimal digit blocks place their zero at a multiple-of-ten offset.
	if unicode.Is(unicode.Nd, r) {
		for _, r16 := range unicode.Nd.R16 {
			if uint32(r) >= uint32(r16.Lo) && uint32(r) <= uint32(r16.Hi) {
				return int((uint32(r) - uint32(r16.Lo)) % 10)
			}
		}
		for _, r32 := range unicode.Nd.R32 {
			if uint32(r) >= r32.Lo && uint32(r) <= r32.Hi {
				return int((uint32(r) - r32.Lo) % 10)
			}
		}
	}
	return -1
}
