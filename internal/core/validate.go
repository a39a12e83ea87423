// Package core holds the expense record domain model and its validation
// rules. Validation is a pure function over untrusted input: it reports
// every violated field, not just the first, and normalizes the payload so
// that every optional field is either a typed value or an explicit nil.
package core

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Error codes surfaced to clients in validation responses.
const (
	CodeInvalidAmount = "InvalidAmount"
	CodeInvalidDate   = "InvalidDate"
	CodeInvalidType   = "InvalidType"
)

// datePattern is the lexical form a date must take before it is even
// checked against the calendar.
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// RawDraft is an untrusted record payload as decoded from JSON. Fields are
// untyped because clients may send numbers as strings and vice versa; the
// validator owns all coercion.
type RawDraft struct {
	Amount     any `json:"amount"`
	AmountText any `json:"amountText"`
	Category   any `json:"category"`
	Date       any `json:"date"`
	Notes      any `json:"notes"`
	Currency   any `json:"currency"`
	Type       any `json:"type"`
}

// Validate checks a raw payload against every rule independently and
// returns the normalized draft together with the full list of violated
// field codes. The draft is only meaningful when the list is empty.
func Validate(raw RawDraft) (Draft, []string) {
	var errs []string
	var d Draft

	amount, ok := coerceAmount(raw.Amount)
	if !ok || amount < 0 {
		errs = append(errs, CodeInvalidAmount)
	} else {
		d.Amount = amount
	}

	d.AmountText = coerceOptionalString(raw.AmountText)
	d.Category = coerceOptionalString(raw.Category)
	d.Notes = coerceOptionalString(raw.Notes)

	if s := coerceOptionalString(raw.Currency); s != nil {
		upper := toUpperASCII(*s)
		d.Currency = &upper
	}

	date, _ := coerceString(raw.Date)
	if !ValidDate(date) {
		errs = append(errs, CodeInvalidDate)
	} else {
		d.Date = date
	}

	d.Type = TypeExpense
	if raw.Type != nil {
		s, _ := coerceString(raw.Type)
		d.Type = RecordType(s)
	}
	if !d.Type.IsValid() {
		errs = append(errs, CodeInvalidType)
	}

	return d, errs
}

// ValidDate reports whether s is lexically YYYY-MM-DD and denotes a real
// calendar date (2024-02-30 fails, 2024-02-29 passes).
func ValidDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// coerceAmount accepts JSON numbers and numeric strings. String input goes
// through decimal parsing so values like "12.50" survive without float
// round-tripping surprises.
func coerceAmount(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		dec, err := decimal.NewFromString(n)
		if err != nil {
			return 0, false
		}
		f, _ := dec.Float64()
		return f, true
	default:
		return 0, false
	}
}

// coerceString converts scalar JSON values to their string form.
func coerceString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

func coerceOptionalString(v any) *string {
	if v == nil {
		return nil
	}
	s, ok := coerceString(v)
	if !ok {
		return nil
	}
	return &s
}

// toUpperASCII upper-cases a-z only; currency codes are ASCII and this
// avoids locale-dependent case folding on arbitrary input.
func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
