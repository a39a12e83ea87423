package core

import "strconv"

// Pagination bounds. The maximum is a hard cap regardless of what the
// client asks for.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ListFilter is a conjunctive record filter. Empty fields are not applied.
// Start and End are inclusive date bounds in YYYY-MM-DD form.
type ListFilter struct {
	Start    string
	End      string
	Category string
	Type     RecordType
}

// Page is a normalized pagination request: Number >= 1 and
// 1 <= Size <= MaxPageSize always hold after NewPage.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// NewFilter builds a filter from raw query values. Malformed dates are
// silently dropped rather than rejected, an empty category is ignored, and
// a type outside {expense, income} is ignored.
func NewFilter(start, end, category, recordType string) ListFilter {
	var f ListFilter
	if datePattern.MatchString(start) {
		f.Start = start
	}
	if datePattern.MatchString(end) {
		f.End = end
	}
	if category != "" {
		f.Category = category
	}
	if t := RecordType(recordType); t.IsValid() {
		f.Type = t
	}
	return f
}

// IsZero reports whether no predicate is set, meaning the full table.
func (f ListFilter) IsZero() bool {
	return f == ListFilter{}
}

// Matches reports whether r satisfies every set predicate. Date bounds
// compare lexically, which is correct for the fixed YYYY-MM-DD form.
func (f ListFilter) Matches(r Record) bool {
	if f.Start != "" && r.Date < f.Start {
		return false
	}
	if f.End != "" && r.Date > f.End {
		return false
	}
	if f.Category != "" && (r.Category == nil || *r.Category != f.Category) {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	return true
}

// NewPage normalizes raw page and pageSize parameters. Non-numeric or
// non-positive pages clamp to 1; the size defaults when absent or invalid
// and is capped at maxSize.
func NewPage(page, pageSize string, defaultSize, maxSize int) Page {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}

	p := Page{Number: 1, Size: defaultSize}
	if n, err := strconv.Atoi(page); err == nil && n >= 1 {
		p.Number = n
	}
	if n, err := strconv.Atoi(pageSize); err == nil && n >= 1 {
		p.Size = n
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	return p
}
