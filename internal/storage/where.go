package storage

import (
	"fmt"
	"strings"

	"spendlog/internal/core"
)

// placeholderFunc renders the n-th (1-based) query placeholder, so the same
// WHERE builder serves sqlite ("?") and postgres ("$1").
type placeholderFunc func(n int) string

func questionPlaceholders(int) string { return "?" }

func dollarPlaceholders(n int) string { return fmt.Sprintf("$%d", n) }

// buildWhere renders the conjunctive WHERE clause for a list filter. The
// returned clause is empty when no predicate is set; otherwise it starts
// with " WHERE ". Only pre-validated filter values reach this point, every
// value is bound as a parameter.
func buildWhere(f core.ListFilter, ph placeholderFunc) (string, []any) {
	var conds []string
	var args []any

	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, ph(len(args))))
	}

	if f.Start != "" {
		add("date >= %s", f.Start)
	}
	if f.End != "" {
		add("date <= %s", f.End)
	}
	if f.Category != "" {
		add("category = %s", f.Category)
	}
	if f.Type != "" {
		add("type = %s", string(f.Type))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
