package postgres

import (
	"fmt"
	"strings"
)

// textArray scans a postgres text[] literal into a []string. The stdlib
// driver hands arrays over as their wire text form ({a,b,"c d"}).
type textArray struct {
	dest *[]string
}

func (a *textArray) Scan(src any) error {
	var lit string
	switch v := src.(type) {
	case nil:
		*a.dest = nil
		return nil
	case string:
		lit = v
	case []byte:
		lit = string(v)
	default:
		return fmt.Errorf("cannot scan %T into text[]", src)
	}
	*a.dest = parseTextArray(lit)
	return nil
}

func parseTextArray(lit string) []string {
	lit = strings.TrimPrefix(lit, "{")
	lit = strings.TrimSuffix(lit, "}")
	if lit == "" {
		return []string{}
	}
	var (
		out      []string
		cur      strings.Builder
		inQuotes bool
		escaped  bool
	)
	for _, r := range lit {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	out = append(out, cur.String())
	return out
}
