package filterexpr

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// OrderTerm is one key of an order_by clause.
type OrderTerm struct {
	Key  string
	Desc bool
}

// ParseOrder reads "key [asc|desc], key [asc|desc]" against the allowed keys.
// An empty clause yields def. At most two keys are accepted.
func ParseOrder(raw string, allowed []string, def []OrderTerm) ([]OrderTerm, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return append([]OrderTerm(nil), def...), nil
	}

	var terms []OrderTerm
	for _, seg := range strings.Split(raw, ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}
		key := parts[0]
		if !lo.Contains(allowed, key) {
			return nil, fmt.Errorf("%w: field %q cannot be used for ordering", ErrInvalid, key)
		}
		if lo.ContainsBy(terms, func(t OrderTerm) bool { return t.Key == key }) {
			return nil, fmt.Errorf("%w: duplicate order key %q", ErrInvalid, key)
		}
		term := OrderTerm{Key: key}
		switch {
		case len(parts) == 1:
		case len(parts) == 2 && strings.EqualFold(parts[1], "asc"):
		case len(parts) == 2 && strings.EqualFold(parts[1], "desc"):
			term.Desc = true
		default:
			return nil, fmt.Errorf("%w: invalid order segment %q", ErrInvalid, strings.TrimSpace(seg))
		}
		terms = append(terms, term)
	}
	if len(terms) > 2 {
		return nil, fmt.Errorf("%w: order_by supports at most two keys", ErrInvalid)
	}
	if len(terms) == 0 {
		return append([]OrderTerm(nil), def...), nil
	}
	return terms, nil
}
