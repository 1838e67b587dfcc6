package filterexpr

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

type itemParams struct {
	State        string
	States       []string
	PriceMin     float64
	PriceMax     float64
	NamePrefix   string
	CreatedAfter time.Time
}

func itemsSchema(p *itemParams) Schema {
	return Schema{
		"state": {
			Kind: KindString,
			Ops:  []Op{OpEQ, OpIN},
			Apply: func(op Op, v any) error {
				if op == OpIN {
					p.States = v.([]string)
					return nil
				}
				p.State = v.(string)
				return nil
			},
		},
		"price": {
			Kind: KindNumber,
			Ops:  []Op{OpGTE, OpLTE},
			Apply: func(op Op, v any) error {
				if op == OpGTE {
					p.PriceMin = v.(float64)
				} else {
					p.PriceMax = v.(float64)
				}
				return nil
			},
		},
		"name": {
			Kind:  KindString,
			Ops:   []Op{OpSW},
			Apply: func(_ Op, v any) error { p.NamePrefix = v.(string); return nil },
		},
		"create_time": {
			Kind:  KindTimestamp,
			Ops:   []Op{OpGTE},
			Apply: func(_ Op, v any) error { p.CreatedAfter = v.(time.Time); return nil },
		},
	}
}

func TestApplyConjunction(t *testing.T) {
	var p itemParams
	filter := "state == 'ACTIVE' && price <= 1000 && price >= 10 && name.startsWith('A') && create_time >= timestamp('2025-01-01T00:00:00Z')"
	if err := Apply(filter, itemsSchema(&p)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if p.State != "ACTIVE" || p.PriceMax != 1000 || p.PriceMin != 10 || p.NamePrefix != "A" {
		t.Fatalf("unexpected params %+v", p)
	}
	if !p.CreatedAfter.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected CreatedAfter %v", p.CreatedAfter)
	}
}

func TestApplyInList(t *testing.T) {
	var p itemParams
	if err := Apply("state in ['NEW', 'KNOWN']", itemsSchema(&p)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(p.States, []string{"NEW", "KNOWN"}) {
		t.Fatalf("unexpected States %v", p.States)
	}
}

func TestApplyEmptyIsNoop(t *testing.T) {
	var p itemParams
	if err := Apply("  ", itemsSchema(&p)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{"unsupported field", "unknown == 'x'", "not allowed"},
		{"unsupported operator", "state <= 'A'", "operator"},
		{"bad literal type", "state == 1", "expected a string"},
		{"or", "state == 'A' || price <= 10", "only AND"},
		{"non literal", "price <= foo", "right-hand side"},
		{"list of numbers", "state in [1]", "must be a string"},
		{"bad timestamp", "create_time >= timestamp('yesterday')", "RFC3339"},
		{"syntax", "state ==", "invalid filter"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p itemParams
			err := Apply(tc.filter, itemsSchema(&p))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid for %q, got %v", tc.filter, err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error to contain %q, got %v", tc.want, err)
			}
		})
	}
}

func TestApplyPropagatesFieldError(t *testing.T) {
	boom := errors.New("unknown state")
	schema := Schema{"state": {Kind: KindString, Ops: []Op{OpEQ}, Apply: func(Op, any) error { return boom }}}
	err := Apply("state == 'X'", schema)
	if !errors.Is(err, boom) || !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected both sentinels, got %v", err)
	}
}

func TestParseOrder(t *testing.T) {
	allowed := []string{"word", "created_at"}
	def := []OrderTerm{{Key: "created_at", Desc: true}}

	got, err := ParseOrder("", allowed, def)
	if err != nil || !reflect.DeepEqual(got, def) {
		t.Fatalf("default order = %v, %v", got, err)
	}

	got, err = ParseOrder("word asc, created_at DESC", allowed, def)
	if err != nil {
		t.Fatalf("ParseOrder: %v", err)
	}
	want := []OrderTerm{{Key: "word"}, {Key: "created_at", Desc: true}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseOrder = %v, want %v", got, want)
	}

	for _, bad := range []string{"status", "word sideways", "word, word", "word asc extra"} {
		if _, err := ParseOrder(bad, allowed, def); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%q: expected ErrInvalid, got %v", bad, err)
		}
	}
}
