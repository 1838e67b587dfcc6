// Package filterexpr turns a restricted CEL expression into typed filter
// values. Only AND-joined atomic predicates are accepted: comparisons, `in`
// lists and startsWith calls against literals.
package filterexpr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/samber/lo"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ErrInvalid wraps every rejection so callers can map it to a client error.
var ErrInvalid = errors.New("invalid filter expression")

// Kind describes the literal a field accepts.
type Kind string

const (
	KindString    Kind = "string"
	KindNumber    Kind = "number"
	KindTimestamp Kind = "timestamp"
)

// Op is a supported comparison.
type Op string

const (
	OpEQ  Op = "=="
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpSW  Op = "startsWith"
	OpIN  Op = "in"
)

// Field declares an allowed identifier. Apply receives a literal already
// checked against Kind: string, []string, float64 or time.Time.
type Field struct {
	Kind  Kind
	Ops   []Op
	Apply func(op Op, value any) error
}

// Schema maps identifiers to their rules.
type Schema map[string]Field

// Apply parses filter and hands every predicate to its field. An empty filter is a no-op.
func Apply(filter string, schema Schema) error {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	if len(schema) == 0 {
		return errors.New("filter schema has no fields")
	}

	env, err := newEnv(schema)
	if err != nil {
		return err
	}
	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return fmt.Errorf("convert AST: %w", err)
	}

	conjuncts, err := flattenAnd(parsed.GetExpr())
	if err != nil {
		return err
	}
	for _, expr := range conjuncts {
		pred, err := parsePredicate(expr)
		if err != nil {
			return err
		}
		field, ok := schema[pred.field]
		if !ok {
			return fmt.Errorf("%w: field %q is not allowed", ErrInvalid, pred.field)
		}
		if !lo.Contains(field.Ops, pred.op) {
			return fmt.Errorf("%w: operator %q is not allowed for field %q", ErrInvalid, string(pred.op), pred.field)
		}
		if err := checkLiteral(field.Kind, pred.op, pred.value); err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrInvalid, pred.field, err)
		}
		if err := field.Apply(pred.op, pred.value); err != nil {
			return fmt.Errorf("%w: field %q: %w", ErrInvalid, pred.field, err)
		}
	}
	return nil
}

type predicate struct {
	field string
	op    Op
	value any
}

func newEnv(schema Schema) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(schema)+1)
	for name, field := range schema {
		var typ *cel.Type
		switch field.Kind {
		case KindString:
			typ = cel.StringType
		case KindNumber:
			typ = cel.DoubleType
		case KindTimestamp:
			typ = cel.TimestampType
		default:
			return nil, fmt.Errorf("field %q: unsupported kind %s", name, field.Kind)
		}
		opts = append(opts, cel.Variable(name, typ))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	return cel.NewEnv(opts...)
}

// flattenAnd walks nested binary AND calls into a flat list.
func flattenAnd(expr *exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalid)
	}
	call := expr.GetCallExpr()
	if call == nil {
		return []*exprpb.Expr{expr}, nil
	}
	switch call.Function {
	case "_&&_":
		var out []*exprpb.Expr
		for _, arg := range call.Args {
			sub, err := flattenAnd(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	case "_||_", "_?_:_", "!_":
		return nil, fmt.Errorf("%w: only AND is supported", ErrInvalid)
	default:
		return []*exprpb.Expr{expr}, nil
	}
}

func parsePredicate(expr *exprpb.Expr) (predicate, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return predicate{}, fmt.Errorf("%w: expected a comparison", ErrInvalid)
	}
	var (
		op                Op
		fieldExpr, litExp *exprpb.Expr
	)
	switch call.Function {
	case "_==_", "_>=_", "_<=_", "@in":
		if call.Target != nil || len(call.Args) != 2 {
			return predicate{}, fmt.Errorf("%w: %s expects two operands", ErrInvalid, call.Function)
		}
		op = map[string]Op{"_==_": OpEQ, "_>=_": OpGTE, "_<=_": OpLTE, "@in": OpIN}[call.Function]
		fieldExpr, litExp = call.Args[0], call.Args[1]
	case "startsWith":
		if call.Target == nil || len(call.Args) != 1 {
			return predicate{}, fmt.Errorf("%w: use field.startsWith('prefix')", ErrInvalid)
		}
		op = OpSW
		fieldExpr, litExp = call.Target, call.Args[0]
	default:
		return predicate{}, fmt.Errorf("%w: function %q is not supported", ErrInvalid, call.Function)
	}

	ident := fieldExpr.GetIdentExpr()
	if ident == nil {
		return predicate{}, fmt.Errorf("%w: left-hand side must be a field", ErrInvalid)
	}
	value, err := parseLiteral(litExp)
	if err != nil {
		return predicate{}, err
	}
	return predicate{field: ident.GetName(), op: op, value: value}, nil
}

func parseLiteral(expr *exprpb.Expr) (any, error) {
	if c := expr.GetConstExpr(); c != nil {
		switch c.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return c.GetStringValue(), nil
		case *exprpb.Constant_Int64Value:
			return float64(c.GetInt64Value()), nil
		case *exprpb.Constant_Uint64Value:
			return float64(c.GetUint64Value()), nil
		case *exprpb.Constant_DoubleValue:
			return c.GetDoubleValue(), nil
		default:
			return nil, fmt.Errorf("%w: literal type %T is not supported", ErrInvalid, c.ConstantKind)
		}
	}
	if list := expr.GetListExpr(); list != nil {
		values := make([]string, 0, len(list.GetElements()))
		for i, elem := range list.GetElements() {
			v, err := parseLiteral(elem)
			if err != nil {
				return nil, err
			}
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: list element %d must be a string", ErrInvalid, i)
			}
			values = append(values, s)
		}
		return values, nil
	}
	if call := expr.GetCallExpr(); call != nil && call.Function == "timestamp" && len(call.Args) == 1 {
		raw := call.Args[0].GetConstExpr().GetStringValue()
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: timestamp %q is not RFC3339", ErrInvalid, raw)
		}
		return ts, nil
	}
	return nil, fmt.Errorf("%w: right-hand side must be a literal", ErrInvalid)
}

func checkLiteral(kind Kind, op Op, value any) error {
	switch kind {
	case KindString:
		if op == OpIN {
			list, ok := value.([]string)
			if !ok || len(list) == 0 {
				return errors.New("expected a non-empty list of strings")
			}
			return nil
		}
		if _, ok := value.(string); !ok {
			return errors.New("expected a string")
		}
	case KindNumber:
		if _, ok := value.(float64); !ok {
			return errors.New("expected a number")
		}
	case KindTimestamp:
		if _, ok := value.(time.Time); !ok {
			return errors.New("expected timestamp('...')")
		}
	}
	return nil
}
