package compiler

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// exprEnv is shared by every expression. The only variable is "meta", the
// merged map of all #meta files seen so far.
var exprEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("meta", cel.MapType(cel.StringType, cel.DynType)),
	)
})

// Expr is a compiled CEL expression.
type Expr struct {
	Source string
	prg    cel.Program
}

// CompileExpr parses and checks src.
func CompileExpr(src string) (*Expr, error) {
	env, err := exprEnv()
	if err != nil {
		return nil, fmt.Errorf("expression environment: %w", err)
	}
	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Expr{Source: src, prg: prg}, nil
}

// Eval evaluates the expression against meta and returns a Go value.
func (e *Expr) Eval(meta map[string]any) (any, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	out, _, err := e.prg.Eval(map[string]any{"meta": meta})
	if err != nil {
		return nil, err
	}
	return nativeValue(out)
}

// EvalBool evaluates the expression and requires a bool result.
func (e *Expr) EvalBool(meta map[string]any) (bool, error) {
	v, err := e.Eval(meta)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q did not return bool (got %s)", e.Source, typeName(v))
	}
	return b, nil
}

func nativeValue(v ref.Val) (any, error) {
	switch v.Type() {
	case types.BoolType:
		return v.Value().(bool), nil
	case types.IntType:
		return v.Value().(int64), nil
	case types.UintType:
		return v.Value().(uint64), nil
	case types.DoubleType:
		return v.Value().(float64), nil
	case types.StringType:
		return v.Value().(string), nil
	case types.NullType:
		return nil, nil
	default:
		return v.Value(), nil
	}
}

// formatValue renders a variable or expression value as document text.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, uint64:
		return "int"
	case float64:
		return "double"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
