// Package constraint compiles the boolean constraints a request places on the
// rows answering it.
//
// A constraint is a CEL expression over a single variable, row, holding the
// answer's concepts as a list of strings in order:
//
//	row[0] != row[1]
//	size(row) == 2 && row[1].startsWith("team:")
package constraint

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common"

	"github.com/lolski/common-sub000/pkg/concept"
)

// RowVariable is the name the answer row is bound to.
const RowVariable = "row"

var celEnv *cel.Env

func init() {
	env, err := cel.NewEnv(
		cel.Variable(RowVariable, cel.ListType(cel.StringType)),
		cel.EagerlyValidateDeclarations(true),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to construct CEL constraint env: %v", err))
	}

	celEnv = env
}

// Constraint is a compiled constraint expression, safe for concurrent use.
type Constraint struct {
	expression string
	program    cel.Program
}

// Compile validates expr and compiles it into a program. The expression must
// evaluate to a bool.
func Compile(expr string) (*Constraint, error) {
	source := common.NewStringSource(expr, "constraint")
	ast, issues := celEnv.CompileSource(source)
	if issues != nil {
		if err := issues.Err(); err != nil {
			return nil, &CompilationError{Expression: expr, Cause: err}
		}
	}

	if !reflect.DeepEqual(ast.OutputType(), cel.BoolType) {
		return nil, &CompilationError{
			Expression: expr,
			Cause:      fmt.Errorf("expected a bool expression output, but got '%s'", ast.OutputType()),
		}
	}

	prg, err := celEnv.Program(ast)
	if err != nil {
		return nil, &CompilationError{
			Expression: expr,
			Cause:      fmt.Errorf("constraint program construction: %w", err),
		}
	}

	return &Constraint{expression: expr, program: prg}, nil
}

func (c *Constraint) String() string {
	return c.expression
}

// Evaluate reports whether row satisfies the constraint.
func (c *Constraint) Evaluate(row concept.Map) (bool, error) {
	out, _, err := c.program.Eval(map[string]any{
		RowVariable: row.Strings(),
	})
	if err != nil {
		return false, &EvaluationError{Expression: c.expression, Cause: err}
	}

	met, ok := out.Value().(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: c.expression,
			Cause:      fmt.Errorf("expected a bool result, but got %T", out.Value()),
		}
	}
	return met, nil
}
