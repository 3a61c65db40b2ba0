package spy

import "github.com/expr-lang/expr"

// ExprFunction registers s as the expr-lang function name, so that every call
// an expression makes to it is recorded:
//
//	prog, err := expr.Compile(`double(21)`, double.ExprFunction("double"))
//
// Errors from the behavior surface as evaluation errors of the program.
func (s *Spy) ExprFunction(name string) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		return s.Call(params...)
	})
}
