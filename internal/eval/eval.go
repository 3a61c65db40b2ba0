package eval

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// Match compiles (cached) src as a boolean predicate and runs it against env.
func Match(src string, env map[string]any, cache *Cache) (bool, error) {
	p, err := cache.getOrCompile(src, expr.AsBool())
	if err != nil {
		return false, err
	}
	v, err := expr.Run(p, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("predicate %q returned %T, want bool", src, v)
	}
	return b, nil
}
