package eval

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Cache caches compiled predicate programs for the lifetime of a call log.
type Cache struct {
	mu   sync.Mutex
	prog map[string]*vm.Program
}

func NewCache() *Cache {
	return &Cache{prog: make(map[string]*vm.Program, 8)}
}

// size reports how many programs are cached.
func (c *Cache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prog)
}

func (c *Cache) getOrCompile(src string, opts ...expr.Option) (*vm.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.prog[src]; ok {
		return p, nil
	}
	p, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, err
	}
	c.prog[src] = p
	return p, nil
}
