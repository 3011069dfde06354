package router

import "sync"

// Budget caps classifier + handler + tool invocations for one turn.
type Budget struct {
	mu   sync.Mutex
	left int
}

func NewBudget(n int) *Budget {
	return &Budget{left: n}
}

// Spend takes one invocation, or returns ErrBudgetExhausted.
func (b *Budget) Spend() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.left <= 0 {
		return ErrBudgetExhausted
	}
	b.left--
	return nil
}

func (b *Budget) Left() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.left
}
