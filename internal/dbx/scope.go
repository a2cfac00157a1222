package dbx

import (
	"context"
	"sync"
)

type scopeKey struct{}

// TxScope travels in the context WithTx hands to its unit of work. Stores
// that do not live in the database register hooks on it to follow the
// outcome of the transaction.
type TxScope struct {
	parent *TxScope

	mu         sync.Mutex
	marks      map[any]struct{}
	onRollback []func()
	onDone     []func()
}

// TxScopeFrom returns the scope of the innermost enclosing WithTx, or nil.
func TxScopeFrom(ctx context.Context) *TxScope {
	s, _ := ctx.Value(scopeKey{}).(*TxScope)
	return s
}

func withScope(ctx context.Context) (context.Context, *TxScope) {
	s := &TxScope{parent: TxScopeFrom(ctx), marks: map[any]struct{}{}}
	return context.WithValue(ctx, scopeKey{}, s), s
}

// Mark records key and reports whether it was seen for the first time in
// this scope or any scope enclosing it.
func (s *TxScope) Mark(key any) bool {
	for p := s.parent; p != nil; p = p.parent {
		if p.marked(key) {
			return false
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.marks[key]; ok {
		return false
	}
	s.marks[key] = struct{}{}
	return true
}

func (s *TxScope) marked(key any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.marks[key]
	return ok
}

// OnRollback registers fn to run if the transaction does not commit.
// Hooks run in reverse order of registration.
func (s *TxScope) OnRollback(fn func()) {
	s.mu.Lock()
	s.onRollback = append(s.onRollback, fn)
	s.mu.Unlock()
}

// OnDone registers fn to run once the transaction ended either way, after
// any rollback hooks.
func (s *TxScope) OnDone(fn func()) {
	s.mu.Lock()
	s.onDone = append(s.onDone, fn)
	s.mu.Unlock()
}

func (s *TxScope) finish(committed bool) {
	s.mu.Lock()
	rollback, done := s.onRollback, s.onDone
	s.onRollback, s.onDone = nil, nil
	s.mu.Unlock()

	if !committed {
		for i := len(rollback) - 1; i >= 0; i-- {
			rollback[i]()
		}
	}
	for i := len(done) - 1; i >= 0; i-- {
		done[i]()
	}
}
