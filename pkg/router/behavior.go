package router

import (
	"sync"
)

// Behavior holds a current value and pushes every change to its
// subscribers. Subscribers are called synchronously, in subscription order,
// on the goroutine that commits the navigation.
type Behavior[T any] struct {
	mu     sync.RWMutex
	value  T
	nextID int
	subs   map[int]func(T)
	order  []int
}

func newBehavior[T any](v T) *Behavior[T] {
	return &Behavior[T]{value: v, subs: make(map[int]func(T))}
}

// Value returns the current value.
func (b *Behavior[T]) Value() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

// Subscribe calls fn with the current value and then with every change. The
// returned function unsubscribes.
func (b *Behavior[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)
	v := b.value
	b.mu.Unlock()

	fn(v)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			for i, sid := range b.order {
				if sid == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
		})
	}
}

func (b *Behavior[T]) next(v T) {
	b.mu.Lock()
	b.value = v
	fns := make([]func(T), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
