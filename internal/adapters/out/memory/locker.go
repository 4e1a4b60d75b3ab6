package memory

import (
	"context"
	"sync"

	"fulfillment/internal/core/ports"
)

var _ ports.OrderLocker = &KeyedLocker{}

// KeyedLocker provides one mutual-exclusion slot per order id. Entries are
// reference counted and dropped once nobody holds or waits for them, so the
// map only grows with the number of orders currently being worked on.
type KeyedLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{slots: make(map[string]*slot)}
}

// Lock waits for the order's slot or for ctx to end.
func (l *KeyedLocker) Lock(ctx context.Context, orderID string) (ports.UnlockFunc, error) {
	l.mu.Lock()
	s, ok := l.slots[orderID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[orderID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(orderID, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(orderID, s)
		})
	}, nil
}

func (l *KeyedLocker) release(orderID string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, orderID)
	}
}

// Len reports how many order ids currently have a slot.
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
