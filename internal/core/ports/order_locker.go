package ports

import "context"

// UnlockFunc releases a lock obtained from OrderLocker. It is safe to call
// more than once.
type UnlockFunc func()

// OrderLocker serializes guard-and-mutate sections per order id. Sections for
// different ids never wait on each other.
type OrderLocker interface {
	// Lock blocks until the order's lock is acquired or ctx is done.
	Lock(ctx context.Context, orderID string) (UnlockFunc, error)
}
