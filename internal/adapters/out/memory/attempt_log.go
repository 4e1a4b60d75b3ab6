package memory

import (
	"context"
	"sync"

	"fulfillment/internal/core/domain/model/audit"
	"fulfillment/internal/core/ports"
)

var _ ports.AttemptLog = &AttemptLog{}

// AttemptLog is an append-only audit trail kept per order.
type AttemptLog struct {
	mu       sync.RWMutex
	attempts map[string][]audit.Attempt
}

func NewAttemptLog() *AttemptLog {
	return &AttemptLog{attempts: make(map[string][]audit.Attempt)}
}

func (l *AttemptLog) Append(_ context.Context, attempt audit.Attempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.attempts[attempt.OrderID] = append(l.attempts[attempt.OrderID], attempt)
	return nil
}

func (l *AttemptLog) List(_ context.Context, orderID string) ([]audit.Attempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stored := l.attempts[orderID]
	result := make([]audit.Attempt, len(stored))
	copy(result, stored)
	return result, nil
}

func (l *AttemptLog) LastSucceeded(_ context.Context, orderID string, stage audit.Stage) (audit.Attempt, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stored := l.attempts[orderID]
	for i := len(stored) - 1; i >= 0; i-- {
		if stored[i].Stage == stage && stored[i].Succeeded() {
			return stored[i], true, nil
		}
	}
	return audit.Attempt{}, false, nil
}
