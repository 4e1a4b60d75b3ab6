// Package queries contains the read-only operations of the fulfillment
// service. Handlers read through ports.OrderRepository and ports.AttemptLog so
// they work the same against every storage backend.
package queries

import "time"

// Clock returns the current time. Day and month filters are computed in the
// location of the returned time.
type Clock func() time.Time

func orDefaultClock(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}
