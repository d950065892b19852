// Package lock serializes the load-check-commit cycle of a booking.
package lock

import "context"

// Locker grants exclusive access to a key until unlock is called.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
