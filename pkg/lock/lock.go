// Package lock serializes work per key, either inside one process or across
// processes through Redis.
package lock

import "context"

// Locker acquires an exclusive lock on key, blocking until it is free or ctx
// is done. The returned function releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
