// Package lock provides named, expiring, non-blocking leases.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrHeld is returned by TryAcquire when another owner holds the lease.
var ErrHeld = errors.New("lock: held by another owner")

type Lease interface {
	Name() string
	Token() string
	// Release drops the lease only if it is still owned by this token.
	Release(ctx context.Context) error
}

type Locker interface {
	// TryAcquire never waits: it returns ErrHeld when the name is taken.
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (Lease, error)
}

type lease struct {
	name    string
	token   string
	release func(ctx context.Context, name, token string) error
}

func (l *lease) Name() string  { return l.name }
func (l *lease) Token() string { return l.token }
func (l *lease) Release(ctx context.Context) error {
	if l == nil || l.release == nil {
		return nil
	}
	return l.release(ctx, l.name, l.token)
}
