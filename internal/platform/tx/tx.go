package tx

import (
	"context"
	"sync"
)

// Manager wraps a critical section keyed by an entity id. Calls sharing a key
// are serialized; calls on different keys proceed independently.
type Manager interface {
	Within(ctx context.Context, key string, fn func(context.Context) error) error
}

type NoopManager struct{}

func (NoopManager) Within(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

// KeyedLocker is an in-process Manager backed by one mutex per key.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem     chan struct{}
	holders int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: map[string]*keyedLock{}}
}

func (l *KeyedLocker) Within(ctx context.Context, key string, fn func(context.Context) error) error {
	lock := l.acquire(key)
	defer l.release(key, lock)

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-lock.sem }()
	return fn(ctx)
}

func (l *KeyedLocker) acquire(key string) *keyedLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &keyedLock{sem: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.holders++
	return lock
}

func (l *KeyedLocker) release(key string, lock *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.holders--
	if lock.holders == 0 {
		delete(l.locks, key)
	}
}
