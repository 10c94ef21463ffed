package tx_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mindtrack/internal/platform/tx"
)

func TestKeyedLockerSerializesSameKey(t *testing.T) {
	t.Parallel()
	locker := tx.NewKeyedLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locker.Within(context.Background(), "sess-1", func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					cur := atomic.LoadInt32(&maxInside)
					if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("expected at most one holder per key, got %d", maxInside)
	}
}

func TestKeyedLockerDifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()
	locker := tx.NewKeyedLocker()
	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = locker.Within(context.Background(), "a", func(context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered
	done := make(chan struct{})
	go func() {
		_ = locker.Within(context.Background(), "b", func(context.Context) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("key b blocked behind key a")
	}
	close(release)
}

func TestKeyedLockerHonorsContextWhileWaiting(t *testing.T) {
	t.Parallel()
	locker := tx.NewKeyedLocker()
	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = locker.Within(context.Background(), "a", func(context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := locker.Within(ctx, "a", func(context.Context) error {
		t.Errorf("callback must not run after context expiry")
		return nil
	})
	if err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(release)
}
