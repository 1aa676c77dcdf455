// Package lock serialises work on a single child. With redis configured the
// lock is shared between server instances; otherwise it is process-local.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when the lock could not be taken before ctx expired
var ErrNotObtained = errors.New("lock not obtained")

// Locker hands out named locks. The returned function releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// ChildKey names the lock guarding a child's achievement grants
func ChildKey(childID int64) string {
	return fmt.Sprintf("bookbuddy:child:%d", childID)
}

// New returns a redis-backed locker when addr is set and reachable, and a
// local one otherwise
func New(addr, password string) Locker {
	if addr == "" {
		return NewLocal()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: could not connect to redis at %s, using in-process locks: %v", addr, err)
		client.Close()
		return NewLocal()
	}

	log.Printf("Using redis locks at %s", addr)
	return NewRedis(client)
}

// RedisLocker uses bsm/redislock
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewRedis wraps an existing redis client
func NewRedis(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(client),
		ttl:    10 * time.Second,
	}
}

// Lock retries until the lock is obtained or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lk, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(50 * time.Millisecond),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return func() {
		if err := lk.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Printf("Error releasing lock %s: %v", key, err)
		}
	}, nil
}

// LocalLocker keeps one channel-based mutex per key. An entry lives only
// while somebody holds or waits for it.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localEntry
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

// NewLocal creates an in-process locker
func NewLocal() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localEntry)}
}

// Lock waits for key to be free or ctx to be done
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, e)
		return nil, ErrNotObtained
	}
}

func (l *LocalLocker) release(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// held reports how many keys currently have an entry
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
