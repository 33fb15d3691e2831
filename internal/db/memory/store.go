// Package memory is an in-process db.Store with per-key expiry, for local runs and the embedded SDK.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/kailas-cloud/vecrag/internal/db"
)

var _ db.Store = (*Store)(nil)

// Store keeps values in a ttlcache. A background loop deletes expired keys as their TTL
// lapses, so memory stays bounded by the live keys. Close stops the loop.
type Store struct {
	cache     *ttlcache.Cache[string, []byte]
	expired   atomic.Int64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewStore creates an empty store and starts its expiry loop.
func NewStore() *Store {
	s := &Store{
		// TTL is fixed at write time, as with SET EX; reads never extend it.
		cache: ttlcache.New[string, []byte](ttlcache.WithDisableTouchOnHit[string, []byte]()),
	}
	s.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, _ *ttlcache.Item[string, []byte]) {
		if reason == ttlcache.EvictionReasonExpired {
			s.expired.Add(1)
		}
	})
	go s.cache.Start()
	return s
}

// Ping reports whether the store is still open.
func (s *Store) Ping(_ context.Context) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// Close stops the expiry loop and drops all data. Later calls fail with db.ErrClosed.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cache.Stop()
		s.cache.DeleteAll()
	})
}

// WaitForReady returns immediately: the store is ready once constructed.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get retrieves a copy of the value stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrClosed}
	}
	item := s.cache.Get(key)
	if item == nil {
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), item.Value()...), nil
}

// Set stores a value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	return s.put(key, value, ttlcache.NoTTL)
}

// SetWithTTL stores a value that expires after ttl. A non-positive ttl means no expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	return s.put(key, value, ttl)
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpDel, Err: db.ErrClosed}
	}
	s.cache.Delete(key)
	return nil
}

// Len returns the number of keys held, including expired ones the loop has not reached yet.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Expired returns how many keys the expiry loop has removed.
func (s *Store) Expired() int64 {
	return s.expired.Load()
}

func (s *Store) put(key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpSet, Err: db.ErrClosed}
	}
	s.cache.Set(key, append([]byte(nil), value...), ttl)
	return nil
}
