package cart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bytekstore/bytek/pkg/storage"
)

// Store persists serialized carts by session id. Load returns nil, nil
// when nothing is stored.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, raw []byte) error
	Delete(ctx context.Context, sessionID string) error
}

// DiskStore keeps one JSON file per session on a storage disk.
type DiskStore struct {
	disk   storage.Disk
	prefix string
}

func NewDiskStore(disk storage.Disk) *DiskStore {
	return &DiskStore{disk: disk, prefix: "carts"}
}

func (s *DiskStore) path(id string) string { return s.prefix + "/" + id + ".json" }

func (s *DiskStore) Load(ctx context.Context, id string) ([]byte, error) {
	raw, err := s.disk.Get(ctx, s.path(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return raw, err
}

func (s *DiskStore) Save(ctx context.Context, id string, raw []byte) error {
	return s.disk.Put(ctx, s.path(id), bytes.NewReader(raw), "application/json")
}

func (s *DiskStore) Delete(ctx context.Context, id string) error {
	err := s.disk.Delete(ctx, s.path(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// RedisStore keeps carts under bytek:cart:<id>, refreshing the TTL on
// every save.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(id string) string { return "bytek:cart:" + id }

func (s *RedisStore) Load(ctx context.Context, id string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart: redis get: %w", err)
	}
	return raw, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, raw []byte) error {
	return s.rdb.Set(ctx, redisKey(id), raw, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKey(id)).Err()
}

// MemoryStore is an in-process store for tests and single-node dev runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{data: map[string][]byte{}} }

func (s *MemoryStore) Load(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[id]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, raw []byte) error {
	s.mu.Lock()
	s.data[id] = append([]byte(nil), raw...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}

// Locker serialises cart access per session so two tabs of the same
// visitor don't overwrite each other's changes. A session's mutex exists
// only while someone holds or waits for it.
type Locker struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker(store Store) *Locker {
	return &Locker{store: store, locks: make(map[string]*sessionLock)}
}

// With opens the session's cart, runs fn and releases the session lock.
// A store failure is returned before fn runs.
func (l *Locker) With(ctx context.Context, sessionID string, fn func(*Cart) error) error {
	unlock := l.lock(sessionID)
	defer unlock()

	c, err := Open(ctx, l.store, sessionID)
	if err != nil {
		return err
	}
	return fn(c)
}

func (l *Locker) lock(sessionID string) func() {
	l.mu.Lock()
	sl, ok := l.locks[sessionID]
	if !ok {
		sl = &sessionLock{}
		l.locks[sessionID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		if sl.refs--; sl.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}

// held reports how many sessions currently have a lock entry.
func (l *Locker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Store exposes the backing store.
func (l *Locker) Store() Store { return l.store }
