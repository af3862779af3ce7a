package lru

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// Store an in-process ARC store. ttl is honored lazily on read
type Store struct {
	lru     *lru.ARCCache
	mu      sync.Mutex
	expires map[string]time.Time
}

// New create a store holding up to size keys
func New(size int) (*Store, error) {
	arc, err := lru.NewARC(size)
	if err != nil {
		return nil, err
	}
	return &Store{lru: arc, expires: map[string]time.Time{}}, nil
}

// Get the live value of the key
func (s *Store) Get(key string) (value interface{}, ok bool) {
	if s.expired(key) {
		return nil, false
	}
	return s.lru.Get(key)
}

// Set set the value, ttl 0 never expires
func (s *Store) Set(key string, value interface{}, ttl time.Duration) error {
	s.mu.Lock()
	if ttl > 0 {
		s.expires[key] = time.Now().Add(ttl)
	} else {
		delete(s.expires, key)
	}
	s.mu.Unlock()
	s.lru.Add(key, value)
	return nil
}

// Del delete the key
func (s *Store) Del(key string) error {
	s.mu.Lock()
	delete(s.expires, key)
	s.mu.Unlock()
	s.lru.Remove(key)
	return nil
}

// Has check if the key is live, recency and frequency are untouched
func (s *Store) Has(key string) bool {
	if s.expired(key) {
		return false
	}
	return s.lru.Contains(key)
}

// Len the number of live keys
func (s *Store) Len() int {
	return len(s.Keys())
}

// Keys the live keys
func (s *Store) Keys() []string {
	keys := []string{}
	for _, key := range s.lru.Keys() {
		name, ok := key.(string)
		if !ok {
			name = fmt.Sprintf("%v", key)
		}
		if s.expired(name) {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}

// Clear remove every key
func (s *Store) Clear() {
	s.mu.Lock()
	s.expires = map[string]time.Time{}
	s.mu.Unlock()
	s.lru.Purge()
}

// GetSet get the value, or produce it with getValue and store it
func (s *Store) GetSet(key string, ttl time.Duration, getValue func(key string) (interface{}, error)) (interface{}, error) {
	if value, ok := s.Get(key); ok {
		return value, nil
	}
	value, err := getValue(key)
	if err != nil {
		return nil, err
	}
	s.Set(key, value, ttl)
	return value, nil
}

// GetDel get the value and delete the key
func (s *Store) GetDel(key string) (value interface{}, ok bool) {
	value, ok = s.Get(key)
	if !ok {
		return nil, false
	}
	s.Del(key)
	return value, true
}

// expired drop the key if its ttl has passed
func (s *Store) expired(key string) bool {
	s.mu.Lock()
	at, has := s.expires[key]
	if !has || time.Now().Before(at) {
		s.mu.Unlock()
		return false
	}
	delete(s.expires, key)
	s.mu.Unlock()
	s.lru.Remove(key)
	return true
}
