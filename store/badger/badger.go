package badger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"
)

// DefaultPrefix the key prefix of the payload cache
const DefaultPrefix = "widgets:"

// Option the badger setting
type Option struct {
	Path     string // directory of the database, created if missing
	Prefix   string
	InMemory bool
}

// Store a badger backed store, payloads survive restarts
type Store struct {
	db     *badger.DB
	prefix string
}

// New open the badger database
func New(option Option) (*Store, error) {
	if option.Prefix == "" {
		option.Prefix = DefaultPrefix
	}

	opts := badger.DefaultOptions(option.Path)
	if option.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if option.Path == "" {
			return nil, fmt.Errorf("badger path is required")
		}
		if err := os.MkdirAll(option.Path, 0755); err != nil {
			return nil, fmt.Errorf("badger %s: %w", option.Path, err)
		}
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open %s: %w", option.Path, err)
	}
	return &Store{db: db, prefix: option.Prefix}, nil
}

// Close close the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) key(key string) []byte {
	return []byte(s.prefix + key)
}

// Get get a value by key
func (s *Store) Get(key string) (value interface{}, ok bool) {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return jsoniter.Unmarshal(val, &value)
		})
	})
	if err != nil {
		return nil, false
	}
	return value, true
}

// Set set a value, ttl 0 never expires
func (s *Store) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := jsoniter.Marshal(value)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(s.key(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Del delete a key
func (s *Store) Del(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(key))
	})
}

// Has check if the key exists
func (s *Store) Has(key string) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(s.key(key))
		return err
	})
	return err == nil
}

// Len the number of keys
func (s *Store) Len() int {
	return len(s.Keys())
}

// Keys the keys of the store, prefix removed
func (s *Store) Keys() []string {
	keys := []string{}
	s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(s.prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), s.prefix))
		}
		return nil
	})
	return keys
}

// Clear remove every key of the store
func (s *Store) Clear() {
	if err := s.db.DropPrefix([]byte(s.prefix)); err != nil {
		for _, key := range s.Keys() {
			s.Del(key)
		}
	}
}

// GetSet get the value, or set it with getValue when missing
func (s *Store) GetSet(key string, ttl time.Duration, getValue func(key string) (interface{}, error)) (interface{}, error) {
	if value, ok := s.Get(key); ok {
		return value, nil
	}
	value, err := getValue(key)
	if err != nil {
		return nil, err
	}
	if err := s.Set(key, value, ttl); err != nil {
		return nil, err
	}
	return value, nil
}

// GetDel get the value and delete the key
func (s *Store) GetDel(key string) (value interface{}, ok bool) {
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error { return jsoniter.Unmarshal(val, &value) }); err != nil {
			return err
		}
		return txn.Delete(s.key(key))
	})
	if err != nil {
		return nil, false
	}
	return value, true
}
