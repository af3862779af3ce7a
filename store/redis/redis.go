package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
	"github.com/yaoapp/kun/log"
)

// Store payloads shared through a redis server, values are json encoded
type Store struct {
	rdb    *redis.Client
	Option Option
}

// Option the redis connection
type Option struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
	Prefix   string
}

// New connect and ping the server
func New(option Option) (*Store, error) {
	if option.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if option.Timeout == 0 {
		option.Timeout = 5 * time.Second
	}
	if option.Prefix == "" {
		option.Prefix = "widgets:"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         option.Addr,
		Password:     option.Password,
		DB:           option.DB,
		DialTimeout:  option.Timeout,
		ReadTimeout:  option.Timeout,
		WriteTimeout: option.Timeout,
	})

	s := &Store{rdb: rdb, Option: option}
	ctx, cancel := s.context()
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s: %s", option.Addr, err.Error())
	}
	return s, nil
}

func (s *Store) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.Option.Timeout)
}

func (s *Store) name(key string) string {
	return s.Option.Prefix + key
}

// Close close the client
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Get the decoded value of the key
func (s *Store) Get(key string) (value interface{}, ok bool) {
	ctx, cancel := s.context()
	defer cancel()

	raw, err := s.rdb.Get(ctx, s.name(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Error("[Store] redis get %s: %s", key, err.Error())
		return nil, false
	}
	if err := jsoniter.Unmarshal(raw, &value); err != nil {
		log.Error("[Store] redis decode %s: %s", key, err.Error())
		return nil, false
	}
	return value, true
}

// Set encode and store the value, ttl 0 never expires
func (s *Store) Set(key string, value interface{}, ttl time.Duration) error {
	raw, err := jsoniter.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}

	ctx, cancel := s.context()
	defer cancel()
	if err := s.rdb.Set(ctx, s.name(key), raw, ttl).Err(); err != nil {
		log.Error("[Store] redis set %s: %s", key, err.Error())
		return err
	}
	return nil
}

// Del delete the key
func (s *Store) Del(key string) error {
	ctx, cancel := s.context()
	defer cancel()
	return s.rdb.Del(ctx, s.name(key)).Err()
}

// Has check if the key exists
func (s *Store) Has(key string) bool {
	ctx, cancel := s.context()
	defer cancel()
	n, err := s.rdb.Exists(ctx, s.name(key)).Result()
	return err == nil && n == 1
}

// Len scans the prefix, not O(1)
func (s *Store) Len() int {
	return len(s.Keys())
}

// Keys the keys under the prefix, without it
func (s *Store) Keys() []string {
	ctx, cancel := s.context()
	defer cancel()

	keys := []string{}
	iter := s.rdb.Scan(ctx, 0, s.Option.Prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.Option.Prefix))
	}
	if err := iter.Err(); err != nil {
		log.Error("[Store] redis scan %s: %s", s.Option.Prefix, err.Error())
		return []string{}
	}
	return keys
}

// Clear delete every key under the prefix
func (s *Store) Clear() {
	keys := s.Keys()
	if len(keys) == 0 {
		return
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, s.name(key))
	}

	ctx, cancel := s.context()
	defer cancel()
	if err := s.rdb.Del(ctx, names...).Err(); err != nil {
		log.Error("[Store] redis clear %s: %s", s.Option.Prefix, err.Error())
	}
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
	if err := s.Set(key, value, ttl); err != nil {
		log.Warn("[Store] redis %s not cached: %s", key, err.Error())
	}
	return value, nil
}

// GetDel get the value and delete the key
func (s *Store) GetDel(key string) (value interface{}, ok bool) {
	ctx, cancel := s.context()
	defer cancel()

	raw, err := s.rdb.GetDel(ctx, s.name(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Error("[Store] redis getdel %s: %s", key, err.Error())
		}
		return nil, false
	}
	if err := jsoniter.Unmarshal(raw, &value); err != nil {
		return nil, false
	}
	return value, true
}
