package store

import "time"

// Store The interface of a key-value store
type Store interface {
	Get(key string) (value interface{}, ok bool)
	Set(key string, value interface{}, ttl time.Duration) error
	Del(key string) error
	Has(key string) bool
	Len() int
	Keys() []string
	Clear()
	GetSet(key string, ttl time.Duration, getValue func(key string) (interface{}, error)) (interface{}, error)
	GetDel(key string) (value interface{}, ok bool)
}

// Option the store setting
type Option struct {
	Type     string        `json:"type,omitempty" yaml:"type,omitempty"` // lru | redis | badger
	Size     int           `json:"size,omitempty" yaml:"size,omitempty"`
	Addr     string        `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string        `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int           `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string        `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Path     string        `json:"path,omitempty" yaml:"path,omitempty"` // badger directory, empty keeps it in memory
}
