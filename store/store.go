package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/chartsbuilder/widgets/store/badger"
	"github.com/chartsbuilder/widgets/store/lru"
	"github.com/chartsbuilder/widgets/store/redis"
	"github.com/yaoapp/kun/log"
)

// DefaultSize the default lru cache size
const DefaultSize = 256

// New create a store. An empty type picks redis when WIDGETS_REDIS_ADDR is set, lru otherwise
func New(option Option) (Store, error) {
	typ := strings.ToLower(option.Type)
	if typ == "" {
		typ = "lru"
		if addr := os.Getenv("WIDGETS_REDIS_ADDR"); addr != "" && option.Addr == "" {
			option.Addr = addr
			typ = "redis"
		}
	}

	switch typ {
	case "lru":
		size := option.Size
		if size <= 0 {
			size = DefaultSize
		}
		log.Trace("[Store] lru size: %d", size)
		return lru.New(size)

	case "redis":
		if option.Addr == "" {
			option.Addr = os.Getenv("WIDGETS_REDIS_ADDR")
		}
		log.Trace("[Store] redis addr: %s prefix: %s", option.Addr, option.Prefix)
		return redis.New(redis.Option{
			Addr:     option.Addr,
			Password: option.Password,
			DB:       option.DB,
			Prefix:   option.Prefix,
			Timeout:  option.Timeout,
		})

	case "badger":
		log.Trace("[Store] badger path: %s prefix: %s", option.Path, option.Prefix)
		return badger.New(badger.Option{
			Path:     option.Path,
			Prefix:   option.Prefix,
			InMemory: option.Path == "",
		})
	}

	return nil, fmt.Errorf("store type %s does not support", option.Type)
}
