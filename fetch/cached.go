package fetch

import (
	"context"
	"time"

	"github.com/chartsbuilder/widgets/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/yaoapp/kun/log"
)

// Cached wrap a fetcher with a store. Successful payloads are kept for ttl,
// failures are never cached. ttl 0 keeps them until evicted
func Cached(fetcher Fetcher, kv store.Store, ttl time.Duration) Fetcher {
	return &cached{fetcher: fetcher, kv: kv, ttl: ttl}
}

type cached struct {
	fetcher Fetcher
	kv      store.Store
	ttl     time.Duration
}

func (c *cached) Fetch(ctx context.Context, uri string) (*Payload, error) {
	key := "fetch:" + uri
	if value, has := c.kv.Get(key); has {
		if payload, ok := toPayload(value); ok {
			log.Trace("[Fetch] cache hit %s", uri)
			return payload, nil
		}
		c.kv.Del(key)
	}

	payload, err := c.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	if err := c.kv.Set(key, payload, c.ttl); err != nil {
		log.Warn("[Fetch] cache %s: %s", uri, err.Error())
	}
	return payload, nil
}

// toPayload convert a stored value back, remote stores hand back decoded json
func toPayload(value interface{}) (*Payload, bool) {
	switch v := value.(type) {
	case *Payload:
		return v, true
	case Payload:
		return &v, true
	}

	raw, err := jsoniter.Marshal(value)
	if err != nil {
		return nil, false
	}
	payload := &Payload{}
	if err := jsoniter.Unmarshal(raw, payload); err != nil || payload.URI == "" {
		return nil, false
	}
	return payload, true
}
