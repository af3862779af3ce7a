package widgets

import (
	"context"
	"time"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/fetch"
	"github.com/chartsbuilder/widgets/handlers"
	"github.com/chartsbuilder/widgets/registry"
	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/store"
	"github.com/chartsbuilder/widgets/widget"
	"github.com/yaoapp/kun/log"
)

// Renderer the default wiring: every bundled adapter registered, one dispatcher over them
type Renderer struct {
	*render.Dispatcher
	Registry *registry.Registry
	Fetcher  fetch.Fetcher
	Store    store.Store
}

type setting struct {
	catalog    *widget.Catalog
	fetcher    fetch.Fetcher
	fetchOpts  []fetch.Option
	store      store.Store
	cacheTTL   time.Duration
	onComplete func(*dom.Container)
	onFailure  func(*dom.Container, error)
	timeout    time.Duration
}

// Option the renderer option
type Option func(*setting)

// WithCatalog use another type catalog
func WithCatalog(catalog *widget.Catalog) Option {
	return func(s *setting) { s.catalog = catalog }
}

// WithFetcher load data sources through fetcher instead of the http client
func WithFetcher(fetcher fetch.Fetcher) Option {
	return func(s *setting) { s.fetcher = fetcher }
}

// WithBase resolve relative data sources against a base url or directory
func WithBase(base string) Option {
	return func(s *setting) { s.fetchOpts = append(s.fetchOpts, fetch.WithBase(base)) }
}

// WithLocalFiles let data sources read file:// and absolute paths outside the base directory
func WithLocalFiles() Option {
	return func(s *setting) { s.fetchOpts = append(s.fetchOpts, fetch.WithLocalFiles()) }
}

// WithHeader send a header with every data source request
func WithHeader(name, value string) Option {
	return func(s *setting) { s.fetchOpts = append(s.fetchOpts, fetch.WithHeader(name, value)) }
}

// WithStore cache payloads in kv, see WithCacheTTL
func WithStore(kv store.Store) Option {
	return func(s *setting) { s.store = kv }
}

// WithCacheTTL cache payloads for ttl, in the given store or an lru store
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *setting) { s.cacheTTL = ttl }
}

// WithCompletion the callback fired once per successful render
func WithCompletion(fn func(*dom.Container)) Option {
	return func(s *setting) { s.onComplete = fn }
}

// WithFailure the callback fired when a render fails
func WithFailure(fn func(*dom.Container, error)) Option {
	return func(s *setting) { s.onFailure = fn }
}

// WithTimeout bound every render
func WithTimeout(timeout time.Duration) Option {
	return func(s *setting) { s.timeout = timeout }
}

// New create a renderer
func New(options ...Option) (*Renderer, error) {
	s := &setting{}
	for _, option := range options {
		option(s)
	}

	fetcher := s.fetcher
	if fetcher == nil {
		opts := s.fetchOpts
		if resolver := fetch.ResolverFromEnv(); resolver != nil {
			opts = append([]fetch.Option{fetch.WithResolver(resolver)}, opts...)
		}
		fetcher = fetch.New(opts...)
	}

	kv := s.store
	if kv == nil && s.cacheTTL > 0 {
		var err error
		kv, err = store.New(store.Option{})
		if err != nil {
			return nil, err
		}
	}
	if kv != nil {
		ttl := s.cacheTTL
		if ttl <= 0 {
			ttl = time.Minute
		}
		log.Trace("[Widgets] payload cache ttl: %s", ttl)
		fetcher = fetch.Cached(fetcher, kv, ttl)
	}

	reg := registry.New(s.catalog)
	if err := registerAll(reg, fetcher); err != nil {
		return nil, err
	}

	dispatcherOpts := []render.Option{
		render.WithCompletion(s.onComplete),
		render.WithFailure(s.onFailure),
	}
	if s.timeout > 0 {
		dispatcherOpts = append(dispatcherOpts, render.WithTimeout(s.timeout))
	}

	return &Renderer{
		Dispatcher: render.New(reg, dispatcherOpts...),
		Registry:   reg,
		Fetcher:    fetcher,
		Store:      kv,
	}, nil
}

func registerAll(reg *registry.Registry, fetcher fetch.Fetcher) error {
	for _, adapter := range handlers.All(handlers.Env{Fetcher: fetcher}) {
		if err := reg.Register(adapter); err != nil {
			return err
		}
	}
	return nil
}

// Load read the widget configs of a dashboard file, checked against the renderer catalog
func (r *Renderer) Load(filename string) ([]widget.Config, error) {
	return widget.LoadFile(filename, r.Registry.Catalog())
}

// RenderConfig render cfg into a new container named after it and wait for the end
func (r *Renderer) RenderConfig(ctx context.Context, cfg widget.Config) (*dom.Container, error) {
	c := dom.NewContainer(cfg.NormalizeName())
	return c, r.RenderWait(ctx, c, cfg)
}
