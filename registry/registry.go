package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/widget"
	"github.com/yaoapp/kun/exception"
	"github.com/yaoapp/kun/log"
)

// ErrAlreadyExists a family already has an adapter
var ErrAlreadyExists = errors.New("adapter already registered")

// ErrInvalidAdapter the adapter is nil or names no known family
var ErrInvalidAdapter = errors.New("invalid adapter")

// Registry map widget families to render adapters. Safe for concurrent use
type Registry struct {
	mu       sync.RWMutex
	catalog  *widget.Catalog
	adapters map[widget.Family]render.Adapter
}

// New create a registry over the catalog. nil uses the default catalog
func New(catalog *widget.Catalog) *Registry {
	if catalog == nil {
		catalog = widget.DefaultCatalog()
	}
	return &Registry{catalog: catalog, adapters: map[widget.Family]render.Adapter{}}
}

// Register register the adapter of its family, refusing duplicates
func (r *Registry) Register(adapter render.Adapter) error {
	if err := check(adapter); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	family := adapter.Family()
	if _, has := r.adapters[family]; has {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, family)
	}
	r.adapters[family] = adapter
	log.Trace("[Registry] %s registered", family)
	return nil
}

// MustRegister register the adapters, panic on error
func (r *Registry) MustRegister(adapters ...render.Adapter) *Registry {
	for _, adapter := range adapters {
		if err := r.Register(adapter); err != nil {
			exception.New("%s", 500, err.Error()).Throw()
		}
	}
	return r
}

// Replace register the adapter of its family, replacing the previous one
func (r *Registry) Replace(adapter render.Adapter) error {
	if err := check(adapter); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Family()] = adapter
	log.Trace("[Registry] %s replaced", adapter.Family())
	return nil
}

// Unregister remove the adapter of the family.
// Returns true if the adapter was found and removed, false otherwise
func (r *Registry) Unregister(family widget.Family) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, has := r.adapters[family]; has {
		delete(r.adapters, family)
		return true
	}
	return false
}

// Adapter the adapter of the family
func (r *Registry) Adapter(family widget.Family) (render.Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, has := r.adapters[family]
	return adapter, has
}

// Resolve the adapter of a widget type, exact type first, then the part before the delimiter
func (r *Registry) Resolve(typ string) (render.Adapter, error) {
	match, err := r.catalog.Resolve(typ)
	if err != nil {
		return nil, err
	}
	adapter, has := r.Adapter(match.Family)
	if !has {
		return nil, &widget.UnknownTypeError{Type: typ}
	}
	return adapter, nil
}

// Exists check if the type resolves to an adapter
func (r *Registry) Exists(typ string) bool {
	_, err := r.Resolve(typ)
	return err == nil
}

// Types the renderable type strings, sorted
func (r *Registry) Types() []string {
	types := []string{}
	for _, typ := range r.catalog.Types() {
		if r.Exists(typ) {
			types = append(types, typ)
		}
	}
	sort.Strings(types)
	return types
}

// Families the families that have an adapter, in declaration order
func (r *Registry) Families() []widget.Family {
	r.mu.RLock()
	defer r.mu.RUnlock()
	families := []widget.Family{}
	for _, family := range widget.Families {
		if _, has := r.adapters[family]; has {
			families = append(families, family)
		}
	}
	return families
}

// Validate check a config against the registry before dispatching it
func (r *Registry) Validate(cfg widget.Config) error {
	if err := cfg.Validate(r.catalog); err != nil {
		return err
	}
	if !r.Exists(cfg.Type) {
		return &widget.UnknownTypeError{Type: cfg.Type}
	}
	return nil
}

// Catalog the type catalog
func (r *Registry) Catalog() *widget.Catalog {
	return r.catalog
}

func check(adapter render.Adapter) error {
	if adapter == nil {
		return fmt.Errorf("%w: nil", ErrInvalidAdapter)
	}
	for _, family := range widget.Families {
		if adapter.Family() == family {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown family %q", ErrInvalidAdapter, adapter.Family())
}
