package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/widget"
	"github.com/yaoapp/kun/exception"
	"github.com/yaoapp/kun/log"
)

// Dispatcher the single entry point the dashboard renders widgets through
type Dispatcher struct {
	resolver   Resolver
	onComplete func(*dom.Container)
	onFailure  func(*dom.Container, error)
	timeout    time.Duration
}

// Option the dispatcher option
type Option func(*Dispatcher)

// WithCompletion the callback fired once per successful render, with the container
func WithCompletion(fn func(*dom.Container)) Option {
	return func(d *Dispatcher) { d.onComplete = fn }
}

// WithFailure the callback fired when a render fails
func WithFailure(fn func(*dom.Container, error)) Option {
	return func(d *Dispatcher) { d.onFailure = fn }
}

// WithTimeout bound every render, fetches included
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// New create a dispatcher over the resolver
func New(resolver Resolver, options ...Option) *Dispatcher {
	d := &Dispatcher{resolver: resolver}
	for _, option := range options {
		option(d)
	}
	return d
}

// Render resolve the adapter of cfg.Type and start rendering into the container.
// An unknown type fails synchronously and nothing is touched
func (d *Dispatcher) Render(ctx context.Context, c *dom.Container, cfg widget.Config) (*Task, error) {
	if c == nil {
		return nil, fmt.Errorf("render: %s has no container", cfg.Name)
	}

	adapter, err := d.resolver.Resolve(cfg.Type)
	if err != nil {
		log.With(log.F{"widget": cfg.Name, "type": cfg.Type}).Error("[Render] %s", err.Error())
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	cancel := context.CancelFunc(func() {})
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
	}

	task := NewTask(ctx, c, cfg, d.onComplete, d.onFailure)
	go func() {
		<-task.Done()
		cancel()
	}()

	log.Trace("[Render] %s %s (%s)", cfg.Type, cfg.Name, adapter.Family())
	adapter.Render(task, cfg)
	return task, nil
}

// RenderWait render and wait for the task to end
func (d *Dispatcher) RenderWait(ctx context.Context, c *dom.Container, cfg widget.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	task, err := d.Render(ctx, c, cfg)
	if err != nil {
		return err
	}
	return task.Wait(ctx)
}

// MustRender render, panic on an unknown type
func (d *Dispatcher) MustRender(ctx context.Context, c *dom.Container, cfg widget.Config) *Task {
	task, err := d.Render(ctx, c, cfg)
	if err != nil {
		code := 500
		var unknown *widget.UnknownTypeError
		if errors.As(err, &unknown) {
			code = unknown.Code()
		}
		exception.New("%s", code, err.Error()).Throw()
	}
	return task
}
