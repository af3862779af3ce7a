package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/widget"
	"github.com/fatih/color"
	goerrors "github.com/go-errors/errors"
	"github.com/yaoapp/kun/log"
)

// State the lifecycle state of one render invocation
type State int

// Idle -> Cleaning -> {Fetching ->} Drawing -> Signaled, or Failed / Canceled
const (
	Idle State = iota
	Cleaning
	Fetching
	Drawing
	Signaled
	Failed
	Canceled
)

var stateNames = map[State]string{
	Idle:     "idle",
	Cleaning: "cleaning",
	Fetching: "fetching",
	Drawing:  "drawing",
	Signaled: "signaled",
	Failed:   "failed",
	Canceled: "canceled",
}

func (s State) String() string {
	if name, has := stateNames[s]; has {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal check if no further transition is possible
func (s State) Terminal() bool {
	return s >= Signaled
}

// Task the future of one render invocation. It is fulfilled exactly once:
// Resolve fires the completion callback, Reject the failure callback.
type Task struct {
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	container   *dom.Container
	config      widget.Config
	state       State
	transitions []State
	err         error
	version     uint64
	once        sync.Once
	done        chan struct{}
	onComplete  func(*dom.Container)
	onFailure   func(*dom.Container, error)
}

// NewTask create a task bound to the container. callbacks may be nil
func NewTask(ctx context.Context, c *dom.Container, cfg widget.Config, onComplete func(*dom.Container), onFailure func(*dom.Container, error)) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Task{
		ctx:         ctx,
		cancel:      cancel,
		container:   c,
		config:      cfg,
		state:       Idle,
		transitions: []State{Idle},
		done:        make(chan struct{}),
		onComplete:  onComplete,
		onFailure:   onFailure,
	}
}

// Context the context fetches and draws run under; canceled once the task ends
func (t *Task) Context() context.Context { return t.ctx }

// Container the container the task renders into
func (t *Task) Container() *dom.Container { return t.container }

// Config the widget config being rendered
func (t *Task) Config() widget.Config { return t.config }

// Done closed when the task reaches a terminal state
func (t *Task) Done() <-chan struct{} { return t.done }

// Enter move forward to a non-terminal state. Backward moves and moves
// after the task ended are ignored and reported as false.
func (t *Task) Enter(state State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if state.Terminal() || state <= t.state {
		return false
	}
	t.state = state
	t.transitions = append(t.transitions, state)
	return true
}

// Clean enter Cleaning and run the cleanup
func (t *Task) Clean(fn func(c *dom.Container)) {
	t.Enter(Cleaning)
	fn(t.container)
}

// Draw enter Drawing and run fn, unless the task was canceled or ended meanwhile
func (t *Task) Draw(fn func(c *dom.Container) error) error {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	if !t.Enter(Drawing) && t.State() != Drawing {
		return fmt.Errorf("render: %s task already %s", t.config.Name, t.State())
	}
	return fn(t.container)
}

// Resolve fulfill the task: fire the completion callback, then close Done
func (t *Task) Resolve() {
	t.finish(Signaled, nil)
}

// Reject fail the task. The completion callback never fires
func (t *Task) Reject(err error) {
	if err == nil {
		err = fmt.Errorf("render: %s rejected without an error", t.config.Name)
	}
	t.finish(Failed, err)
}

// Cancel abort the task and any in-flight fetch
func (t *Task) Cancel() {
	t.finish(Canceled, context.Canceled)
}

// Go run fn asynchronously; nil resolves the task, an error or a panic rejects it
func (t *Task) Go(fn func(ctx context.Context) error) *Task {
	go t.Run(fn)
	return t
}

// Run run fn in the calling goroutine; nil resolves the task, an error or a panic rejects it
func (t *Task) Run(fn func(ctx context.Context) error) *Task {
	defer func() {
		if recovered := recover(); recovered != nil {
			err := goerrors.Wrap(recovered, 2)
			log.With(log.F{"widget": t.config.Name, "type": t.config.Type}).Error("[Render] panic: %s\n%s", err.Error(), err.ErrorStack())
			t.Reject(err)
		}
	}()

	if err := fn(t.ctx); err != nil {
		if t.State() == Canceled {
			return t
		}
		t.Reject(err)
		return t
	}
	t.Resolve()
	return t
}

// Wait block until the task ends or ctx is done
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err the failure, nil while running or after success
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// State the current state
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Transitions the states visited so far, in order
func (t *Task) Transitions() []State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]State{}, t.transitions...)
}

// CompletedVersion the container version when the task was fulfilled, 0 if it was not
func (t *Task) CompletedVersion() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

func (t *Task) finish(state State, err error) {
	t.once.Do(func() {
		t.mu.Lock()
		t.state = state
		t.transitions = append(t.transitions, state)
		t.err = err
		if state == Signaled && t.container != nil {
			t.version = t.container.Version()
		}
		t.mu.Unlock()

		switch state {
		case Signaled:
			log.Trace("[Render] %s %s signaled", t.config.Type, t.config.Name)
			if t.onComplete != nil {
				t.onComplete(t.container)
			}
		case Failed:
			log.With(log.F{"widget": t.config.Name, "type": t.config.Type}).Error("[Render] %s", err.Error())
			if t.onFailure != nil {
				t.onFailure(t.container, err)
			}
		}

		close(t.done)
		t.cancel()
	})
}

func (t *Task) String() string {
	state := t.State()
	paint := color.GreenString
	if state == Failed || state == Canceled {
		paint = color.RedString
	}
	return fmt.Sprintf("%s%s %s", color.YellowString("Task: "), color.WhiteString(t.config.Name), paint(state.String()))
}
