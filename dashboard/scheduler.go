package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yaoapp/kun/log"
)

// Scheduler refresh a board on a cron schedule, e.g. "@every 30s" or "*/5 * * * *"
type Scheduler struct {
	Schedule string
	Enabled  bool
	board    *Board
	timeout  time.Duration
	cron     *cron.Cron
	id       cron.EntryID
	mu       sync.Mutex
	ticks    int
	skipped  int
	onTick   func(started, skipped int)
}

// NewScheduler create a scheduler. timeout bounds each refresh, 0 for none
func NewScheduler(board *Board, schedule string, timeout time.Duration) (*Scheduler, error) {
	sch := &Scheduler{Schedule: schedule, board: board, timeout: timeout}
	c := cron.New()
	id, err := c.AddFunc(schedule, func() { sch.Tick(context.Background()) })
	if err != nil {
		return nil, err
	}
	sch.cron = c
	sch.id = id
	return sch, nil
}

// OnTick the callback fired after every tick with the number of renders started and skipped
func (sch *Scheduler) OnTick(fn func(started, skipped int)) {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	sch.onTick = fn
}

// Tick render every widget whose previous render has ended, skip the others
func (sch *Scheduler) Tick(ctx context.Context) (started int, skipped int) {
	cancel := context.CancelFunc(func() {})
	if sch.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, sch.timeout)
	}

	wg := sync.WaitGroup{}
	for _, cell := range sch.board.Cells() {
		task, fresh, err := sch.board.Render(ctx, cell)
		if err != nil {
			log.Error("[Dashboard] %s %s", cell.Config.Name, err.Error())
			continue
		}
		if !fresh {
			log.Trace("[Dashboard] %s is still rendering, skipped", cell.Config.Name)
			skipped++
			continue
		}
		started++
		wg.Add(1)
		go func() {
			defer wg.Done()
			task.Wait(context.Background())
		}()
	}
	go func() {
		wg.Wait()
		cancel()
	}()

	sch.mu.Lock()
	sch.ticks++
	sch.skipped += skipped
	fn := sch.onTick
	sch.mu.Unlock()
	if fn != nil {
		fn(started, skipped)
	}
	return started, skipped
}

// Stats the number of ticks and skipped renders so far
func (sch *Scheduler) Stats() (ticks int, skipped int) {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	return sch.ticks, sch.skipped
}

// Start start the schedule
func (sch *Scheduler) Start() {
	sch.Enabled = true
	sch.cron.Start()
}

// Stop stop the schedule
func (sch *Scheduler) Stop() {
	sch.Enabled = false
	<-sch.cron.Stop().Done()
}
