package boot

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/monitoring"
)

// Observer receives boot notifications
type Observer interface {
	OnProgress(completed, total int)
	OnComplete()
	OnFailure(err error)
}

// ObserverFuncs adapts functions to Observer; nil fields are skipped
type ObserverFuncs struct {
	Progress func(completed, total int)
	Complete func()
	Failure  func(err error)
}

func (o ObserverFuncs) OnProgress(completed, total int) {
	if o.Progress != nil {
		o.Progress(completed, total)
	}
}

func (o ObserverFuncs) OnComplete() {
	if o.Complete != nil {
		o.Complete()
	}
}

func (o ObserverFuncs) OnFailure(err error) {
	if o.Failure != nil {
		o.Failure(err)
	}
}

// DisplayObserver renders each progress notification as display text, as
// the host page's progress element shows it.
func DisplayObserver(show func(text string)) Observer {
	return ObserverFuncs{
		Progress: func(completed, total int) {
			show(FormatProgress(completed, total))
		},
	}
}

// Snapshot is a point-in-time view of progress
type Snapshot struct {
	Completed int
	Total     int
	Done      bool
	Err       error
}

// Progress counts completed boot steps. Notifications are delivered under
// the lock in mutation order; observers must not call back into Progress.
// After Complete or Fail no further notifications are sent.
type Progress struct {
	mu        sync.Mutex
	completed int
	total     int
	done      bool
	err       error
	nextID    int
	observers map[int]Observer
	order     []int
	metrics   *monitoring.Metrics
}

// NewProgress creates progress that records to metrics (may be nil)
func NewProgress(metrics *monitoring.Metrics) *Progress {
	return &Progress{
		observers: make(map[int]Observer),
		metrics:   metrics,
	}
}

// Subscribe registers obs and returns a function removing it
func (p *Progress) Subscribe(obs Observer) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.observers[id] = obs
	p.order = append(p.order, id)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.observers, id)
	}
}

// Start sets the total and publishes (0, total)
func (p *Progress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.completed = 0
	p.total = total
	p.publishLocked()
}

// Increment marks one step complete
func (p *Progress) Increment() {
	p.Add(1)
}

// Add marks n steps complete; n <= 0 is ignored
func (p *Progress) Add(n int) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.completed += n
	if p.completed > p.total {
		p.completed = p.total
	}
	p.publishLocked()
}

// Complete sends the completion notification once
func (p *Progress) Complete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return false
	}
	p.done = true
	for _, obs := range p.activeLocked() {
		obs.OnComplete()
	}
	return true
}

// Fail sends the failure notification once
func (p *Progress) Fail(err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return false
	}
	p.done = true
	p.err = err
	for _, obs := range p.activeLocked() {
		obs.OnFailure(err)
	}
	return true
}

// Snapshot returns the current counters
func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{Completed: p.completed, Total: p.total, Done: p.done, Err: p.err}
}

// String renders the progress display text, e.g. "2 / 5"
func (p *Progress) String() string {
	s := p.Snapshot()
	return FormatProgress(s.Completed, s.Total)
}

// FormatProgress renders the display text for a progress notification.
// Observers use it instead of String, which would take the progress lock.
func FormatProgress(completed, total int) string {
	return fmt.Sprintf("%d / %d", completed, total)
}

func (p *Progress) publishLocked() {
	p.metrics.RecordBootProgress(p.completed, p.total)
	for _, obs := range p.activeLocked() {
		obs.OnProgress(p.completed, p.total)
	}
}

func (p *Progress) activeLocked() []Observer {
	active := make([]Observer, 0, len(p.observers))
	kept := p.order[:0]
	for _, id := range p.order {
		if obs, ok := p.observers[id]; ok {
			active = append(active, obs)
			kept = append(kept, id)
		}
	}
	p.order = kept
	return active
}
