package statelog

import (
	"log"
	"sync"

	"github.com/iliyamo/restaurant-sim/internal/model"
)

// Fanout forwards every snapshot to each sink in order.
type Fanout []Sink

// Save implements Sink.
func (f Fanout) Save(st model.FullState) {
	for _, s := range f {
		s.Save(st)
	}
}

// Discard drops every snapshot.
type Discard struct{}

// Save implements Sink.
func (Discard) Save(model.FullState) {}

// Async hands snapshots to a background goroutine so slow sinks (network
// publishers, caches) do not stretch the store's critical sections.
// Snapshots are delivered in order; Save blocks only when the buffer is full.
type Async struct {
	next   Sink
	inbox  chan model.FullState
	done   chan struct{}
	once   sync.Once
	logger *log.Logger
}

// NewAsync starts the delivery goroutine.  Close must be called once no
// more snapshots will be saved.
func NewAsync(next Sink, buffer int, logger *log.Logger) *Async {
	a := &Async{
		next:   next,
		inbox:  make(chan model.FullState, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for st := range a.inbox {
		a.deliver(st)
	}
}

func (a *Async) deliver(st model.FullState) {
	defer func() {
		if r := recover(); r != nil && a.logger != nil {
			a.logger.Printf("state sink panicked on snapshot %d: %v", st.Seq, r)
		}
	}()
	a.next.Save(st)
}

// Save implements Sink.
func (a *Async) Save(st model.FullState) { a.inbox <- st }

// Close drains pending snapshots and stops the goroutine.
func (a *Async) Close() error {
	a.once.Do(func() { close(a.inbox) })
	<-a.done
	return nil
}

// Latest keeps the most recent snapshot of every run in memory.
type Latest struct {
	mu   sync.RWMutex
	runs map[string]model.FullState
}

// NewLatest returns an empty Latest.
func NewLatest() *Latest { return &Latest{runs: make(map[string]model.FullState)} }

// Save implements Sink.
func (l *Latest) Save(st model.FullState) {
	l.mu.Lock()
	l.runs[st.RunID] = st
	l.mu.Unlock()
}

// Get returns the last snapshot of the run.
func (l *Latest) Get(runID string) (model.FullState, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st, ok := l.runs[runID]
	return st, ok
}

// Recorder keeps every snapshot it receives.  It is used by tests and by
// the invariant checks of a run.
type Recorder struct {
	mu    sync.Mutex
	snaps []model.FullState
}

// Save implements Sink.
func (r *Recorder) Save(st model.FullState) {
	r.mu.Lock()
	r.snaps = append(r.snaps, st)
	r.mu.Unlock()
}

// Snapshots returns the recorded snapshots in save order.
func (r *Recorder) Snapshots() []model.FullState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.FullState(nil), r.snaps...)
}
