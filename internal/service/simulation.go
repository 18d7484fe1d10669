// Package service runs restaurant simulations: it bootstraps the shared
// state, launches every actor, supervises them and records the outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/restaurant-sim/internal/actor"
	"github.com/iliyamo/restaurant-sim/internal/config"
	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/repository"
	"github.com/iliyamo/restaurant-sim/internal/statelog"
	"github.com/iliyamo/restaurant-sim/internal/store"
	"github.com/iliyamo/restaurant-sim/internal/utils"
)

// RunStore persists run summaries.  Both repository.RunRepo and
// repository.MemoryRuns implement it.
type RunStore interface {
	Save(ctx context.Context, run model.RunSummary) error
	GetByID(ctx context.Context, id string) (model.RunSummary, error)
	List(ctx context.Context, limit int) ([]model.RunSummary, error)
}

// StateReader returns the latest stored snapshot of a run.
type StateReader interface {
	Latest(ctx context.Context, runID string) (model.FullState, error)
}

// Options describe one run.
type Options struct {
	Groups      int
	Tables      int
	ArrivalMean time.Duration
	EatMean     time.Duration
	Timing      actor.Timing
}

// OptionsFromConfig copies the simulation settings.  A zero seed is
// replaced by one taken from the clock.
func OptionsFromConfig(sim config.SimConfig) Options {
	seed := sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return Options{
		Groups:      sim.Groups,
		Tables:      sim.Tables,
		ArrivalMean: sim.ArrivalMean,
		EatMean:     sim.EatMean,
		Timing: actor.Timing{
			ArrivalStdDev: sim.ArrivalStdDev,
			EatStdDev:     sim.EatStdDev,
			CookMean:      sim.CookMean,
			CookStdDev:    sim.CookStdDev,
			Seed:          seed,
		},
	}
}

// Validate checks the run size.
func (o Options) Validate() error {
	return config.SimConfig{
		Groups: o.Groups, Tables: o.Tables,
		ArrivalMean: o.ArrivalMean, EatMean: o.EatMean,
		ArrivalStdDev: o.Timing.ArrivalStdDev, EatStdDev: o.Timing.EatStdDev,
		CookMean: o.Timing.CookMean, CookStdDev: o.Timing.CookStdDev,
	}.Validate()
}

// Bootstrap builds the initial state of a run, drawing the fixed arrival
// and eating time of every group from the seed.  Arrivals are spread
// uniformly over twice the mean.
func Bootstrap(id string, o Options) model.FullState {
	st := model.NewFullState(id, o.Groups, o.Tables)
	r := utils.NewRand(o.Timing.Seed, 1<<16)
	for g := 0; g < o.Groups; g++ {
		if o.ArrivalMean > 0 {
			st.StartTime[g] = time.Duration(r.Int64N(int64(2 * o.ArrivalMean)))
		}
		st.EatTime[g] = utils.Jitter(r, o.EatMean, o.Timing.EatStdDev)
	}
	return st
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// Simulation launches runs and keeps track of their results.
type Simulation struct {
	runs   RunStore
	sink   statelog.Sink
	cache  StateReader
	latest *statelog.Latest
	logOut io.Writer
	logger *log.Logger

	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup
}

// NewSimulation wires a simulation.  sink receives every snapshot of every
// run; cache may be nil, in which case Latest answers from memory.
func NewSimulation(runs RunStore, sink statelog.Sink, cache StateReader, logOut io.Writer) *Simulation {
	if runs == nil {
		runs = repository.NewMemoryRuns()
	}
	if sink == nil {
		sink = statelog.Discard{}
	}
	if logOut == nil {
		logOut = io.Discard
	}
	return &Simulation{
		runs:   runs,
		sink:   sink,
		cache:  cache,
		latest: statelog.NewLatest(),
		logOut: logOut,
		logger: newLogger(logOut, "simulation"),
		active: make(map[string]context.CancelFunc),
	}
}

func newLogger(w io.Writer, name string) *log.Logger {
	return log.New(w, name+": ", log.LstdFlags|log.Lmicroseconds)
}

// Run executes one simulation to completion.  The first fatal actor error
// removes the semaphore set, so every other actor fails instead of waiting
// forever; cancelling ctx does the same.  The returned summary is also
// saved to the run store.
func (s *Simulation) Run(ctx context.Context, id string, o Options) (model.RunSummary, error) {
	summary := model.RunSummary{
		ID:        id,
		Groups:    o.Groups,
		Tables:    o.Tables,
		Outcome:   model.OutcomeRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := o.Validate(); err != nil {
		return s.finish(summary, fmt.Errorf("invalid run: %w", err))
	}

	sh, err := store.NewShared(Bootstrap(id, o), statelog.Fanout{s.latest, s.sink})
	if err != nil {
		return s.finish(summary, err)
	}
	if err := s.runs.Save(ctx, summary); err != nil {
		s.logger.Printf("run %s: save start: %v", id, err)
	}
	s.logger.Printf("run %s: %d groups, %d tables, seed %d", id, o.Groups, o.Tables, o.Timing.Seed)

	rc := actor.NewReceptionist(sh, newLogger(s.logOut, "receptionist"))
	wt := actor.NewWaiter(sh, newLogger(s.logOut, "waiter"))
	ch := actor.NewChef(sh, o.Timing, newLogger(s.logOut, "chef"))

	eg, gctx := errgroup.WithContext(ctx)
	torn := make(chan struct{})
	go func() {
		defer close(torn)
		<-gctx.Done()
		sh.Set.Remove()
	}()
	eg.Go(rc.Run)
	eg.Go(wt.Run)
	eg.Go(ch.Run)
	for g := 0; g < o.Groups; g++ {
		grp := actor.NewGroup(g, sh, o.Timing, newLogger(s.logOut, fmt.Sprintf("group %02d", g)))
		eg.Go(grp.Run)
	}
	runErr := eg.Wait()
	<-torn

	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}
	if runErr == nil {
		runErr = checkCompleted(sh, rc, wt)
	}
	summary.ReceptionistRequests = rc.Served()
	summary.WaiterRequests = wt.Served()
	summary.OrdersCooked = len(ch.Cooked())
	return s.finish(summary, runErr)
}

// checkCompleted verifies the termination counts once every actor returned.
func checkCompleted(sh *store.Shared, rc *actor.Receptionist, wt *actor.Waiter) error {
	want := 2 * sh.Groups
	if rc.Served() != want || wt.Served() != want {
		return fmt.Errorf("%w: served receptionist=%d waiter=%d, want %d",
			actor.ErrInvariant, rc.Served(), wt.Served(), want)
	}
	if n := sh.Store.Attached(); n != 0 {
		return fmt.Errorf("%w: %d actors still attached", actor.ErrInvariant, n)
	}
	return nil
}

func (s *Simulation) finish(summary model.RunSummary, runErr error) (model.RunSummary, error) {
	summary.FinishedAt = time.Now().UTC()
	if runErr != nil {
		summary.Outcome = model.OutcomeFailed
		summary.Error = runErr.Error()
		s.logger.Printf("run %s failed: %v", summary.ID, runErr)
	} else {
		summary.Outcome = model.OutcomeOK
		s.logger.Printf("run %s finished in %s", summary.ID, summary.FinishedAt.Sub(summary.StartedAt))
	}
	// The caller's context may already be cancelled; the outcome is still recorded.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.runs.Save(ctx, summary); err != nil {
		s.logger.Printf("run %s: save outcome: %v", summary.ID, err)
	}
	return summary, runErr
}

// Start launches a run in the background and returns its id at once.
func (s *Simulation) Start(o Options) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	id := NewRunID()
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.active[id] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.active, id)
			s.mu.Unlock()
			cancel()
		}()
		_, _ = s.Run(ctx, id, o)
	}()
	return id, nil
}

// Active returns the number of runs started with Start that have not
// finished yet.
func (s *Simulation) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Shutdown cancels every background run and waits for them, or for ctx.
func (s *Simulation) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, cancel := range s.active {
		cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get returns the summary of a run.
func (s *Simulation) Get(ctx context.Context, id string) (model.RunSummary, error) {
	return s.runs.GetByID(ctx, id)
}

// List returns the most recent runs.
func (s *Simulation) List(ctx context.Context, limit int) ([]model.RunSummary, error) {
	return s.runs.List(ctx, limit)
}

// Latest returns the last snapshot of a run.  Runs of this process are
// answered from memory, which never lags; the cache serves the others.
func (s *Simulation) Latest(ctx context.Context, id string) (model.FullState, error) {
	if st, ok := s.latest.Get(id); ok {
		return st, nil
	}
	if s.cache == nil {
		return model.FullState{}, repository.ErrStateNotFound
	}
	st, err := s.cache.Latest(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrStateNotFound) {
		s.logger.Printf("state cache: %v", err)
		return model.FullState{}, repository.ErrStateNotFound
	}
	return st, err
}
