package service

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/iliyamo/restaurant-sim/internal/config"
	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/queue"
	"github.com/iliyamo/restaurant-sim/internal/repository"
	"github.com/iliyamo/restaurant-sim/internal/statelog"
)

// snapshotBuffer bounds how far a slow network sink may lag behind a run
// before the critical section blocks on it.
const snapshotBuffer = 1024

// cacheSink stores every snapshot as the latest state of its run.
type cacheSink struct {
	cache  *repository.StateCache
	logger *log.Logger
}

// NewCacheSink adapts a StateCache to statelog.Sink.  Errors are logged
// and dropped.
func NewCacheSink(cache *repository.StateCache, logger *log.Logger) statelog.Sink {
	return cacheSink{cache: cache, logger: logger}
}

func (c cacheSink) Save(st model.FullState) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.cache.Save(ctx, st); err != nil {
		c.logger.Printf("save state %s#%d: %v", st.RunID, st.Seq, err)
	}
}

// Sinks is the set of snapshot destinations of a process.
type Sinks struct {
	statelog.Fanout
	closers []io.Closer
}

// Add appends a sink and, when c is not nil, registers it for Close.
func (s *Sinks) Add(sink statelog.Sink, c io.Closer) {
	s.Fanout = append(s.Fanout, sink)
	if c != nil {
		s.closers = append(s.closers, c)
	}
}

// Close flushes and closes every sink in reverse order of addition.
func (s *Sinks) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

// OpenSinks builds the snapshot destinations configured in cfg: the state
// log file, the colored console trace, the RabbitMQ stream and the Redis
// latest-state cache.  Network sinks run behind statelog.Async so the
// critical section never waits on the network.  cache may be nil.
func OpenSinks(cfg config.Config, cache *repository.StateCache, console io.Writer, logOut io.Writer) (*Sinks, error) {
	sinks := &Sinks{}
	if cfg.Sim.LogFile != "" {
		f, err := statelog.OpenFileSink(cfg.Sim.LogFile)
		if err != nil {
			return nil, err
		}
		sinks.Add(f, f)
	}
	if cfg.Sim.Console && console != nil {
		sinks.Add(statelog.NewConsoleSink(console), nil)
	}
	if cfg.AMQPURL != "" {
		logger := newLogger(logOut, "state-publisher")
		pub, err := queue.DialPublisher(cfg.AMQPURL, logger)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		async := statelog.NewAsync(pub, snapshotBuffer, logger)
		sinks.Add(async, closerFunc(func() error {
			aErr := async.Close()
			return errors.Join(aErr, pub.Close())
		}))
	}
	if cache != nil {
		logger := newLogger(logOut, "state-cache")
		async := statelog.NewAsync(NewCacheSink(cache, logger), snapshotBuffer, logger)
		sinks.Add(async, async)
	}
	return sinks, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
