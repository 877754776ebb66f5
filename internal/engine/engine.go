package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bronze-trades-generator/internal/config"
	"bronze-trades-generator/internal/models"
)

// ErrAlreadyRunning is returned when Run is called on an engine that has not stopped.
var ErrAlreadyRunning = errors.New("engine is already running")

// State is the run state of the insert loop.
type State int32

const (
	Stopped State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Source produces the next record to insert.
type Source interface {
	Generate(tradeID string) models.Trade
}

// Inserter persists one record.
type Inserter interface {
	Insert(ctx context.Context, trade models.Trade) error
}

// Engine runs the generate, insert, wait cycle.
type Engine struct {
	logger     *zap.Logger
	source     Source
	sink       Inserter
	interval   time.Duration
	maxRecords int

	state    atomic.Int32
	inserted atomic.Int64
	observer func(State)
}

// Option configures an Engine.
type Option func(*Engine)

// WithStateObserver registers fn to be called on every state transition.
// fn runs on the loop goroutine and must not block.
func WithStateObserver(fn func(State)) Option {
	return func(e *Engine) { e.observer = fn }
}

// NewEngine creates a new insert engine.
func NewEngine(logger *zap.Logger, cfg config.Generator, source Source, sink Inserter, opts ...Option) *Engine {
	e := &Engine{
		logger:     logger.Named("engine"),
		source:     source,
		sink:       sink,
		interval:   cfg.Interval,
		maxRecords: cfg.MaxRecords,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the current run state. Safe for concurrent use.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Inserted reports how many records the engine has written.
func (e *Engine) Inserted() int64 {
	return e.inserted.Load()
}

// Run inserts one record, then waits the full interval, until ctx is
// cancelled or the configured record limit is reached, both of which return nil. A failed
// insert stops the loop and is returned as is; there is no retry.
func (e *Engine) Run(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(Stopped), int32(Running)) {
		return ErrAlreadyRunning
	}
	e.notify(Running)
	defer e.transition(Stopped)

	e.logger.Info("Starting insert loop",
		zap.Duration("interval", e.interval),
		zap.Int("max_records", e.maxRecords))

	for {
		if ctx.Err() != nil {
			e.stop("Shutdown requested")
			return nil
		}

		if err := e.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				e.stop("Shutdown requested during insert")
				return nil
			}
			e.logger.Error("Insert failed, stopping", zap.Error(err))
			return err
		}

		if e.maxRecords > 0 && e.Inserted() >= int64(e.maxRecords) {
			e.stop("Record limit reached")
			return nil
		}

		// The pause starts once the insert has finished, however long it took.
		pause := time.NewTimer(e.interval)
		select {
		case <-ctx.Done():
			pause.Stop()
			e.stop("Shutdown requested")
			return nil
		case <-pause.C:
		}
	}
}

// cycle generates one record, logs it and inserts it.
func (e *Engine) cycle(ctx context.Context) error {
	trade := e.source.Generate("")
	e.logger.Info("Generated", zap.Stringer("trade", trade))

	if err := e.sink.Insert(ctx, trade); err != nil {
		return err
	}
	e.inserted.Add(1)
	return nil
}

func (e *Engine) stop(reason string) {
	e.transition(Stopping)
	e.logger.Info("Stopping insert loop...",
		zap.String("reason", reason),
		zap.Int64("inserted", e.Inserted()))
}

func (e *Engine) transition(s State) {
	e.state.Store(int32(s))
	e.notify(s)
}

func (e *Engine) notify(s State) {
	if e.observer != nil {
		e.observer(s)
	}
}
