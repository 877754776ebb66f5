package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bronze-trades-generator/internal/config"
	"bronze-trades-generator/internal/generator"
	"bronze-trades-generator/internal/models"
)

// MockInserter is a mock implementation of the Inserter interface.
type MockInserter struct {
	mock.Mock
}

func (m *MockInserter) Insert(ctx context.Context, trade models.Trade) error {
	args := m.Called(ctx, trade)
	return args.Error(0)
}

// stateRecorder collects transitions reported by the engine.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func newSource() *generator.Generator {
	return generator.New(generator.WithRand(rand.New(rand.NewSource(1))))
}

func TestRun_StopsOnCancel(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inserter := new(MockInserter)
	calls := 0
	inserter.On("Insert", mock.Anything, mock.AnythingOfType("models.Trade")).
		Return(nil).
		Run(func(args mock.Arguments) {
			calls++
			if calls == 3 {
				cancel()
			}
		})

	rec := &stateRecorder{}
	e := NewEngine(zap.NewNop(), config.Generator{Interval: 5 * time.Millisecond},
		newSource(), inserter, WithStateObserver(rec.record))

	// Act
	err := e.Run(ctx)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(3), e.Inserted())
	assert.Equal(t, Stopped, e.State())
	assert.Equal(t, []State{Running, Stopping, Stopped}, rec.all())
	inserter.AssertNumberOfCalls(t, "Insert", 3)
}

func TestRun_InsertErrorPropagates(t *testing.T) {
	inserter := new(MockInserter)
	inserter.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()
	inserter.On("Insert", mock.Anything, mock.Anything).Return(errors.New("warehouse suspended")).Once()

	rec := &stateRecorder{}
	e := NewEngine(zap.NewNop(), config.Generator{Interval: time.Millisecond},
		newSource(), inserter, WithStateObserver(rec.record))

	err := e.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "warehouse suspended")
	assert.Equal(t, int64(1), e.Inserted())
	assert.Equal(t, Stopped, e.State())
	assert.Equal(t, []State{Running, Stopped}, rec.all())
	inserter.AssertExpectations(t)
}

func TestRun_MaxRecords(t *testing.T) {
	inserter := new(MockInserter)
	inserter.On("Insert", mock.Anything, mock.Anything).Return(nil)

	e := NewEngine(zap.NewNop(), config.Generator{Interval: time.Millisecond, MaxRecords: 4},
		newSource(), inserter)

	err := e.Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(4), e.Inserted())
	inserter.AssertNumberOfCalls(t, "Insert", 4)
}

func TestRun_PausesFullIntervalAfterSlowInsert(t *testing.T) {
	// Arrange: every insert takes longer than the interval
	const (
		interval   = 50 * time.Millisecond
		insertTime = 80 * time.Millisecond
	)
	var starts, ends []time.Time

	inserter := new(MockInserter)
	inserter.On("Insert", mock.Anything, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			starts = append(starts, time.Now())
			time.Sleep(insertTime)
			ends = append(ends, time.Now())
		})

	e := NewEngine(zap.NewNop(), config.Generator{Interval: interval, MaxRecords: 3},
		newSource(), inserter)

	// Act
	err := e.Run(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, starts, 3)
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(ends[i-1])
		assert.GreaterOrEqual(t, gap, interval, "pause before insert %d was %s", i+1, gap)
	}
}

func TestRun_InsertsGeneratedTrades(t *testing.T) {
	inserter := new(MockInserter)
	inserter.On("Insert", mock.Anything, mock.MatchedBy(func(tr models.Trade) bool {
		return tr.TradeID != "" && tr.TraderID != "" && tr.TradeVolume >= 1
	})).Return(nil)

	e := NewEngine(zap.NewNop(), config.Generator{Interval: time.Millisecond, MaxRecords: 2},
		newSource(), inserter)

	require.NoError(t, e.Run(context.Background()))
	inserter.AssertExpectations(t)
}

func TestRun_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inserter := new(MockInserter)

	e := NewEngine(zap.NewNop(), config.Generator{Interval: time.Millisecond}, newSource(), inserter)

	assert.NoError(t, e.Run(ctx))
	assert.Equal(t, int64(0), e.Inserted())
	inserter.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestRun_CancelDuringInsertIsGraceful(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inserter := new(MockInserter)
	inserter.On("Insert", mock.Anything, mock.Anything).
		Return(context.Canceled).
		Run(func(args mock.Arguments) { cancel() })

	e := NewEngine(zap.NewNop(), config.Generator{Interval: time.Millisecond}, newSource(), inserter)

	assert.NoError(t, e.Run(ctx))
	assert.Equal(t, int64(0), e.Inserted())
}

func TestRun_AlreadyRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inserter := new(MockInserter)
	inserter.On("Insert", mock.Anything, mock.Anything).Return(nil)

	e := NewEngine(zap.NewNop(), config.Generator{Interval: time.Hour}, newSource(), inserter)

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	assert.Eventually(t, func() bool { return e.Inserted() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, Running, e.State())
	assert.ErrorIs(t, e.Run(ctx), ErrAlreadyRunning)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop after cancel")
	}
	assert.Equal(t, Stopped, e.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopping", Stopping.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "state(9)", State(9).String())
}
