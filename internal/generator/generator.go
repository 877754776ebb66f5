// Package generator synthesizes random bronze_trades records.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"bronze-trades-generator/internal/models"
)

// Value ranges for generated records. Integer ranges are inclusive.
const (
	MaxTradeNumber    = 100
	MaxTraderNumber   = 50
	MaxStrategyNumber = 10

	MinTradePrice = 50.0
	MaxTradePrice = 1000.0

	MinTradeVolume = 1
	MaxTradeVolume = 1000

	MinProfitLoss = -1000.0
	MaxProfitLoss = 1000.0

	MinOpenInterest = 100
	MaxOpenInterest = 10000

	// Execution times fall within the last day, in whole minutes.
	ExecutionWindowMinutes = 1440
)

// Generator produces mock trades. It is not safe for concurrent use.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source, mostly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rnd = r }
}

// WithClock sets the clock execution times are measured back from.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithSeed seeds the random source. A zero seed is ignored.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		if seed != 0 {
			g.rnd = rand.New(rand.NewSource(seed))
		}
	}
}

// New creates a Generator seeded from the clock unless options say otherwise.
func New(opts ...Option) *Generator {
	g := &Generator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a freshly randomized trade. An empty tradeID is replaced
// with a random TRADE<n>; any other value is kept as given.
func (g *Generator) Generate(tradeID string) models.Trade {
	if tradeID == "" {
		tradeID = fmt.Sprintf("TRADE%d", g.intn(1, MaxTradeNumber))
	}

	offset := time.Duration(g.rnd.Intn(ExecutionWindowMinutes)) * time.Minute
	rev := g.Revision()

	return models.Trade{
		TradeID:        tradeID,
		TraderID:       fmt.Sprintf("TRADER%d", g.intn(1, MaxTraderNumber)),
		InstrumentType: models.InstrumentTypes[g.rnd.Intn(len(models.InstrumentTypes))],
		TradeType:      models.TradeTypes[g.rnd.Intn(len(models.TradeTypes))],
		ExecutionTime:  g.now().Add(-offset).Truncate(time.Microsecond),
		TradePrice:     rev.TradePrice,
		TradeVolume:    rev.TradeVolume,
		ProfitLoss:     rev.ProfitLoss,
		OpenInterest:   g.intn(MinOpenInterest, MaxOpenInterest),
		StrategyID:     fmt.Sprintf("STRATEGY%d", g.intn(1, MaxStrategyNumber)),
	}
}

// Revision returns new values for the columns an update overwrites.
func (g *Generator) Revision() models.Revision {
	return models.Revision{
		TradePrice:  g.money(MinTradePrice, MaxTradePrice),
		TradeVolume: g.intn(MinTradeVolume, MaxTradeVolume),
		ProfitLoss:  g.money(MinProfitLoss, MaxProfitLoss),
	}
}

// intn returns a uniform integer in [lo, hi].
func (g *Generator) intn(lo, hi int) int {
	return lo + g.rnd.Intn(hi-lo+1)
}

// money returns a uniform amount in [lo, hi] rounded to cents.
func (g *Generator) money(lo, hi float64) decimal.Decimal {
	v := lo + g.rnd.Float64()*(hi-lo)
	return decimal.NewFromFloat(v).Round(2)
}
