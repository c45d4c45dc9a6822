// Package gex turns canonical option records into notional dealer gamma
// exposure: a priced per-option breakdown, per-strike and per-expiration
// rollups, a total, and the zero-gamma spot level.
package gex

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-engine/internal/options"
	"github.com/dgnsrekt/gex-engine/internal/pricing"
	"github.com/dgnsrekt/gex-engine/internal/session"
)

const (
	// ContractMultiplier is the share count per listed contract.
	ContractMultiplier = 100

	// PercentMove scales gamma notional to a 1% spot move.
	PercentMove = 0.01

	// DefaultVolatility substitutes for records whose IV the source never
	// supplied (IV == 0 sentinel).
	DefaultVolatility = 0.30

	billion = 1e9
)

// PricedRecord is a record augmented with computed Greeks and its signed
// notional gamma exposure in dollars. Calls contribute GEX >= 0, puts <= 0.
type PricedRecord struct {
	options.Record
	Greeks pricing.Result
	GEX    float64
}

// StrikeGEX is one per-strike rollup entry, in currency billions.
type StrikeGEX struct {
	Strike float64 `json:"strike"`
	GEX    float64 `json:"gex"`
}

// ExpirationGEX is one per-expiration rollup entry, in currency billions.
type ExpirationGEX struct {
	Expiration string  `json:"expiration"` // ISO date
	GEX        float64 `json:"gex"`
}

// Aggregate is the rolled-up exposure for one snapshot.
type Aggregate struct {
	PerStrike     []StrikeGEX     `json:"per_strike"`
	PerExpiration []ExpirationGEX `json:"per_expiration"`
	Total         float64         `json:"total"`
}

// Aggregator computes gamma exposure over a snapshot. It holds no per-request
// state; every call prices a fresh copy of its inputs.
type Aggregator struct {
	rate       float64
	defaultVol float64
	workers    int
	logger     *zap.Logger
}

func NewAggregator(rate, defaultVol float64, workers int, logger *zap.Logger) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	if defaultVol <= 0 {
		defaultVol = DefaultVolatility
	}
	return &Aggregator{
		rate:       rate,
		defaultVol: defaultVol,
		workers:    workers,
		logger:     logger,
	}
}

// PriceRecords is the pure pricing stage of the pipeline: each record gains
// Greeks (computed via model when the source supplied none) and its signed
// GEX. Records are independent, so pricing fans out over a bounded worker
// pool and only the slice assembly is ordered.
func (a *Aggregator) PriceRecords(records []options.Record, spot float64, model pricing.Model, asOf time.Time) []PricedRecord {
	priced := make([]PricedRecord, len(records))

	jobs := make(chan int, len(records))
	var wg sync.WaitGroup
	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				priced[i] = a.priceOne(records[i], spot, model, asOf)
			}
		}()
	}
	for i := range records {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return priced
}

func (a *Aggregator) priceOne(rec options.Record, spot float64, model pricing.Model, asOf time.Time) PricedRecord {
	in := pricing.Input{
		Spot:       spot,
		Strike:     rec.Strike,
		TimeYears:  session.TradingYears(asOf, rec.Expiration),
		Rate:       a.rate,
		Volatility: rec.ImpliedVolatility,
		Side:       rec.Side,
	}
	if in.Volatility <= 0 {
		in.Volatility = a.defaultVol
	}

	greeks := model.PriceAndGreeks(in)

	gamma := rec.Gamma
	if gamma == 0 {
		gamma = greeks.Gamma
	}

	gex := spot * spot * gamma * float64(rec.OpenInterest) * ContractMultiplier * PercentMove
	if rec.Side == options.Put {
		// Dealers are modeled net short gamma on puts.
		gex = -gex
	}

	return PricedRecord{Record: rec, Greeks: greeks, GEX: gex}
}

// Aggregate prices the snapshot and rolls exposure up by strike, by
// expiration, and in total, expressed in currency billions.
func (a *Aggregator) Aggregate(records []options.Record, spot float64, model pricing.Model, asOf time.Time) Aggregate {
	start := time.Now()
	priced := a.PriceRecords(records, spot, model, asOf)

	byStrike := make(map[float64]float64)
	byExpiry := make(map[string]float64)
	total := 0.0

	for _, p := range priced {
		byStrike[p.Strike] += p.GEX
		byExpiry[p.Expiration.Format("2006-01-02")] += p.GEX
		total += p.GEX
	}

	agg := Aggregate{
		PerStrike:     make([]StrikeGEX, 0, len(byStrike)),
		PerExpiration: make([]ExpirationGEX, 0, len(byExpiry)),
		Total:         total / billion,
	}
	for strike, gex := range byStrike {
		agg.PerStrike = append(agg.PerStrike, StrikeGEX{Strike: strike, GEX: gex / billion})
	}
	for expiry, gex := range byExpiry {
		agg.PerExpiration = append(agg.PerExpiration, ExpirationGEX{Expiration: expiry, GEX: gex / billion})
	}

	sort.Slice(agg.PerStrike, func(i, j int) bool { return agg.PerStrike[i].Strike < agg.PerStrike[j].Strike })
	sort.Slice(agg.PerExpiration, func(i, j int) bool { return agg.PerExpiration[i].Expiration < agg.PerExpiration[j].Expiration })

	a.logger.Debug("aggregated gamma exposure",
		zap.Int("records", len(records)),
		zap.Float64("totalBn", agg.Total),
		zap.Duration("duration", time.Since(start)),
	)

	return agg
}
