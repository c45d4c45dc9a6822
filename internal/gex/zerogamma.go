package gex

import (
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-engine/internal/options"
	"github.com/dgnsrekt/gex-engine/internal/pricing"
	"github.com/dgnsrekt/gex-engine/internal/session"
)

const (
	// DefaultCutoffDays bounds the solver to gamma expiring soon; far-dated
	// gamma barely moves with spot and only flattens the profile.
	DefaultCutoffDays = 60

	// sweepLevels and sweepWidth define the hypothetical spot grid:
	// 30 evenly spaced levels across [0.8*spot, 1.2*spot].
	sweepLevels = 30
	sweepWidth  = 0.20
)

// ZeroGammaSolver locates the spot level where net dealer gamma flips sign.
// The sweep always uses closed-form gamma regardless of the caller's pricing
// method: it is a fast qualitative scan, not exact American pricing.
type ZeroGammaSolver struct {
	rate       float64
	defaultVol float64
	cutoffDays int
	logger     *zap.Logger
}

func NewZeroGammaSolver(rate, defaultVol float64, cutoffDays int, logger *zap.Logger) *ZeroGammaSolver {
	if cutoffDays <= 0 {
		cutoffDays = DefaultCutoffDays
	}
	if defaultVol <= 0 {
		defaultVol = DefaultVolatility
	}
	return &ZeroGammaSolver{
		rate:       rate,
		defaultVol: defaultVol,
		cutoffDays: cutoffDays,
		logger:     logger,
	}
}

// Solve returns the interpolated zero-gamma level and true, or 0 and false
// when net gamma never changes sign across the swept range. No crossing is a
// real outcome, not a failure. When several crossings exist, the first
// (lowest-spot) one wins.
func (s *ZeroGammaSolver) Solve(records []options.Record, spot float64, asOf time.Time, cutoff *time.Time) (float64, bool) {
	limit := asOf.AddDate(0, 0, s.cutoffDays)
	if cutoff != nil {
		limit = *cutoff
	}

	near := make([]options.Record, 0, len(records))
	for _, rec := range records {
		if rec.ExpiresOnOrBefore(limit) {
			near = append(near, rec)
		}
	}
	if len(near) == 0 {
		return 0, false
	}

	low := spot * (1 - sweepWidth)
	step := spot * 2 * sweepWidth / (sweepLevels - 1)

	prevLevel := 0.0
	prevNet := 0.0
	for i := 0; i < sweepLevels; i++ {
		level := low + step*float64(i)
		net := s.netGamma(near, level, asOf)

		if i > 0 && signFlip(prevNet, net) {
			zero := interpolateZero(prevLevel, prevNet, level, net)
			s.logger.Debug("zero gamma crossing found",
				zap.Float64("level", zero),
				zap.Int("records", len(near)),
			)
			return zero, true
		}

		prevLevel = level
		prevNet = net
	}

	return 0, false
}

// netGamma is total call gamma minus total put gamma at a hypothetical spot.
func (s *ZeroGammaSolver) netGamma(records []options.Record, level float64, asOf time.Time) float64 {
	var model pricing.BlackScholes
	net := 0.0
	for _, rec := range records {
		vol := rec.ImpliedVolatility
		if vol <= 0 {
			vol = s.defaultVol
		}
		gamma := model.Gamma(pricing.Input{
			Spot:       level,
			Strike:     rec.Strike,
			TimeYears:  session.TradingYears(asOf, rec.Expiration),
			Rate:       s.rate,
			Volatility: vol,
			Side:       rec.Side,
		})
		weighted := gamma * float64(rec.OpenInterest)
		if rec.Side == options.Call {
			net += weighted
		} else {
			net -= weighted
		}
	}
	return net
}

func signFlip(a, b float64) bool {
	return (a < 0 && b >= 0) || (a > 0 && b <= 0)
}

// interpolateZero linearly interpolates the crossing between two levels.
func interpolateZero(x1, y1, x2, y2 float64) float64 {
	if y2 == y1 {
		return x1
	}
	return x1 + (x2-x1)*(-y1)/(y2-y1)
}
