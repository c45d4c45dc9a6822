// Package levels derives strike-based reference levels from a snapshot:
// delta-targeted expected-move bands and open-interest walls.
package levels

import (
	"math"
	"sort"
	"time"

	"github.com/dgnsrekt/gex-engine/internal/options"
	"github.com/dgnsrekt/gex-engine/internal/pricing"
	"github.com/dgnsrekt/gex-engine/internal/session"
)

// TargetDelta is the absolute delta of the strangle used as a one-standard-
// deviation expected-move proxy.
const TargetDelta = 0.16

// MoveBand is the expected-move range for one expiration: the strikes of the
// 16-delta call and put, plus their distance from spot in percent.
type MoveBand struct {
	Expiration  string  `json:"expiration"` // ISO date
	UpperStrike float64 `json:"upper_strike"`
	LowerStrike float64 `json:"lower_strike"`
	UpperPct    float64 `json:"upper_pct"`
	LowerPct    float64 `json:"lower_pct"`
}

// ExpectedMoveCalculator finds, per expiration, the call closest to +0.16
// delta and the put closest to -0.16 delta. Records without a source-supplied
// delta get a Black-Scholes delta computed from their own IV.
type ExpectedMoveCalculator struct {
	rate       float64
	defaultVol float64
}

func NewExpectedMoveCalculator(rate, defaultVol float64) *ExpectedMoveCalculator {
	return &ExpectedMoveCalculator{rate: rate, defaultVol: defaultVol}
}

// Compute returns one band per distinct expiration within a year of asOf, or
// for the single expiration in only when set. Expirations missing either a
// call or a put are skipped.
func (c *ExpectedMoveCalculator) Compute(records []options.Record, spot float64, asOf time.Time, only *time.Time) []MoveBand {
	horizon := asOf.AddDate(1, 0, 0)

	byExpiry := make(map[time.Time][]options.Record)
	for _, rec := range records {
		if only != nil {
			if !rec.Expiration.Equal(*only) {
				continue
			}
		} else if rec.Expiration.After(horizon) {
			continue
		}
		byExpiry[rec.Expiration] = append(byExpiry[rec.Expiration], rec)
	}

	bands := make([]MoveBand, 0, len(byExpiry))
	for expiry, chain := range byExpiry {
		upper, okUp := c.closestByDelta(chain, spot, asOf, options.Call)
		lower, okDown := c.closestByDelta(chain, spot, asOf, options.Put)
		if !okUp || !okDown {
			continue
		}
		bands = append(bands, MoveBand{
			Expiration:  expiry.Format("2006-01-02"),
			UpperStrike: upper,
			LowerStrike: lower,
			UpperPct:    roundPct((upper - spot) / spot * 100),
			LowerPct:    roundPct((lower - spot) / spot * 100),
		})
	}

	sort.Slice(bands, func(i, j int) bool { return bands[i].Expiration < bands[j].Expiration })
	return bands
}

// closestByDelta returns the strike of the option on the given side whose
// absolute delta is nearest TargetDelta.
func (c *ExpectedMoveCalculator) closestByDelta(chain []options.Record, spot float64, asOf time.Time, side options.Side) (float64, bool) {
	bestStrike := 0.0
	bestDiff := math.MaxFloat64
	found := false

	for _, rec := range chain {
		if rec.Side != side {
			continue
		}
		delta := rec.Delta
		if delta == 0 {
			delta = c.computedDelta(rec, spot, asOf)
		}
		diff := math.Abs(math.Abs(delta) - TargetDelta)
		if diff < bestDiff {
			bestDiff = diff
			bestStrike = rec.Strike
			found = true
		}
	}

	return bestStrike, found
}

func (c *ExpectedMoveCalculator) computedDelta(rec options.Record, spot float64, asOf time.Time) float64 {
	vol := rec.ImpliedVolatility
	if vol <= 0 {
		vol = c.defaultVol
	}
	var model pricing.BlackScholes
	return model.PriceAndGreeks(pricing.Input{
		Spot:       spot,
		Strike:     rec.Strike,
		TimeYears:  session.CalendarYears(asOf, rec.Expiration),
		Rate:       c.rate,
		Volatility: vol,
		Side:       rec.Side,
	}).Delta
}

func roundPct(v float64) float64 {
	return math.Round(v*100) / 100
}
