package levels

import (
	"time"

	"github.com/dgnsrekt/gex-engine/internal/options"
)

// Walls holds the per-side maximum open-interest strikes for one expiration.
// A side with no options present has a nil wall.
type Walls struct {
	CallWall *float64 `json:"call_wall,omitempty"`
	PutWall  *float64 `json:"put_wall,omitempty"`
}

// DetectWalls sums open interest by strike separately for calls and puts at
// the given expiration and returns the strike with the largest sum per side.
// Ties resolve to the lower strike for deterministic output.
func DetectWalls(records []options.Record, expiration time.Time) Walls {
	callOI := make(map[float64]int64)
	putOI := make(map[float64]int64)

	for _, rec := range records {
		if !rec.Expiration.Equal(expiration) {
			continue
		}
		if rec.Side == options.Call {
			callOI[rec.Strike] += rec.OpenInterest
		} else {
			putOI[rec.Strike] += rec.OpenInterest
		}
	}

	return Walls{
		CallWall: maxOIStrike(callOI),
		PutWall:  maxOIStrike(putOI),
	}
}

func maxOIStrike(oi map[float64]int64) *float64 {
	var best *float64
	bestOI := int64(-1)
	for strike, sum := range oi {
		if sum > bestOI || (sum == bestOI && best != nil && strike < *best) {
			s := strike
			best = &s
			bestOI = sum
		}
	}
	return best
}
