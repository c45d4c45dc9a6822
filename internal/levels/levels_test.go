package levels

import (
	"testing"
	"time"

	"github.com/dgnsrekt/gex-engine/internal/options"
)

var asOf = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func record(strike float64, side options.Side, delta float64, oi int64, expiry time.Time) options.Record {
	return options.Record{
		Strike:            strike,
		Side:              side,
		Delta:             delta,
		OpenInterest:      oi,
		ImpliedVolatility: 0.2,
		Expiration:        expiry,
	}
}

func TestExpectedMoveFromSuppliedDeltas(t *testing.T) {
	expiry := asOf.AddDate(0, 0, 30)
	records := []options.Record{
		record(100, options.Call, 0.50, 10, expiry),
		record(110, options.Call, 0.16, 10, expiry),
		record(120, options.Call, 0.05, 10, expiry),
		record(100, options.Put, -0.50, 10, expiry),
		record(90, options.Put, -0.17, 10, expiry),
		record(80, options.Put, -0.04, 10, expiry),
	}

	bands := NewExpectedMoveCalculator(0.05, 0.3).Compute(records, 100, asOf, nil)
	if len(bands) != 1 {
		t.Fatalf("expected 1 band, got %d", len(bands))
	}

	band := bands[0]
	if band.UpperStrike != 110 {
		t.Errorf("expected upper strike 110, got %v", band.UpperStrike)
	}
	if band.LowerStrike != 90 {
		t.Errorf("expected lower strike 90, got %v", band.LowerStrike)
	}
	if band.UpperPct != 10.0 {
		t.Errorf("expected upper pct 10.00, got %v", band.UpperPct)
	}
	if band.LowerPct != -10.0 {
		t.Errorf("expected lower pct -10.00, got %v", band.LowerPct)
	}
	if band.Expiration != expiry.Format("2006-01-02") {
		t.Errorf("unexpected band expiration %v", band.Expiration)
	}
}

func TestExpectedMoveComputesMissingDeltas(t *testing.T) {
	// No source deltas at all: the calculator derives Black-Scholes deltas
	// from each record's IV. OTM wings should beat the ATM strikes for the
	// 0.16 target.
	expiry := asOf.AddDate(0, 0, 30)
	records := []options.Record{
		record(100, options.Call, 0, 10, expiry),
		record(108, options.Call, 0, 10, expiry),
		record(100, options.Put, 0, 10, expiry),
		record(92, options.Put, 0, 10, expiry),
	}

	bands := NewExpectedMoveCalculator(0.05, 0.3).Compute(records, 100, asOf, nil)
	if len(bands) != 1 {
		t.Fatalf("expected 1 band, got %d", len(bands))
	}
	if bands[0].UpperStrike != 108 {
		t.Errorf("expected OTM call 108, got %v", bands[0].UpperStrike)
	}
	if bands[0].LowerStrike != 92 {
		t.Errorf("expected OTM put 92, got %v", bands[0].LowerStrike)
	}
}

func TestExpectedMoveSkipsOneSidedExpirations(t *testing.T) {
	expiry := asOf.AddDate(0, 0, 30)
	callsOnly := []options.Record{
		record(110, options.Call, 0.16, 10, expiry),
	}

	if bands := NewExpectedMoveCalculator(0.05, 0.3).Compute(callsOnly, 100, asOf, nil); len(bands) != 0 {
		t.Errorf("expected no bands for a calls-only expiration, got %d", len(bands))
	}
}

func TestExpectedMoveHorizonAndFilter(t *testing.T) {
	near := asOf.AddDate(0, 0, 30)
	far := asOf.AddDate(2, 0, 0) // beyond the one-year horizon
	records := []options.Record{
		record(110, options.Call, 0.16, 10, near),
		record(90, options.Put, -0.16, 10, near),
		record(130, options.Call, 0.16, 10, far),
		record(70, options.Put, -0.16, 10, far),
	}

	calc := NewExpectedMoveCalculator(0.05, 0.3)

	bands := calc.Compute(records, 100, asOf, nil)
	if len(bands) != 1 {
		t.Fatalf("expected only the near expiration within a year, got %d bands", len(bands))
	}

	// An explicit expiration overrides the horizon.
	bands = calc.Compute(records, 100, asOf, &far)
	if len(bands) != 1 || bands[0].UpperStrike != 130 {
		t.Fatalf("expected the far expiration when requested, got %+v", bands)
	}
}

func TestDetectWalls(t *testing.T) {
	expiry := asOf.AddDate(0, 0, 30)
	other := asOf.AddDate(0, 0, 60)
	records := []options.Record{
		record(100, options.Call, 0, 500, expiry),
		record(110, options.Call, 0, 1500, expiry),
		record(110, options.Call, 0, 200, expiry), // same strike accumulates
		record(90, options.Put, 0, 900, expiry),
		record(95, options.Put, 0, 400, expiry),
		record(120, options.Call, 0, 9999, other), // different expiration, ignored
	}

	walls := DetectWalls(records, expiry)
	if walls.CallWall == nil || *walls.CallWall != 110 {
		t.Errorf("expected call wall 110, got %v", walls.CallWall)
	}
	if walls.PutWall == nil || *walls.PutWall != 90 {
		t.Errorf("expected put wall 90, got %v", walls.PutWall)
	}
}

func TestDetectWallsMissingSide(t *testing.T) {
	expiry := asOf.AddDate(0, 0, 30)
	records := []options.Record{
		record(100, options.Call, 0, 500, expiry),
	}

	walls := DetectWalls(records, expiry)
	if walls.CallWall == nil || *walls.CallWall != 100 {
		t.Errorf("expected call wall 100, got %v", walls.CallWall)
	}
	if walls.PutWall != nil {
		t.Errorf("expected no put wall, got %v", *walls.PutWall)
	}
}
