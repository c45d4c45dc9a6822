package pricing

import (
	"math"

	"github.com/dgnsrekt/gex-engine/internal/options"
)

// BlackScholes is the closed-form European pricing model. Appropriate for
// cash-settled index options; single-name equities with early-exercise value
// should use BinomialTree instead.
type BlackScholes struct{}

// Gamma returns just the Black-Scholes gamma, which is identical for calls
// and puts. The zero-gamma solver uses this directly since its sweep only
// needs gamma, not the full Greek set.
func (BlackScholes) Gamma(in Input) float64 {
	if degenerate(in) {
		return 0
	}
	sqrtT := math.Sqrt(in.TimeYears)
	d1 := bsD1(in, sqrtT)
	return math.Exp(-in.Yield*in.TimeYears) * normPDF(d1) / (in.Spot * in.Volatility * sqrtT)
}

func (m BlackScholes) PriceAndGreeks(in Input) Result {
	if degenerate(in) {
		return Result{}
	}

	sqrtT := math.Sqrt(in.TimeYears)
	d1 := bsD1(in, sqrtT)
	d2 := d1 - in.Volatility*sqrtT

	discR := math.Exp(-in.Rate * in.TimeYears)  // e^(-rT)
	discQ := math.Exp(-in.Yield * in.TimeYears) // e^(-qT)

	var res Result
	res.Gamma = discQ * normPDF(d1) / (in.Spot * in.Volatility * sqrtT)
	res.Vega = in.Spot * discQ * normPDF(d1) * sqrtT

	// Common decay term shared by both sides.
	decay := -(in.Spot * discQ * normPDF(d1) * in.Volatility) / (2 * sqrtT)

	if in.Side == options.Call {
		res.Price = in.Spot*discQ*normCDF(d1) - in.Strike*discR*normCDF(d2)
		res.Delta = discQ * normCDF(d1)
		res.Theta = decay - in.Rate*in.Strike*discR*normCDF(d2) + in.Yield*in.Spot*discQ*normCDF(d1)
		res.Rho = in.Strike * in.TimeYears * discR * normCDF(d2)
	} else {
		res.Price = in.Strike*discR*normCDF(-d2) - in.Spot*discQ*normCDF(-d1)
		res.Delta = discQ * (normCDF(d1) - 1)
		res.Theta = decay + in.Rate*in.Strike*discR*normCDF(-d2) - in.Yield*in.Spot*discQ*normCDF(-d1)
		res.Rho = -in.Strike * in.TimeYears * discR * normCDF(-d2)
	}

	// Theta is reported per calendar day.
	res.Theta /= 365

	return res
}

func bsD1(in Input, sqrtT float64) float64 {
	return (math.Log(in.Spot/in.Strike) + (in.Rate-in.Yield+0.5*in.Volatility*in.Volatility)*in.TimeYears) /
		(in.Volatility * sqrtT)
}
