// Package pricing computes theoretical option prices and Greeks under two
// interchangeable models: closed-form Black-Scholes for European-exercise
// contracts and a Cox-Ross-Rubinstein binomial lattice for American exercise.
package pricing

import (
	"fmt"

	"github.com/dgnsrekt/gex-engine/internal/options"
)

// Method selects a pricing model at the request boundary.
type Method string

const (
	MethodBlackScholes Method = "black-scholes"
	MethodBinomial     Method = "binomial"
)

// Input is one pricing request. Time and volatility are clamped by the models,
// so callers may pass raw values straight from upstream data.
type Input struct {
	Spot       float64
	Strike     float64
	TimeYears  float64 // time to expiry in years
	Rate       float64 // annualized risk-free rate
	Yield      float64 // annualized dividend yield
	Volatility float64
	Side       options.Side
}

// Result holds the theoretical price and the five Greeks. Theta is a
// per-calendar-day figure.
type Result struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Model prices a single option. Implementations never return an error for
// degenerate inputs; they return a zero Result instead, because upstream
// chains routinely contain zero-IV and at-expiry rows.
type Model interface {
	PriceAndGreeks(in Input) Result
}

// New returns the model for the given method. Steps only applies to the
// binomial model; pass 0 for the default.
func New(method Method, steps int) (Model, error) {
	switch method {
	case MethodBlackScholes, "":
		return BlackScholes{}, nil
	case MethodBinomial:
		return NewBinomialTree(steps), nil
	default:
		return nil, fmt.Errorf("unknown pricing method %q", method)
	}
}

// degenerate reports whether the input cannot be priced. The models return a
// zero Result for these rather than propagating NaNs.
func degenerate(in Input) bool {
	return in.TimeYears <= 0 || in.Volatility <= 0 || in.Spot <= 0 || in.Strike <= 0
}
