package pricing

import (
	"math"

	"github.com/dgnsrekt/gex-engine/internal/options"
)

// DefaultBinomialSteps is the lattice depth used when callers pass 0.
const DefaultBinomialSteps = 100

// BinomialTree prices under a recombining Cox-Ross-Rubinstein lattice with
// early exercise at every node, capturing the American premium that the
// closed form misses. Greeks come from finite-difference bumps, so a full
// Greek set costs several tree evaluations; callers should prefer
// BlackScholes for European-style underlyings.
type BinomialTree struct {
	Steps int
}

func NewBinomialTree(steps int) BinomialTree {
	if steps <= 0 {
		steps = DefaultBinomialSteps
	}
	return BinomialTree{Steps: steps}
}

func (m BinomialTree) PriceAndGreeks(in Input) Result {
	if degenerate(in) {
		return Result{}
	}

	price := m.value(in)

	// Delta and gamma from ±1% spot bumps, re-running the tree per bump.
	const bump = 0.01
	dS := in.Spot * bump

	up := in
	up.Spot = in.Spot + dS
	down := in
	down.Spot = in.Spot - dS

	priceUp := m.value(up)
	priceDown := m.value(down)

	delta := (priceUp - priceDown) / (2 * dS)
	gamma := (priceUp - 2*price + priceDown) / (dS * dS)

	// Remaining Greeks follow the same finite-difference approach: one
	// calendar day for theta, one vol point for vega, one rate point for rho.
	const day = 1.0 / 365

	later := in
	later.TimeYears = in.TimeYears - day
	theta := 0.0 // zero when less than a day remains
	if later.TimeYears > 0 {
		theta = m.value(later) - price
	}

	volUp := in
	volUp.Volatility = in.Volatility + 0.01
	vega := (m.value(volUp) - price) / 0.01

	rateUp := in
	rateUp.Rate = in.Rate + 0.01
	rho := (m.value(rateUp) - price) / 0.01

	return Result{
		Price: price,
		Delta: delta,
		Gamma: gamma,
		Theta: theta,
		Vega:  vega,
		Rho:   rho,
	}
}

// value runs one backward induction over the lattice.
func (m BinomialTree) value(in Input) float64 {
	steps := m.Steps
	dt := in.TimeYears / float64(steps)

	u := math.Exp(in.Volatility * math.Sqrt(dt))
	d := 1 / u
	p := (math.Exp((in.Rate-in.Yield)*dt) - d) / (u - d)
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0
	}
	disc := math.Exp(-in.Rate * dt)

	// Terminal payoffs at the leaves.
	values := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		spot := in.Spot * math.Pow(u, float64(i)) * math.Pow(d, float64(steps-i))
		values[i] = intrinsic(spot, in.Strike, in.Side)
	}

	// Walk back; early exercise keeps each node at least intrinsic.
	for step := steps - 1; step >= 0; step-- {
		for i := 0; i <= step; i++ {
			continuation := disc * (p*values[i+1] + (1-p)*values[i])
			spot := in.Spot * math.Pow(u, float64(i)) * math.Pow(d, float64(step-i))
			exercise := intrinsic(spot, in.Strike, in.Side)
			values[i] = math.Max(continuation, exercise)
		}
	}

	return values[0]
}

func intrinsic(spot, strike float64, side options.Side) float64 {
	if side == options.Call {
		return math.Max(0, spot-strike)
	}
	return math.Max(0, strike-spot)
}
