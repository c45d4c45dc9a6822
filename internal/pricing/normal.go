package pricing

import "math"

// Zelen & Severo rational approximation coefficients for the standard normal
// CDF (Abramowitz & Stegun 26.2.17). Absolute error below 7.5e-8, which keeps
// the engine self-contained without a special-function dependency.
const (
	nk = 0.2316419
	b1 = 0.319381530
	b2 = -0.356563782
	b3 = 1.781477937
	b4 = -1.821255978
	b5 = 1.330274429
)

// normPDF is the standard normal density.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	if x < 0 {
		return 1 - normCDF(-x)
	}
	k := 1 / (1 + nk*x)
	poly := k * (b1 + k*(b2+k*(b3+k*(b4+k*b5))))
	return 1 - normPDF(x)*poly
}
