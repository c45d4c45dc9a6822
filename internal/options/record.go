package options

import "time"

// Side identifies whether a contract is a call or a put.
type Side string

const (
	Call Side = "call"
	Put  Side = "put"
)

// Record is the canonical form of one option-chain row. The normalizer is the
// only producer; nothing mutates a Record after construction.
type Record struct {
	Strike     float64   `json:"strike"`
	Side       Side      `json:"side"`
	Expiration time.Time `json:"expiration"` // UTC midnight, no time-of-day

	// ImpliedVolatility of 0 means "not supplied"; consumers fall back to a
	// default volatility when computing Greeks.
	ImpliedVolatility float64 `json:"iv"`

	OpenInterest int64 `json:"open_interest"`
	Volume       int64 `json:"volume"`

	// Delta and Gamma of 0 mean "not supplied; compute on demand".
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`

	// Quote fields are optional; nil when the source omitted them.
	Bid  *float64 `json:"bid,omitempty"`
	Ask  *float64 `json:"ask,omitempty"`
	Last *float64 `json:"last,omitempty"`
}

// Valid reports whether the record satisfies the invariants the rest of the
// engine relies on. Records failing this are dropped during normalization.
func (r Record) Valid() bool {
	return r.Strike > 0 && r.OpenInterest > 0 && !r.Expiration.IsZero()
}

// ExpiresOnOrBefore reports whether the record's expiration is on or before t,
// comparing dates only.
func (r Record) ExpiresOnOrBefore(t time.Time) bool {
	return !r.Expiration.After(t)
}
