// Package normalize converts raw option-chain rows of unknown shape into
// canonical records. Upstream feeds disagree on field names, date encodings
// and which Greeks they supply, so everything here is alias-driven and
// best-effort: a row that cannot satisfy the core invariants is dropped, a
// row that merely has a bad date gets a sentinel expiration, and nothing
// short of a non-list input fails the batch.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-engine/internal/options"
)

// occSymbol matches OSI-style contract symbols: root, YYMMDD expiration, C/P
// flag, strike in thousandths padded to 8 digits (e.g. SPXW240119C04800000).
var occSymbol = regexp.MustCompile(`^([A-Z.]{1,6})(\d{6})([CP])(\d{8})$`)

// Field aliases seen across upstream providers. First match wins.
var (
	strikeKeys = []string{"strike", "strike_price", "strikePrice", "k"}
	sideKeys   = []string{"side", "type", "option_type", "optionType", "put_call", "putCall", "right", "cp"}
	expiryKeys = []string{"expiration", "expiration_date", "expirationDate", "expiry", "expiry_date", "exp_date", "expDate", "date"}
	symbolKeys = []string{"symbol", "option_symbol", "optionSymbol", "option", "contract", "contractSymbol", "ticker"}
	ivKeys     = []string{"iv", "implied_volatility", "impliedVolatility", "mid_iv", "midIv", "volatility"}
	oiKeys     = []string{"open_interest", "openInterest", "oi"}
	volumeKeys = []string{"volume", "vol", "total_volume", "totalVolume"}
	deltaKeys  = []string{"delta"}
	gammaKeys  = []string{"gamma"}
	bidKeys    = []string{"bid", "bid_price", "bidPrice"}
	askKeys    = []string{"ask", "ask_price", "askPrice"}
	lastKeys   = []string{"last", "last_price", "lastPrice", "close"}
)

type Normalizer struct {
	logger *zap.Logger
	now    func() time.Time
}

func New(logger *zap.Logger) *Normalizer {
	return &Normalizer{
		logger: logger,
		now:    time.Now,
	}
}

// Normalize converts raw rows into canonical records, dropping rows that fail
// the strike/open-interest/date invariants. A panic while decoding one row is
// contained to that row.
func (n *Normalizer) Normalize(raw []map[string]any) []options.Record {
	records := make([]options.Record, 0, len(raw))
	dropped := 0

	for i, row := range raw {
		rec := n.normalizeOne(i, row)
		if !rec.Valid() {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	if dropped > 0 {
		n.logger.Debug("dropped invalid option rows",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(records)),
		)
	}

	return records
}

// normalizeOne decodes a single row. Any panic yields a zero Record, which
// the invariant check in Normalize filters out.
func (n *Normalizer) normalizeOne(index int, row map[string]any) (rec options.Record) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("recovered while normalizing option row",
				zap.Int("index", index),
				zap.Any("panic", r),
			)
			rec = options.Record{}
		}
	}()

	symbol, symMatch := matchSymbol(row)

	rec.Side = n.parseSide(row, symMatch)
	rec.Strike = n.parseStrike(row, symMatch)
	rec.Expiration = n.parseExpiration(row, symbol, symMatch)

	rec.ImpliedVolatility = floatField(row, ivKeys)
	if rec.ImpliedVolatility < 0 {
		rec.ImpliedVolatility = 0
	}
	rec.OpenInterest = intField(row, oiKeys)
	rec.Volume = intField(row, volumeKeys)
	rec.Delta = floatField(row, deltaKeys)
	rec.Gamma = floatField(row, gammaKeys)

	rec.Bid = optionalPositive(row, bidKeys)
	rec.Ask = optionalPositive(row, askKeys)
	rec.Last = optionalPositive(row, lastKeys)

	return rec
}

// matchSymbol finds the first symbol-like field and runs the OSI pattern on
// it. Returns the raw symbol string and the submatches (nil when no match).
func matchSymbol(row map[string]any) (string, []string) {
	for _, key := range symbolKeys {
		v, ok := row[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		s = strings.ToUpper(strings.TrimSpace(s))
		return s, occSymbol.FindStringSubmatch(s)
	}
	return "", nil
}

func (n *Normalizer) parseSide(row map[string]any, symMatch []string) options.Side {
	for _, key := range sideKeys {
		v, ok := row[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		switch strings.ToLower(s)[0] {
		case 'c':
			return options.Call
		case 'p':
			return options.Put
		}
	}
	if symMatch != nil {
		if symMatch[3] == "C" {
			return options.Call
		}
		return options.Put
	}
	return options.Call
}

func (n *Normalizer) parseStrike(row map[string]any, symMatch []string) float64 {
	if s := floatField(row, strikeKeys); s > 0 {
		return s
	}
	if symMatch != nil {
		// Fixed-width strike is quoted in thousandths of a dollar.
		if raw, err := strconv.ParseFloat(symMatch[4], 64); err == nil {
			return raw / 1000
		}
	}
	return 0
}

// floatField returns the first alias present, coerced to float64, or 0.
func floatField(row map[string]any, keys []string) float64 {
	for _, key := range keys {
		if v, ok := row[key]; ok {
			if f, ok := toFloat(v); ok {
				return f
			}
		}
	}
	return 0
}

// intField is floatField truncated to a non-negative integer.
func intField(row map[string]any, keys []string) int64 {
	f := floatField(row, keys)
	if f < 0 {
		return 0
	}
	return int64(f)
}

func optionalPositive(row map[string]any, keys []string) *float64 {
	f := floatField(row, keys)
	if f <= 0 {
		return nil
	}
	return &f
}

// toFloat coerces the numeric shapes JSON decoding can produce, plus numeric
// strings. Anything else reads as absent.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
