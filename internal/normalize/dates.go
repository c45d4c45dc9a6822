package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// sentinelDays is how far out the fallback expiration lands when every parse
// attempt fails. Keeps one unreadable row from sinking the batch while still
// being visible in per-expiration output.
const sentinelDays = 30

// slashDate covers MM/DD/YYYY-style provider fields with 2- or 4-digit years.
var slashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})$`)

// genericLayouts is the last-resort parse list for date-ish strings.
var genericLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"20060102",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// parseExpiration resolves the expiration date using the fallback chain:
// symbol-embedded YYMMDD, ISO field, slash-date field, unix timestamp,
// generic date string, then a sentinel 30 days out (logged as suspect).
func (n *Normalizer) parseExpiration(row map[string]any, symbol string, symMatch []string) time.Time {
	// (a) YYMMDD run inside the contract symbol. All realistic listed
	// expiries are 21st century, so YY maps to 2000+YY.
	if symMatch != nil {
		if t, ok := parseYYMMDD(symMatch[2]); ok {
			return t
		}
	}

	for _, key := range expiryKeys {
		v, ok := row[key]
		if !ok {
			continue
		}

		if s, isStr := v.(string); isStr {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}

			// (b) ISO date or ISO timestamp.
			if t, err := time.Parse("2006-01-02", s); err == nil {
				return midnight(t)
			}
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return midnight(t)
			}

			// (c) Slash dates; 2-digit years below 70 are 2000s, the
			// rest 1900s.
			if t, ok := parseSlashDate(s); ok {
				return t
			}

			// (e) Generic fallbacks.
			for _, layout := range genericLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return midnight(t)
				}
			}
			continue
		}

		// (d) Numeric unix timestamp, milliseconds when the magnitude
		// says so.
		if f, isNum := toFloat(v); isNum && f > 0 {
			sec := int64(f)
			if f > 1e12 {
				sec = int64(f / 1000)
			}
			return midnight(time.Unix(sec, 0).UTC())
		}
	}

	// Everything failed: sentinel rather than discard.
	fallback := midnight(n.now().UTC().AddDate(0, 0, sentinelDays))
	n.logger.Warn("unparseable expiration, using sentinel",
		zap.String("symbol", symbol),
		zap.Time("sentinel", fallback),
	)
	return fallback
}

// parseYYMMDD decodes the 6-digit date run from an OSI symbol. YY always maps
// to 2000+YY: every realistic listed expiry falls in the 21st century.
func parseYYMMDD(s string) (time.Time, bool) {
	if len(s) != 6 {
		return time.Time{}, false
	}
	yy, err1 := strconv.Atoi(s[0:2])
	mm, err2 := strconv.Atoi(s[2:4])
	dd, err3 := strconv.Atoi(s[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	return calendarDate(2000+yy, mm, dd)
}

// parseSlashDate decodes MM/DD/YYYY-style dates. Two-digit years use a 1970
// cutoff: below 70 is 2000s, the rest 1900s.
func parseSlashDate(s string) (time.Time, bool) {
	m := slashDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	mon, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		if year < 70 {
			year += 2000
		} else {
			year += 1900
		}
	}
	return calendarDate(year, mon, day)
}

// calendarDate builds a UTC midnight date, rejecting out-of-range components
// (time.Date would silently normalize them).
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
