package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-engine/internal/config"
	"github.com/dgnsrekt/gex-engine/internal/options"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{
		Engine: config.EngineConfig{
			RiskFreeRate:        0.05,
			DefaultVolatility:   0.30,
			BinomialSteps:       100,
			Workers:             2,
			ZeroGammaCutoffDays: 60,
		},
		Server: config.ServerConfig{
			Port:              "8080",
			RatePerSecond:     100,
			StreamIntervalSec: 1,
		},
	}

	expiry := time.Now().UTC().AddDate(0, 0, 30)
	records := []options.Record{
		{Strike: 110, Side: options.Call, Expiration: expiry, ImpliedVolatility: 0.2, OpenInterest: 1000},
		{Strike: 90, Side: options.Put, Expiration: expiry, ImpliedVolatility: 0.2, OpenInterest: 1000},
	}

	s := NewServer(records, cfg, zap.NewNop())
	return NewRouter(s, zap.NewNop())
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	rec := get(t, testRouter(t), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	decode(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["records"] != float64(2) {
		t.Errorf("expected 2 records, got %v", body["records"])
	}
}

func TestGexEndpoint(t *testing.T) {
	rec := get(t, testRouter(t), "/gex?spot=100")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		RunID  string  `json:"run_id"`
		Spot   float64 `json:"spot"`
		Method string  `json:"method"`
		Total  float64 `json:"total"`
	}
	decode(t, rec, &body)

	if body.RunID == "" {
		t.Error("expected a run_id")
	}
	if body.Spot != 100 {
		t.Errorf("expected spot 100, got %v", body.Spot)
	}
	if body.Method != "black-scholes" {
		t.Errorf("expected default method black-scholes, got %q", body.Method)
	}
}

func TestGexEndpointMissingSpot(t *testing.T) {
	rec := get(t, testRouter(t), "/gex")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body map[string]string
	decode(t, rec, &body)
	if body["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestGexEndpointRejectsBadInputs(t *testing.T) {
	router := testRouter(t)

	cases := []string{
		"/gex?spot=-5",
		"/gex?spot=abc",
		"/gex?spot=100&method=trinomial",
	}
	for _, target := range cases {
		if rec := get(t, router, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestZeroGammaEndpoint(t *testing.T) {
	rec := get(t, testRouter(t), "/zero-gamma?spot=100")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		ZeroGamma *float64 `json:"zero_gamma"`
	}
	decode(t, rec, &body)

	// The 110-call / 90-put book flips sign inside the swept range.
	if body.ZeroGamma == nil {
		t.Fatal("expected a zero-gamma level")
	}
	if *body.ZeroGamma <= 80 || *body.ZeroGamma >= 120 {
		t.Errorf("zero gamma %v outside the swept range", *body.ZeroGamma)
	}
}

func TestWallsEndpointRequiresExpiration(t *testing.T) {
	router := testRouter(t)

	if rec := get(t, router, "/walls"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without expiration, got %d", rec.Code)
	}
	if rec := get(t, router, "/walls?expiration=not-a-date"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed expiration, got %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	cfg := &config.Config{
		Engine: config.EngineConfig{
			RiskFreeRate:        0.05,
			DefaultVolatility:   0.30,
			BinomialSteps:       100,
			Workers:             1,
			ZeroGammaCutoffDays: 60,
		},
		Server: config.ServerConfig{RatePerSecond: 1},
	}
	s := NewServer(nil, cfg, zap.NewNop())
	router := NewRouter(s, zap.NewNop())

	// Burst is 2x the rate; the third immediate request must be rejected.
	limited := false
	for i := 0; i < 5; i++ {
		if rec := get(t, router, "/health"); rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected at least one rate-limited response")
	}
}
