package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/gex-engine/internal/gex"
	"github.com/dgnsrekt/gex-engine/internal/levels"
	"github.com/dgnsrekt/gex-engine/internal/pricing"
)

// NewRouter builds the HTTP surface: JSON endpoints over the snapshot plus
// the websocket stream, behind a shared rate limiter.
func NewRouter(s *Server, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	limiter := rate.NewLimiter(rate.Limit(s.cfg.Server.RatePerSecond), s.cfg.Server.RatePerSecond*2)
	r.Use(rateLimit(limiter, logger))

	r.Get("/health", s.handleHealth)
	r.Get("/gex", s.handleGex)
	r.Get("/zero-gamma", s.handleZeroGamma)
	r.Get("/expected-move", s.handleExpectedMove)
	r.Get("/walls", s.handleWalls)
	r.Get("/stream/gex", s.handleStream)

	return r
}

func rateLimit(limiter *rate.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.Debug("rate limited", zap.String("path", r.URL.Path))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type gexResponse struct {
	RunID  string  `json:"run_id"`
	Spot   float64 `json:"spot"`
	Method string  `json:"method"`
	gex.Aggregate
}

func (s *Server) handleGex(w http.ResponseWriter, r *http.Request) {
	spot, ok := s.spotParam(w, r)
	if !ok {
		return
	}
	method, ok := s.methodParam(w, r)
	if !ok {
		return
	}
	model, err := s.model(method)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID := uuid.NewString()
	agg := s.agg.Aggregate(s.records, spot, model, s.asOf())

	s.logger.Debug("gex request",
		zap.String("runID", runID),
		zap.Float64("spot", spot),
		zap.String("method", string(method)),
		zap.Float64("totalBn", agg.Total),
	)

	writeJSON(w, gexResponse{
		RunID:     runID,
		Spot:      spot,
		Method:    string(method),
		Aggregate: agg,
	})
}

type zeroGammaResponse struct {
	RunID     string   `json:"run_id"`
	Spot      float64  `json:"spot"`
	ZeroGamma *float64 `json:"zero_gamma"` // null when net gamma never crosses zero
}

func (s *Server) handleZeroGamma(w http.ResponseWriter, r *http.Request) {
	spot, ok := s.spotParam(w, r)
	if !ok {
		return
	}
	cutoff, ok := s.expirationParam(w, r)
	if !ok {
		return
	}

	resp := zeroGammaResponse{RunID: uuid.NewString(), Spot: spot}
	if level, found := s.solver.Solve(s.records, spot, s.asOf(), cutoff); found {
		resp.ZeroGamma = &level
	}

	writeJSON(w, resp)
}

func (s *Server) handleExpectedMove(w http.ResponseWriter, r *http.Request) {
	spot, ok := s.spotParam(w, r)
	if !ok {
		return
	}
	only, ok := s.expirationParam(w, r)
	if !ok {
		return
	}

	bands := s.moves.Compute(s.records, spot, s.asOf(), only)
	writeJSON(w, map[string]any{
		"run_id": uuid.NewString(),
		"spot":   spot,
		"bands":  bands,
	})
}

func (s *Server) handleWalls(w http.ResponseWriter, r *http.Request) {
	expiry, ok := s.expirationParam(w, r)
	if !ok {
		return
	}
	if expiry == nil {
		writeError(w, http.StatusBadRequest, "expiration parameter is required")
		return
	}

	walls := levels.DetectWalls(s.records, *expiry)
	writeJSON(w, map[string]any{
		"run_id":     uuid.NewString(),
		"expiration": expiry.Format("2006-01-02"),
		"call_wall":  walls.CallWall,
		"put_wall":   walls.PutWall,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"records": len(s.records),
	})
}

// spotParam parses the required spot query parameter.
func (s *Server) spotParam(w http.ResponseWriter, r *http.Request) (float64, bool) {
	raw := r.URL.Query().Get("spot")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "spot parameter is required")
		return 0, false
	}
	spot, err := strconv.ParseFloat(raw, 64)
	if err != nil || spot <= 0 {
		writeError(w, http.StatusBadRequest, "spot must be a positive number")
		return 0, false
	}
	return spot, true
}

// methodParam parses the optional pricing-method selector.
func (s *Server) methodParam(w http.ResponseWriter, r *http.Request) (pricing.Method, bool) {
	raw := r.URL.Query().Get("method")
	switch pricing.Method(raw) {
	case "", pricing.MethodBlackScholes:
		return pricing.MethodBlackScholes, true
	case pricing.MethodBinomial:
		return pricing.MethodBinomial, true
	default:
		writeError(w, http.StatusBadRequest, "method must be black-scholes or binomial")
		return "", false
	}
}

// expirationParam parses the optional expiration filter ("all" or absent
// means no filter).
func (s *Server) expirationParam(w http.ResponseWriter, r *http.Request) (*time.Time, bool) {
	raw := r.URL.Query().Get("expiration")
	if raw == "" || raw == "all" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "expiration must be an ISO date (YYYY-MM-DD) or 'all'")
		return nil, false
	}
	t = t.UTC()
	return &t, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
