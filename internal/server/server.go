// Package server is the thin HTTP boundary over the analytics core: a chi
// router exposing the JSON aggregates, a rate limiter, and a websocket
// stream for dashboard clients.
package server

import (
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-engine/internal/config"
	"github.com/dgnsrekt/gex-engine/internal/gex"
	"github.com/dgnsrekt/gex-engine/internal/levels"
	"github.com/dgnsrekt/gex-engine/internal/options"
	"github.com/dgnsrekt/gex-engine/internal/pricing"
)

type Server struct {
	records []options.Record
	agg     *gex.Aggregator
	solver  *gex.ZeroGammaSolver
	moves   *levels.ExpectedMoveCalculator
	cfg     *config.Config
	logger  *zap.Logger
}

// NewServer wires the analytics components over an already-normalized
// snapshot. The snapshot is immutable for the server's lifetime; every
// request prices it fresh.
func NewServer(records []options.Record, cfg *config.Config, logger *zap.Logger) *Server {
	eng := cfg.Engine
	return &Server{
		records: records,
		agg:     gex.NewAggregator(eng.RiskFreeRate, eng.DefaultVolatility, eng.Workers, logger),
		solver:  gex.NewZeroGammaSolver(eng.RiskFreeRate, eng.DefaultVolatility, eng.ZeroGammaCutoffDays, logger),
		moves:   levels.NewExpectedMoveCalculator(eng.RiskFreeRate, eng.DefaultVolatility),
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *Server) model(method pricing.Method) (pricing.Model, error) {
	return pricing.New(method, s.cfg.Engine.BinomialSteps)
}

func (s *Server) asOf() time.Time {
	return time.Now().UTC()
}
