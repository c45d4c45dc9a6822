package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStream pushes freshly recomputed GEX aggregates to a dashboard client
// on a fixed interval until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
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

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	s.logger.Info("stream client connected",
		zap.String("clientID", clientID),
		zap.Float64("spot", spot),
	)

	// Reader goroutine only to observe client close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.Server.StreamInterval())
	defer ticker.Stop()

	for {
		select {
		case <-done:
			s.logger.Info("stream client disconnected", zap.String("clientID", clientID))
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			agg := s.agg.Aggregate(s.records, spot, model, s.asOf())
			if err := conn.WriteJSON(agg); err != nil {
				s.logger.Debug("stream write failed",
					zap.String("clientID", clientID),
					zap.Error(err),
				)
				return
			}
		}
	}
}
