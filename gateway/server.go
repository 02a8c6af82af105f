package gateway

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	orchestration "github.com/callumelder/sonus/core"
)

// OrchestratorFactory builds the conversation behind one connection. Called
// once per start_conversation, so per-session collaborators (the live
// transcription stream in particular) get a fresh instance each time.
type OrchestratorFactory func(ctx context.Context) (*orchestration.Orchestrator, error)

// Server upgrades HTTP requests to WebSocket sessions.
type Server struct {
	upgrader        websocket.Upgrader
	newOrchestrator OrchestratorFactory
}

type ServerOption func(*Server)

// WithCheckOrigin overrides the upgrader's origin policy. The default
// accepts same-origin requests only.
func WithCheckOrigin(checkOrigin func(*http.Request) bool) ServerOption {
	return func(s *Server) { s.upgrader.CheckOrigin = checkOrigin }
}

func NewServer(newOrchestrator OrchestratorFactory, opts ...ServerOption) *Server {
	server := &Server{newOrchestrator: newOrchestrator}
	for _, opt := range opts {
		opt(server)
	}
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "serve session")
	defer span.End()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to upgrade connection", "error", err)
		return
	}

	newSession(conn, s.newOrchestrator).run(ctx)
}
