// Package gateway is the HTTP boundary: REST task CRUD, the chat endpoint,
// conversation listing, and a WebSocket chat channel. Everything under /api
// is owner-scoped and guarded by a TokenVerifier before the core runs.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"taskflow/internal/domain"
)

// ErrInvalidPort is returned when gateway port is not in 0..65535.
var ErrInvalidPort = errors.New("gateway port must be 0-65535")

// ChatProcessor is the interface the gateway needs from the orchestrator.
type ChatProcessor interface {
	Process(ctx context.Context, ownerID, message string, history []domain.Message) (string, []domain.ToolInvocation, error)
	Catalog() []domain.ToolDefinition
}

// Server is the HTTP server for the TaskFlow API.
type Server struct {
	cfg           *domain.GatewayConfig
	chat          ChatProcessor
	tasks         domain.TaskStore
	conversations domain.ConversationStore // nil disables conversation persistence
	verifier      TokenVerifier
	logger        *slog.Logger

	server      *http.Server
	addr        string
	addrMu      sync.RWMutex
	listenErr   error
	listenErrMu sync.Mutex
}

// NewServer builds the gateway. chat and tasks must not be nil;
// conversations may be nil, in which case each chat request is stateless
// (no history replay, no conversation_id in responses).
func NewServer(cfg *domain.GatewayConfig, chat ChatProcessor, tasks domain.TaskStore, conversations domain.ConversationStore, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		cfg = &domain.GatewayConfig{Port: 8000}
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, ErrInvalidPort
	}
	if chat == nil {
		return nil, errors.New("gateway: chat processor must not be nil")
	}
	if tasks == nil {
		return nil, errors.New("gateway: task store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	verifier, err := NewVerifier(cfg.Auth)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:           cfg,
		chat:          chat,
		tasks:         tasks,
		conversations: conversations,
		verifier:      verifier,
		logger:        logger,
	}
	s.server = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// routes builds the mux. Owner-scoped routes are wrapped with RequireOwner
// so the verified subject must match the path user before any handler runs.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /tools", s.handleCatalog)

	owner := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequireOwner(s.verifier, h))
	}
	owner("GET /api/{user_id}/tasks", s.handleListTasks)
	owner("POST /api/{user_id}/tasks", s.handleCreateTask)
	owner("GET /api/{user_id}/tasks/{task_id}", s.handleGetTask)
	owner("PUT /api/{user_id}/tasks/{task_id}", s.handleUpdateTask)
	owner("DELETE /api/{user_id}/tasks/{task_id}", s.handleDeleteTask)
	owner("PATCH /api/{user_id}/tasks/{task_id}/complete", s.handleToggleTask)
	owner("POST /api/{user_id}/chat", s.handleChat)
	owner("GET /api/{user_id}/conversations", s.handleListConversations)
	owner("DELETE /api/{user_id}/conversations/{conversation_id}", s.handleDeleteConversation)
	owner("GET /api/{user_id}/ws", s.handleWS)

	return mux
}

// Handler returns the HTTP handler used by the server. For testing without
// binding a port.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the bound address (e.g. "127.0.0.1:8000") after Run has
// started. Empty before Run.
func (s *Server) Addr() string {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.addr
}

// ListenErr returns the error from the initial Listen in Run(), if any.
func (s *Server) ListenErr() error {
	s.listenErrMu.Lock()
	defer s.listenErrMu.Unlock()
	return s.listenErr
}

// netListen is the function used to listen; tests may replace it to force
// Listen errors.
var netListen = func(network, address string) (net.Listener, error) {
	return net.Listen(network, address)
}

// Run listens on the configured port and serves until shutdown is closed.
// Returns nil when shut down cleanly.
func (s *Server) Run(shutdown <-chan struct{}) error {
	addr := ":" + strconv.Itoa(s.cfg.Port)
	ln, err := netListen("tcp", addr)
	if err != nil {
		s.listenErrMu.Lock()
		s.listenErr = err
		s.listenErrMu.Unlock()
		return err
	}
	s.addrMu.Lock()
	s.addr = ln.Addr().String()
	s.addrMu.Unlock()
	s.logger.Info("gateway listening", "addr", s.addr)

	done := make(chan error, 1)
	go func() {
		done <- s.server.Serve(ln)
	}()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	<-done
	return nil
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a {"detail": ...} error body, the shape the frontend
// expects for every non-2xx response.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
