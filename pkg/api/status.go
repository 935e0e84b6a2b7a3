package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/cadence/pkg/channel"
	"github.com/cuemby/cadence/pkg/log"
	"github.com/cuemby/cadence/pkg/metrics"
	"github.com/cuemby/cadence/pkg/types"
)

// SessionView exposes the merged aggregate. *session.Controller satisfies it.
type SessionView interface {
	Snapshot() *types.Session
}

// ChannelView exposes channel states. *channel.Multiplexer satisfies it.
type ChannelView interface {
	States() map[string]channel.State
}

// StatusServer serves local status endpoints for a running client
type StatusServer struct {
	session  SessionView
	channels ChannelView
	version  string
	mux      *http.ServeMux

	mu     sync.Mutex
	server *http.Server
}

// NewStatusServer creates a status server. channels may be nil.
func NewStatusServer(session SessionView, channels ChannelView, version string) *StatusServer {
	mux := http.NewServeMux()
	s := &StatusServer{
		session:  session,
		channels: channels,
		version:  version,
		mux:      mux,
	}

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)
	mux.HandleFunc("/session", s.sessionHandler)
	mux.Handle("/health/components", metrics.HealthHandler())
	mux.Handle("/live", metrics.LivenessHandler())
	mux.Handle("/metrics", metrics.Handler())

	return s
}

// Start serves on addr until Shutdown. It returns nil after a clean shutdown.
func (s *StatusServer) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	log.Logger.Info().Str("addr", addr).Msg("Status server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status server failed: %w", err)
	}
	return nil
}

// Shutdown stops a started server
func (s *StatusServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Handler returns the mux for embedding in other servers
func (s *StatusServer) Handler() http.Handler {
	return s.mux
}

// HealthResponse is the /health body
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// ReadyResponse is the /ready body
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Message   string            `json:"message,omitempty"`
}

// healthHandler is a liveness check: 200 while the process runs
func (s *StatusServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
	})
}

// readyHandler reports ready once a session is running and every channel
// is open
func (s *StatusServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	ready := true
	var message string

	sess := s.session.Snapshot()
	switch {
	case sess == nil:
		checks["session"] = "absent"
		ready = false
		message = "No session loaded"
	case !sess.IsRunning:
		checks["session"] = "ended"
		ready = false
		message = "Session has ended"
	default:
		checks["session"] = "running"
	}

	if s.channels != nil {
		states := s.channels.States()
		names := make([]string, 0, len(states))
		for name := range states {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			state := states[name]
			checks["channel."+name] = string(state)
			if state != channel.StateOpen {
				ready = false
				if message == "" {
					message = "Waiting for " + name + " channel"
				}
			}
		}
	}

	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, ReadyResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
		Message:   message,
	})
}

// sessionHandler returns the merged aggregate
func (s *StatusServer) sessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess := s.session.Snapshot()
	if sess == nil {
		http.Error(w, "No session loaded", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{Session: sess, IsRunning: sess.IsRunning})
}

// SessionResponse is the /session body. IsRunning is carried next to the
// aggregate since it never travels inside it.
type SessionResponse struct {
	Session   *types.Session `json:"session"`
	IsRunning bool           `json:"isRunning"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
