// Package actionserver serves the /api/actions/ REST resource over a
// pluggable store. It is the reference backend for the ecotrack client.
package actionserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/ecotrack/internal/storage"
)

// ServerStatus is what /health reports.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// Server owns one http.Server bound to the configured address. A Server is
// started once; after Shutdown it reports draining and has no address.
type Server struct {
	settings Settings
	store    storage.Store
	logger   *zap.Logger
	clock    func() time.Time

	mu      sync.RWMutex
	http    *http.Server
	ln      net.Listener
	status  ServerStatus
	started time.Time
	done    chan error
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control uptime.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewServer prepares a server backed by store.
func NewServer(settings Settings, store storage.Store, opts ...Option) *Server {
	settings.normalize()
	s := &Server{
		settings: settings,
		store:    store,
		logger:   zap.NewNop(),
		clock:    func() time.Time { return time.Now().UTC() },
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/actions/{$}", s.handleList)
	mux.HandleFunc("POST /api/actions/{$}", s.handleCreate)
	mux.HandleFunc("GET /api/actions/{id}/{$}", s.handleGet)
	mux.HandleFunc("PUT /api/actions/{id}/{$}", s.handleReplace)
	mux.HandleFunc("PATCH /api/actions/{id}/{$}", s.handlePatch)
	mux.HandleFunc("DELETE /api/actions/{id}/{$}", s.handleDelete)
	return s.wrap(mux)
}

// wrap applies the middleware chain. AccessLog sits outside Recovery so a
// recovered panic is logged with its 500.
func (s *Server) wrap(h http.Handler) http.Handler {
	return Chain(RequestID, AccessLog(s.logger), Recovery(s.logger))(h)
}

// Start listens on the configured address and serves in the background.
// ctx becomes the base context of every request.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("actionserver: nil server")
	}
	if s.store == nil {
		return errors.New("actionserver: no store configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil || s.status == StatusDraining {
		return errors.New("actionserver: already started")
	}

	ln, err := net.Listen("tcp", s.settings.Address())
	if err != nil {
		return fmt.Errorf("actionserver: listen %s: %w", s.settings.Address(), err)
	}
	hs := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
		ErrorLog:     zap.NewStdLog(s.logger.Named("http")),
	}
	done := make(chan error, 1)
	go func() {
		err := hs.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else if err != nil {
			s.logger.Error("serve failed", zap.Error(err))
		}
		done <- err
		close(done)
	}()

	s.http, s.ln, s.done = hs, ln, done
	s.started = s.clock()
	s.status = StatusReady
	s.logger.Info("listening", zap.String("addr", ln.Addr().String()), zap.String("storage", fmt.Sprintf("%T", s.store)))
	return nil
}

// Done delivers the result of the serve loop once it exits: nil after a
// clean Shutdown, the listener error otherwise. It is nil before Start.
func (s *Server) Done() <-chan error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

// Shutdown drains in-flight requests. Without a deadline on ctx the
// configured ShutdownTimeout applies. The lock is not held while draining,
// so handlers that read server state can still finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	hs := s.http
	if hs == nil {
		s.mu.Unlock()
		return nil
	}
	s.http = nil
	s.status = StatusDraining
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.ShutdownTimeout)
		defer cancel()
	}
	err := hs.Shutdown(ctx)
	if err != nil {
		_ = hs.Close()
	}

	s.mu.Lock()
	s.ln = nil
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("actionserver: shutdown: %w", err)
	}
	s.logger.Info("stopped", zap.Int64("uptime_seconds", s.uptimeSeconds()))
	return nil
}

// Addr is the bound host:port, or "" when not serving.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// BaseURL prefers the bound address, which differs from the settings when
// the port was 0.
func (s *Server) BaseURL() string {
	if addr := s.Addr(); addr != "" {
		return "http://" + addr
	}
	return s.settings.URL()
}

func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptimeSeconds() int64 {
	now := s.clock()
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if started.IsZero() {
		return 0
	}
	return int64(now.Sub(started) / time.Second)
}
