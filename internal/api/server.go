package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/sceneagent/internal/agent"
	"github.com/nerrad567/sceneagent/internal/audit"
	"github.com/nerrad567/sceneagent/internal/directive"
	"github.com/nerrad567/sceneagent/internal/infrastructure/config"
	"github.com/nerrad567/sceneagent/internal/infrastructure/logging"
	"github.com/nerrad567/sceneagent/internal/ledger"
	"github.com/nerrad567/sceneagent/internal/process"
	"github.com/nerrad567/sceneagent/internal/snapshot"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StatusSource reports the orchestrator's counters.
type StatusSource interface {
	Status() agent.Status
}

// BlockQueue accepts directive blocks for the orchestrator.
type BlockQueue interface {
	Append(lines []string) error
	Len() (int, error)
}

// SignalWriter writes one control token to the control document.
type SignalWriter interface {
	WriteSignal(token string) error
}

// Compiler previews what a block compiles to.
type Compiler interface {
	CompileBlock(block []string, scene snapshot.Scene, sel snapshot.Selection) directive.Result
}

// Snapshots supplies the engine's latest documents to the compile preview.
type Snapshots interface {
	Scene() snapshot.Scene
	Selection() snapshot.Selection
}

// Channel exposes the command channel as the engine sees it.
type Channel interface {
	Pending() bool
	PendingCommand() string
	ExecLog() string
}

// EngineStats reports the supervised engine process.
type EngineStats interface {
	Stats() process.Stats
}

// HealthChecker is implemented by infrastructure clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
// Only Logger is required.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Agent     StatusSource
	Ledger    ledger.Repository
	Queue     BlockQueue
	Control   SignalWriter
	Compiler  Compiler
	Snapshots Snapshots
	Engine    EngineStats
	Channel   Channel

	// Audit records enqueue and control actions; AuditLog lists them.
	Audit    *audit.Recorder
	AuditLog audit.Repository

	// Checks are reported by /health under their map key.
	Checks map[string]HealthChecker

	// Hub, if set, is used instead of a server-owned hub so the
	// orchestrator can broadcast before the server starts.
	Hub     *Hub
	Version string
}

// Server is the HTTP API server for sceneagent.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	agent     StatusSource
	ledger    ledger.Repository
	queue     BlockQueue
	control   SignalWriter
	compiler  Compiler
	snapshots Snapshots
	engine    EngineStats
	channel   Channel
	audit     *audit.Recorder
	auditLog  audit.Repository
	checks    map[string]HealthChecker
	version   string

	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If the logger is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		agent:     deps.Agent,
		ledger:    deps.Ledger,
		queue:     deps.Queue,
		control:   deps.Control,
		compiler:  deps.Compiler,
		snapshots: deps.Snapshots,
		engine:    deps.Engine,
		channel:   deps.Channel,
		audit:     deps.Audit,
		auditLog:  deps.AuditLog,
		checks:    deps.Checks,
		version:   deps.Version,
	}
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, deps.Logger)
	}
	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start binds the listener and serves in the background.
//
// Parameters:
//   - ctx: Parent context for the hub; the listener lives until Close
//
// Returns:
//   - error: If the address cannot be bound
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("binding API listener: %w", err)
	}
	s.logger.Info("API server listening", "address", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Close gracefully shuts down the API server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
