package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/sceneagent/internal/agent"
	"github.com/nerrad567/sceneagent/internal/audit"
	"github.com/nerrad567/sceneagent/internal/control"
	"github.com/nerrad567/sceneagent/internal/ledger"
	"github.com/nerrad567/sceneagent/internal/process"
	"github.com/nerrad567/sceneagent/internal/queue"
	"github.com/nerrad567/sceneagent/internal/script"
)

// healthCheckTimeout bounds each component check in /health.
const healthCheckTimeout = 2 * time.Second

// handleHealth reports each registered component. Any failure turns the
// response into 503 so supervisors can probe one URL.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string, len(s.checks))
	healthy := true
	for name, c := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := c.HealthCheck(ctx)
		cancel()
		if err != nil {
			components[name] = err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}

// execLogTailLines bounds the execution log excerpt in /status.
const execLogTailLines = 20

type statusResponse struct {
	Agent   *agent.Status  `json:"agent,omitempty"`
	Engine  *process.Stats `json:"engine,omitempty"`
	Channel *channelStatus `json:"channel,omitempty"`
}

type channelStatus struct {
	Pending      bool   `json:"pending"`
	PendingRunID string `json:"pending_run_id,omitempty"`
	ExecLogTail  string `json:"exec_log_tail,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var resp statusResponse
	if s.agent != nil {
		st := s.agent.Status()
		resp.Agent = &st
	}
	if s.engine != nil {
		st := s.engine.Stats()
		resp.Engine = &st
	}
	if s.channel != nil {
		resp.Channel = &channelStatus{
			Pending:      s.channel.Pending(),
			PendingRunID: agent.RunIDOf(s.channel.PendingCommand()),
			ExecLogTail:  tailLines(s.channel.ExecLog(), execLogTailLines),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDispatches(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeUnavailable(w, "ledger")
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	rows, err := s.ledger.RecentDispatches(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing dispatches", "error", err)
		writeInternalError(w, "failed to list dispatches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dispatches": rows, "count": len(rows)})
}

func (s *Server) handleGetDispatch(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeUnavailable(w, "ledger")
		return
	}
	d, err := s.ledger.GetDispatch(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, ledger.ErrDispatchNotFound) {
		writeNotFound(w, "dispatch not found")
		return
	}
	if err != nil {
		s.logger.Error("getting dispatch", "error", err)
		writeInternalError(w, "failed to get dispatch")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleListTicks(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeUnavailable(w, "ledger")
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	rows, err := s.ledger.RecentTicks(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing ticks", "error", err)
		writeInternalError(w, "failed to list ticks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ticks": rows, "count": len(rows)})
}

// handleListAudit returns recorded operator actions.
//
// Query parameters:
//   - action: enqueue or control
//   - source: api or mqtt
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditLog == nil {
		writeUnavailable(w, "audit")
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := audit.Filter{
		Action: q.Get("action"),
		Source: q.Get("source"),
		Limit:  limit,
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	res, err := s.auditLog.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQueueDepth(w http.ResponseWriter, _ *http.Request) {
	if s.queue == nil {
		writeUnavailable(w, "queue")
		return
	}
	n, err := s.queue.Len()
	if err != nil {
		s.logger.Error("reading queue", "error", err)
		writeInternalError(w, "failed to read queue")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"depth": n})
}

// enqueueRequest is the JSON form of POST /queue. A text/plain body is
// taken as the block itself.
type enqueueRequest struct {
	Lines []string `json:"lines"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	if s.queue == nil {
		writeUnavailable(w, "queue")
		return
	}

	lines, err := readBlock(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.queue.Append(lines); err != nil {
		if errors.Is(err, queue.ErrEmptyBlock) {
			writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, "block has no non-blank lines")
			return
		}
		s.logger.Error("enqueueing block", "error", err)
		writeInternalError(w, "failed to enqueue block")
		return
	}

	depth, _ := s.queue.Len() //nolint:errcheck // depth is informational
	s.logger.Info("block enqueued via API", "lines", len(lines), "depth", depth)
	s.audit.Record(audit.ActionEnqueue, audit.SourceAPI, map[string]any{"lines": len(lines), "depth": depth})
	writeJSON(w, http.StatusAccepted, map[string]int{"depth": depth})
}

func readBlock(r *http.Request) ([]string, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")) //nolint:errcheck // empty type falls through to JSON
	if mt == "text/plain" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, errors.New("failed to read body")
		}
		return strings.Split(string(data), "\n"), nil
	}

	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	return req.Lines, nil
}

type controlRequest struct {
	Signal string `json:"signal"`
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if s.control == nil {
		writeUnavailable(w, "control")
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	sig := control.ParseSignal(req.Signal)
	if sig == control.SignalNone {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, "signal must be PAUSE, RESUME, STEP or STOP")
		return
	}
	if err := s.control.WriteSignal(string(sig)); err != nil {
		s.logger.Error("writing control signal", "signal", sig, "error", err)
		writeInternalError(w, "failed to write control signal")
		return
	}

	s.logger.Info("control signal written via API", "signal", sig)
	s.audit.Record(audit.ActionControl, audit.SourceAPI, map[string]any{"signal": string(sig)})
	writeJSON(w, http.StatusAccepted, map[string]string{"signal": string(sig)})
}

type compileRequest struct {
	Lines []string `json:"lines"`
}

type compileSkip struct {
	Line   string `json:"line"`
	Clause string `json:"clause"`
	Reason string `json:"reason"`
}

type compileResponse struct {
	Code       string        `json:"code"`
	Operations []string      `json:"operations"`
	Skipped    []compileSkip `json:"skipped"`
}

// handleCompile compiles a block against the current snapshots without
// enqueueing it.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if s.compiler == nil || s.snapshots == nil {
		writeUnavailable(w, "compiler")
		return
	}

	var req compileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	res := s.compiler.CompileBlock(req.Lines, s.snapshots.Scene(), s.snapshots.Selection())
	resp := compileResponse{
		Code:       script.Join(res.Ops),
		Operations: make([]string, 0, len(res.Ops)),
		Skipped:    make([]compileSkip, 0, len(res.Skipped)),
	}
	for _, op := range res.Ops {
		resp.Operations = append(resp.Operations, op.Kind())
	}
	for _, sk := range res.Skipped {
		cs := compileSkip{Line: sk.Line, Clause: sk.Clause}
		if sk.Reason != nil {
			cs.Reason = sk.Reason.Error()
		}
		resp.Skipped = append(resp.Skipped, cs)
	}
	writeJSON(w, http.StatusOK, resp)
}

// limitParam parses ?limit=. Absent means the repository default.
func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeBadRequest(w, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// tailLines returns the last n lines of text.
func tailLines(text string, n int) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
