package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/sceneagent/internal/agent"
	"github.com/nerrad567/sceneagent/internal/audit"
	"github.com/nerrad567/sceneagent/internal/directive"
	"github.com/nerrad567/sceneagent/internal/infrastructure/config"
	"github.com/nerrad567/sceneagent/internal/infrastructure/database"
	"github.com/nerrad567/sceneagent/internal/infrastructure/logging"
	"github.com/nerrad567/sceneagent/internal/ledger"
	"github.com/nerrad567/sceneagent/internal/process"
	"github.com/nerrad567/sceneagent/internal/queue"
	"github.com/nerrad567/sceneagent/internal/snapshot"
	"github.com/nerrad567/sceneagent/migrations"
)

// ─── Mock Dependencies ──────────────────────────────────────────────

type fakeStatus struct{ st agent.Status }

func (f fakeStatus) Status() agent.Status { return f.st }

type fakeEngine struct{}

func (fakeEngine) Stats() process.Stats {
	return process.Stats{Name: "engine", State: process.StateRunning, PID: 4242}
}

type fakeSignals struct {
	mu     sync.Mutex
	tokens []string
	err    error
}

func (f *fakeSignals) WriteSignal(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tokens = append(f.tokens, token)
	return nil
}

type fakeSnapshots struct{}

func (fakeSnapshots) Scene() snapshot.Scene {
	return snapshot.Scene{Objects: []snapshot.Object{{Name: "Cube", Type: "MESH"}}}
}
func (fakeSnapshots) Selection() snapshot.Selection { return snapshot.Selection{} }

type fakeChannel struct {
	command string
	log     string
}

func (f fakeChannel) Pending() bool          { return f.command != "" }
func (f fakeChannel) PendingCommand() string { return f.command }
func (f fakeChannel) ExecLog() string        { return f.log }

type fakeCheck struct{ err error }

func (f fakeCheck) HealthCheck(context.Context) error { return f.err }

type testEnv struct {
	srv     *Server
	handler http.Handler
	queue   *queue.Queue
	ledger  *ledger.SQLiteRepository
	signals *fakeSignals
	audit   *audit.Recorder
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

// testExecLog holds more lines than /status reports.
var testExecLog = func() string {
	var b strings.Builder
	for i := 1; i <= execLogTailLines+5; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return b.String()
}()

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}
}

// newTestEnv wires a server with a real queue file and a real ledger.
func newTestEnv(t *testing.T, checks map[string]HealthChecker) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Enabled:     true,
		Path:        filepath.Join(dir, "ledger.db"),
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	env := &testEnv{
		queue:   queue.New(filepath.Join(dir, "queue.txt")),
		ledger:  ledger.NewSQLiteRepository(db.DB),
		signals: &fakeSignals{},
	}
	auditRepo := audit.NewSQLiteRepository(db.DB)
	env.audit = audit.NewRecorder(auditRepo, nil)
	srv, err := New(Deps{
		WS:        testWSConfig(),
		Logger:    testLogger(),
		Agent:     fakeStatus{st: agent.Status{State: "RUNNING", Sent: 7}},
		Ledger:    env.ledger,
		Queue:     env.queue,
		Control:   env.signals,
		Compiler:  directive.NewCompiler(nil),
		Snapshots: fakeSnapshots{},
		Engine:    fakeEngine{},
		Channel:   fakeChannel{command: "print(1)\n# runid:run-42\n", log: testExecLog},
		Audit:     env.audit,
		AuditLog:  auditRepo,
		Checks:    checks,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	env.srv = srv
	env.handler = srv.buildRouter()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestNew_RequiresLogger(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]HealthChecker
		wantCode int
		wantStat string
	}{
		{"no checks", nil, http.StatusOK, "ok"},
		{"all healthy", map[string]HealthChecker{"mqtt": fakeCheck{}}, http.StatusOK, "ok"},
		{"one failing", map[string]HealthChecker{"mqtt": fakeCheck{}, "influxdb": fakeCheck{err: errors.New("down")}}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.checks)
			rec := env.do(t, http.MethodGet, "/api/v1/health", "", "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			body := decode[map[string]any](t, rec)
			if body["status"] != tt.wantStat {
				t.Errorf("status field = %v, want %s", body["status"], tt.wantStat)
			}
			if rec.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/health", "", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want client value", got)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/status", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[statusResponse](t, rec)
	if body.Agent == nil || body.Agent.State != "RUNNING" || body.Agent.Sent != 7 {
		t.Errorf("agent = %+v", body.Agent)
	}
	if body.Engine == nil || body.Engine.PID != 4242 {
		t.Errorf("engine = %+v", body.Engine)
	}
	if body.Channel == nil || !body.Channel.Pending || body.Channel.PendingRunID != "run-42" {
		t.Fatalf("channel = %+v", body.Channel)
	}
	tail := strings.Split(body.Channel.ExecLogTail, "\n")
	if len(tail) != execLogTailLines || tail[0] != "line 6" || tail[len(tail)-1] != "line 25" {
		t.Errorf("exec log tail = %q", body.Channel.ExecLogTail)
	}
}

func TestTailLines(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want string
	}{
		{"", 3, ""},
		{"\n\n", 3, ""},
		{"a\nb\n", 3, "a\nb"},
		{"a\nb\nc\nd", 2, "c\nd"},
	}
	for _, tt := range tests {
		if got := tailLines(tt.text, tt.n); got != tt.want {
			t.Errorf("tailLines(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
		}
	}
}

func TestEnqueue(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantCode    int
		wantDepth   int
	}{
		{"json lines", "application/json", `{"lines":["move cube up 1","rotate cube 90 z"]}`, http.StatusAccepted, 1},
		{"plain text", "text/plain; charset=utf-8", "move cube up 1\n\nscale cube 2x\n", http.StatusAccepted, 2},
		{"blank block", "application/json", `{"lines":["", "  "]}`, http.StatusUnprocessableEntity, 0},
		{"bad json", "application/json", `{"lines":`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(t, http.MethodPost, "/api/v1/queue", tt.contentType, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			n, err := env.queue.Len()
			if err != nil {
				t.Fatalf("Len() error = %v", err)
			}
			if n != tt.wantDepth {
				t.Errorf("queue depth = %d, want %d", n, tt.wantDepth)
			}
		})
	}
}

func TestQueueDepth(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.queue.Append([]string{"move cube up 1"}); err != nil {
		t.Fatal(err)
	}
	rec := env.do(t, http.MethodGet, "/api/v1/queue", "", "")
	if got := decode[map[string]int](t, rec)["depth"]; got != 1 {
		t.Errorf("depth = %d, want 1", got)
	}
}

func TestControl(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantToken string
	}{
		{"pause", `{"signal":"PAUSE"}`, http.StatusAccepted, "PAUSE"},
		{"lower case step", `{"signal":" step "}`, http.StatusAccepted, "STEP"},
		{"unknown", `{"signal":"REWIND"}`, http.StatusUnprocessableEntity, ""},
		{"bad json", `signal=STOP`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(t, http.MethodPost, "/api/v1/control", "application/json", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantToken == "" {
				if len(env.signals.tokens) != 0 {
					t.Errorf("tokens = %v, want none", env.signals.tokens)
				}
				return
			}
			if len(env.signals.tokens) != 1 || env.signals.tokens[0] != tt.wantToken {
				t.Errorf("tokens = %v, want [%s]", env.signals.tokens, tt.wantToken)
			}
		})
	}
}

func TestControl_WriteFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signals.err = errors.New("read-only bridge")
	rec := env.do(t, http.MethodPost, "/api/v1/control", "application/json", `{"signal":"STOP"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestCompile(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/v1/compile", "application/json",
		`{"lines":["move cube up 0.1 and rotate ghost 90 x"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[compileResponse](t, rec)
	if len(body.Operations) != 1 || body.Operations[0] != "move_global" {
		t.Errorf("operations = %v", body.Operations)
	}
	if !strings.Contains(body.Code, "Cube") {
		t.Errorf("code = %q, want it to reference Cube", body.Code)
	}
	if len(body.Skipped) != 1 || body.Skipped[0].Reason == "" {
		t.Errorf("skipped = %+v", body.Skipped)
	}

	n, _ := env.queue.Len()
	if n != 0 {
		t.Errorf("compile preview enqueued %d blocks", n)
	}
}

func TestDispatches(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := env.ledger.RecordDispatch(ctx, ledger.Dispatch{
			RunID:        id,
			DispatchedAt: base.Add(time.Duration(i) * time.Second),
			BlockHead:    "move cube up 1",
			Lines:        1,
			Operations:   1,
		}); err != nil {
			t.Fatal(err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/v1/dispatches?limit=2", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	list := decode[struct {
		Dispatches []ledger.Dispatch `json:"dispatches"`
		Count      int               `json:"count"`
	}](t, rec)
	if list.Count != 2 || list.Dispatches[0].RunID != "run-c" {
		t.Errorf("list = %+v", list)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/dispatches/run-a", "", "")
	if rec.Code != http.StatusOK || decode[ledger.Dispatch](t, rec).RunID != "run-a" {
		t.Errorf("get run-a: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/dispatches/missing", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing dispatch status = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/dispatches?limit=-3", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", rec.Code)
	}
}

func TestTicks(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.ledger.RecordTick(context.Background(), ledger.Tick{State: "RUNNING", Sent: 2, BurstSize: 2}); err != nil {
		t.Fatal(err)
	}
	rec := env.do(t, http.MethodGet, "/api/v1/ticks", "", "")
	if got := decode[map[string]any](t, rec)["count"]; got != float64(1) {
		t.Errorf("count = %v, want 1", got)
	}
}

// flushAudit writes everything the handlers recorded so far.
func (e *testEnv) flushAudit() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.audit.Run(ctx)
}

func TestAudit_RecordsOperatorActions(t *testing.T) {
	env := newTestEnv(t, nil)

	if rec := env.do(t, http.MethodPost, "/api/v1/queue", "text/plain", "move Cube up 1\n"); rec.Code != http.StatusAccepted {
		t.Fatalf("enqueue status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/control", "application/json", `{"signal":"pause"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("control status = %d", rec.Code)
	}
	// Rejected tokens leave no trail.
	if rec := env.do(t, http.MethodPost, "/api/v1/control", "application/json", `{"signal":"JUMP"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid control status = %d", rec.Code)
	}
	env.flushAudit()

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?action=control", 1},
		{"?action=enqueue&source=api", 1},
		{"?source=mqtt", 0},
		{"?limit=1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/audit"+tt.query, "", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			res := decode[audit.ListResult](t, rec)
			if len(res.Entries) != tt.want {
				t.Errorf("entries = %d, want %d", len(res.Entries), tt.want)
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/api/v1/audit?action=control", "", "")
	res := decode[audit.ListResult](t, rec)
	if len(res.Entries) != 1 || res.Entries[0].Details["signal"] != "PAUSE" {
		t.Errorf("control entries = %+v, want one PAUSE", res.Entries)
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/audit?offset=-1", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("negative offset status = %d, want 400", rec.Code)
	}
}

func TestUnavailableComponents(t *testing.T) {
	srv, err := New(Deps{Logger: testLogger(), WS: testWSConfig()})
	if err != nil {
		t.Fatal(err)
	}
	h := srv.buildRouter()

	for _, path := range []string{"/api/v1/dispatches", "/api/v1/ticks", "/api/v1/queue", "/api/v1/audit"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s = %d, want 503", path, rec.Code)
		}
	}
}

// ─── WebSocket Hub Tests ────────────────────────────────────────────

func TestHub_BroadcastRespectsSubscriptions(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())

	all := &WSClient{hub: hub, send: make(chan []byte, wsSendBufferSize), subscriptions: initialChannels("")}
	onlySkip := &WSClient{hub: hub, send: make(chan []byte, wsSendBufferSize), subscriptions: initialChannels("skip")}
	hub.Register(all)
	hub.Register(onlySkip)

	hub.Broadcast(agent.EventDispatch, agent.DispatchEvent{RunID: "r1"})

	select {
	case msg := <-all.send:
		var ws WSMessage
		if err := json.Unmarshal(msg, &ws); err != nil {
			t.Fatal(err)
		}
		if ws.Type != WSTypeEvent || ws.EventType != agent.EventDispatch {
			t.Errorf("message = %+v", ws)
		}
	case <-time.After(time.Second):
		t.Fatal("wildcard client got nothing")
	}

	select {
	case <-onlySkip.send:
		t.Error("skip-only client received a dispatch event")
	default:
	}

	hub.Unregister(all)
	hub.Unregister(onlySkip)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d", hub.ClientCount())
	}
}

func TestInitialChannels(t *testing.T) {
	tests := []struct {
		raw      string
		want     []string
		receives map[string]bool
	}{
		{raw: "", want: []string{WSChannelAll}, receives: map[string]bool{"state": true, "skip": true}},
		{raw: " state , skip,,", want: []string{"state", "skip"}, receives: map[string]bool{"state": true, "dispatch": false}},
		{raw: "state,bogus", want: []string{"state"}, receives: map[string]bool{"bogus": false}},
		{raw: "bogus", want: nil, receives: map[string]bool{"state": false}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := initialChannels(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("channels = %v, want %v", got, tt.want)
			}
			for _, ch := range tt.want {
				if _, ok := got[ch]; !ok {
					t.Errorf("missing %q", ch)
				}
			}
			for ch, want := range tt.receives {
				if got.has(ch) != want {
					t.Errorf("has(%q) = %v, want %v", ch, !want, want)
				}
			}
		})
	}
}

func TestWSClient_SubscriptionRejectsUnknownChannels(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	c := &WSClient{hub: hub, send: make(chan []byte, wsSendBufferSize), subscriptions: initialChannels("state")}

	c.handleMessage([]byte(`{"type":"subscribe","id":"s1","payload":{"channels":["dispatch","weather"]}}`))

	var resp struct {
		Type    string `json:"type"`
		ID      string `json:"id"`
		Payload struct {
			Subscribed []string `json:"subscribed"`
			Rejected   []string `json:"rejected"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(<-c.send, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != WSTypeResponse || resp.ID != "s1" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Payload.Subscribed) != 1 || resp.Payload.Subscribed[0] != "dispatch" {
		t.Errorf("subscribed = %v", resp.Payload.Subscribed)
	}
	if len(resp.Payload.Rejected) != 1 || resp.Payload.Rejected[0] != "weather" {
		t.Errorf("rejected = %v", resp.Payload.Rejected)
	}
	if !c.isSubscribed("dispatch") || c.isSubscribed("weather") {
		t.Errorf("subscriptions = %v", c.subscriptions)
	}

	c.handleMessage([]byte(`{"type":"unsubscribe","payload":{"channels":["state"]}}`))
	<-c.send
	if c.isSubscribed("state") {
		t.Error("still subscribed to state after unsubscribe")
	}

	c.handleMessage([]byte(`not json`))
	var errMsg WSMessage
	if err := json.Unmarshal(<-c.send, &errMsg); err != nil {
		t.Fatal(err)
	}
	if errMsg.Type != WSTypeError {
		t.Errorf("type = %q, want error", errMsg.Type)
	}
}

func TestWebSocket_EndToEnd(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.srv.Hub().Run(ctx)

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?channels=state"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Registration happens after the upgrade returns.
	deadline := time.Now().Add(time.Second)
	for env.srv.Hub().ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// The current status arrives before any broadcast.
	var hello struct {
		EventType string       `json:"event_type"`
		Payload   agent.Status `json:"payload"`
	}
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if hello.EventType != agent.EventState || hello.Payload.State != "RUNNING" {
		t.Errorf("initial message = %+v", hello)
	}

	env.srv.Hub().Broadcast(agent.EventState, agent.StateEvent{State: "PAUSED"})

	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.EventType != agent.EventState {
		t.Errorf("event_type = %q", msg.EventType)
	}

	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p1"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if msg.Type != WSTypePong || msg.ID != "p1" {
		t.Errorf("pong = %+v", msg)
	}
}
