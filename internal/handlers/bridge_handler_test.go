package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"errorhelper/internal/models"
)

func newBridgeServer(t *testing.T, f *fixture, origins []string) (*BridgeHandler, *httptest.Server) {
	t.Helper()
	h := NewBridgeHandler(f.bridge, origins, zap.NewNop())
	router := chi.NewRouter()
	router.Get("/ws/panels/{panel_id}", h.ServePanel)
	router.Get("/api/v1/chat/{panel_id}/messages", h.Transcript)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return h, srv
}

func dialPanel(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readOutbound(t *testing.T, conn *websocket.Conn) models.Outbound {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg models.Outbound
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestServePanelTreeReceivesErrors(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	_, srv := newBridgeServer(t, f, []string{"*"})

	conn := dialPanel(t, srv, "/ws/panels/tree-1?kind=tree")
	msg := readOutbound(t, conn)

	if msg.Command != models.CmdErrorsUpdate {
		t.Fatalf("expected errors:update, got %q", msg.Command)
	}
	if len(msg.Errors) != 1 || msg.Errors[0].Message != "missing ')'" {
		t.Errorf("unexpected errors: %+v", msg.Errors)
	}
}

func TestServePanelChatAndTranscript(t *testing.T) {
	f := newFixture(t)
	_, srv := newBridgeServer(t, f, []string{"*"})

	conn := dialPanel(t, srv, "/ws/panels/chat-1?kind=chat")
	if err := conn.WriteJSON(models.Inbound{Command: models.CmdChatSend, Text: "why does this fail?"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg := readOutbound(t, conn)
	if msg.Command != models.CmdChatAppend || msg.Role != models.RoleAI {
		t.Fatalf("expected ai chat:append, got %+v", msg)
	}

	resp, err := http.Get(srv.URL + "/api/v1/chat/chat-1/messages")
	if err != nil {
		t.Fatalf("get transcript: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var transcript models.ChatTranscriptResponse
	json.NewDecoder(resp.Body).Decode(&transcript)
	if len(transcript.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(transcript.Messages))
	}
	if transcript.Messages[0].Role != models.RoleUser || transcript.Messages[0].Text != "why does this fail?" {
		t.Errorf("unexpected first message %+v", transcript.Messages[0])
	}
	if transcript.Messages[1].Index != 1 {
		t.Errorf("expected ai reply at index 1, got %d", transcript.Messages[1].Index)
	}
}

func TestServePanelRejectsBadParams(t *testing.T) {
	f := newFixture(t)
	_, srv := newBridgeServer(t, f, []string{"*"})

	for _, path := range []string{"/ws/panels/p?kind=sidebar", "/ws/panels/p?kind=detail"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestTranscriptUnknownPanel(t *testing.T) {
	f := newFixture(t)
	h := NewBridgeHandler(f.bridge, nil, zap.NewNop())

	req := addURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/chat/none/messages", nil), "panel_id", "none")
	rec := httptest.NewRecorder()
	h.Transcript(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"vscode-webview://abc"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if !check(req) {
		t.Error("expected requests without Origin to pass")
	}
	req.Header.Set("Origin", "vscode-webview://abc")
	if !check(req) {
		t.Error("expected allowed origin to pass")
	}
	req.Header.Set("Origin", "https://evil.example")
	if check(req) {
		t.Error("expected unknown origin to be rejected")
	}
	if !originChecker([]string{"*"})(req) {
		t.Error("expected wildcard to allow any origin")
	}
}
