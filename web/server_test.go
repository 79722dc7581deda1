package web

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func dialTestServer(t *testing.T, respond Responder) (*websocket.Conn, func()) {
	t.Helper()
	srv := NewServer(ServerConfig{Respond: respond})
	ts := httptest.NewServer(http.HandlerFunc(srv.handleUpgrade))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "?chat_id=test-chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("dial failed: %v", err)
	}
	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

func readChatMessage(t *testing.T, conn *websocket.Conn) ChatMessage {
	t.Helper()
	var msg ChatMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func TestServer_ConnectSendsStatus(t *testing.T) {
	conn, cleanup := dialTestServer(t, nil)
	defer cleanup()

	msg := readChatMessage(t, conn)
	if msg.Type != "status" || msg.Content != "connected" {
		t.Errorf("unexpected greeting %+v", msg)
	}
	if msg.ChatID != "test-chat" {
		t.Errorf("unexpected chat id %q", msg.ChatID)
	}
}

func TestServer_MessageRoundTrip(t *testing.T) {
	respond := func(_ context.Context, sessionID, text string) (string, error) {
		if sessionID != "test-chat" {
			t.Errorf("unexpected session %q", sessionID)
		}
		return "echo: " + text, nil
	}
	conn, cleanup := dialTestServer(t, respond)
	defer cleanup()

	readChatMessage(t, conn) // status frame

	if err := conn.WriteJSON(ChatMessage{Type: "message", Content: "hello"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reply := readChatMessage(t, conn)
	if reply.Type != "message" || reply.Content != "echo: hello" {
		t.Errorf("unexpected reply %+v", reply)
	}
}

func TestServer_ResponderErrorReported(t *testing.T) {
	respond := func(context.Context, string, string) (string, error) {
		return "", errors.New("model unavailable")
	}
	conn, cleanup := dialTestServer(t, respond)
	defer cleanup()

	readChatMessage(t, conn) // status frame

	if err := conn.WriteJSON(ChatMessage{Type: "message", Content: "hello"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reply := readChatMessage(t, conn)
	if reply.Type != "error" {
		t.Fatalf("expected error frame, got %+v", reply)
	}
	if !strings.Contains(reply.Content, "An error occurred: model unavailable") {
		t.Errorf("unexpected error content %q", reply.Content)
	}
}

func TestServer_IgnoresNonMessageFrames(t *testing.T) {
	called := false
	respond := func(_ context.Context, _, text string) (string, error) {
		called = text != "real"
		return "ok", nil
	}
	conn, cleanup := dialTestServer(t, respond)
	defer cleanup()

	readChatMessage(t, conn) // status frame

	// Status frames and empty messages are dropped without a reply.
	_ = conn.WriteJSON(ChatMessage{Type: "status", Content: "ping"})
	_ = conn.WriteJSON(ChatMessage{Type: "message"})
	_ = conn.WriteJSON(ChatMessage{Type: "message", Content: "real"})

	reply := readChatMessage(t, conn)
	if reply.Content != "ok" {
		t.Errorf("unexpected reply %+v", reply)
	}
	if called {
		t.Error("responder must only see real messages")
	}
}

func TestMustStaticFS(t *testing.T) {
	sub := mustStaticFS()
	data, err := fs.ReadFile(sub, "index.html")
	if err != nil {
		t.Fatalf("index.html missing from embedded assets: %v", err)
	}
	if !strings.Contains(string(data), "<html") {
		t.Error("index.html does not look like an HTML document")
	}
}
