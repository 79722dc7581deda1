// Package web serves a minimal browser chat front-end for an agent: an
// embedded single-page UI plus a WebSocket endpoint that relays user
// messages to the agent and streams replies back.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

//go:embed static
var staticFS embed.FS

// Responder produces the agent's reply to a user message within a chat
// session.
type Responder func(ctx context.Context, sessionID, text string) (string, error)

// ChatMessage is the JSON protocol spoken over the WebSocket.
type ChatMessage struct {
	Type    string `json:"type"` // "message" | "status" | "error"
	Content string `json:"content,omitempty"`
	ChatID  string `json:"chat_id,omitempty"`
}

// ServerConfig configures the chat server.
type ServerConfig struct {
	Host    string
	Port    int
	Respond Responder
	Logger  *slog.Logger
}

// Server hosts the chat UI and WebSocket endpoint.
type Server struct {
	addr    string
	respond Responder
	logger  *slog.Logger
	server  *http.Server

	mu      sync.RWMutex
	clients map[string]*wsClient
}

type wsClient struct {
	conn   *websocket.Conn
	chatID string
	mu     sync.Mutex
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local demo server
	},
}

// NewServer creates the chat server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	return &Server{
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		respond: cfg.Respond,
		logger:  cfg.Logger,
		clients: make(map[string]*wsClient),
	}
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			s.logger.Debug("health write failed", "err", err)
		}
	})
	r.Get("/ws", s.handleUpgrade)
	r.Handle("/*", http.FileServer(http.FS(mustStaticFS())))

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("chat server starting", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.closeAllClients()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	chatID := r.URL.Query().Get("chat_id")
	if chatID == "" {
		chatID = fmt.Sprintf("web-%d", time.Now().UnixNano())
	}

	client := &wsClient{conn: conn, chatID: chatID}
	clientID := fmt.Sprintf("%s-%p", chatID, conn)

	s.mu.Lock()
	s.clients[clientID] = client
	s.mu.Unlock()

	s.logger.Info("chat client connected", "client_id", clientID)
	client.send(ChatMessage{Type: "status", Content: "connected", ChatID: chatID})

	defer func() {
		s.mu.Lock()
		delete(s.clients, clientID)
		s.mu.Unlock()
		conn.Close()
		s.logger.Info("chat client disconnected", "client_id", clientID)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("websocket read error", "err", err)
			}
			return
		}

		var msg ChatMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Warn("invalid chat message", "err", err)
			continue
		}
		if msg.Type != "message" || msg.Content == "" {
			continue
		}

		reply, err := s.respond(r.Context(), chatID, msg.Content)
		if err != nil {
			s.logger.Error("agent reply failed", "err", err)
			client.send(ChatMessage{Type: "error", Content: fmt.Sprintf("An error occurred: %v", err), ChatID: chatID})
			continue
		}
		client.send(ChatMessage{Type: "message", Content: reply, ChatID: chatID})
	}
}

func (c *wsClient) send(msg ChatMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("websocket write failed", "err", err)
	}
}

func (s *Server) closeAllClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, client := range s.clients {
		client.conn.Close()
		delete(s.clients, id)
	}
}

// mustStaticFS strips the static/ prefix so index.html serves at /.
func mustStaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	return sub
}
