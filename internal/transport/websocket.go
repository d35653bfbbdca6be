package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ghost/internal/bus"
	"ghost/internal/logging"
)

// inboundFrame is what a client sends over the socket.
type inboundFrame struct {
	UserName string `json:"user_name"`
	Content  string `json:"content"`
}

// outboundFrame is one agent message pushed to every client.
type outboundFrame struct {
	From    string `json:"from"`
	Content string `json:"content"`
}

// WebSocket serves a chat endpoint at /ws. Every connected client sees
// the same conversation; a single owner talking from several devices is
// the expected shape.
type WebSocket struct {
	agentName string
	events    *bus.Bus
	upgrader  websocket.Upgrader
	server    *http.Server
	log       *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewWebSocket(addr, agentName string, events *bus.Bus) *WebSocket {
	ws := &WebSocket{
		agentName: agentName,
		events:    events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:     logging.For(logging.CategoryTransport),
		clients: map[*websocket.Conn]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ws.handleConnection)
	ws.server = &http.Server{Addr: addr, Handler: mux}
	return ws
}

func (w *WebSocket) Name() string { return "websocket" }

// Run serves until ctx is cancelled.
func (w *WebSocket) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := w.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return w.server.Shutdown(shutdownCtx)
	}
}

func (w *WebSocket) handleConnection(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	w.mu.Lock()
	w.clients[conn] = true
	w.mu.Unlock()
	w.log.Info("client connected", zap.String("remote", conn.RemoteAddr().String()))

	defer func() {
		w.mu.Lock()
		delete(w.clients, conn)
		w.mu.Unlock()
		conn.Close()
	}()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.log.Warn("read failed", zap.Error(err))
			}
			return
		}
		if frame.Content == "" {
			continue
		}
		pubErr := w.events.Publish(bus.MessageReceived{
			Base:     bus.NewBase(),
			UserName: frame.UserName,
			Content:  frame.Content,
		})
		if pubErr != nil {
			w.log.Error("failed to publish inbound message", zap.Error(pubErr))
		}
	}
}

// Send pushes one message to every connected client.
func (w *WebSocket) Send(_ context.Context, text string) error {
	payload, err := json.Marshal(outboundFrame{From: w.agentName, Content: text})
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for conn := range w.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			w.log.Warn("write failed, dropping client", zap.Error(err))
			delete(w.clients, conn)
			conn.Close()
		}
	}
	return nil
}
