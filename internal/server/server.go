// Package server exposes sessions to the browser block editor over
// websockets. Each connection owns one session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"turtleblocks/internal/config"
	"turtleblocks/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 512
)

type Server struct {
	settings config.Settings
	upgrader websocket.Upgrader
	log      *logger.Logger
	mux      *http.ServeMux

	mu      sync.Mutex
	clients map[string]*client
}

func New(settings config.Settings, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	if settings.PingPeriod <= 0 {
		settings.PingPeriod = 30 * time.Second
	}
	s := &Server{
		settings: settings,
		log:      log.WithPrefix("server"),
		mux:      http.NewServeMux(),
		clients:  make(map[string]*client),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  settings.ReadBuffer,
		WriteBufferSize: settings.WriteBuffer,
		CheckOrigin:     s.checkOrigin,
	}
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /sessions/{id}/canvas.png", s.handleCanvas)
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.settings.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", s.settings.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		s.log.Warn("websocket request without Origin header rejected")
		return false
	}
	if slices.Contains(s.settings.AllowedOrigins, "*") || slices.Contains(s.settings.AllowedOrigins, origin) {
		return true
	}
	s.log.Warn("websocket request from origin %q rejected", origin)
	return false
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Debug("upgrade failed: %v", err)
		return
	}
	c := newClient(s, conn)
	s.register(c)
	go c.writePump()
	go c.readPump()
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c.sess.ID] = c
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info("session %s connected from %s (%d open)", c.sess.ID, c.conn.RemoteAddr(), n)
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	delete(s.clients, c.sess.ID)
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info("session %s closed (%d open)", c.sess.ID, n)
}

func (s *Server) lookup(id string) (*client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	return c, ok
}

func (s *Server) closeAll() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()
	for _, c := range clients {
		c.conn.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "sessions": n})
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := c.sess.Canvas().WritePNG(w); err != nil {
		s.log.Error("canvas for %s: %v", c.sess.ID, err)
	}
}
