// Package gateway exposes the game over websockets. Clients subscribe to a
// team's crew channels, receive reports as they are delivered and send
// command frames that run against the command surface.
package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/deepwatch/internal/game"
	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/notify"
)

const (
	writeWait = 5 * time.Second
	readWait  = 120 * time.Second
)

// Frame types.
const (
	TypeCommand = "command"
	TypeResult  = "result"
	TypeReport  = "report"
)

// Frame is a command sent by a client.
type Frame struct {
	Type    string   `json:"type"`
	ID      string   `json:"id,omitempty"`
	Command string   `json:"command"`
	Team    string   `json:"team,omitempty"`
	Args    []string `json:"args,omitempty"`
}

// ResultFrame answers one command frame.
type ResultFrame struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	game.Result
}

// ReportFrame carries one delivered report.
type ReportFrame struct {
	Type string `json:"type"`
	notify.Report
}

// Options tune the hub.
type Options struct {
	// ControlToken unlocks control commands. Empty disables them.
	ControlToken string
	// QueueSize is each client's outbox capacity.
	QueueSize int
}

// Hub tracks connected clients and implements notify.Notifier by pushing
// reports to every matching subscriber.
type Hub struct {
	service  *game.Service
	opts     Options
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}

	dropped atomic.Uint64
}

// NewHub creates a hub. service may be set later with SetService when the
// engine needs the hub as its notifier first.
func NewHub(service *game.Service, opts Options) *Hub {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	return &Hub{
		service: service,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// SetService attaches the command surface.
func (h *Hub) SetService(s *game.Service) {
	h.mu.Lock()
	h.service = s
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped counts reports lost to full outboxes.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// subscription is what a client asked to receive.
type subscription struct {
	team    string
	role    string
	control bool
}

// wants reports whether r should reach this subscriber. News goes to
// everyone, the control channel only to control clients. A control client
// without a team sees every team.
func (s subscription) wants(r notify.Report) bool {
	if r.Team == "" {
		return r.Role != string(model.RoleControl) || s.control
	}
	if s.team == "" {
		return s.control
	}
	return r.Team == s.team && (s.role == "" || s.role == r.Role)
}

type client struct {
	sub subscription
	out chan []byte
}

// Notify implements notify.Notifier. It never blocks: a client whose outbox
// is full loses the report.
func (h *Hub) Notify(_ context.Context, r notify.Report) error {
	b, err := json.Marshal(ReportFrame{Type: TypeReport, Report: r})
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.sub.wants(r) {
			continue
		}
		select {
		case c.out <- b:
		default:
			h.dropped.Add(1)
			slog.Debug("gateway outbox full", "team", c.sub.team, "role", c.sub.role)
		}
	}
	return nil
}

func (h *Hub) authorized(token string) bool {
	if h.opts.ControlToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.opts.ControlToken)) == 1
}

// Handler upgrades requests to websocket sessions. Query parameters: team,
// role and token.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		sub := subscription{
			team:    model.VesselKey(q.Get("team")),
			role:    q.Get("role"),
			control: h.authorized(q.Get("token")),
		}
		if q.Get("token") != "" && !sub.control {
			http.Error(rw, "bad control token", http.StatusUnauthorized)
			return
		}

		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{sub: sub, out: make(chan []byte, h.opts.QueueSize)}
		h.mu.Lock()
		h.clients[c] = struct{}{}
		h.mu.Unlock()
		slog.Info("gateway client connected", "team", sub.team, "role", sub.role, "control", sub.control, "remote", r.RemoteAddr)
		defer func() {
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
			slog.Info("gateway client disconnected", "team", sub.team, "remote", r.RemoteAddr)
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					// Unblocks the reader.
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
					_ = conn.Close()
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		h.readLoop(ctx, conn, c)
		cancel()
		<-done
	}
}

func (h *Hub) readLoop(ctx context.Context, conn *websocket.Conn, c *client) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil || f.Type != TypeCommand {
			continue
		}

		h.mu.RLock()
		svc := h.service
		h.mu.RUnlock()
		res := game.Result{}
		if svc != nil {
			res = dispatch(ctx, svc, c.sub, f)
		}

		b, err := json.Marshal(ResultFrame{Type: TypeResult, ID: f.ID, Result: res})
		if err != nil {
			continue
		}
		select {
		case c.out <- b:
		case <-ctx.Done():
			return
		}
	}
}

// Server serves the hub over HTTP until its context ends.
type Server struct {
	hub  *Hub
	addr string
}

// NewServer creates a server for hub on addr.
func NewServer(hub *Hub, addr string) *Server {
	return &Server{hub: hub, addr: addr}
}

// Run listens on the server address and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("gateway listening", "address", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
