// Package server streams frames to renderers over a websocket and feeds
// their orientation and drag input back into the session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/allapse/feel/internal/orientation"
	"github.com/allapse/feel/internal/processor"
	"github.com/allapse/feel/internal/session"
)

// Connection tuning
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 8 // frames queued per client before dropping
	shutdownWait   = 5 * time.Second
)

// CommandSender queues a session command, normally session.Runner.Send
type CommandSender func(session.Command) error

// Options configures a Hub
type Options struct {
	Bindings []processor.Binding
	Tracker  *orientation.Tracker // nil ignores orientation messages
	Commands CommandSender
	Logf     session.Logf
}

// Hub tracks connected renderers and broadcasts frames to them
type Hub struct {
	mu       sync.Mutex
	clients  map[uuid.UUID]*client
	seq      uint64
	dropped  uint64
	controls []bindingMessage
	bindings map[string]processor.Binding
	holders  map[string]int // clients dragging each key
	tracker  *orientation.Tracker
	send     CommandSender
	log      session.Logf
	upgrader websocket.Upgrader
}

// NewHub creates a hub for the given controls
func NewHub(opts Options) *Hub {
	if opts.Logf == nil {
		opts.Logf = func(string, ...interface{}) {}
	}
	if opts.Commands == nil {
		opts.Commands = func(session.Command) error { return nil }
	}

	bindings := make(map[string]processor.Binding, len(opts.Bindings))
	for _, b := range opts.Bindings {
		bindings[b.Key] = b
	}

	return &Hub{
		clients:  make(map[uuid.UUID]*client),
		controls: newBindingMessages(opts.Bindings),
		bindings: bindings,
		holders:  make(map[string]int),
		tracker:  opts.Tracker,
		send:     opts.Commands,
		log:      opts.Logf,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Renderers are served from their own origin during development
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes: /ws for renderers and /healthz
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %d clients\n", h.Clients())
	})
	return mux
}

// Clients returns the number of connected renderers
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many frames were skipped for slow clients
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Broadcast sends one frame to every client. Clients whose queue is full
// miss this frame; the tick loop never waits on the network.
func (h *Hub) Broadcast(u session.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(newFrameMessage(h.seq, u))
	if err != nil {
		h.log("[SERVER] Failed to encode frame %d: %v", h.seq, err)
		return
	}

	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped++
		}
	}
}

// ListenAndServe serves the hub on addr until ctx is cancelled
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: writeWait,
	}

	errCh := make(chan error, 1)
	go func() {
		h.log("[SERVER] Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	h.closeAll()
	if err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log("[SERVER] Failed to upgrade connection from %s: %v", r.RemoteAddr, err)
		return
	}

	c := &client{
		id:       uuid.New(),
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		dragging: make(map[string]bool),
	}

	hello, err := json.Marshal(helloMessage{Type: typeHello, ClientID: c.id.String(), Controls: h.controls})
	if err != nil {
		h.log("[SERVER] Failed to encode hello: %v", err)
		conn.Close()
		return
	}
	c.send <- hello

	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.log("[SERVER] Client %s connected from %s (%d total)", c.id, r.RemoteAddr, n)

	go c.writePump()
	c.readPump()
}

// remove unregisters c and releases any controls it was dragging
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	for key := range c.dragging {
		h.endDrag(c, key)
	}
	h.log("[SERVER] Client %s disconnected (%d remaining)", c.id, n)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

// startDrag records c as a holder of key
func (h *Hub) startDrag(c *client, key string) {
	if c.dragging[key] {
		return
	}
	c.dragging[key] = true
	h.mu.Lock()
	h.holders[key]++
	h.mu.Unlock()
}

// endDrag drops c as a holder of key and releases the override once no
// client holds it
func (h *Hub) endDrag(c *client, key string) {
	if !c.dragging[key] {
		return
	}
	delete(c.dragging, key)

	h.mu.Lock()
	h.holders[key]--
	remaining := h.holders[key]
	if remaining <= 0 {
		delete(h.holders, key)
	}
	h.mu.Unlock()

	if remaining > 0 {
		h.log("[SERVER] Client %s let go of %q, %d still dragging", c.id, key, remaining)
		return
	}
	h.command(session.Command{Kind: session.CmdReleaseOverride, Key: key})
}

func (h *Hub) command(cmd session.Command) {
	if err := h.send(cmd); err != nil {
		h.log("[SERVER] Command %s not queued: %v", cmd, err)
	}
}

// handle applies one inbound message from c. Malformed or unknown
// messages are logged and ignored.
func (h *Hub) handle(c *client, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.log("[SERVER] Client %s sent malformed message: %v", c.id, err)
		return
	}

	switch msg.Type {
	case typeOrientation:
		if h.tracker == nil {
			return
		}
		h.tracker.Update(orientation.Sample{Alpha: msg.Alpha, Beta: msg.Beta, Gamma: msg.Gamma})

	case typeDrag:
		b, ok := h.bindings[msg.Key]
		if !ok {
			h.log("[SERVER] Client %s dragged unknown control %q", c.id, msg.Key)
			return
		}
		active := msg.Active == nil || *msg.Active
		if active && msg.Value != nil {
			h.startDrag(c, msg.Key)
			h.command(session.Command{Kind: session.CmdSetOverride, Key: msg.Key, Value: b.Clamp(*msg.Value)})
		} else if !active {
			h.endDrag(c, msg.Key)
		}

	case typeGyro:
		switch msg.Action {
		case "reset":
			h.command(session.Command{Kind: session.CmdRecalibrate})
		case "lock":
			h.command(session.Command{Kind: session.CmdLockGyro})
		case "unlock":
			h.command(session.Command{Kind: session.CmdUnlockGyro})
		default:
			h.log("[SERVER] Client %s sent unknown gyro action %q", c.id, msg.Action)
		}

	case typeTrack:
		h.command(session.Command{Kind: session.CmdTrackChange})

	default:
		h.log("[SERVER] Client %s sent unknown message type %q", c.id, msg.Type)
	}
}
