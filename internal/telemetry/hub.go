// Package telemetry fans vehicle status events out to monitoring consoles
// (websocket) and to a fleet broker (MQTT).
package telemetry

import (
	"RLoader/internal/model"
	"RLoader/internal/util"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

const (
	writeWait  = time.Second
	queueDepth = 64
)

// StateFunc returns the current vehicle state.
type StateFunc func() model.VehicleState

// Hub serves the vehicle state over HTTP and pushes every status event to
// connected websocket clients. Events are queued and written by a single
// sender goroutine, so Report never waits on a slow client.
type Hub struct {
	Addr     string
	state    StateFunc
	clients  map[*websocket.Conn]bool
	mu       sync.Mutex
	server   *http.Server
	log      *logrus.Entry
	queue    chan []byte
	quit     chan struct{}
	stopOnce sync.Once
}

// NewHub constructs a Hub listening on addr and starts its sender.
func NewHub(addr string, state StateFunc) *Hub {
	h := &Hub{
		Addr:    addr,
		state:   state,
		clients: map[*websocket.Conn]bool{},
		log:     util.For("Hub"),
		queue:   make(chan []byte, queueDepth),
		quit:    make(chan struct{}),
	}
	go h.send()
	return h
}

// Handler returns the hub's routes.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/api/state", h.handleState)
	return mux
}

// Start serves HTTP until Stop. It blocks.
func (h *Hub) Start() error {
	h.mu.Lock()
	h.server = &http.Server{Addr: h.Addr, Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	srv := h.server
	h.mu.Unlock()

	h.log.Infof("Status hub is listening on %s", h.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts down the HTTP server and the sender and drops every websocket client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.server != nil {
		_ = h.server.Close()
	}
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Report queues ev for every websocket client. When the queue is full the
// event is dropped.
func (h *Hub) Report(ev model.StatusEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorf("Encode status: %v", err)
		return
	}
	select {
	case h.queue <- b:
	default:
		h.log.Warnf("Status queue full. Dropping %s event.", ev.Kind)
	}
}

func (h *Hub) send() {
	for {
		select {
		case <-h.quit:
			return
		case msg := <-h.queue:
			h.broadcast(msg)
		}
	}
}

func (h *Hub) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.state()); err != nil {
		h.log.Warnf("Write state: %v", err)
	}
}

// handleWS upgrades HTTP to websocket and registers the client for broadcasts.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	h.log.Debugf("Console connected from %s", conn.RemoteAddr())

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// broadcast sends a message to all connected websocket clients. Clients that
// fail a write are dropped.
func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warnf("Drop console %s: %v", c.RemoteAddr(), err)
			_ = c.Close()
			delete(h.clients, c)
		}
	}
}
