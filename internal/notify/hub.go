package notify

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// LocationRecorder receives driver location pings relayed through the hub.
type LocationRecorder interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error
}

// session is one websocket connection joined to a channel.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// write serializes writes; gorilla connections allow one concurrent writer.
func (s *session) write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(event)
}

// Hub is the websocket implementation of Sender. Each connected client joins
// exactly one channel derived from its role and user id; every client also
// receives broadcasts. There is no queuing or replay: clients reconcile via
// a pull-based refresh on (re)connect.
type Hub struct {
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[Channel]map[*session]struct{}

	// Optional sink for driver location pings arriving on the socket.
	locations LocationRecorder
}

// NewHub creates a new Hub. locations may be nil.
func NewHub(locations LocationRecorder) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser dashboards connect cross-origin in development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions:  make(map[Channel]map[*session]struct{}),
		locations: locations,
	}
}

// Ensure Hub implements Sender.
var _ Sender = (*Hub)(nil)

// Send delivers an event to every session on the channel. Sessions with no
// subscriber drop the event silently.
func (h *Hub) Send(channel Channel, event Event) {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions[channel]))
	for s := range h.sessions[channel] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.write(event); err != nil {
			log.Printf("ws send error: channel=%s event=%s: %v", channel, event.Type, err)
		}
	}
}

// Broadcast delivers an event to every connected session.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	var targets []*session
	for _, set := range h.sessions {
		for s := range set {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.write(event); err != nil {
			log.Printf("ws broadcast error: event=%s: %v", event.Type, err)
		}
	}
}

// HandleWS upgrades an HTTP request to a websocket session. The client
// identifies itself via role and userId query parameters; the session joins
// the channel "<role>:<userId>".
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	userID := r.URL.Query().Get("userId")
	if role == "" || userID == "" {
		http.Error(w, "role and userId are required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	channel := Channel(role + ":" + userID)
	s := &session{conn: conn}
	h.join(channel, s)
	log.Printf("ws connected: channel=%s", channel)

	go h.readLoop(r.Context(), channel, s)
}

func (h *Hub) join(channel Channel, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[channel] == nil {
		h.sessions[channel] = make(map[*session]struct{})
	}
	h.sessions[channel][s] = struct{}{}
}

func (h *Hub) leave(channel Channel, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions[channel], s)
	if len(h.sessions[channel]) == 0 {
		delete(h.sessions, channel)
	}
}

// locationPing is the inbound message a driver client sends while in transit.
type locationPing struct {
	Type       string  `json:"type"`
	BookingID  string  `json:"bookingId"`
	CustomerID string  `json:"customerId"`
	DriverID   string  `json:"driverId"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Timestamp  string  `json:"timestamp"`
}

// readLoop consumes inbound messages until the connection drops. Driver
// location pings are relayed verbatim to the booking's customer channel and
// recorded in the location store; anything else is ignored.
func (h *Hub) readLoop(ctx context.Context, channel Channel, s *session) {
	defer func() {
		h.leave(channel, s)
		_ = s.conn.Close()
		log.Printf("ws disconnected: channel=%s", channel)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var ping locationPing
		if err := json.Unmarshal(data, &ping); err != nil {
			continue
		}
		if ping.Type != string(EventDriverLocationUpdate) || ping.CustomerID == "" {
			continue
		}

		h.Send(CustomerChannel(ping.CustomerID), Event{
			Type: EventDriverLocationUpdate,
			Data: map[string]any{
				"bookingId":  ping.BookingID,
				"customerId": ping.CustomerID,
				"driverId":   ping.DriverID,
				"lat":        ping.Lat,
				"lng":        ping.Lng,
				"timestamp":  ping.Timestamp,
			},
		})

		if h.locations != nil && ping.DriverID != "" {
			if err := h.locations.UpdateLocation(ctx, ping.DriverID, ping.Lat, ping.Lng); err != nil {
				log.Printf("ws location record error: driver=%s: %v", ping.DriverID, err)
			}
		}
	}
}
