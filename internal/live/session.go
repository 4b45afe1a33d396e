package live

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// wsConn is the slice of a websocket connection the session writes to.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
}

// Session is one client's connection. It translates inbound JSON frames
// into registry/ingest calls and exposes a best-effort Send for the
// broadcaster. A session is bound to at most one event at a time.
type Session struct {
	conn     wsConn
	registry *Registry
	svc      *Service

	mu     sync.Mutex
	closed bool

	eventID int64 // current subscription, 0 until the first subscribe
}

func NewSession(conn wsConn, registry *Registry, svc *Service) *Session {
	return &Session{
		conn:     conn,
		registry: registry,
		svc:      svc,
	}
}

// EventID reports the event the session is currently bound to.
func (s *Session) EventID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventID
}

// Close marks the socket as gone. Subsequent sends are silently skipped.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Send serializes the payload and writes it to the socket. A closed or
// failing peer never blocks the caller and never raises: the write is
// simply dropped.
func (s *Session) Send(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("live WS: failed to encode outbound frame: %v", err)
		return
	}
	s.sendRaw(data)
}

func (s *Session) sendRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("live WS: write failed, dropping connection from fan-out: %v", err)
		s.closed = true
	}
}

// HandleMessage processes one inbound frame. Malformed or unknown frames
// are logged and dropped; the connection stays open either way.
func (s *Session) HandleMessage(ctx context.Context, data []byte) {
	frame, err := parseFrame(data)
	if err != nil {
		log.Printf("live WS: dropping malformed frame: %v", err)
		return
	}

	switch frame.Type {
	case msgSubscribe:
		s.handleSubscribe(ctx, frame.EventID)
	case msgStreamUpdate:
		s.handleStreamUpdate(ctx, frame.Stream)
	case msgStats:
		s.handleStats(ctx, frame.EventID, frame.Stats)
	default:
		log.Printf("live WS: ignoring unknown frame type %q", frame.Type)
	}
}

func (s *Session) handleSubscribe(ctx context.Context, eventID int64) {
	if eventID <= 0 {
		log.Printf("live WS: subscribe without a valid eventId")
		return
	}

	s.mu.Lock()
	s.eventID = eventID
	s.mu.Unlock()

	s.registry.Register(s, eventID)
	log.Printf("live WS: client subscribed to event %d", eventID)

	// Catch the new subscriber up; everyone already registered only sees
	// future broadcasts.
	s.svc.SendSnapshot(ctx, s, eventID)
}

func (s *Session) handleStreamUpdate(ctx context.Context, raw json.RawMessage) {
	payload, err := parseStreamPayload(raw)
	if err != nil {
		log.Printf("live WS: invalid stream_update: %v", err)
		return
	}
	if _, err := s.svc.ApplyStreamUpdate(ctx, payload); err != nil {
		log.Printf("live WS: stream_update for event %d failed: %v", payload.EventID, err)
	}
}

func (s *Session) handleStats(ctx context.Context, eventID int64, raw json.RawMessage) {
	if eventID <= 0 {
		log.Printf("live WS: stats update without a valid eventId")
		return
	}
	stats, err := parseStatsMap(raw)
	if err != nil {
		log.Printf("live WS: invalid stats update for event %d: %v", eventID, err)
		return
	}
	if _, err := s.svc.ApplyStats(ctx, eventID, stats); err != nil {
		log.Printf("live WS: stats update for event %d failed: %v", eventID, err)
	}
}
