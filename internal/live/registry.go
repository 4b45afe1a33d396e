package live

import (
	"encoding/json"
	"log"
	"sync"
)

// Registry owns the mapping from event id to the sessions watching it. It
// is constructed once by the hosting server and injected wherever fan-out
// is needed; there is no package-level instance.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]map[*Session]struct{}
	events   map[*Session]int64
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]map[*Session]struct{}),
		events:   make(map[*Session]int64),
	}
}

// Register binds a session to an event. A session holds at most one
// binding, so registering under a new event silently drops the old one.
// Re-registering the same pair is a no-op.
func (r *Registry) Register(sess *Session, eventID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.events[sess]; ok {
		if prev == eventID {
			return
		}
		r.removeLocked(sess, prev)
	}

	if r.sessions[eventID] == nil {
		r.sessions[eventID] = make(map[*Session]struct{})
	}
	r.sessions[eventID][sess] = struct{}{}
	r.events[sess] = eventID
}

// Deregister drops whatever binding the session holds. Safe to call for a
// session that never subscribed.
func (r *Registry) Deregister(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if eventID, ok := r.events[sess]; ok {
		r.removeLocked(sess, eventID)
	}
}

func (r *Registry) removeLocked(sess *Session, eventID int64) {
	delete(r.events, sess)
	if conns, ok := r.sessions[eventID]; ok {
		delete(conns, sess)
		if len(conns) == 0 {
			delete(r.sessions, eventID)
		}
	}
}

// SubscribersOf returns a snapshot of the sessions bound to an event, safe
// to iterate while registrations churn.
func (r *Registry) SubscribersOf(eventID int64) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := r.sessions[eventID]
	out := make([]*Session, 0, len(conns))
	for sess := range conns {
		out = append(out, sess)
	}
	return out
}

// Broadcast serializes the message once and delivers it to every session
// currently bound to the event. Delivery is best effort: sessions whose
// socket is no longer open are skipped, and one failed write never stops
// delivery to the rest.
func (r *Registry) Broadcast(eventID int64, message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("live: failed to encode broadcast for event %d: %v", eventID, err)
		return
	}
	for _, sess := range r.SubscribersOf(eventID) {
		sess.sendRaw(payload)
	}
}
