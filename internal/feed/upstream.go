package feed

import (
	"context"
	"encoding/json"
	"log"

	"github.com/dnhan1707/livebet/internal/storage"
	"github.com/gorilla/websocket"
)

// StatsApplier is the slice of the live ingest path the adapter pushes
// into. Updates flow through the same persist-then-broadcast pipeline as
// websocket producers.
type StatsApplier interface {
	ApplyStats(ctx context.Context, eventID int64, stats storage.StatsMap) (*storage.LiveStats, error)
}

// frame is what the stats provider pushes: one stats snapshot per event.
type frame struct {
	Type    string          `json:"type"`
	EventID int64           `json:"eventId"`
	Stats   json.RawMessage `json:"stats"`
}

// Listen dials the external stats provider and relays its updates into the
// live ingest path until the connection drops. Intended to run in its own
// goroutine.
func Listen(url, apiKey string, sink StatsApplier) {
	log.Printf("[feed] Connecting to %s...", url)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Printf("[feed] Connection failed: %v", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"action": "auth", "key": apiKey}); err != nil {
		log.Printf("[feed] Auth failed: %v", err)
		return
	}
	if err := conn.WriteJSON(map[string]string{"action": "subscribe", "events": "*"}); err != nil {
		log.Printf("[feed] Subscribe failed: %v", err)
		return
	}
	log.Printf("[feed] Connected and subscribed")

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[feed] Read error: %v", err)
			return
		}
		handleFrame(message, sink)
	}
}

func handleFrame(message []byte, sink StatsApplier) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		log.Printf("[feed] Dropping malformed frame: %v", err)
		return
	}
	if f.Type != "stats" || f.EventID <= 0 || len(f.Stats) == 0 {
		return
	}

	var stats storage.StatsMap
	if err := json.Unmarshal(f.Stats, &stats); err != nil {
		log.Printf("[feed] Dropping invalid stats for event %d: %v", f.EventID, err)
		return
	}
	if len(stats) == 0 {
		return
	}

	if _, err := sink.ApplyStats(context.Background(), f.EventID, stats); err != nil {
		log.Printf("[feed] Failed to apply stats for event %d: %v", f.EventID, err)
	}
}
