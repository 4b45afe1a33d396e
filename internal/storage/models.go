package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// LiveStream is the persisted descriptor for one event's video broadcast.
// At most one row per event is active at a time; older rows are kept but
// deactivated.
type LiveStream struct {
	ID                 int64      `json:"id"`
	EventID            int64      `json:"eventId"`
	StreamURL          string     `json:"streamUrl"`
	HLSURL             *string    `json:"hlsUrl"`
	FallbackURL        *string    `json:"fallbackUrl"`
	Title              string     `json:"title"`
	Status             string     `json:"status"`
	StreamType         string     `json:"streamType"`
	IsActive           bool       `json:"isActive"`
	Quality            string     `json:"quality"`
	AvailableQualities []string   `json:"availableQualities"`
	PosterURL          *string    `json:"posterUrl"`
	StartedAt          time.Time  `json:"startedAt"`
	EndedAt            *time.Time `json:"endedAt"`
}

// StreamPayload is an inbound create-or-update request for a live stream.
// A zero ID means "create a new active stream for EventID"; a non-zero ID
// means "merge the provided fields onto the existing row". Pointer fields
// are left untouched on update when nil.
type StreamPayload struct {
	ID                 int64    `json:"id"`
	EventID            int64    `json:"eventId"`
	StreamURL          string   `json:"streamUrl"`
	HLSURL             *string  `json:"hlsUrl"`
	FallbackURL        *string  `json:"fallbackUrl"`
	Title              *string  `json:"title"`
	Status             *string  `json:"status"`
	StreamType         *string  `json:"streamType"`
	IsActive           *bool    `json:"isActive"`
	Quality            *string  `json:"quality"`
	AvailableQualities []string `json:"availableQualities"`
	PosterURL          *string  `json:"posterUrl"`
}

// Validate checks the minimum shape required before the payload touches
// the database.
func (p StreamPayload) Validate() error {
	if p.ID != 0 {
		return nil
	}
	if p.EventID <= 0 {
		return errors.New("stream payload: eventId is required")
	}
	if p.StreamURL == "" {
		return errors.New("stream payload: streamUrl is required")
	}
	return nil
}

// StatPair is one metric's home/away values.
type StatPair struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// UnmarshalJSON requires both sides to be present so a half-formed metric
// never reaches storage or subscribers.
func (p *StatPair) UnmarshalJSON(data []byte) error {
	var aux struct {
		Home *float64 `json:"home"`
		Away *float64 `json:"away"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Home == nil || aux.Away == nil {
		return errors.New("stat pair: home and away are required")
	}
	p.Home = *aux.Home
	p.Away = *aux.Away
	return nil
}

// StatsMap is the sport-agnostic metric map. Keys are not fixed
// (possession, shots, corners, rebounds, ...); an absent key means
// "unknown", not zero.
type StatsMap map[string]StatPair

// Highlight marks one key moment in a match.
type Highlight struct {
	Time        float64 `json:"time"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
}

// LiveStats is the persisted statistics snapshot for one event. The map is
// replaced wholesale on every update; highlights are kept across updates.
type LiveStats struct {
	ID          int64       `json:"id"`
	EventID     int64       `json:"eventId"`
	Stats       StatsMap    `json:"stats"`
	Highlights  []Highlight `json:"highlights"`
	LastUpdated time.Time   `json:"lastUpdated"`
}

// DefaultTitle is the title used when a producer starts a stream without one.
func DefaultTitle(eventID int64) string {
	return fmt.Sprintf("Event #%d Stream", eventID)
}
