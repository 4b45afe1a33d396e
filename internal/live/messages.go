package live

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dnhan1707/livebet/internal/storage"
)

// Inbound frame types.
const (
	msgSubscribe    = "subscribe"
	msgStreamUpdate = "stream_update"
	msgStats        = "stats"
)

// Outbound frame types.
const (
	msgStreamInfo = "stream_info"
)

// inboundFrame is the envelope every client frame must fit. Only the fields
// relevant to the declared type are read.
type inboundFrame struct {
	Type    string          `json:"type"`
	EventID int64           `json:"eventId"`
	Stream  json.RawMessage `json:"stream"`
	Stats   json.RawMessage `json:"stats"`
}

type streamInfoFrame struct {
	Type   string              `json:"type"`
	Stream *storage.LiveStream `json:"stream"`
}

type statsFrame struct {
	Type  string             `json:"type"`
	Stats *storage.LiveStats `json:"stats"`
}

func parseFrame(data []byte) (*inboundFrame, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if frame.Type == "" {
		return nil, errors.New("missing type field")
	}
	return &frame, nil
}

func parseStreamPayload(raw json.RawMessage) (storage.StreamPayload, error) {
	var p storage.StreamPayload
	if len(raw) == 0 {
		return p, errors.New("stream_update: missing stream payload")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("stream_update: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func parseStatsMap(raw json.RawMessage) (storage.StatsMap, error) {
	if len(raw) == 0 {
		return nil, errors.New("stats: missing stats payload")
	}
	var m storage.StatsMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if len(m) == 0 {
		return nil, errors.New("stats: empty metric map")
	}
	return m, nil
}
