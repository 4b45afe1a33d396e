package live

import (
	"context"
	"log"

	"github.com/dnhan1707/livebet/internal/storage"
)

// StreamStore is the slice of the stream persistence layer the live core
// depends on.
type StreamStore interface {
	GetStreamByEvent(ctx context.Context, eventID int64) (*storage.LiveStream, error)
	ListStreams(ctx context.Context) ([]storage.LiveStream, error)
	UpsertStream(ctx context.Context, p storage.StreamPayload) (*storage.LiveStream, error)
}

// StatsStore is the slice of the stats persistence layer the live core
// depends on.
type StatsStore interface {
	GetStatsByEvent(ctx context.Context, eventID int64) (*storage.LiveStats, error)
	UpsertStats(ctx context.Context, eventID int64, stats storage.StatsMap) (*storage.LiveStats, error)
}

// Service is the ingest path for live updates: it persists an update, then
// fans the canonical record out to every subscriber of the event. The same
// path serves websocket producers, the REST producer routes and the feed
// adapter, so every subscriber sees storage-confirmed data regardless of
// where an update came from.
type Service struct {
	registry *Registry
	streams  StreamStore
	stats    StatsStore
}

func NewService(registry *Registry, streams StreamStore, stats StatsStore) *Service {
	return &Service{
		registry: registry,
		streams:  streams,
		stats:    stats,
	}
}

// ApplyStreamUpdate persists a stream create-or-update and broadcasts the
// resulting descriptor. The broadcast only happens once persistence has
// succeeded; a failed upsert produces no broadcast at all.
func (s *Service) ApplyStreamUpdate(ctx context.Context, p storage.StreamPayload) (*storage.LiveStream, error) {
	stream, err := s.streams.UpsertStream(ctx, p)
	if err != nil {
		return nil, err
	}
	s.registry.Broadcast(stream.EventID, streamInfoFrame{Type: msgStreamInfo, Stream: stream})
	return stream, nil
}

// ApplyStats persists a full-overwrite stats update and broadcasts the
// resulting snapshot.
func (s *Service) ApplyStats(ctx context.Context, eventID int64, stats storage.StatsMap) (*storage.LiveStats, error) {
	snapshot, err := s.stats.UpsertStats(ctx, eventID, stats)
	if err != nil {
		return nil, err
	}
	s.registry.Broadcast(eventID, statsFrame{Type: msgStats, Stats: snapshot})
	return snapshot, nil
}

// SendSnapshot pushes the latest known stream and stats for an event to a
// single just-subscribed session. Missing rows are not an error; the
// session simply waits for the next broadcast.
func (s *Service) SendSnapshot(ctx context.Context, sess *Session, eventID int64) {
	stream, err := s.streams.GetStreamByEvent(ctx, eventID)
	if err != nil {
		log.Printf("live: snapshot stream load failed for event %d: %v", eventID, err)
	} else if stream != nil {
		sess.Send(streamInfoFrame{Type: msgStreamInfo, Stream: stream})
	}

	stats, err := s.stats.GetStatsByEvent(ctx, eventID)
	if err != nil {
		log.Printf("live: snapshot stats load failed for event %d: %v", eventID, err)
	} else if stats != nil {
		sess.Send(statsFrame{Type: msgStats, Stats: stats})
	}
}

// StreamByEvent exposes the active stream read for the REST layer.
func (s *Service) StreamByEvent(ctx context.Context, eventID int64) (*storage.LiveStream, error) {
	return s.streams.GetStreamByEvent(ctx, eventID)
}

// Streams exposes the full descriptor listing for the REST layer.
func (s *Service) Streams(ctx context.Context) ([]storage.LiveStream, error) {
	return s.streams.ListStreams(ctx)
}

// StatsByEvent exposes the stats snapshot read for the REST layer.
func (s *Service) StatsByEvent(ctx context.Context, eventID int64) (*storage.LiveStats, error) {
	return s.stats.GetStatsByEvent(ctx, eventID)
}
