package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrStreamNotFound is returned when an update references a stream id that
// does not exist.
var ErrStreamNotFound = errors.New("live stream not found")

type StreamService struct {
	db *sql.DB
}

func NewStreamService(db *sql.DB) *StreamService {
	return &StreamService{db: db}
}

const streamColumns = `id, event_id, stream_url, hls_url, fallback_url, title, status, stream_type, is_active, quality, available_qualities, poster_url, started_at, ended_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStream(row rowScanner) (*LiveStream, error) {
	var s LiveStream
	var qualities []byte
	err := row.Scan(
		&s.ID,
		&s.EventID,
		&s.StreamURL,
		&s.HLSURL,
		&s.FallbackURL,
		&s.Title,
		&s.Status,
		&s.StreamType,
		&s.IsActive,
		&s.Quality,
		&qualities,
		&s.PosterURL,
		&s.StartedAt,
		&s.EndedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(qualities) > 0 {
		if err := json.Unmarshal(qualities, &s.AvailableQualities); err != nil {
			return nil, fmt.Errorf("decode available_qualities: %w", err)
		}
	}
	return &s, nil
}

func marshalQualities(qualities []string) (any, error) {
	if qualities == nil {
		return nil, nil
	}
	b, err := json.Marshal(qualities)
	if err != nil {
		return nil, fmt.Errorf("encode available_qualities: %w", err)
	}
	return b, nil
}

// GetStreamByEvent returns the active stream for an event, or nil when the
// event has no active stream.
func (s *StreamService) GetStreamByEvent(ctx context.Context, eventID int64) (*LiveStream, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+streamColumns+`
         FROM live_streams
         WHERE event_id = $1 AND is_active
         ORDER BY started_at DESC
         LIMIT 1`,
		eventID,
	)
	stream, err := scanStream(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stream for event %d: %w", eventID, err)
	}
	return stream, nil
}

// ListStreams returns every stream descriptor, newest first.
func (s *StreamService) ListStreams(ctx context.Context) ([]LiveStream, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+streamColumns+` FROM live_streams ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	defer rows.Close()

	var streams []LiveStream
	for rows.Next() {
		stream, err := scanStream(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		streams = append(streams, *stream)
	}
	return streams, rows.Err()
}

// UpsertStream creates a new active stream when the payload carries no id,
// or merges the provided fields onto the stored row when it does. The
// returned descriptor is always the canonical, persisted record.
func (s *StreamService) UpsertStream(ctx context.Context, p StreamPayload) (*LiveStream, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ID != 0 {
		return s.updateStream(ctx, p)
	}
	return s.createStream(ctx, p)
}

func (s *StreamService) createStream(ctx context.Context, p StreamPayload) (*LiveStream, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create stream: %w", err)
	}
	defer tx.Rollback()

	// Only one descriptor may be active per event; retire any prior one
	// before inserting the replacement.
	_, err = tx.ExecContext(ctx,
		`UPDATE live_streams
         SET is_active = FALSE, ended_at = NOW()
         WHERE event_id = $1 AND is_active`,
		p.EventID,
	)
	if err != nil {
		return nil, fmt.Errorf("deactivate prior streams for event %d: %w", p.EventID, err)
	}

	ins := applyCreateDefaults(p)
	qualities, err := marshalQualities(ins.AvailableQualities)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx,
		`INSERT INTO live_streams
           (event_id, stream_url, hls_url, fallback_url, title, status, stream_type, is_active, quality, available_qualities, poster_url, started_at, ended_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9, $10, NOW(), NULL)
         RETURNING `+streamColumns,
		ins.EventID, ins.StreamURL, ins.HLSURL, ins.FallbackURL,
		ins.Title, ins.Status, ins.StreamType, ins.Quality, qualities, ins.PosterURL,
	)
	stream, err := scanStream(row)
	if err != nil {
		return nil, fmt.Errorf("insert stream for event %d: %w", p.EventID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create stream: %w", err)
	}
	return stream, nil
}

func (s *StreamService) updateStream(ctx context.Context, p StreamPayload) (*LiveStream, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update stream: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+streamColumns+` FROM live_streams WHERE id = $1 FOR UPDATE`, p.ID)
	current, err := scanStream(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stream %d: %w", p.ID, ErrStreamNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load stream %d: %w", p.ID, err)
	}

	merged := mergeStream(*current, p)
	qualities, err := marshalQualities(merged.AvailableQualities)
	if err != nil {
		return nil, err
	}

	// Reactivating a row must retire any other active descriptor for the
	// event, same rule as the create path.
	if merged.IsActive {
		_, err = tx.ExecContext(ctx,
			`UPDATE live_streams
             SET is_active = FALSE, ended_at = NOW()
             WHERE event_id = $1 AND is_active AND id <> $2`,
			merged.EventID, merged.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("deactivate prior streams for event %d: %w", merged.EventID, err)
		}
	}

	row = tx.QueryRowContext(ctx,
		`UPDATE live_streams
         SET event_id = $2, stream_url = $3, hls_url = $4, fallback_url = $5,
             title = $6, status = $7, stream_type = $8, is_active = $9,
             quality = $10, available_qualities = $11, poster_url = $12, ended_at = $13
         WHERE id = $1
         RETURNING `+streamColumns,
		merged.ID, merged.EventID, merged.StreamURL, merged.HLSURL, merged.FallbackURL,
		merged.Title, merged.Status, merged.StreamType, merged.IsActive,
		merged.Quality, qualities, merged.PosterURL, merged.EndedAt,
	)
	stream, err := scanStream(row)
	if err != nil {
		return nil, fmt.Errorf("update stream %d: %w", p.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update stream: %w", err)
	}
	return stream, nil
}

// applyCreateDefaults fills the defaults for a brand-new stream. A create
// is always activated regardless of the payload's isActive flag.
func applyCreateDefaults(p StreamPayload) LiveStream {
	out := LiveStream{
		EventID:            p.EventID,
		StreamURL:          p.StreamURL,
		HLSURL:             p.HLSURL,
		FallbackURL:        p.FallbackURL,
		Title:              DefaultTitle(p.EventID),
		Status:             "active",
		StreamType:         "hls",
		IsActive:           true,
		Quality:            "720p",
		AvailableQualities: p.AvailableQualities,
		PosterURL:          p.PosterURL,
	}
	if p.Title != nil && *p.Title != "" {
		out.Title = *p.Title
	}
	if p.Status != nil && *p.Status != "" {
		out.Status = *p.Status
	}
	if p.StreamType != nil && *p.StreamType != "" {
		out.StreamType = *p.StreamType
	}
	if p.Quality != nil && *p.Quality != "" {
		out.Quality = *p.Quality
	}
	return out
}

// mergeStream overlays the provided payload fields onto the stored row.
// Nil pointers leave the stored value untouched.
func mergeStream(current LiveStream, p StreamPayload) LiveStream {
	if p.EventID > 0 {
		current.EventID = p.EventID
	}
	if p.StreamURL != "" {
		current.StreamURL = p.StreamURL
	}
	if p.HLSURL != nil {
		current.HLSURL = p.HLSURL
	}
	if p.FallbackURL != nil {
		current.FallbackURL = p.FallbackURL
	}
	if p.Title != nil {
		current.Title = *p.Title
	}
	if p.Status != nil {
		current.Status = *p.Status
	}
	if p.StreamType != nil {
		current.StreamType = *p.StreamType
	}
	if p.Quality != nil {
		current.Quality = *p.Quality
	}
	if p.AvailableQualities != nil {
		current.AvailableQualities = p.AvailableQualities
	}
	if p.PosterURL != nil {
		current.PosterURL = p.PosterURL
	}
	if p.IsActive != nil {
		current.IsActive = *p.IsActive
		if current.IsActive {
			current.EndedAt = nil
		} else if current.EndedAt == nil {
			now := time.Now().UTC()
			current.EndedAt = &now
		}
	}
	return current
}
