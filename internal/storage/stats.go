package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type StatsService struct {
	db *sql.DB
}

func NewStatsService(db *sql.DB) *StatsService {
	return &StatsService{db: db}
}

const statsColumns = `id, event_id, stats, highlights, last_updated`

func scanStats(row rowScanner) (*LiveStats, error) {
	var st LiveStats
	var statsRaw, highlightsRaw []byte
	if err := row.Scan(&st.ID, &st.EventID, &statsRaw, &highlightsRaw, &st.LastUpdated); err != nil {
		return nil, err
	}
	if len(statsRaw) > 0 {
		if err := json.Unmarshal(statsRaw, &st.Stats); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
	}
	if len(highlightsRaw) > 0 {
		if err := json.Unmarshal(highlightsRaw, &st.Highlights); err != nil {
			return nil, fmt.Errorf("decode highlights: %w", err)
		}
	}
	return &st, nil
}

// GetStatsByEvent returns the stats snapshot for an event, or nil when no
// stats have been recorded yet.
func (s *StatsService) GetStatsByEvent(ctx context.Context, eventID int64) (*LiveStats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+statsColumns+` FROM live_stream_stats WHERE event_id = $1`, eventID)
	st, err := scanStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stats for event %d: %w", eventID, err)
	}
	return st, nil
}

// UpsertStats replaces the whole metric map for an event and bumps the
// timestamp. Highlights recorded on the row survive the overwrite.
func (s *StatsService) UpsertStats(ctx context.Context, eventID int64, stats StatsMap) (*LiveStats, error) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("encode stats: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO live_stream_stats (event_id, stats, last_updated)
         VALUES ($1, $2, NOW())
         ON CONFLICT (event_id)
         DO UPDATE SET stats = EXCLUDED.stats, last_updated = NOW()
         RETURNING `+statsColumns,
		eventID, raw,
	)
	st, err := scanStats(row)
	if err != nil {
		return nil, fmt.Errorf("upsert stats for event %d: %w", eventID, err)
	}
	return st, nil
}
