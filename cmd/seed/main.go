package main

import (
	"context"
	"log"

	"github.com/dnhan1707/livebet/internal/config"
	"github.com/dnhan1707/livebet/internal/storage"
)

// Seeds the live stream tables with demo data so the websocket endpoint
// has something to snapshot before a real producer connects.

const schema = `
CREATE TABLE IF NOT EXISTS live_streams (
    id                  BIGSERIAL PRIMARY KEY,
    event_id            BIGINT NOT NULL,
    stream_url          TEXT NOT NULL,
    hls_url             TEXT,
    fallback_url        TEXT,
    title               TEXT NOT NULL,
    status              TEXT NOT NULL DEFAULT 'pending',
    stream_type         TEXT NOT NULL DEFAULT 'hls',
    is_active           BOOLEAN NOT NULL DEFAULT TRUE,
    quality             TEXT NOT NULL DEFAULT '720p',
    available_qualities JSONB,
    poster_url          TEXT,
    started_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    ended_at            TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS live_streams_event_active_idx ON live_streams (event_id) WHERE is_active;

CREATE TABLE IF NOT EXISTS live_stream_stats (
    id           BIGSERIAL PRIMARY KEY,
    event_id     BIGINT NOT NULL UNIQUE,
    stats        JSONB NOT NULL,
    highlights   JSONB,
    last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func strPtr(s string) *string { return &s }

func main() {
	cfg := config.Load()

	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect to postgres: ", err)
	}
	defer db.Close()

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatal("create schema: ", err)
	}
	log.Println("Schema ready.")

	streams := storage.NewStreamService(db)
	stats := storage.NewStatsService(db)

	demoStreams := []storage.StreamPayload{
		{
			EventID:            1, // Manchester City vs Arsenal
			StreamURL:          "https://example.com/streams/city-arsenal.m3u8",
			Title:              strPtr("Manchester City vs Arsenal - Live"),
			Quality:            strPtr("720p"),
			AvailableQualities: []string{"480p", "720p", "1080p"},
		},
		{
			EventID:            3, // Manchester United vs Liverpool
			StreamURL:          "https://example.com/streams/united-liverpool.m3u8",
			Title:              strPtr("Manchester United vs Liverpool - Live"),
			Quality:            strPtr("1080p"),
			AvailableQualities: []string{"480p", "720p", "1080p"},
		},
		{
			EventID:    4, // Warriors vs Nets
			StreamURL:  "https://example.com/streams/warriors-nets.webrtc",
			StreamType: strPtr("webrtc"),
			Title:      strPtr("Warriors vs Nets - Live"),
		},
	}

	for _, p := range demoStreams {
		stream, err := streams.UpsertStream(ctx, p)
		if err != nil {
			log.Fatalf("seed stream for event %d: %v", p.EventID, err)
		}
		log.Printf("Seeded stream %d for event %d (%s)", stream.ID, stream.EventID, stream.Quality)
	}

	demoStats := map[int64]storage.StatsMap{
		1: {
			"possession":    {Home: 58, Away: 42},
			"shots":         {Home: 14, Away: 9},
			"shotsOnTarget": {Home: 6, Away: 3},
			"corners":       {Home: 7, Away: 2},
			"fouls":         {Home: 10, Away: 8},
			"yellowCards":   {Home: 1, Away: 2},
			"redCards":      {Home: 0, Away: 0},
		},
		3: {
			"possession":    {Home: 45, Away: 55},
			"shots":         {Home: 8, Away: 12},
			"shotsOnTarget": {Home: 2, Away: 5},
			"corners":       {Home: 4, Away: 6},
			"fouls":         {Home: 9, Away: 7},
			"yellowCards":   {Home: 2, Away: 1},
			"redCards":      {Home: 0, Away: 0},
		},
		4: {
			"possession": {Home: 52, Away: 48},
			"rebounds":   {Home: 38, Away: 41},
			"assists":    {Home: 24, Away: 19},
			"steals":     {Home: 7, Away: 9},
			"blocks":     {Home: 4, Away: 2},
			"fouls":      {Home: 12, Away: 15},
		},
	}

	for eventID, m := range demoStats {
		if _, err := stats.UpsertStats(ctx, eventID, m); err != nil {
			log.Fatalf("seed stats for event %d: %v", eventID, err)
		}
		log.Printf("Seeded stats for event %d (%d metrics)", eventID, len(m))
	}

	log.Println("Seed finished successfully.")
}
