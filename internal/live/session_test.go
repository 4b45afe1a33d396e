package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dnhan1707/livebet/internal/storage"
)

// fakeConn records outbound frames in place of a real websocket.
type fakeConn struct {
	mu         sync.Mutex
	frames     [][]byte
	failWrites bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("write on closed socket")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeConn) decoded(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]map[string]any, 0, len(f.frames))
	for _, raw := range f.frames {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("decode outbound frame: %v", err)
		}
		out = append(out, m)
	}
	return out
}

// memStreams / memStats are in-memory stand-ins for the Postgres services,
// with the same create-defaults, merge and overwrite rules.
type memStreams struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]storage.LiveStream // keyed by stream id
}

func newMemStreams() *memStreams {
	return &memStreams{nextID: 1, rows: make(map[int64]storage.LiveStream)}
}

func (m *memStreams) GetStreamByEvent(_ context.Context, eventID int64) (*storage.LiveStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.EventID == eventID && row.IsActive {
			cp := row
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStreams) ListStreams(_ context.Context) ([]storage.LiveStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.LiveStream, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

func (m *memStreams) UpsertStream(_ context.Context, p storage.StreamPayload) (*storage.LiveStream, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID != 0 {
		cur, ok := m.rows[p.ID]
		if !ok {
			return nil, storage.ErrStreamNotFound
		}
		merged := mergeForTest(cur, p)
		m.rows[p.ID] = merged
		cp := merged
		return &cp, nil
	}

	now := time.Now().UTC()
	for id, row := range m.rows {
		if row.EventID == p.EventID && row.IsActive {
			row.IsActive = false
			row.EndedAt = &now
			m.rows[id] = row
		}
	}

	row := storage.LiveStream{
		ID:                 m.nextID,
		EventID:            p.EventID,
		StreamURL:          p.StreamURL,
		HLSURL:             p.HLSURL,
		FallbackURL:        p.FallbackURL,
		Title:              storage.DefaultTitle(p.EventID),
		Status:             "active",
		StreamType:         "hls",
		IsActive:           true,
		Quality:            "720p",
		AvailableQualities: p.AvailableQualities,
		PosterURL:          p.PosterURL,
		StartedAt:          now,
	}
	if p.Title != nil {
		row.Title = *p.Title
	}
	if p.Quality != nil {
		row.Quality = *p.Quality
	}
	if p.StreamType != nil {
		row.StreamType = *p.StreamType
	}
	m.nextID++
	m.rows[row.ID] = row
	cp := row
	return &cp, nil
}

func mergeForTest(cur storage.LiveStream, p storage.StreamPayload) storage.LiveStream {
	if p.StreamURL != "" {
		cur.StreamURL = p.StreamURL
	}
	if p.Quality != nil {
		cur.Quality = *p.Quality
	}
	if p.Title != nil {
		cur.Title = *p.Title
	}
	if p.IsActive != nil {
		cur.IsActive = *p.IsActive
	}
	return cur
}

type memStats struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]storage.LiveStats // keyed by event id
}

func newMemStats() *memStats {
	return &memStats{nextID: 1, rows: make(map[int64]storage.LiveStats)}
}

func (m *memStats) GetStatsByEvent(_ context.Context, eventID int64) (*storage.LiveStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[eventID]; ok {
		cp := row
		return &cp, nil
	}
	return nil, nil
}

func (m *memStats) UpsertStats(_ context.Context, eventID int64, stats storage.StatsMap) (*storage.LiveStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[eventID]
	if !ok {
		row = storage.LiveStats{ID: m.nextID, EventID: eventID}
		m.nextID++
	}
	row.Stats = stats // full overwrite, never a merge
	row.LastUpdated = time.Now().UTC()
	m.rows[eventID] = row
	cp := row
	return &cp, nil
}

type fixture struct {
	registry *Registry
	svc      *Service
	streams  *memStreams
	stats    *memStats
}

func newFixture() *fixture {
	registry := NewRegistry()
	streams := newMemStreams()
	stats := newMemStats()
	return &fixture{
		registry: registry,
		svc:      NewService(registry, streams, stats),
		streams:  streams,
		stats:    stats,
	}
}

func (f *fixture) connect() (*Session, *fakeConn) {
	conn := &fakeConn{}
	return NewSession(conn, f.registry, f.svc), conn
}

func send(t *testing.T, sess *Session, frame string) {
	t.Helper()
	sess.HandleMessage(context.Background(), []byte(frame))
}

func TestSubscribeWithoutDataSendsNothing(t *testing.T) {
	f := newFixture()
	sess, conn := f.connect()

	send(t, sess, `{"type":"subscribe","eventId":42}`)

	if conn.frameCount() != 0 {
		t.Fatalf("expected no snapshot frames for unknown event, got %d", conn.frameCount())
	}
	if got := len(f.registry.SubscribersOf(42)); got != 1 {
		t.Fatalf("expected 1 subscriber for event 42, got %d", got)
	}
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture()

	// X subscribes to event 42 before any data exists.
	x, xConn := f.connect()
	send(t, x, `{"type":"subscribe","eventId":42}`)
	if xConn.frameCount() != 0 {
		t.Fatalf("X should receive nothing before the first update")
	}

	// Y (a producer, not subscribed) starts the stream.
	y, yConn := f.connect()
	send(t, y, `{"type":"stream_update","stream":{"eventId":42,"streamUrl":"https://x/a.m3u8","quality":"1080p"}}`)

	xFrames := xConn.decoded(t)
	if len(xFrames) != 1 {
		t.Fatalf("X expected 1 broadcast frame, got %d", len(xFrames))
	}
	if xFrames[0]["type"] != "stream_info" {
		t.Fatalf("X expected stream_info, got %v", xFrames[0]["type"])
	}
	stream := xFrames[0]["stream"].(map[string]any)
	if stream["isActive"] != true || stream["quality"] != "1080p" {
		t.Fatalf("unexpected broadcast descriptor: %v", stream)
	}
	if yConn.frameCount() != 0 {
		t.Fatalf("Y is not subscribed to 42 and must receive nothing")
	}

	// Z subscribes after the fact and gets the descriptor as a snapshot.
	z, zConn := f.connect()
	send(t, z, `{"type":"subscribe","eventId":42}`)
	zFrames := zConn.decoded(t)
	if len(zFrames) != 1 || zFrames[0]["type"] != "stream_info" {
		t.Fatalf("Z expected a stream_info snapshot, got %v", zFrames)
	}

	// A stats push reaches both X and Z.
	send(t, y, `{"type":"stats","eventId":42,"stats":{"possession":{"home":60,"away":40}}}`)

	xFrames = xConn.decoded(t)
	if len(xFrames) != 2 || xFrames[1]["type"] != "stats" {
		t.Fatalf("X expected a stats broadcast, got %v", xFrames)
	}
	zFrames = zConn.decoded(t)
	if len(zFrames) != 2 || zFrames[1]["type"] != "stats" {
		t.Fatalf("Z expected a stats broadcast, got %v", zFrames)
	}
	snapshot := xFrames[1]["stats"].(map[string]any)
	metrics := snapshot["stats"].(map[string]any)
	possession := metrics["possession"].(map[string]any)
	if possession["home"].(float64) != 60 {
		t.Fatalf("unexpected possession value: %v", possession)
	}
}

func TestStatsOverwriteSemantics(t *testing.T) {
	f := newFixture()
	viewer, conn := f.connect()
	send(t, viewer, `{"type":"subscribe","eventId":7}`)

	producer, _ := f.connect()
	send(t, producer, `{"type":"stats","eventId":7,"stats":{"possession":{"home":50,"away":50}}}`)
	send(t, producer, `{"type":"stats","eventId":7,"stats":{"shots":{"home":3,"away":2}}}`)

	frames := conn.decoded(t)
	if len(frames) != 2 {
		t.Fatalf("expected 2 stats broadcasts, got %d", len(frames))
	}
	metrics := frames[1]["stats"].(map[string]any)["stats"].(map[string]any)
	if _, ok := metrics["possession"]; ok {
		t.Fatalf("second snapshot must not retain possession: %v", metrics)
	}
	if _, ok := metrics["shots"]; !ok {
		t.Fatalf("second snapshot must contain shots: %v", metrics)
	}

	persisted, err := f.stats.GetStatsByEvent(context.Background(), 7)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if _, ok := persisted.Stats["possession"]; ok {
		t.Fatalf("persisted snapshot must be fully overwritten: %v", persisted.Stats)
	}
}

func TestMalformedFramesAreDropped(t *testing.T) {
	f := newFixture()
	sess, conn := f.connect()
	send(t, sess, `{"type":"subscribe","eventId":5}`)

	send(t, sess, `this is not json`)
	send(t, sess, `{"type":"bogus","eventId":5}`)
	send(t, sess, `{"eventId":5}`)
	send(t, sess, `{"type":"stream_update","stream":{"eventId":5}}`)
	send(t, sess, `{"type":"stats","eventId":5,"stats":{"shots":{"home":1}}}`)

	if conn.frameCount() != 0 {
		t.Fatalf("malformed frames must not produce outbound frames, got %d", conn.frameCount())
	}

	// The connection still works afterwards.
	producer, _ := f.connect()
	send(t, producer, `{"type":"stats","eventId":5,"stats":{"shots":{"home":1,"away":0}}}`)
	if conn.frameCount() != 1 {
		t.Fatalf("connection should keep receiving broadcasts after bad frames")
	}
}

func TestFailedPersistSkipsBroadcast(t *testing.T) {
	f := newFixture()
	viewer, conn := f.connect()
	send(t, viewer, `{"type":"subscribe","eventId":9}`)

	// Update referencing a stream id that does not exist.
	producer, _ := f.connect()
	send(t, producer, `{"type":"stream_update","stream":{"id":12345,"quality":"1080p"}}`)

	if conn.frameCount() != 0 {
		t.Fatalf("a failed upsert must not broadcast, got %d frames", conn.frameCount())
	}
}

func TestClosedPeerIsSkippedWithoutStoppingFanOut(t *testing.T) {
	f := newFixture()

	healthy, healthyConn := f.connect()
	send(t, healthy, `{"type":"subscribe","eventId":3}`)

	broken, brokenConn := f.connect()
	send(t, broken, `{"type":"subscribe","eventId":3}`)
	brokenConn.failWrites = true

	producer, _ := f.connect()
	send(t, producer, `{"type":"stats","eventId":3,"stats":{"corners":{"home":2,"away":1}}}`)

	if healthyConn.frameCount() != 1 {
		t.Fatalf("healthy subscriber must still receive the broadcast")
	}

	// A later broadcast skips the now-closed peer silently.
	send(t, producer, `{"type":"stats","eventId":3,"stats":{"corners":{"home":3,"away":1}}}`)
	if healthyConn.frameCount() != 2 {
		t.Fatalf("fan-out must continue for remaining subscribers")
	}
}

func TestResubscribeMovesBinding(t *testing.T) {
	f := newFixture()
	sess, conn := f.connect()
	send(t, sess, `{"type":"subscribe","eventId":1}`)
	send(t, sess, `{"type":"subscribe","eventId":2}`)

	producer, _ := f.connect()
	send(t, producer, `{"type":"stats","eventId":1,"stats":{"shots":{"home":1,"away":0}}}`)
	if conn.frameCount() != 0 {
		t.Fatalf("broadcast to the old event must not reach the moved session")
	}

	send(t, producer, `{"type":"stats","eventId":2,"stats":{"shots":{"home":0,"away":1}}}`)
	if conn.frameCount() != 1 {
		t.Fatalf("broadcast to the new event must reach the moved session")
	}
	if sess.EventID() != 2 {
		t.Fatalf("session should report event 2, got %d", sess.EventID())
	}
}
