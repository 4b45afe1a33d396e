package oddsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_GetSports(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sports" {
			t.Fatalf("path=%s", r.URL.Path)
		}
		if r.URL.Query().Get("apiKey") != "test-key" {
			t.Fatalf("missing apiKey query")
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"key": "soccer_epl", "title": "EPL", "active": true},
			{"key": "basketball_nba", "title": "NBA", "active": true},
		})
	}))
	defer up.Close()

	c := New(up.URL, "test-key")
	sports, err := c.GetSports(context.Background())
	if err != nil {
		t.Fatalf("GetSports error: %v", err)
	}
	if len(sports) != 2 || sports[0]["key"] != "soccer_epl" {
		t.Fatalf("unexpected sports: %v", sports)
	}
}

func TestClient_GetOdds_URLAndParse(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sports/soccer_epl/odds" {
			t.Fatalf("path=%s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("regions") != "uk" || q.Get("markets") != "totals" {
			t.Fatalf("query mismatch: %s", r.URL.RawQuery)
		}
		if q.Get("oddsFormat") != "decimal" {
			t.Fatalf("oddsFormat must be decimal")
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "abc", "home_team": "Arsenal", "away_team": "Chelsea"},
		})
	}))
	defer up.Close()

	c := New(up.URL, "k")
	events, err := c.GetOdds(context.Background(), "soccer_epl", "uk", "totals")
	if err != nil {
		t.Fatalf("GetOdds error: %v", err)
	}
	if len(events) != 1 || events[0]["home_team"] != "Arsenal" {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestClient_UpstreamError(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"quota exceeded"}`, http.StatusUnauthorized)
	}))
	defer up.Close()

	c := New(up.URL, "k")
	if _, err := c.GetSports(context.Background()); err == nil {
		t.Fatalf("expected error on 4xx response")
	}
}
