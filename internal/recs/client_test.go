package recs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateRecommendations(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("path=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("missing bearer token")
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		rf := req["response_format"].(map[string]any)
		if rf["type"] != "json_object" {
			t.Fatalf("expected json_object response format, got %v", rf)
		}

		content, _ := json.Marshal(map[string]any{
			"recommendations": []map[string]any{
				{
					"eventId":    42,
					"betType":    "Match outcome",
					"selection":  "Arsenal",
					"confidence": 0.72,
					"reasoning":  "strong away form",
					"isTrending": true,
					"isValueBet": false,
				},
			},
		})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": string(content)}},
			},
		})
	}))
	defer up.Close()

	c := New(up.URL, "test-key")
	recs, err := c.GenerateRecommendations(context.Background(), []map[string]interface{}{
		{"id": "abc", "home_team": "Chelsea", "away_team": "Arsenal"},
	})
	if err != nil {
		t.Fatalf("GenerateRecommendations error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	rec := recs[0]
	if rec.EventID != 42 || rec.Selection != "Arsenal" || rec.Confidence != 0.72 || !rec.IsTrending {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
}

func TestGenerateRecommendations_NoEvents(t *testing.T) {
	c := New("http://unused", "k")
	recs, err := c.GenerateRecommendations(context.Background(), nil)
	if err != nil {
		t.Fatalf("no events should be a no-op, got %v", err)
	}
	if recs != nil {
		t.Fatalf("expected nil recommendations, got %v", recs)
	}
}

func TestGenerateRecommendations_BadContent(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "sorry, I cannot do that"}},
			},
		})
	}))
	defer up.Close()

	c := New(up.URL, "k")
	if _, err := c.GenerateRecommendations(context.Background(), []map[string]interface{}{{"id": "x"}}); err == nil {
		t.Fatalf("expected error for non-JSON model output")
	}
}
