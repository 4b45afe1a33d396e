package recs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const systemPrompt = `You are a sports analyst and betting expert.
Analyze the following upcoming sporting events and produce up to 5 betting recommendations.

For each recommendation provide the event id, the bet type (e.g. "Match outcome",
"Over/Under", "Handicap"), the concrete selection, a confidence between 0.5 and 0.95,
a short reasoning based on form and odds value, and whether it is a trending bet and
a value bet.

Respond with valid JSON in this format:
{"recommendations": [{"eventId": number, "betType": string, "selection": string,
"confidence": number, "reasoning": string, "isTrending": boolean, "isValueBet": boolean}]}`

// Recommendation is one AI-generated betting suggestion.
type Recommendation struct {
	EventID    int64   `json:"eventId"`
	BetType    string  `json:"betType"`
	Selection  string  `json:"selection"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	IsTrending bool    `json:"isTrending"`
	IsValueBet bool    `json:"isValueBet"`
}

// Client calls an OpenAI-compatible chat completions endpoint and parses
// the structured JSON it is instructed to return.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   "gpt-4o",
		http: &http.Client{
			// Generation takes noticeably longer than a data fetch.
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateRecommendations asks the model for betting suggestions over the
// given event context (typically the odds feed for a sport).
func (c *Client) GenerateRecommendations(ctx context.Context, events []map[string]interface{}) ([]Recommendation, error) {
	if len(events) == 0 {
		return nil, nil
	}

	eventJSON, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encode event context: %w", err)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(eventJSON)},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("completions error: %s", string(body))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("decode completions response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("completions response has no choices")
	}

	var out struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	return out.Recommendations, nil
}
