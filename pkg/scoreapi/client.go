package scoreapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// API is the remote scoring service as seen by the game.
type API interface {
	CreatePlayer(ctx context.Context, id, nickname string) (string, error)
	SaveScore(ctx context.Context, sub ScoreSubmission) error
	PlayerScores(ctx context.Context, id string) ([]ScoreEntry, error)
}

// Client talks to the scoring API over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// Ensure Client implements API interface
var _ API = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
	}
}

// CreatePlayer registers the player and returns the server's message.
func (c *Client) CreatePlayer(ctx context.Context, id, nickname string) (string, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/player", CreatePlayerRequest{ID: id, Nickname: nickname}, &resp); err != nil {
		return "", fmt.Errorf("create player failed: %w", err)
	}
	return resp.Message, nil
}

// SaveScore records a score snapshot. Any non-2xx reply is an error.
func (c *Client) SaveScore(ctx context.Context, sub ScoreSubmission) error {
	if sub.Items == nil {
		sub.Items = []string{}
	}
	if err := c.do(ctx, http.MethodPost, "/api/score", sub, nil); err != nil {
		return fmt.Errorf("save score failed: %w", err)
	}
	return nil
}

// PlayerScores returns the recorded snapshots for a player.
func (c *Client) PlayerScores(ctx context.Context, id string) ([]ScoreEntry, error) {
	var resp PlayerResponse
	if err := c.do(ctx, http.MethodGet, "/api/player/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("load player history failed: %w", err)
	}
	if resp.Scores == nil {
		return []ScoreEntry{}, nil
	}
	return resp.Scores, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
