// Package clients holds thin HTTP clients for external APIs.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anleague/tournament-engine/models"
)

const defaultRequestTimeout = 20 * time.Second

// CommentaryClient asks a chat-completions API for a short match narrative.
// It implements services.CommentaryGenerator; callers treat any error as a
// signal to fall back to algorithmic commentary.
type CommentaryClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewCommentaryClient(baseURL, apiKey, model string) *CommentaryClient {
	return &CommentaryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *CommentaryClient) Generate(ctx context.Context, team1, team2 *models.Team) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("commentary API key is not configured")
	}

	prompt := fmt.Sprintf(
		"Write two sentences of football commentary for a knockout match between %s (managed by %s, rating %.1f) and %s (managed by %s, rating %.1f). Do not state a final score.",
		team1.Country, team1.Manager, team1.Rating,
		team2.Country, team2.Manager, team2.Rating,
	)

	payload, err := json.Marshal(chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode commentary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create commentary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("commentary request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("commentary API returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode commentary response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("commentary API returned no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
