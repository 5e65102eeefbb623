package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ChatClient implements the Guesser interface against any
// OpenAI-compatible chat completions endpoint (OpenAI, DeepSeek,
// self-hosted gateways).
type ChatClient struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewChatClient creates a new ChatClient instance.
func NewChatClient(baseURL, apiKey, modelName string) (*ChatClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("chat api base url is required")
	}
	if modelName == "" {
		modelName = "deepseek-chat"
	}

	return &ChatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GuessBill sends the OCR text to the chat endpoint and parses the
// response. One attempt, bounded by the client timeout.
func (c *ChatClient) GuessBill(ctx context.Context, ocrText string) (*Guess, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reqBody := chatRequest{
		Model:       c.model,
		Temperature: 0.1,
		Messages: []chatMessage{
			{Role: "system", Content: billGuessPrompt},
			{Role: "user", Content: ocrText},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling chat API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in chat response")
	}

	return ParseGuess(chatResp.Choices[0].Message.Content, time.Now()), nil
}

// Close closes the ChatClient (no-op for HTTP client).
func (c *ChatClient) Close() error {
	return nil
}
