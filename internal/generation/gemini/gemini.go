package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"reciperag/internal/restclient"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"

	// ErrorPrefix starts every answer produced from a failed call.
	ErrorPrefix = "[Error Gemini API]"

	apiKeyHeader = "X-goog-api-key"
)

// Client calls the generateContent endpoint over HTTP.
type Client struct {
	rest     *restclient.RestClient
	endpoint string
	apiKey   string
}

type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	// Timeout of zero keeps the transport default.
	Timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{
		rest:     restclient.NewRestClient(cfg.BaseURL, nil, cfg.Timeout),
		endpoint: "/models/" + url.PathEscape(cfg.Model) + ":generateContent",
		apiKey:   cfg.APIKey,
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

// Text is a pointer so an absent or null field is told apart from "".
type responsePart struct {
	Text *string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []responsePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends prompt and returns the first candidate's text.
// Failures come back as "[Error Gemini API] <details>".
func (c *Client) Generate(ctx context.Context, prompt string) string {
	text, err := c.generate(ctx, prompt)
	if err != nil {
		return fmt.Sprintf("%s %v", ErrorPrefix, err)
	}
	return text
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}
	body, status, err := c.rest.Post(ctx, c.endpoint, req, map[string]string{apiKeyHeader: c.apiKey})
	if err != nil {
		return "", err
	}
	if !restclient.IsSuccess(status) {
		return "", fmt.Errorf("HTTP %d: %s", status, string(body))
	}
	var resp generateResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("response has no candidates")
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", errors.New("first candidate has no parts")
	}
	if parts[0].Text == nil {
		return "", errors.New("first part has no text")
	}
	return *parts[0].Text, nil
}
