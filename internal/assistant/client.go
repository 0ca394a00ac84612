// Package assistant sends free-text questions about the airport to the
// backend's AI endpoint.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// FallbackMessage is used when the backend gives no usable error detail.
const FallbackMessage = "Unable to reach the AI assistant."

// ErrEmptyQuestion is returned for blank questions; no request is made.
var ErrEmptyQuestion = errors.New("assistant: question is empty")

// Error reports a failed question. Message is safe to show to the user.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Answer is the backend's reply.
type Answer struct {
	Answer string `json:"answer"`
}

type askRequest struct {
	Question string `json:"question"`
	Airport  string `json:"airport"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// Client posts questions to <base>/ai/ask.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask sends question about airport and returns the parsed reply.
// The caller is expected to trim the question.
func (c *Client) Ask(ctx context.Context, question, airport string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, ErrEmptyQuestion
	}

	body, err := json.Marshal(askRequest{Question: question, Airport: airport})
	if err != nil {
		return Answer{}, &Error{Message: FallbackMessage, Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ai/ask", bytes.NewReader(body))
	if err != nil {
		return Answer{}, &Error{Message: FallbackMessage, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Answer{}, &Error{Message: FallbackMessage, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := FallbackMessage
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && strings.TrimSpace(eb.Detail) != "" {
			msg = eb.Detail
		}
		c.logger.Warn("assistant request rejected", "status", resp.StatusCode, "detail", msg)
		return Answer{}, &Error{Status: resp.StatusCode, Message: msg}
	}

	var ans Answer
	if err := json.NewDecoder(resp.Body).Decode(&ans); err != nil {
		return Answer{}, &Error{Status: resp.StatusCode, Message: FallbackMessage, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return ans, nil
}
