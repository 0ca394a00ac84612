// Package flights fetches the arrivals and departures board for one airport
// from the airport-ops backend.
package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// FetchFailedMessage is the human-readable text of every FetchError.
const FetchFailedMessage = "Unable to fetch Aviationstack data."

// FetchError reports a failed board fetch. Status is zero for transport
// and decode failures.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string { return FetchFailedMessage }

func (e *FetchError) Unwrap() error { return e.Err }

// Detail describes the underlying cause for logs.
func (e *FetchError) Detail() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("HTTP %d", e.Status)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "unknown"
	}
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

// Client is a typed HTTP client for the backend's aviationstack board endpoint.
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

// FetchFlights performs one GET of the board for airport, asking for at
// most limit flights per direction. It never retries.
func (c *Client) FetchFlights(ctx context.Context, airport string, limit int) (Board, error) {
	u := fmt.Sprintf("%s/flights/aviationstack/%s?%s", c.baseURL, url.PathEscape(airport),
		url.Values{"limit": {strconv.Itoa(limit)}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Board{}, &FetchError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Board{}, &FetchError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Board{}, &FetchError{Status: resp.StatusCode}
	}

	var board Board
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return Board{}, &FetchError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	if board.Airport == "" {
		board.Airport = airport
	}
	if board.Departures == nil {
		board.Departures = []Flight{}
	}
	if board.Arrivals == nil {
		board.Arrivals = []Flight{}
	}

	c.logger.Debug("board fetched", "airport", airport, "limit", limit,
		"departures", len(board.Departures), "arrivals", len(board.Arrivals))
	return board, nil
}
