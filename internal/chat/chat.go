// Package chat keeps the conversation with the airport assistant: the
// message log, the pending input, and the single outstanding question.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/subham/airportboard/internal/assistant"
)

// NoResponse is shown when the assistant answers with an empty string.
const NoResponse = "No response."

var (
	// ErrEmptyQuestion is returned for blank input; nothing is sent.
	ErrEmptyQuestion = errors.New("chat: question is empty")
	// ErrSendInFlight is returned while an earlier question is unanswered.
	ErrSendInFlight = errors.New("chat: a question is already being answered")
)

// Role says who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the log.
type Message struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Asker answers questions about an airport.
type Asker interface {
	Ask(ctx context.Context, question, airport string) (assistant.Answer, error)
}

// Snapshot is a copy of the controller state for rendering.
type Snapshot struct {
	Messages []Message `json:"messages"`
	Error    string    `json:"error,omitempty"`
	Input    string    `json:"input"`
	Sending  bool      `json:"sending"`
}

// Greeting returns the opening assistant line for airport.
func Greeting(airport string) string {
	return fmt.Sprintf("Ask me about the latest %s flights, gates, or trends.", airport)
}

// Controller owns one conversation.
type Controller struct {
	asker   Asker
	airport string
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	messages []Message
	input    string
	err      string
	sending  bool
}

// New creates a controller seeded with the greeting.
func New(asker Asker, airport string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		asker:   asker,
		airport: airport,
		logger:  logger.With("component", "chat"),
		now:     time.Now,
	}
	c.messages = []Message{c.message(RoleAssistant, Greeting(airport))}
	return c
}

func (c *Controller) message(role Role, text string) Message {
	return Message{ID: uuid.New(), Role: role, Text: text, At: c.now()}
}

// SetInput replaces the pending input.
func (c *Controller) SetInput(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = s
}

// Input returns the pending input.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// CanSend reports whether Submit would send something.
func (c *Controller) CanSend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.sending && strings.TrimSpace(c.input) != ""
}

// Submit sends the pending input.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	text := c.input
	c.mu.Unlock()
	return c.Send(ctx, text)
}

// Send asks text and blocks until the answer or failure is recorded.
func (c *Controller) Send(ctx context.Context, text string) error {
	question := strings.TrimSpace(text)
	if question == "" {
		return ErrEmptyQuestion
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.sending = true
	c.messages = append(c.messages, c.message(RoleUser, question))
	c.input = ""
	c.err = ""
	c.mu.Unlock()

	c.logger.Debug("asking assistant", "airport", c.airport, "chars", len(question))
	ans, err := c.asker.Ask(ctx, question, c.airport)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if err != nil {
		c.err = errorMessage(err)
		c.logger.Warn("assistant request failed", "error", err)
		return err
	}

	reply := ans.Answer
	if reply == "" {
		reply = NoResponse
	}
	c.messages = append(c.messages, c.message(RoleAssistant, reply))
	return nil
}

// Clear drops the conversation back to the greeting.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = []Message{c.message(RoleAssistant, Greeting(c.airport))}
	c.err = ""
	c.input = ""
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]Message, len(c.messages))
	copy(msgs, c.messages)
	return Snapshot{Messages: msgs, Error: c.err, Input: c.input, Sending: c.sending}
}

func errorMessage(err error) string {
	var ae *assistant.Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return assistant.FallbackMessage
}
